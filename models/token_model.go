package models

import "time"

// PasswordSetupToken is a single-use credential for setting an account password.
type PasswordSetupToken struct {
	Value     string
	ExpiresAt time.Time
}

func (t PasswordSetupToken) Usable(now time.Time) bool {
	return t.Value != "" && now.Before(t.ExpiresAt)
}
