package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFeeSettingsMath(t *testing.T) {
	s := FeeSettings{FeePercentage: decimal.RequireFromString("0.3")}
	assert.EqualValues(t, 30, s.BasisPoints())
	assert.True(t, s.FeeFor(decimal.NewFromInt(1000)).Equal(decimal.NewFromInt(3)))

	s.FeePercentage = decimal.RequireFromString("0.125")
	assert.EqualValues(t, 13, s.BasisPoints())

	s.FeePercentage = decimal.RequireFromString("0.3")
	fee := s.FeeFor(decimal.RequireFromString("1.23456789"))
	assert.Equal(t, "0.0037037", fee.String())
	assert.True(t, fee.Equal(fee.Round(UsdScale)))
}

func TestDisplayNameFallsBack(t *testing.T) {
	email, wallet := "ops@example.com", "0xA"
	assert.Equal(t, "Ops", (&User{Name: "Ops", Email: &email}).DisplayName())
	assert.Equal(t, email, (&User{Email: &email, WalletAddress: &wallet}).DisplayName())
	assert.Equal(t, wallet, (&User{WalletAddress: &wallet}).DisplayName())
	assert.Empty(t, (&User{}).DisplayName())
}

func TestSetupTokenLifecycle(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	u := &User{}
	assert.Nil(t, u.SetupToken())

	u.IssueSetupToken(PasswordSetupToken{Value: "abc", ExpiresAt: now.Add(time.Hour)})
	tok := u.SetupToken()
	if assert.NotNil(t, tok) {
		assert.True(t, tok.Usable(now))
		assert.False(t, tok.Usable(now.Add(2*time.Hour)))
	}

	u.ClearSetupToken()
	assert.Nil(t, u.SetupToken())
	assert.False(t, PasswordSetupToken{ExpiresAt: now.Add(time.Hour)}.Usable(now))
}

func TestUserRoles(t *testing.T) {
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
	assert.True(t, (&User{Role: RoleSuperAdmin}).IsAdmin())
	assert.False(t, (&User{Role: RoleUser}).IsAdmin())
}
