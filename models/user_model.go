package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

type User struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	WalletAddress *string   `gorm:"size:128;uniqueIndex" json:"walletAddress,omitempty"`
	Email         *string   `gorm:"size:255;uniqueIndex" json:"email,omitempty"`
	Name          string    `gorm:"size:255" json:"name,omitempty"`
	Password      string    `json:"-"`
	Role          string    `gorm:"size:20;not null;default:'user'" json:"role"`

	ReferralCode   *string         `gorm:"size:16;uniqueIndex" json:"referralCode,omitempty"`
	ReferredByCode *string         `gorm:"size:16;index" json:"referredByCode,omitempty"`
	Points         int64           `gorm:"not null;default:0" json:"points"`
	TotalUsdTraded decimal.Decimal `gorm:"type:numeric(38,8);not null;default:0" json:"totalUsdTraded"`

	PasswordSetupToken     *string    `gorm:"size:64;uniqueIndex" json:"-"`
	PasswordSetupExpiresAt *time.Time `json:"-"`
	EmailVerified          bool       `gorm:"not null;default:false" json:"emailVerified"`
	IsActive               bool       `gorm:"not null;default:true" json:"isActive"`
	LastLogin              *time.Time `json:"lastLogin,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}

// DisplayName picks the first non-empty of name, email and wallet.
func (u *User) DisplayName() string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Email != nil && *u.Email != "":
		return *u.Email
	case u.WalletAddress != nil:
		return *u.WalletAddress
	}
	return ""
}

// SetupToken returns the pending password setup token, if any.
func (u *User) SetupToken() *PasswordSetupToken {
	if u.PasswordSetupToken == nil || u.PasswordSetupExpiresAt == nil {
		return nil
	}
	return &PasswordSetupToken{Value: *u.PasswordSetupToken, ExpiresAt: *u.PasswordSetupExpiresAt}
}

func (u *User) IssueSetupToken(t PasswordSetupToken) {
	value, expires := t.Value, t.ExpiresAt
	u.PasswordSetupToken = &value
	u.PasswordSetupExpiresAt = &expires
}

func (u *User) ClearSetupToken() {
	u.PasswordSetupToken = nil
	u.PasswordSetupExpiresAt = nil
}
