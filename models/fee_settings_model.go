package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Decimal places kept by the numeric money and percentage columns.
const (
	UsdScale = 8
	FeeScale = 4
)

// FeeSettings rows form an append-only history; at most one is active.
type FeeSettings struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	FeeAddress       string          `gorm:"size:128;not null" json:"feeAddress"`
	FeePercentage    decimal.Decimal `gorm:"type:numeric(9,4);not null" json:"feePercentage"`
	LastModifiedByID uuid.UUID       `gorm:"type:uuid;not null" json:"lastModifiedById"`
	Active           bool            `gorm:"not null;default:false;index:idx_fee_settings_single_active,unique,where:active = true" json:"active"`

	LastModifiedBy *User `gorm:"foreignkey:LastModifiedByID" json:"lastModifiedBy,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

func (FeeSettings) TableName() string {
	return "fee_settings"
}

func (s *FeeSettings) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// BasisPoints converts the percentage to basis points, rounded.
func (s *FeeSettings) BasisPoints() int64 {
	return s.FeePercentage.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FeeFor returns the platform fee owed on a USD amount, rounded to the stored scale.
func (s *FeeSettings) FeeFor(usd decimal.Decimal) decimal.Decimal {
	return usd.Mul(s.FeePercentage).Div(decimal.NewFromInt(100)).Round(UsdScale)
}
