package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReferralPending  = "pending"
	ReferralActive   = "active"
	ReferralRejected = "rejected"
)

type Referral struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ReferrerID   uuid.UUID `gorm:"type:uuid;not null;index" json:"referrerId"`
	RefereeID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"refereeId"`
	ReferralCode string    `gorm:"size:16;not null;index" json:"referralCode"`
	Status       string    `gorm:"size:20;not null;default:'pending'" json:"status"`

	Referrer *User `gorm:"foreignkey:ReferrerID" json:"referrer,omitempty"`
	Referee  *User `gorm:"foreignkey:RefereeID" json:"referee,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

func (r *Referral) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
