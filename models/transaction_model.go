package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction is a fee-bearing trade reported for a wallet. Rows are never updated.
type Transaction struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	TransactionHash string          `gorm:"size:128;not null;uniqueIndex" json:"transactionHash"`
	WalletAddress   string          `gorm:"size:128;not null;index" json:"walletAddress"`
	TransactionTime time.Time       `gorm:"not null;index" json:"transactionTime"`
	TokenAmount     string          `gorm:"size:100;not null" json:"tokenAmount"`
	TokenSymbol     string          `gorm:"size:32;not null" json:"tokenSymbol"`
	UsdAmount       decimal.Decimal `gorm:"type:numeric(38,8);not null" json:"usdAmount"`
	TotalUsdTraded  decimal.Decimal `gorm:"type:numeric(38,8);not null" json:"totalUsdTraded"`

	FeeAddress    string          `gorm:"size:128" json:"feeAddress"`
	FeePercentage decimal.Decimal `gorm:"type:numeric(9,4);not null;default:0" json:"feePercentage"`
	FeeUsdAmount  decimal.Decimal `gorm:"type:numeric(38,8);not null;default:0" json:"feeUsdAmount"`

	CreatedAt time.Time `json:"createdAt"`
}

func (Transaction) TableName() string {
	return "revenue_transactions"
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
