package services

import (
	"context"
	"strings"
	"time"

	"github.com/TimmyIsANerd/chamswap/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type IdentityService struct {
	DB      *gorm.DB
	Timeout time.Duration
}

func NewIdentityService(db *gorm.DB, timeout time.Duration) *IdentityService {
	return &IdentityService{DB: db, Timeout: timeout}
}

type TraderProfile struct {
	ID                 uuid.UUID       `json:"id"`
	WalletAddress      string          `json:"walletAddress"`
	ReferralCode       *string         `json:"referralCode"`
	ReferredByCode     *string         `json:"referredByCode"`
	TotalPoints        int64           `json:"totalPoints"`
	TotalTradingVolume decimal.Decimal `json:"totalTradingVolume"`
	TotalReferrals     int64           `json:"totalReferrals"`
	CreatedAt          time.Time       `json:"createdAt"`
}

func normalizeWallet(wallet string) (string, error) {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return "", validationError("walletAddress is required")
	}
	if len(wallet) > 128 {
		return "", validationError("walletAddress is too long")
	}
	return wallet, nil
}

// FindOrCreateByWallet is the only path that creates wallet identities. It runs
// on the caller's transaction; the unique wallet index settles concurrent creates.
func (s *IdentityService) FindOrCreateByWallet(tx *gorm.DB, wallet string) (*models.User, bool, error) {
	wallet, err := normalizeWallet(wallet)
	if err != nil {
		return nil, false, err
	}

	var existing []models.User
	if err := tx.Where("wallet_address = ?", wallet).Limit(1).Find(&existing).Error; err != nil {
		return nil, false, err
	}
	if len(existing) == 1 {
		return &existing[0], false, nil
	}

	user := models.User{WalletAddress: &wallet, Role: models.RoleUser, IsActive: true}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&user)
	if res.Error != nil {
		return nil, false, res.Error
	}

	// the loser of a create race reads the winner's row
	var stored models.User
	if err := tx.Where("wallet_address = ?", wallet).First(&stored).Error; err != nil {
		return nil, false, err
	}
	return &stored, res.RowsAffected == 1, nil
}

func (s *IdentityService) ConnectWallet(ctx context.Context, wallet string) (*models.User, bool, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	var (
		user    *models.User
		created bool
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		user, created, err = s.FindOrCreateByWallet(tx, wallet)
		return err
	})
	if err != nil {
		return nil, false, storeError("connect wallet", err)
	}
	return user, created, nil
}

func (s *IdentityService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, storeError("find user", err)
	}
	return &user, nil
}

func (s *IdentityService) GetByWallet(ctx context.Context, wallet string) (*models.User, error) {
	wallet, err := normalizeWallet(wallet)
	if err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "wallet_address = ?", wallet).Error; err != nil {
		return nil, storeError("find wallet", err)
	}
	return &user, nil
}

func (s *IdentityService) GetTrader(ctx context.Context, wallet string) (*TraderProfile, error) {
	user, err := s.GetByWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	var referrals int64
	if err := s.DB.WithContext(ctx).Model(&models.Referral{}).Where("referrer_id = ?", user.ID).Count(&referrals).Error; err != nil {
		return nil, storeError("count referrals", err)
	}

	return &TraderProfile{
		ID:                 user.ID,
		WalletAddress:      *user.WalletAddress,
		ReferralCode:       user.ReferralCode,
		ReferredByCode:     user.ReferredByCode,
		TotalPoints:        user.Points,
		TotalTradingVolume: user.TotalUsdTraded,
		TotalReferrals:     referrals,
		CreatedAt:          user.CreatedAt,
	}, nil
}

func addPoints(tx *gorm.DB, userID uuid.UUID, points int64) error {
	if points <= 0 {
		return nil
	}
	return tx.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("points", gorm.Expr("points + ?", points)).Error
}
