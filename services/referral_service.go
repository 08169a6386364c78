package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/TimmyIsANerd/chamswap/database"
	"github.com/TimmyIsANerd/chamswap/models"
	"github.com/TimmyIsANerd/chamswap/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxCodeAttempts = 5

type CodeGenerator func() (string, error)

type ReferralService struct {
	DB           *gorm.DB
	Identities   *IdentityService
	Timeout      time.Duration
	GenerateCode CodeGenerator
}

func NewReferralService(db *gorm.DB, identities *IdentityService, timeout time.Duration) *ReferralService {
	return &ReferralService{
		DB:           db,
		Identities:   identities,
		Timeout:      timeout,
		GenerateCode: utils.GenerateReferralCode,
	}
}

type ReferralValidation struct {
	Valid        bool      `json:"valid"`
	ReferrerID   uuid.UUID `json:"referrerId"`
	ReferrerName string    `json:"referrerName"`
}

type RefereeSummary struct {
	ID            uuid.UUID `json:"id"`
	WalletAddress *string   `json:"walletAddress"`
	CreatedAt     time.Time `json:"createdAt"`
}

type ReferralSummary struct {
	ID           uuid.UUID      `json:"id"`
	ReferralCode string         `json:"referralCode"`
	Status       string         `json:"status"`
	CreatedAt    time.Time      `json:"createdAt"`
	Referee      RefereeSummary `json:"referee"`
}

// GenerateReferralCode returns the identity's code, assigning one on first use.
func (s *ReferralService) GenerateReferralCode(ctx context.Context, userID uuid.UUID) (string, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()
	db := s.DB.WithContext(ctx)

	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		return "", storeError("generate referral code", err)
	}
	return s.assignCode(db, &user)
}

func (s *ReferralService) GenerateReferralCodeForWallet(ctx context.Context, wallet string) (string, error) {
	user, _, err := s.Identities.ConnectWallet(ctx, wallet)
	if err != nil {
		return "", err
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()
	return s.assignCode(s.DB.WithContext(ctx), user)
}

func (s *ReferralService) assignCode(db *gorm.DB, user *models.User) (string, error) {
	if user.ReferralCode != nil && *user.ReferralCode != "" {
		return *user.ReferralCode, nil
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.GenerateCode()
		if err != nil {
			return "", fmt.Errorf("generate referral code: %w", err)
		}

		var taken int64
		if err := db.Model(&models.User{}).Where("referral_code = ?", code).Count(&taken).Error; err != nil {
			return "", storeError("check referral code", err)
		}
		if taken > 0 {
			continue
		}

		res := db.Model(&models.User{}).
			Where("id = ? AND referral_code IS NULL", user.ID).
			Update("referral_code", code)
		if res.Error != nil {
			if database.IsUniqueViolation(res.Error) {
				continue
			}
			return "", storeError("assign referral code", res.Error)
		}
		if res.RowsAffected == 0 {
			// assigned concurrently, the stored code wins
			var current models.User
			if err := db.Select("id", "referral_code").First(&current, "id = ?", user.ID).Error; err != nil {
				return "", storeError("reload referral code", err)
			}
			if current.ReferralCode == nil {
				return "", storeError("assign referral code", gorm.ErrRecordNotFound)
			}
			user.ReferralCode = current.ReferralCode
			return *current.ReferralCode, nil
		}

		user.ReferralCode = &code
		log.WithFields(map[string]any{"user_id": user.ID, "code": code}).Info("Referral code assigned")
		return code, nil
	}
	return "", ErrCodeGenerationExhausted
}

func (s *ReferralService) ValidateReferralCode(ctx context.Context, code string) (*ReferralValidation, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, validationError("referralCode is required")
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	var referrer models.User
	if err := s.DB.WithContext(ctx).Where("referral_code = ?", code).First(&referrer).Error; err != nil {
		return nil, storeError("validate referral code", err)
	}

	return &ReferralValidation{
		Valid:        true,
		ReferrerID:   referrer.ID,
		ReferrerName: referrer.DisplayName(),
	}, nil
}

// RegisterReferral links a wallet to the owner of code. A wallet can be referred once.
func (s *ReferralService) RegisterReferral(ctx context.Context, code, wallet string) (*models.Referral, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, validationError("referralCode is required")
	}
	wallet, err := normalizeWallet(wallet)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	var referral models.Referral
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var referrer models.User
		if err := tx.Where("referral_code = ?", code).First(&referrer).Error; err != nil {
			return err
		}

		referee, _, err := s.Identities.FindOrCreateByWallet(tx, wallet)
		if err != nil {
			return err
		}
		if referee.ID == referrer.ID {
			return ErrSelfReferral
		}
		if referee.ReferredByCode != nil {
			return ErrAlreadyReferred
		}
		if referee.ReferralCode != nil && referrer.ReferredByCode != nil && *referrer.ReferredByCode == *referee.ReferralCode {
			return ErrMutualReferral
		}

		var existing int64
		if err := tx.Model(&models.Referral{}).Where("referee_id = ?", referee.ID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyReferred
		}

		referral = models.Referral{
			ReferrerID:   referrer.ID,
			RefereeID:    referee.ID,
			ReferralCode: code,
			Status:       models.ReferralActive,
		}
		if err := tx.Create(&referral).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return ErrAlreadyReferred
			}
			return err
		}

		res := tx.Model(&models.User{}).
			Where("id = ? AND referred_by_code IS NULL", referee.ID).
			Update("referred_by_code", code)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyReferred
		}

		referee.ReferredByCode = &code
		referral.Referrer = &referrer
		referral.Referee = referee
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSelfReferral) || errors.Is(err, ErrAlreadyReferred) || errors.Is(err, ErrMutualReferral) {
			return nil, err
		}
		return nil, storeError("register referral", err)
	}

	log.WithFields(map[string]any{
		"referrer_id": referral.ReferrerID,
		"referee_id":  referral.RefereeID,
		"code":        code,
	}).Info("Referral registered")
	return &referral, nil
}

func (s *ReferralService) ListReferrals(ctx context.Context, referrerID uuid.UUID) ([]ReferralSummary, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	var referrals []models.Referral
	err := s.DB.WithContext(ctx).
		Preload("Referee").
		Where("referrer_id = ?", referrerID).
		Order("created_at desc").
		Find(&referrals).Error
	if err != nil {
		return nil, storeError("list referrals", err)
	}

	out := make([]ReferralSummary, 0, len(referrals))
	for _, r := range referrals {
		summary := ReferralSummary{
			ID:           r.ID,
			ReferralCode: r.ReferralCode,
			Status:       r.Status,
			CreatedAt:    r.CreatedAt,
		}
		if r.Referee != nil {
			summary.Referee = RefereeSummary{
				ID:            r.Referee.ID,
				WalletAddress: r.Referee.WalletAddress,
				CreatedAt:     r.Referee.CreatedAt,
			}
		}
		out = append(out, summary)
	}
	return out, nil
}

// ListReferralsForWallet answers with an empty list for wallets never seen.
func (s *ReferralService) ListReferralsForWallet(ctx context.Context, wallet string) ([]ReferralSummary, error) {
	user, err := s.Identities.GetByWallet(ctx, wallet)
	if errors.Is(err, ErrNotFound) {
		return []ReferralSummary{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.ListReferrals(ctx, user.ID)
}
