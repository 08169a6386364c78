package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/TimmyIsANerd/chamswap/database"
	"github.com/TimmyIsANerd/chamswap/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const settingsWriteAttempts = 3

var maxFeePercentage = decimal.NewFromInt(100)

type SettingsService struct {
	DB      *gorm.DB
	Timeout time.Duration
}

func NewSettingsService(db *gorm.DB, timeout time.Duration) *SettingsService {
	return &SettingsService{DB: db, Timeout: timeout}
}

// UpdateSettings appends a new active record and retires the previous one in the
// same database transaction.
func (s *SettingsService) UpdateSettings(ctx context.Context, feeAddress string, feePercentage decimal.Decimal, modifiedBy uuid.UUID) (*models.FeeSettings, error) {
	feeAddress = strings.TrimSpace(feeAddress)
	if feeAddress == "" {
		return nil, validationError("feeAddress is required")
	}
	if feePercentage.IsNegative() || feePercentage.GreaterThan(maxFeePercentage) {
		return nil, ErrInvalidRange
	}
	if exceedsScale(feePercentage, models.FeeScale) {
		return nil, validationError("feePercentage supports at most %d decimal places", models.FeeScale)
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()
	db := s.DB.WithContext(ctx)

	var modifier models.User
	if err := db.First(&modifier, "id = ?", modifiedBy).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrForbidden
		}
		return nil, storeError("load modifier", err)
	}
	if !modifier.IsAdmin() || !modifier.IsActive {
		return nil, ErrForbidden
	}

	var created models.FeeSettings
	var err error
	for attempt := 1; attempt <= settingsWriteAttempts; attempt++ {
		created = models.FeeSettings{
			FeeAddress:       feeAddress,
			FeePercentage:    feePercentage,
			LastModifiedByID: modifier.ID,
			Active:           true,
		}
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.FeeSettings{}).Where("active = ?", true).Update("active", false).Error; err != nil {
				return err
			}
			return tx.Create(&created).Error
		})
		// a concurrent writer activated its row first; retire it and try again
		if err != nil && database.IsUniqueViolation(err) && attempt < settingsWriteAttempts {
			continue
		}
		break
	}
	if err != nil {
		return nil, storeError("update settings", err)
	}

	created.LastModifiedBy = &modifier
	log.WithFields(map[string]any{
		"fee_address":    created.FeeAddress,
		"fee_percentage": created.FeePercentage.String(),
		"modified_by":    modifier.ID,
	}).Info("Fee settings updated")
	return &created, nil
}

func (s *SettingsService) GetActiveSettings(ctx context.Context) (*models.FeeSettings, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	var settings models.FeeSettings
	err := s.DB.WithContext(ctx).
		Preload("LastModifiedBy").
		Where("active = ?", true).
		First(&settings).Error
	if err != nil {
		return nil, storeError("active settings", err)
	}
	return &settings, nil
}

func (s *SettingsService) GetSettingsHistory(ctx context.Context) ([]models.FeeSettings, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	history := []models.FeeSettings{}
	err := s.DB.WithContext(ctx).
		Preload("LastModifiedBy").
		Order("created_at desc").
		Find(&history).Error
	if err != nil {
		return nil, storeError("settings history", err)
	}
	return history, nil
}

// findActiveSettings reads the active record on an open transaction; nil when none exists.
func findActiveSettings(tx *gorm.DB) (*models.FeeSettings, error) {
	var rows []models.FeeSettings
	if err := tx.Where("active = ?", true).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
