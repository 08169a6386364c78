package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/TimmyIsANerd/chamswap/cache"
	"github.com/TimmyIsANerd/chamswap/database"
	"github.com/TimmyIsANerd/chamswap/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultPageSize   = 10
	MaxPageSize       = 100
	DefaultTopTraders = 10
	revenueNamespace  = "revenue"
	aggregateCacheTTL = 30 * time.Second
)

// referrers earn this share of the points their referees earn
var referrerPointShare = decimal.RequireFromString("0.1")

// TransactionFeed receives every committed ledger row.
type TransactionFeed interface {
	Publish(tx *models.Transaction)
}

type RevenueService struct {
	DB         *gorm.DB
	Identities *IdentityService
	Timeout    time.Duration
	Cache      cache.Store
	Feed       TransactionFeed
}

func NewRevenueService(db *gorm.DB, identities *IdentityService, timeout time.Duration) *RevenueService {
	return &RevenueService{DB: db, Identities: identities, Timeout: timeout}
}

type RecordTransactionInput struct {
	WalletAddress   string
	TransactionHash string
	TransactionTime time.Time
	TokenAmount     string
	TokenSymbol     string
	UsdAmount       decimal.Decimal
}

func (in *RecordTransactionInput) normalize() error {
	wallet, err := normalizeWallet(in.WalletAddress)
	if err != nil {
		return err
	}
	in.WalletAddress = wallet

	in.TransactionHash = strings.TrimSpace(in.TransactionHash)
	if in.TransactionHash == "" {
		return validationError("transactionHash is required")
	}
	if in.TransactionTime.IsZero() {
		return validationError("transactionTime is required")
	}
	in.TransactionTime = in.TransactionTime.UTC()

	in.TokenAmount = strings.TrimSpace(in.TokenAmount)
	amount, err := decimal.NewFromString(in.TokenAmount)
	if err != nil {
		return validationError("tokenAmount must be a decimal number")
	}
	if amount.IsNegative() {
		return validationError("tokenAmount must not be negative")
	}

	in.TokenSymbol = strings.TrimSpace(in.TokenSymbol)
	if in.TokenSymbol == "" {
		return validationError("tokenSymbol is required")
	}
	if in.UsdAmount.IsNegative() {
		return validationError("usdAmount must not be negative")
	}
	if exceedsScale(in.UsdAmount, models.UsdScale) {
		return validationError("usdAmount supports at most %d decimal places", models.UsdScale)
	}
	return nil
}

// exceedsScale reports whether d carries more decimal places than the column stores.
func exceedsScale(d decimal.Decimal, places int32) bool {
	return !d.Equal(d.Round(places))
}

type TransactionPage struct {
	Items       []models.Transaction `json:"transactions"`
	Total       int64                `json:"total"`
	PageCount   int                  `json:"pages"`
	CurrentPage int                  `json:"currentPage"`
	PageSize    int                  `json:"pageSize"`
}

type RevenueStats struct {
	TotalUsdVolume    decimal.Decimal `json:"totalUsdVolume"`
	TotalFeeUsd       decimal.Decimal `json:"totalFeeUsd"`
	TotalTransactions int64           `json:"totalTransactions"`
	UniqueWallets     int64           `json:"uniqueWallets"`
}

type TopTrader struct {
	WalletAddress    string          `json:"walletAddress"`
	TotalUsdTraded   decimal.Decimal `json:"totalUsdTraded"`
	TransactionCount int64           `json:"transactionCount"`
}

func tradePoints(usd decimal.Decimal) int64 {
	return usd.Floor().IntPart()
}

func referrerPoints(usd decimal.Decimal) int64 {
	return usd.Mul(referrerPointShare).Floor().IntPart()
}

// RecordTransaction appends a ledger row for a trade. The wallet's identity row is
// locked for the whole write so its running total is read and advanced atomically.
func (s *RevenueService) RecordTransaction(ctx context.Context, in RecordTransactionInput) (*models.Transaction, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	var recorded models.Transaction
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seen int64
		if err := tx.Model(&models.Transaction{}).Where("transaction_hash = ?", in.TransactionHash).Count(&seen).Error; err != nil {
			return err
		}
		if seen > 0 {
			return ErrDuplicateTransaction
		}

		trader, _, err := s.Identities.FindOrCreateByWallet(tx, in.WalletAddress)
		if err != nil {
			return err
		}

		locked, referrer, err := lockTraderAndReferrer(tx, trader)
		if err != nil {
			return err
		}

		settings, err := findActiveSettings(tx)
		if err != nil {
			return err
		}

		total := locked.TotalUsdTraded.Add(in.UsdAmount)
		recorded = models.Transaction{
			TransactionHash: in.TransactionHash,
			WalletAddress:   in.WalletAddress,
			TransactionTime: in.TransactionTime,
			TokenAmount:     in.TokenAmount,
			TokenSymbol:     in.TokenSymbol,
			UsdAmount:       in.UsdAmount,
			TotalUsdTraded:  total,
			FeePercentage:   decimal.Zero,
			FeeUsdAmount:    decimal.Zero,
		}
		if settings != nil {
			recorded.FeeAddress = settings.FeeAddress
			recorded.FeePercentage = settings.FeePercentage
			recorded.FeeUsdAmount = settings.FeeFor(in.UsdAmount)
		}

		if err := tx.Create(&recorded).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return ErrDuplicateTransaction
			}
			return err
		}

		if err := tx.Model(&models.User{}).Where("id = ?", locked.ID).
			UpdateColumn("total_usd_traded", total).Error; err != nil {
			return err
		}

		if err := addPoints(tx, locked.ID, tradePoints(in.UsdAmount)); err != nil {
			return err
		}
		if referrer != nil {
			if err := addPoints(tx, referrer.ID, referrerPoints(in.UsdAmount)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateTransaction) {
			return nil, err
		}
		return nil, storeError("record transaction", err)
	}

	log.WithFields(map[string]any{
		"wallet": recorded.WalletAddress,
		"hash":   recorded.TransactionHash,
		"usd":    recorded.UsdAmount.String(),
		"total":  recorded.TotalUsdTraded.String(),
	}).Info("Transaction recorded")

	s.invalidateAggregates(ctx)
	if s.Feed != nil {
		s.Feed.Publish(&recorded)
	}
	return &recorded, nil
}

// lockTraderAndReferrer row-locks the trader and its referrer, always in id order.
func lockTraderAndReferrer(tx *gorm.DB, trader *models.User) (*models.User, *models.User, error) {
	ids := []uuid.UUID{trader.ID}
	var code string
	if trader.ReferredByCode != nil {
		code = *trader.ReferredByCode
		var referrers []models.User
		if err := tx.Select("id").Where("referral_code = ?", code).Limit(1).Find(&referrers).Error; err != nil {
			return nil, nil, err
		}
		if len(referrers) == 1 && referrers[0].ID != trader.ID {
			ids = append(ids, referrers[0].ID)
		}
	}

	var rows []models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).Order("id").Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	var locked, referrer *models.User
	for i := range rows {
		if rows[i].ID == trader.ID {
			locked = &rows[i]
		} else {
			referrer = &rows[i]
		}
	}
	if locked == nil {
		return nil, nil, gorm.ErrRecordNotFound
	}
	// a referral registered after the first read is left for later trades
	if locked.ReferredByCode == nil || *locked.ReferredByCode != code {
		referrer = nil
	}
	return locked, referrer, nil
}

func (s *RevenueService) GetWalletTransactions(ctx context.Context, wallet string, page, pageSize int) (*TransactionPage, error) {
	wallet, err := normalizeWallet(wallet)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()
	db := s.DB.WithContext(ctx)

	result := &TransactionPage{Items: []models.Transaction{}, CurrentPage: page, PageSize: pageSize}
	if err := db.Model(&models.Transaction{}).Where("wallet_address = ?", wallet).Count(&result.Total).Error; err != nil {
		return nil, storeError("count wallet transactions", err)
	}
	result.PageCount = int(math.Ceil(float64(result.Total) / float64(pageSize)))

	err = db.Where("wallet_address = ?", wallet).
		Order("transaction_time desc").
		Order("created_at desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&result.Items).Error
	if err != nil {
		return nil, storeError("list wallet transactions", err)
	}
	return result, nil
}

// GetRevenueStats aggregates the ledger between inclusive, optional bounds.
func (s *RevenueService) GetRevenueStats(ctx context.Context, start, end *time.Time) (*RevenueStats, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	key := fmt.Sprintf("stats:%s:%s", timeKey(start), timeKey(end))
	stats := &RevenueStats{}
	err := s.cached(ctx, key, stats, func() error {
		q := rangeQuery(s.DB.WithContext(ctx).Model(&models.Transaction{}), start, end)
		return q.Select(
			"COALESCE(SUM(usd_amount), 0) AS total_usd_volume, " +
				"COALESCE(SUM(fee_usd_amount), 0) AS total_fee_usd, " +
				"COUNT(*) AS total_transactions, " +
				"COUNT(DISTINCT wallet_address) AS unique_wallets",
		).Scan(stats).Error
	})
	if err != nil {
		return nil, storeError("revenue stats", err)
	}
	return stats, nil
}

// GetTopTraders ranks wallets by recorded volume, ties broken by address.
func (s *RevenueService) GetTopTraders(ctx context.Context, limit int) ([]TopTrader, error) {
	if limit < 1 {
		limit = DefaultTopTraders
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	traders := []TopTrader{}
	err := s.cached(ctx, fmt.Sprintf("top:%d", limit), &traders, func() error {
		return s.DB.WithContext(ctx).Model(&models.Transaction{}).
			Select("wallet_address, SUM(usd_amount) AS total_usd_traded, COUNT(*) AS transaction_count").
			Group("wallet_address").
			Order("total_usd_traded DESC, wallet_address ASC").
			Limit(limit).
			Scan(&traders).Error
	})
	if err != nil {
		return nil, storeError("top traders", err)
	}
	return traders, nil
}

func (s *RevenueService) ExportTransactionsCSV(ctx context.Context, start, end *time.Time) ([]byte, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	var rows []models.Transaction
	err := rangeQuery(s.DB.WithContext(ctx), start, end).
		Order("transaction_time desc").
		Find(&rows).Error
	if err != nil {
		return nil, storeError("export transactions", err)
	}

	b := new(bytes.Buffer)
	w := csv.NewWriter(b)
	headers := []string{"Transaction Hash", "Date", "Wallet", "Token Amount", "Token", "USD Amount", "Fee %", "Fee USD", "Fee Address", "Wallet Total USD"}
	if err := w.Write(headers); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		row := []string{
			r.TransactionHash,
			r.TransactionTime.UTC().Format("2006-01-02 15:04:05"),
			r.WalletAddress,
			r.TokenAmount,
			r.TokenSymbol,
			r.UsdAmount.StringFixed(2),
			r.FeePercentage.String(),
			r.FeeUsdAmount.StringFixed(2),
			r.FeeAddress,
			r.TotalUsdTraded.StringFixed(2),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return b.Bytes(), nil
}

func rangeQuery(q *gorm.DB, start, end *time.Time) *gorm.DB {
	if start != nil {
		q = q.Where("transaction_time >= ?", start.UTC())
	}
	if end != nil {
		q = q.Where("transaction_time <= ?", end.UTC())
	}
	return q
}

func timeKey(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// cached serves dest from the cache when possible. Cache failures fall through to load.
func (s *RevenueService) cached(ctx context.Context, key string, dest any, load func() error) error {
	if s.Cache == nil {
		return load()
	}

	version, err := s.Cache.Version(ctx, revenueNamespace)
	if err != nil {
		log.WithError(err).Warn("Revenue cache unavailable")
		return load()
	}
	versioned := fmt.Sprintf("%s:v%d:%s", revenueNamespace, version, key)
	if ok, err := s.Cache.Get(ctx, versioned, dest); err == nil && ok {
		return nil
	}

	if err := load(); err != nil {
		return err
	}
	if err := s.Cache.Set(ctx, versioned, dest, aggregateCacheTTL); err != nil {
		log.WithError(err).Warn("Failed to cache revenue aggregate")
	}
	return nil
}

func (s *RevenueService) invalidateAggregates(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Bump(ctx, revenueNamespace); err != nil {
		log.WithError(err).Warn("Failed to invalidate revenue cache")
	}
}
