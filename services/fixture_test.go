package services

import (
	"context"
	"testing"
	"time"

	"github.com/TimmyIsANerd/chamswap/database/dbtest"
	"github.com/TimmyIsANerd/chamswap/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db         *gorm.DB
	identities *IdentityService
	referrals  *ReferralService
	revenue    *RevenueService
	settings   *SettingsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	identities := NewIdentityService(db, 5*time.Second)
	return &fixture{
		db:         db,
		identities: identities,
		referrals:  NewReferralService(db, identities, 5*time.Second),
		revenue:    NewRevenueService(db, identities, 5*time.Second),
		settings:   NewSettingsService(db, 5*time.Second),
	}
}

func (f *fixture) createUser(t *testing.T, role, email string) *models.User {
	t.Helper()
	u := models.User{Role: role, Email: &email, Name: role + " user", IsActive: true, EmailVerified: true}
	require.NoError(t, f.db.Create(&u).Error)
	return &u
}

func (f *fixture) reload(t *testing.T, id any) *models.User {
	t.Helper()
	var u models.User
	require.NoError(t, f.db.First(&u, "id = ?", id).Error)
	return &u
}

func (f *fixture) record(t *testing.T, wallet, hash, usd string, at time.Time) *models.Transaction {
	t.Helper()
	tx, err := f.revenue.RecordTransaction(context.Background(), RecordTransactionInput{
		WalletAddress:   wallet,
		TransactionHash: hash,
		TransactionTime: at,
		TokenAmount:     "1.5",
		TokenSymbol:     "ETH",
		UsdAmount:       dec(usd),
	})
	require.NoError(t, err)
	return tx
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

// fixedCodes hands out codes in order, for deterministic referral codes.
func fixedCodes(codes ...string) CodeGenerator {
	i := 0
	return func() (string, error) {
		code := codes[i%len(codes)]
		i++
		return code, nil
	}
}

var day = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
