package services

import (
	"context"
	"testing"

	"github.com/TimmyIsANerd/chamswap/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateSettingsKeepsHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.createUser(t, models.RoleAdmin, "admin@example.com")

	_, err := f.settings.UpdateSettings(ctx, "X", dec("0.3"), admin.ID)
	require.NoError(t, err)
	latest, err := f.settings.UpdateSettings(ctx, "Y", dec("0.5"), admin.ID)
	require.NoError(t, err)

	history, err := f.settings.GetSettingsHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)

	active := 0
	for _, s := range history {
		if s.Active {
			active++
			assert.Equal(t, latest.ID, s.ID)
		}
		require.NotNil(t, s.LastModifiedBy)
		assert.Equal(t, admin.ID, s.LastModifiedBy.ID)
	}
	assert.Equal(t, 1, active)

	current, err := f.settings.GetActiveSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Y", current.FeeAddress)
	requireDecimal(t, "0.5", current.FeePercentage)
	assert.EqualValues(t, 50, current.BasisPoints())
}

func TestUpdateSettingsRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	trader := f.createUser(t, models.RoleUser, "trader@example.com")

	_, err := f.settings.UpdateSettings(ctx, "X", dec("1"), trader.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.settings.UpdateSettings(ctx, "X", dec("1"), uuid.New())
	assert.ErrorIs(t, err, ErrForbidden)

	superAdmin := f.createUser(t, models.RoleSuperAdmin, "root@example.com")
	_, err = f.settings.UpdateSettings(ctx, "X", dec("1"), superAdmin.ID)
	assert.NoError(t, err)
}

func TestUpdateSettingsValidatesInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.createUser(t, models.RoleAdmin, "admin@example.com")

	_, err := f.settings.UpdateSettings(ctx, "X", dec("100.01"), admin.ID)
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = f.settings.UpdateSettings(ctx, "X", dec("-0.1"), admin.ID)
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = f.settings.UpdateSettings(ctx, "  ", dec("1"), admin.ID)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.settings.UpdateSettings(ctx, "X", dec("0.12345"), admin.ID)
	assert.ErrorIs(t, err, ErrValidation)

	for _, pct := range []string{"0", "100", "0.1234"} {
		_, err := f.settings.UpdateSettings(ctx, "X", dec(pct), admin.ID)
		assert.NoError(t, err, pct)
	}
}

func TestGetActiveSettingsBeforeAnyUpdate(t *testing.T) {
	f := newFixture(t)
	_, err := f.settings.GetActiveSettings(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)

	history, err := f.settings.GetSettingsHistory(context.Background())
	require.NoError(t, err)
	assert.Empty(t, history)
}
