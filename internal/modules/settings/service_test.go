package settings

import (
	"context"
	"testing"

	"github.com/aristath/dealerledger/internal/store"
	testutil "github.com/aristath/dealerledger/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(overrides map[string]interface{}) (*Service, *Repository) {
	repo := NewRepository(store.NewMemoryStore(), zerolog.Nop())
	return NewService(repo, overrides, zerolog.Nop()), repo
}

func TestDefaultsAndOverrides(t *testing.T) {
	ctx := context.Background()

	svc, _ := newTestService(nil)
	rate, err := svc.InvoiceTaxRate(ctx)
	require.NoError(t, err)
	assert.True(t, rate.IsZero())
	days, err := svc.DefaultDueDays(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, days)

	svc, _ = newTestService(map[string]interface{}{
		KeyInvoiceTaxRate: "0.13",
		KeyDefaultDueDays: 15,
		"unknown":         "ignored",
	})
	rate, err = svc.InvoiceTaxRate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0.13", rate.String())
	days, err = svc.DefaultDueDays(ctx)
	require.NoError(t, err)
	assert.Equal(t, 15, days)

	all, err := svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSet_StoredValueWins(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(map[string]interface{}{KeyInvoiceTaxRate: "0.13"})

	require.NoError(t, svc.Set(ctx, KeyInvoiceTaxRate, 0.08))
	require.NoError(t, svc.Set(ctx, KeyDefaultDueDays, "45"))

	rate, err := svc.InvoiceTaxRate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0.08", rate.String())

	days, err := svc.DefaultDueDays(ctx)
	require.NoError(t, err)
	assert.Equal(t, 45, days)

	stored, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{KeyInvoiceTaxRate: "0.08", KeyDefaultDueDays: "45"}, stored)

	all, err := svc.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, KeyDefaultDueDays, all[0].Key)
	assert.True(t, all[0].Stored)
	assert.NotEmpty(t, all[0].Description)
}

func TestSet_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(nil)

	assert.ErrorIs(t, svc.Set(ctx, "trading_mode", "live"), ErrUnknownSetting)

	invalid := []struct {
		key   string
		value interface{}
	}{
		{KeyInvoiceTaxRate, -0.01},
		{KeyInvoiceTaxRate, 1.5},
		{KeyInvoiceTaxRate, "eight percent"},
		{KeyInvoiceTaxRate, nil},
		{KeyDefaultDueDays, -1},
		{KeyDefaultDueDays, 400},
		{KeyDefaultDueDays, 2.5},
		{KeyDefaultDueDays, "soon"},
	}
	for _, tt := range invalid {
		assert.ErrorIs(t, svc.Set(ctx, tt.key, tt.value), ErrInvalidValue, "%s=%v", tt.key, tt.value)
	}
}

func TestRepository_GetInt(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(store.NewMemoryStore(), zerolog.Nop())

	v, err := repo.GetInt(ctx, "missing", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	require.NoError(t, repo.Set(ctx, "n", "12.0"))
	v, err = repo.GetInt(ctx, "n", 7)
	require.NoError(t, err)
	assert.Equal(t, 12, v)

	require.NoError(t, repo.Set(ctx, "bad", "twelve"))
	v, err = repo.GetInt(ctx, "bad", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestSet_PersistsInConfigDatabase(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewTestStore(t, "config")

	svc := NewService(NewRepository(st, zerolog.Nop()), nil, zerolog.Nop())
	require.NoError(t, svc.Set(ctx, KeyDefaultDueDays, "45"))

	// A fresh service over the same database sees the stored value.
	reloaded := NewService(NewRepository(st, zerolog.Nop()), map[string]interface{}{KeyDefaultDueDays: 10}, zerolog.Nop())
	days, err := reloaded.DefaultDueDays(ctx)
	require.NoError(t, err)
	assert.Equal(t, 45, days)
}
