package amortization

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingCache struct {
	gets, sets int
}

func (f *failingCache) Get(context.Context, string) ([]byte, bool, error) {
	f.gets++
	return nil, false, errors.New("cache unavailable")
}

func (f *failingCache) Set(context.Context, string, []byte, time.Duration) error {
	f.sets++
	return errors.New("cache unavailable")
}

func validParams() LoanParameters {
	return LoanParameters{
		VehiclePrice:      32000,
		DownPayment:       2000,
		AnnualRatePercent: 5,
		TermPeriods:       36,
	}
}

func TestCalculator_Calculate(t *testing.T) {
	calc := NewCalculator(nil, zerolog.Nop())

	result, err := calc.Calculate(context.Background(), validParams())
	require.NoError(t, err)
	assert.Equal(t, ComputePayment(validParams()), result)
}

func TestCalculator_RejectsInvalidParameters(t *testing.T) {
	calc := NewCalculator(NewMemoryCache(10), zerolog.Nop())

	tests := []struct {
		name   string
		mutate func(*LoanParameters)
		field  string
	}{
		{"missing price", func(p *LoanParameters) { p.VehiclePrice = 0 }, "vehicle_price"},
		{"negative down payment", func(p *LoanParameters) { p.DownPayment = -1 }, "down_payment"},
		{"negative rate", func(p *LoanParameters) { p.AnnualRatePercent = -0.5 }, "annual_rate_percent"},
		{"zero term", func(p *LoanParameters) { p.TermPeriods = 0 }, "term_periods"},
		{"unknown frequency", func(p *LoanParameters) { p.Frequency = "daily" }, "frequency"},
		{"negative insurance", func(p *LoanParameters) { p.Insurance = &Insurance{Enabled: true, Amount: -5} }, "insurance.amount"},
		{"tax above 100%", func(p *LoanParameters) { p.Tax = &TaxAddOn{Enabled: true, Rate: 1.5} }, "tax.rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)

			_, err := calc.Calculate(context.Background(), p)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidLoanParameters)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestCalculator_ServesFromCache(t *testing.T) {
	cache := NewMemoryCache(10)
	calc := NewCalculator(cache, zerolog.Nop())
	ctx := context.Background()

	first, err := calc.Calculate(ctx, validParams())
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())

	second, err := calc.Calculate(ctx, validParams())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.Len())

	// Disabled add-ons hash the same as absent ones.
	p := validParams()
	p.Insurance = &Insurance{Enabled: false, Amount: 99}
	_, err = calc.Calculate(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())

	p.Insurance.Enabled = true
	_, err = calc.Calculate(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Len())
}

func TestCalculator_IgnoresCacheFailures(t *testing.T) {
	cache := &failingCache{}
	calc := NewCalculator(cache, zerolog.Nop())

	result, err := calc.Calculate(context.Background(), validParams())
	require.NoError(t, err)
	assert.Equal(t, ComputePayment(validParams()), result)
	assert.Equal(t, 1, cache.gets)
	assert.Equal(t, 1, cache.sets)
}

func TestMemoryCache_ExpiryAndEviction(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cache := NewMemoryCache(2)
	cache.nowFn = func() time.Time { return now }

	require.NoError(t, cache.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, cache.Set(ctx, "b", []byte("2"), 0))

	v, ok, err := cache.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), v)

	now = now.Add(2 * time.Minute)
	_, ok, _ = cache.Get(ctx, "a")
	assert.False(t, ok, "expired entry is dropped")

	_, ok, _ = cache.Get(ctx, "b")
	assert.True(t, ok, "zero TTL never expires")

	require.NoError(t, cache.Set(ctx, "c", []byte("3"), 0))
	require.NoError(t, cache.Set(ctx, "d", []byte("4"), 0))
	_, ok, _ = cache.Get(ctx, "b")
	assert.False(t, ok, "oldest entry evicted at capacity")
	assert.LessOrEqual(t, cache.Len(), 2)
}
