package settings

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownSetting is returned for keys without a default.
	ErrUnknownSetting = errors.New("unknown setting")
	// ErrInvalidValue is returned for values outside a setting's range.
	ErrInvalidValue = errors.New("invalid setting value")
)

// Service validates settings and exposes them typed.
type Service struct {
	repo     *Repository
	defaults map[string]interface{}
	log      zerolog.Logger
}

// NewService creates a settings service. overrides replace entries of
// SettingDefaults (typically from environment configuration).
func NewService(repo *Repository, overrides map[string]interface{}, log zerolog.Logger) *Service {
	defaults := make(map[string]interface{}, len(SettingDefaults))
	for k, v := range SettingDefaults {
		defaults[k] = v
	}
	for k, v := range overrides {
		if _, ok := defaults[k]; ok {
			defaults[k] = v
		}
	}

	return &Service{
		repo:     repo,
		defaults: defaults,
		log:      log.With().Str("service", "settings").Logger(),
	}
}

// GetAll returns every setting with its effective value, sorted by key.
func (s *Service) GetAll(ctx context.Context) ([]Setting, error) {
	stored, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Setting, 0, len(s.defaults))
	for key, def := range s.defaults {
		setting := Setting{Key: key, Value: def, Description: SettingDescriptions[key]}
		if raw, ok := stored[key]; ok {
			setting.Value = raw
			setting.Stored = true
		}
		out = append(out, setting)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Set validates and stores a setting.
func (s *Service) Set(ctx context.Context, key string, value interface{}) error {
	if _, ok := s.defaults[key]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}

	raw, err := normalize(key, value)
	if err != nil {
		return err
	}

	if err := s.repo.Set(ctx, key, raw); err != nil {
		return err
	}
	s.log.Info().Str("key", key).Str("value", raw).Msg("Setting updated")
	return nil
}

// InvoiceTaxRate returns the flat invoice tax rate.
func (s *Service) InvoiceTaxRate(ctx context.Context) (decimal.Decimal, error) {
	value, err := s.repo.Get(ctx, KeyInvoiceTaxRate)
	if err != nil {
		return decimal.Zero, err
	}

	raw := fmt.Sprint(s.defaults[KeyInvoiceTaxRate])
	if value != nil {
		raw = *value
	}

	rate, err := parseRate(raw)
	if err != nil {
		s.log.Warn().Err(err).Str("value", raw).Msg("Invalid tax rate setting, using 0")
		return decimal.Zero, nil
	}
	return rate, nil
}

// DefaultDueDays returns the default invoice term in days.
func (s *Service) DefaultDueDays(ctx context.Context) (int, error) {
	def := 30
	switch v := s.defaults[KeyDefaultDueDays].(type) {
	case float64:
		def = int(v)
	case int:
		def = v
	}
	return s.repo.GetInt(ctx, KeyDefaultDueDays, def)
}

// normalize checks value against key's range and renders it for storage.
func normalize(key string, value interface{}) (string, error) {
	if value == nil {
		return "", fmt.Errorf("%w: %s: value is required", ErrInvalidValue, key)
	}
	raw := fmt.Sprint(value)

	switch key {
	case KeyInvoiceTaxRate:
		rate, err := parseRate(raw)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrInvalidValue, key, err)
		}
		return rate.String(), nil

	case KeyDefaultDueDays:
		days, err := strconv.ParseFloat(raw, 64)
		if err != nil || days < 0 || days > 365 || days != float64(int(days)) {
			return "", fmt.Errorf("%w: %s: want a whole number of days between 0 and 365", ErrInvalidValue, key)
		}
		return strconv.Itoa(int(days)), nil
	}

	return raw, nil
}

func parseRate(raw string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number: %q", raw)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("rate %s outside 0-1", rate)
	}
	return rate, nil
}
