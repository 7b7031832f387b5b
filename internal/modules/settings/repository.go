// Package settings provides runtime-configurable defaults for the ledger.
// Settings are key-value pairs kept in the config store under
// "settings/<key>"; they take precedence over environment variables so they
// can change without a restart.
package settings

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aristath/dealerledger/internal/store"
	"github.com/rs/zerolog"
)

const keyPrefix = "settings/"

// Repository reads and writes settings. Values are stored as strings and
// converted on read.
type Repository struct {
	store store.Store
	log   zerolog.Logger
}

// NewRepository creates a new settings repository.
func NewRepository(s store.Store, log zerolog.Logger) *Repository {
	return &Repository{
		store: s,
		log:   log.With().Str("repository", "settings").Logger(),
	}
}

// Get retrieves a setting value by key.
// Returns nil if the setting doesn't exist (not an error).
func (r *Repository) Get(ctx context.Context, key string) (*string, error) {
	var value string
	_, found, err := r.store.Load(ctx, keyPrefix+key, &value)
	if err != nil {
		return nil, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	if !found {
		return nil, nil
	}
	return &value, nil
}

// Set stores a setting value.
func (r *Repository) Set(ctx context.Context, key, value string) error {
	if _, err := r.store.Save(ctx, keyPrefix+key, value); err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// GetAll retrieves every stored setting.
func (r *Repository) GetAll(ctx context.Context) (map[string]string, error) {
	keys, err := r.store.List(ctx, keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}

	result := make(map[string]string, len(keys))
	for _, key := range keys {
		var value string
		if _, found, err := r.store.Load(ctx, key, &value); err != nil {
			r.log.Warn().Err(err).Str("key", key).Msg("Failed to load setting")
			continue
		} else if !found {
			continue
		}
		result[strings.TrimPrefix(key, keyPrefix)] = value
	}
	return result, nil
}

// GetInt retrieves a setting value as integer.
// Returns defaultValue if the setting doesn't exist or parsing fails.
// Handles "12.0" strings by parsing via float first.
func (r *Repository) GetInt(ctx context.Context, key string, defaultValue int) (int, error) {
	value, err := r.Get(ctx, key)
	if err != nil {
		return defaultValue, err
	}
	if value == nil {
		return defaultValue, nil
	}

	floatVal, err := strconv.ParseFloat(*value, 64)
	if err != nil {
		r.log.Warn().
			Err(err).
			Str("key", key).
			Str("value", *value).
			Msg("Failed to parse int setting")
		return defaultValue, nil
	}
	return int(floatVal), nil
}
