package amortization

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

// DefaultCacheTTL bounds how long a cached schedule is served.
const DefaultCacheTTL = time.Hour

// Calculator is the service entry point for the engine. Results are cached
// by parameter hash; the cache is an optimization only and its failures are
// logged, never returned.
type Calculator struct {
	cache Cache
	ttl   time.Duration
	log   zerolog.Logger
}

// NewCalculator creates a calculator. cache may be nil.
func NewCalculator(cache Cache, log zerolog.Logger) *Calculator {
	return &Calculator{
		cache: cache,
		ttl:   DefaultCacheTTL,
		log:   log.With().Str("service", "amortization").Logger(),
	}
}

// Calculate validates p and computes its schedule.
func (c *Calculator) Calculate(ctx context.Context, p LoanParameters) (Result, error) {
	if err := Validate(p); err != nil {
		return Result{}, err
	}

	if c.cache == nil {
		return ComputePayment(p), nil
	}

	key := cacheKey(p)
	if cached, ok, err := c.cache.Get(ctx, key); err != nil {
		c.log.Warn().Err(err).Msg("Failed to read cached schedule")
	} else if ok {
		var result Result
		if err := json.Unmarshal(cached, &result); err == nil {
			return result, nil
		}
		c.log.Warn().Str("key", key).Msg("Discarding undecodable cached schedule")
	}

	result := ComputePayment(p)

	if encoded, err := json.Marshal(result); err != nil {
		c.log.Warn().Err(err).Msg("Failed to encode schedule for cache")
	} else if err := c.cache.Set(ctx, key, encoded, c.ttl); err != nil {
		c.log.Warn().Err(err).Msg("Failed to cache schedule")
	}

	return result, nil
}

// cacheKey hashes the normalized parameters.
func cacheKey(p LoanParameters) string {
	p.Frequency = p.Frequency.normalized()
	if p.Insurance != nil && !p.Insurance.Enabled {
		p.Insurance = nil
	}
	if p.Tax != nil && !p.Tax.Enabled {
		p.Tax = nil
	}
	raw, _ := json.Marshal(p)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
