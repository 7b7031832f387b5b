package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// SQLiteStore persists documents in the kv table of a migrated database
// (see internal/database/schemas).
type SQLiteStore struct {
	db    *sql.DB
	log   zerolog.Logger
	nowFn func() time.Time
}

// NewSQLiteStore creates a store over an open connection.
func NewSQLiteStore(db *sql.DB, log zerolog.Logger) *SQLiteStore {
	return &SQLiteStore{
		db:    db,
		log:   log.With().Str("repo", "kv").Logger(),
		nowFn: time.Now,
	}
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, key string, dest interface{}) (int64, bool, error) {
	if key == "" {
		return 0, false, ErrInvalidKey
	}

	var data []byte
	var version int64
	err := s.db.QueryRowContext(ctx, "SELECT value, version FROM kv WHERE key = ?", key).Scan(&data, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to load %s: %w", key, err)
	}

	if err := decode(data, dest); err != nil {
		return 0, false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return version, true, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, key string, value interface{}) (int64, error) {
	if key == "" {
		return 0, ErrInvalidKey
	}
	data, err := encode(value)
	if err != nil {
		return 0, fmt.Errorf("failed to encode %s: %w", key, err)
	}

	now := s.nowFn().Unix()
	var version int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO kv (key, value, version, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			version = kv.version + 1,
			updated_at = excluded.updated_at
		RETURNING version
	`, key, data, now, now).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to save %s: %w", key, err)
	}
	return version, nil
}

// SaveIfVersion implements Store. The version comparison and the write happen
// in a single statement, so two writers holding the same snapshot cannot both
// succeed.
func (s *SQLiteStore) SaveIfVersion(ctx context.Context, key string, expected int64, value interface{}) (int64, error) {
	if key == "" {
		return 0, ErrInvalidKey
	}
	data, err := encode(value)
	if err != nil {
		return 0, fmt.Errorf("failed to encode %s: %w", key, err)
	}

	now := s.nowFn().Unix()

	var result sql.Result
	if expected == 0 {
		result, err = s.db.ExecContext(ctx, `
			INSERT INTO kv (key, value, version, created_at, updated_at)
			VALUES (?, ?, 1, ?, ?)
			ON CONFLICT(key) DO NOTHING
		`, key, data, now, now)
	} else {
		result, err = s.db.ExecContext(ctx, `
			UPDATE kv SET value = ?, version = version + 1, updated_at = ?
			WHERE key = ? AND version = ?
		`, data, now, key, expected)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to save %s: %w", key, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to save %s: %w", key, err)
	}
	if affected == 0 {
		s.log.Warn().
			Str("key", key).
			Int64("expected_version", expected).
			Msg("Rejected write against stale version")
		return 0, fmt.Errorf("%w: %s changed since version %d", ErrVersionConflict, key, expected)
	}

	return expected + 1, nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key FROM kv WHERE key LIKE ? ESCAPE '\\' ORDER BY key",
		escapeLike(prefix)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys with prefix %q: %w", prefix, err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
