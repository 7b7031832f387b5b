// Package store is the key-value persistence boundary of the ledger.
//
// Values are documents addressed by key ("invoices/<id>", "settings/<name>").
// Every key carries a version that increases on each write, so callers doing
// read-modify-write can reject stale snapshots with SaveIfVersion instead of
// silently overwriting a concurrent update.
package store

import (
	"bytes"
	"context"
	"errors"

	"github.com/vmihailenco/msgpack/v5"
)

var (
	// ErrVersionConflict is returned when SaveIfVersion sees a different version
	// than the caller read.
	ErrVersionConflict = errors.New("version conflict")
	// ErrInvalidKey is returned for empty keys.
	ErrInvalidKey = errors.New("invalid key")
)

// Store loads and saves versioned documents.
type Store interface {
	// Load decodes the value stored at key into dest. found is false (and dest
	// untouched) when the key does not exist.
	Load(ctx context.Context, key string, dest interface{}) (version int64, found bool, err error)
	// Save writes value unconditionally and returns the new version.
	Save(ctx context.Context, key string, value interface{}) (int64, error)
	// SaveIfVersion writes value only if the stored version equals expected.
	// expected == 0 means the key must not exist yet.
	SaveIfVersion(ctx context.Context, key string, expected int64, value interface{}) (int64, error)
	// List returns the keys starting with prefix in ascending order.
	List(ctx context.Context, prefix string) ([]string, error)
}

func encode(value interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	enc.UseCompactInts(true)
	if err := enc.Encode(value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(data []byte, dest interface{}) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(dest)
}
