// Package testing provides test helpers shared across packages.
package testing

import (
	"path/filepath"
	"testing"

	"github.com/aristath/dealerledger/internal/database"
	"github.com/aristath/dealerledger/internal/store"
	"github.com/rs/zerolog"
)

// NewTestDB creates a migrated file-backed SQLite database in a per-test
// temporary directory. name selects the schema ("ledger" or "config").
// The database is closed when the test ends.
func NewTestDB(t *testing.T, name string) *database.DB {
	t.Helper()

	profile := database.ProfileStandard
	if name == "ledger" {
		profile = database.ProfileLedger
	}

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: profile,
		Name:    name,
	})
	if err != nil {
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
	})

	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}

	return db
}

// NewTestStore returns a SQLite-backed store over a fresh test database.
func NewTestStore(t *testing.T, name string) *store.SQLiteStore {
	t.Helper()
	return store.NewSQLiteStore(NewTestDB(t, name).Conn(), zerolog.New(nil).Level(zerolog.Disabled))
}
