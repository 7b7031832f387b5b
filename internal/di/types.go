// Package di provides dependency injection wiring and initialization.
//
// The Container holds every long-lived dependency and is the single source
// of truth for service instances; the server and scheduler read from it.
package di

import (
	"github.com/aristath/dealerledger/internal/database"
	"github.com/aristath/dealerledger/internal/events"
	"github.com/aristath/dealerledger/internal/locking"
	"github.com/aristath/dealerledger/internal/modules/amortization"
	"github.com/aristath/dealerledger/internal/modules/invoices"
	"github.com/aristath/dealerledger/internal/modules/ledger"
	"github.com/aristath/dealerledger/internal/modules/settings"
	"github.com/aristath/dealerledger/internal/reliability"
	"github.com/aristath/dealerledger/internal/scheduler"
	"github.com/aristath/dealerledger/internal/store"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies
type Container struct {
	// Databases
	LedgerDB *database.DB // invoice documents and payment history
	ConfigDB *database.DB // runtime settings

	// Optional shared infrastructure
	RedisClient *redis.Client // nil when REDIS_ADDR is unset

	// Stores and coordination
	LedgerStore store.Store
	ConfigStore store.Store
	Locker      locking.Locker
	CalcCache   amortization.Cache

	EventManager *events.Manager

	// Repositories
	LedgerRepo   *ledger.Repository
	SettingsRepo *settings.Repository

	// Services
	Calculator      *amortization.Calculator
	SettingsService *settings.Service
	InvoiceService  *invoices.Service
	Reconciler      *ledger.Reconciler
	Archiver        *reliability.Archiver // nil when archiving is disabled
}

// JobInstances holds the scheduled jobs for manual triggering
type JobInstances struct {
	OverdueSweep  scheduler.Job
	ExportArchive scheduler.Job // nil when archiving is disabled
	WALCheckpoint scheduler.Job
}

// Close releases databases and the Redis client.
func (c *Container) Close() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if c.RedisClient != nil {
		keep(c.RedisClient.Close())
	}
	if c.LedgerDB != nil {
		keep(c.LedgerDB.Close())
	}
	if c.ConfigDB != nil {
		keep(c.ConfigDB.Close())
	}
	return firstErr
}
