package di

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/dealerledger/internal/config"
	"github.com/aristath/dealerledger/internal/events"
	"github.com/aristath/dealerledger/internal/locking"
	"github.com/aristath/dealerledger/internal/modules/amortization"
	"github.com/aristath/dealerledger/internal/modules/invoices"
	"github.com/aristath/dealerledger/internal/modules/ledger"
	"github.com/aristath/dealerledger/internal/modules/settings"
	"github.com/aristath/dealerledger/internal/reliability"
	"github.com/aristath/dealerledger/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	calcCacheCapacity = 1024
	redisLockTTL      = 10 * time.Second
)

// InitializeServices creates stores, repositories and services
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	container.EventManager = events.NewManager(log)

	container.LedgerStore = store.NewSQLiteStore(container.LedgerDB.Conn(), log)
	container.ConfigStore = store.NewSQLiteStore(container.ConfigDB.Conn(), log)

	// Redis shares the cache and the invoice locks between instances.
	// Without it both stay in-process.
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := client.Ping(ctx).Err()
		cancel()
		if err != nil {
			client.Close()
			return fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		container.RedisClient = client
		container.CalcCache = amortization.NewRedisCache(client)
		container.Locker = locking.NewRedisLocker(client, redisLockTTL, log)
		log.Info().Str("addr", cfg.RedisAddr).Msg("Using Redis for cache and locks")
	} else {
		container.CalcCache = amortization.NewMemoryCache(calcCacheCapacity)
		container.Locker = locking.NewLocalLocker()
	}

	container.Calculator = amortization.NewCalculator(container.CalcCache, log)

	container.SettingsRepo = settings.NewRepository(container.ConfigStore, log)
	container.SettingsService = settings.NewService(container.SettingsRepo, cfg.SettingsOverrides(), log)

	container.LedgerRepo = ledger.NewRepository(container.LedgerStore, container.Locker, log)
	container.InvoiceService = invoices.NewService(container.LedgerRepo, container.SettingsService, container.EventManager, log)
	container.Reconciler = ledger.NewReconciler(container.LedgerRepo, container.EventManager, log)

	if cfg.Archive.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		archiver, err := reliability.NewS3Archiver(ctx, reliability.ArchiveConfig{
			Bucket:          cfg.Archive.Bucket,
			Endpoint:        cfg.Archive.Endpoint,
			Region:          cfg.Archive.Region,
			AccessKeyID:     cfg.Archive.AccessKeyID,
			SecretAccessKey: cfg.Archive.SecretAccessKey,
			Prefix:          cfg.Archive.Prefix,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to initialize archiver: %w", err)
		}
		container.Archiver = archiver
	}

	log.Info().Msg("Services initialized")
	return nil
}
