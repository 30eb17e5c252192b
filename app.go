package main

import (
	"context"
	"fmt"

	"github.com/ariebrainware/clinic-hms/config"
	"github.com/ariebrainware/clinic-hms/migration"
	"github.com/ariebrainware/clinic-hms/sequence"
	"github.com/ariebrainware/clinic-hms/util"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// application holds the wired dependencies shared by every command.
type application struct {
	cfg     *config.Config
	logger  zerolog.Logger
	db      *gorm.DB
	alloc   *sequence.Allocator
	closers []func()
}

func newApplication(ctx context.Context) (*application, error) {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := util.NewLogger(cfg.LogLevel, cfg.AppEnv)
	util.SetAuditLogger(logger)
	util.SetJWTSecret(cfg.JWTSecret)

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	app := &application{cfg: cfg, logger: logger, db: db}
	if sqlDB, err := db.DB(); err == nil {
		app.closers = append(app.closers, func() { _ = sqlDB.Close() })
	}

	if err := migration.AutoMigrate(db); err != nil {
		app.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	util.SetAuditLoggerDB(db)

	if cfg.GeoIPDBPath != "" {
		if err := util.InitGeoIP(cfg.GeoIPDBPath); err != nil {
			logger.Warn().Err(err).Str("path", cfg.GeoIPDBPath).Msg("geoip disabled")
		} else {
			app.closers = append(app.closers, util.CloseGeoIP)
		}
	}

	// The rate limiter uses Redis whenever it is enabled, whatever the counter backend.
	if _, err := config.ConnectRedis(cfg); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, rate limiting disabled")
	}

	store, closeStore, err := newCounterStore(ctx, cfg, db)
	if err != nil {
		app.Close()
		return nil, err
	}
	if closeStore != nil {
		app.closers = append(app.closers, closeStore)
	}

	policies, err := sequence.LoadPolicies(cfg.NumberingPolicyFile)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.alloc = sequence.NewAllocator(store, sequence.Config{
		Policies:      policies,
		Logger:        &logger,
		RetryAttempts: cfg.SequenceRetryAttempts,
		RetryDelay:    cfg.SequenceRetryDelay,
	})

	logger.Info().
		Str("env", cfg.AppEnv).
		Str("counter_backend", cfg.CounterBackend).
		Str("bill_strategy", string(policies[sequence.TypeBill].Strategy)).
		Msg("application initialized")
	return app, nil
}

// newCounterStore builds the counter store selected by COUNTER_BACKEND. The
// returned func releases backend resources and may be nil.
func newCounterStore(ctx context.Context, cfg *config.Config, db *gorm.DB) (sequence.CounterStore, func(), error) {
	switch cfg.CounterBackend {
	case config.BackendRedis:
		rdb, err := config.ConnectRedis(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("redis counter store: %w", err)
		}
		if rdb == nil {
			return nil, nil, fmt.Errorf("redis counter store: REDIS_ENABLED must be true")
		}
		return sequence.NewRedisStore(rdb, "counter"), nil, nil
	case config.BackendPostgres:
		pool, err := config.ConnectPostgres(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres counter store: %w", err)
		}
		store := sequence.NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil
	default:
		return sequence.NewGormStore(db), nil, nil
	}
}

func (a *application) syncCounters(ctx context.Context) (migration.Report, error) {
	return migration.SyncAll(ctx, a.db, a.alloc)
}

func (a *application) backfillUHIDs(ctx context.Context) (int, error) {
	return migration.BackfillPatientUHIDs(ctx, a.db, a.alloc)
}

// Close releases resources in reverse order of acquisition.
func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
