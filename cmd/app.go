package cmd

import (
	"context"
	"fmt"

	"lesson-sync/core/config"
	"lesson-sync/core/database"
	"lesson-sync/core/localstore"
	"lesson-sync/core/logger"
	"lesson-sync/core/metrics"
	"lesson-sync/core/reconcile"
	"lesson-sync/core/remotestore"
	"lesson-sync/core/storage"
	"lesson-sync/core/tombstone"
	"lesson-sync/feature/integrity"
	"lesson-sync/feature/lessons"
	syncfeature "lesson-sync/feature/sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// app holds the wired components shared by every command.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	local   *localstore.Store
	remote  reconcile.Remote
	sql     *remotestore.SQLRemote // nil unless the sql remote is configured
	client  storage.Client         // nil unless the object remote is configured
	ledger  *tombstone.Ledger
	driver  *reconcile.Driver
	service *syncfeature.Service
}

// newApp loads configuration and connects both stores. reg may be nil; when
// set, pass metrics are registered with it. Without prepare the remote schema
// is left as found.
func newApp(ctx context.Context, reg prometheus.Registerer, prepare bool) (*app, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if !cfg.Remote.IsValidDriver() {
		return nil, fmt.Errorf("unsupported remote driver %q", cfg.Remote.Driver)
	}
	interval, err := cfg.Sync.Interval()
	if err != nil {
		return nil, err
	}

	catalog := lessons.Catalog()

	localDB, err := database.Connect(cfg.Local.Database(cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}
	local := localstore.NewStore(localDB, catalog, l)
	if err := local.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate local store: %w", err)
	}

	a := &app{cfg: cfg, logger: l, local: local}

	switch cfg.Remote.Driver {
	case remotestore.DriverSQL:
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to remote database: %w", err)
		}
		a.sql = remotestore.NewSQLRemote(db, l)
		if prepare {
			if err := a.sql.Prepare(ctx); err != nil {
				return nil, fmt.Errorf("failed to prepare remote schema: %w", err)
			}
		}
		a.remote = a.sql
	case remotestore.DriverObject:
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to storage: %w", err)
		}
		if prepare {
			if err := storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
				return nil, err
			}
		}
		a.client = client
		a.remote = remotestore.NewObjectRemote(client, cfg.Storage.Bucket, l)
	}

	a.ledger = tombstone.NewLedger(local, tombstone.WithLogger(l))

	opts := []reconcile.DriverOption{reconcile.WithLogger(l)}
	if reg != nil {
		opts = append(opts, reconcile.WithObserver(metrics.NewObserver(reg)))
	}
	throttle := reconcile.NewThrottle(interval, reconcile.NewMemoryCursorStore())
	a.driver = reconcile.NewDriver(local, a.remote, a.ledger, throttle, catalog, opts...)
	a.service = syncfeature.NewService(a.driver, a.ledger, local, l)

	l.Debug("Stores connected",
		zap.String("local", cfg.Local.Path),
		zap.String("remote", cfg.Remote.Driver),
	)
	return a, nil
}

// integrity builds the health checks for the configured stores.
func (a *app) integrity() *integrity.Service {
	var opts []integrity.Option
	if a.sql != nil {
		opts = append(opts, integrity.WithSQLRemote(a.sql))
	}
	if a.client != nil {
		opts = append(opts, integrity.WithObjectRemote(a.client, a.cfg.Storage.Bucket, a.cfg.Storage.Region))
	}
	return integrity.NewService(a.local, a.ledger, lessons.Catalog(), a.logger, opts...)
}

func (a *app) close() {
	_ = a.logger.Sync()
}
