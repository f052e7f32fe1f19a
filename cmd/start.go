package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lesson-sync/core/loader"
	"lesson-sync/core/logger"
	"lesson-sync/core/middleware/auth"
	"lesson-sync/core/middleware/rayid"
	"lesson-sync/core/reconcile"
	"lesson-sync/core/watcher"
	"lesson-sync/feature/integrity"
	syncfeature "lesson-sync/feature/sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "lesson-sync/docs/swagger"
)

// @title Lesson Sync API
// @version 1.0
// @description Reconciles the local lesson store with the remote account store.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the sync server",
	Long:  `Starts the HTTP server, the metrics endpoint and, when enabled, the local store watcher.`,
	RunE:  runStart,
}

func init() {
	RootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := newApp(ctx, reg, true)
	if err != nil {
		return err
	}
	defer a.close()
	zap.ReplaceGlobals(a.logger)
	logg := a.logger

	if err := a.cfg.Server.Validate(); err != nil {
		return err
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	mgr := loader.NewManager()
	mgr.Register(syncfeature.NewFeature(a.service, a.cfg.Server.PrincipalHeader))
	mgr.Register(integrity.NewFeature(a.integrity()))

	// RayID first so every later log line carries it.
	app.Use(rayid.New())

	app.Use(func(c *fiber.Ctx) error {
		l := logger.WithRayID(logg, c)
		l.Info("Request started",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
		)
		err := c.Next()
		if err != nil {
			l.Error("Request error", zap.Error(err))
		}
		return err
	})

	// Public endpoints
	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	app.Use(auth.New(auth.Config{ApiKey: a.cfg.Server.ApiKey}))

	if err := mgr.LoadAll(app); err != nil {
		return fmt.Errorf("failed to load features: %w", err)
	}

	if a.cfg.Sync.Watch {
		if err := startWatcher(ctx, a); err != nil {
			return err
		}
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info("Starting server", zap.String("port", a.cfg.Server.Port))
		errCh <- app.Listen(a.cfg.Server.Address())
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logg.Info("Shutting down server...")
	return app.ShutdownWithTimeout(a.cfg.Server.ShutdownTimeout())
}

// startWatcher syncs the configured collections whenever the local store file
// changes. Passes still go through the throttle.
func startWatcher(ctx context.Context, a *app) error {
	if a.cfg.Local.Driver != "sqlite" {
		a.logger.Warn("Local store watcher needs the sqlite driver; watcher disabled", zap.String("driver", a.cfg.Local.Driver))
		return nil
	}
	if a.cfg.Sync.Principal == "" {
		return fmt.Errorf("sync watcher needs SYNC_PRINCIPAL")
	}
	if interval, err := a.cfg.Sync.Interval(); err == nil {
		warnWatchThrottle(a.logger, interval)
	}

	w, err := watcher.New(a.cfg.Local.Path, a.cfg.Sync.WatchDebounce(), func(ctx context.Context) {
		reports, err := a.service.SyncAll(ctx, a.cfg.Sync.Collections, a.cfg.Sync.Principal, false)
		for _, r := range reports {
			printSyncReport(a.logger, r)
		}
		if err != nil {
			a.logger.Warn("Watched sync did not complete", zap.Error(err))
		}
	}, a.logger)
	if err != nil {
		return err
	}

	go func() {
		if err := w.Run(ctx); err != nil {
			a.logger.Error("Local store watcher stopped", zap.Error(err))
		}
	}()
	a.logger.Info("Watching local store", zap.String("path", a.cfg.Local.Path))
	return nil
}

// warnWatchThrottle flags a watcher that the throttle will gate after its
// first pass.
func warnWatchThrottle(l *zap.Logger, interval time.Duration) {
	if interval == reconcile.OncePerSession {
		l.Warn("Sync interval is once per session; watched changes after the first pass are throttled until restart",
			zap.String("hint", "set SYNC_MIN_INTERVAL to a duration such as 5m"))
	}
}
