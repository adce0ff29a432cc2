// Package main is the entry point for the quotesync service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/quotesync/quotesync/internal/adapters/clients"
	"github.com/quotesync/quotesync/internal/adapters/clients/quotesource"
	"github.com/quotesync/quotesync/internal/adapters/flags"
	"github.com/quotesync/quotesync/internal/adapters/http"
	"github.com/quotesync/quotesync/internal/adapters/http/handlers"
	"github.com/quotesync/quotesync/internal/adapters/notify"
	"github.com/quotesync/quotesync/internal/adapters/storage/filekv"
	"github.com/quotesync/quotesync/internal/adapters/storage/memkv"
	"github.com/quotesync/quotesync/internal/adapters/storage/sqlitekv"
	"github.com/quotesync/quotesync/internal/app"
	"github.com/quotesync/quotesync/internal/platform/config"
	"github.com/quotesync/quotesync/internal/platform/logging"
	"github.com/quotesync/quotesync/internal/platform/telemetry"
	"github.com/quotesync/quotesync/internal/ports"
	"github.com/quotesync/quotesync/internal/store"
	"github.com/quotesync/quotesync/internal/syncer"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	// Version is the semantic version of the service.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "unknown"

	// BuildTime is the timestamp when the binary was built.
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Cancelled on SIGINT/SIGTERM; everything long-running hangs off it.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Determine profile from environment
	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	// 2. Load and validate configuration (fail fast)
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// 3. Initialize logging
	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	slog.SetDefault(logger)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
	)

	// 4. Initialize telemetry (noop if disabled)
	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(context.Background()); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	// 5. Open storage: durable per configured driver, session in memory
	durable, closeDurable, err := openDurable(&cfg.Storage)
	if err != nil {
		return fmt.Errorf("opening durable storage: %w", err)
	}

	defer func() {
		if closeErr := closeDurable(); closeErr != nil {
			logger.Error("storage close error", slog.Any("error", closeErr))
		}
	}()

	// 6. Create and load the record store
	recordStore, err := store.New(store.Config{
		Durable: durable,
		Session: memkv.New(),
		IDFloor: cfg.Store.IDFloor,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("creating record store: %w", err)
	}

	recordStore.Load(ctx)

	// 7. Create the HTTP client for the remote quote feed
	httpClient, err := clients.New(&clients.Config{
		BaseURL:     cfg.Services.Quotes.BaseURL,
		ServiceName: cfg.Services.Quotes.Name,
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("creating HTTP client: %w", err)
	}

	// 8. Create the feed adapter and register it as a health check
	source, err := quotesource.New(quotesource.Config{
		Client:          httpClient,
		FetchPath:       cfg.Services.Quotes.FetchPath,
		PublishPath:     cfg.Services.Quotes.PublishPath,
		FetchLimit:      cfg.Sync.FetchLimit,
		DefaultCategory: cfg.Sync.DefaultCategory,
		Mapping: quotesource.Mapping{
			ID:       cfg.Sync.Mapping.ID,
			Text:     cfg.Sync.Mapping.Text,
			Category: cfg.Sync.Mapping.Category,
		},
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("creating quote feed adapter: %w", err)
	}

	healthRegistry := ports.NewHealthRegistry()
	if err := healthRegistry.Register(source); err != nil {
		return fmt.Errorf("registering feed health check: %w", err)
	}

	if checker, ok := durable.(ports.HealthChecker); ok {
		if err := healthRegistry.Register(checker); err != nil {
			return fmt.Errorf("registering storage health check: %w", err)
		}
	}

	// 9. Create the application layer
	ring := notify.NewRing(notify.DefaultCapacity, logger)

	quoteService := app.NewQuoteService(app.QuoteServiceConfig{
		Store:    recordStore,
		Flags:    flags.NewStatic(cfg.Flags, logger),
		Notifier: ring,
		Logger:   logger,
	})

	scheduler, err := syncer.New(syncer.Config{
		Store:           recordStore,
		Source:          source,
		Notifier:        ring,
		Interval:        cfg.Sync.Interval,
		PushEnabled:     cfg.Sync.PushEnabled,
		PushConcurrency: cfg.Sync.PushConcurrency,
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("creating sync scheduler: %w", err)
	}

	// 10. Create the HTTP server and wire routes
	server := http.New(&cfg.Server, logger)

	http.SetupRouter(server.Engine(), http.RouterConfig{
		AppConfig:            &cfg.App,
		HealthHandler:        handlers.NewHealthHandler(healthRegistry, handlers.NewBuildInfo(Version, Commit, BuildTime)),
		QuoteHandler:         handlers.NewQuoteHandler(quoteService),
		SyncHandler:          handlers.NewSyncHandler(scheduler),
		NotificationsHandler: handlers.NewNotificationsHandler(ring),
		Timeout:              http.DefaultRequestTimeout,
	})

	// 11. Run the scheduler and the server until a signal arrives
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return scheduler.Run(groupCtx)
	})

	group.Go(func() error {
		serverErr := server.Start()

		select {
		case err := <-serverErr:
			return err
		case <-groupCtx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()

			return server.Shutdown(shutdownCtx)
		}
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("shutdown complete")

	return nil
}

// openDurable opens the configured durable key-value backend. The returned
// func releases it.
func openDurable(cfg *config.StorageConfig) (ports.KeyValueStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case "memory":
		return memkv.New(), noop, nil

	case "file":
		kv, err := filekv.New(cfg.Path)
		if err != nil {
			return nil, nil, err
		}

		return kv, noop, nil

	case "sqlite":
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, nil, fmt.Errorf("creating storage directory: %w", err)
		}

		kv, err := sqlitekv.New(filepath.Join(cfg.Path, "quotesync.db"))
		if err != nil {
			return nil, nil, err
		}

		return kv, kv.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
