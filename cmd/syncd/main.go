package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saturnino-fabrica-de-software/accesssync/internal/api"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/audit"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/biometric"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/cache"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/config"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/database"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/face"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/hikcentral"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/poller"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/repository"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/repository/memory"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/roster"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// storage is what the process persists to, postgres or in-memory
type storage struct {
	workers  repository.WorkerRepositoryInterface
	requests repository.RequestLogRepositoryInterface
	db       database.Pinger
	cache    *cache.PGCache
	close    func()
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting accesssync",
		slog.String("environment", cfg.Environment),
		slog.String("store", cfg.StoreBackend),
		slog.Bool("dry_run", cfg.DryRun),
		slog.Duration("poll_interval", cfg.PollInterval),
	)
	if cfg.DryRun {
		logger.Warn("DRY_RUN enabled: no request will reach HikCentral or the roster")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.close()

	auditLog := audit.NewMultiLogger(audit.NewSlogLogger(logger), store.requests)

	hik := hikcentral.NewClient(hikcentral.Config{
		BaseURL:      cfg.HikCentralBaseURL,
		AppKey:       cfg.HikCentralAppKey,
		AppSecret:    cfg.HikCentralAppSecret,
		OrgIndexCode: cfg.HikCentralOrgIndexCode,
		Timeout:      cfg.CallTimeout,
		InsecureTLS:  cfg.HikCentralInsecureTLS,
		DryRun:       cfg.DryRun,
	}, auditLog, logger)

	source := roster.NewClient(roster.Config{
		BaseURL:      cfg.RosterBaseURL,
		APIKey:       cfg.RosterAPIKey,
		EventsPath:   cfg.RosterEventsPath,
		CompletePath: cfg.RosterCompletePath,
		FailPath:     cfg.RosterFailPath,
		StatusPath:   cfg.RosterStatusPath,
		Timeout:      cfg.CallTimeout,
		DryRun:       cfg.DryRun,
	}, auditLog, logger)

	matcher, err := newMatcher(ctx, cfg, store, logger)
	if err != nil {
		return err
	}

	engine := service.NewEngine(store.workers, hik, source, matcher, service.EngineConfig{
		PrivilegeGroupID: cfg.HikCentralPrivilegeGroupID,
		CallTimeout:      cfg.CallTimeout,
	}, logger)

	driver, err := poller.New(engine, poller.Config{
		Interval:    cfg.PollInterval,
		PassTimeout: cfg.PassTimeout,
		RunOnStart:  true,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create poller: %w", err)
	}
	driver.MarkDryRun(cfg.DryRun)

	if store.cache != nil {
		err := driver.Schedule("@hourly", "cache-cleanup", func(ctx context.Context) error {
			removed, err := store.cache.CleanupExpired(ctx)
			if err != nil {
				return err
			}
			logger.Debug("expired cache entries removed", "count", removed)
			return nil
		})
		if err != nil {
			return err
		}
	}

	if cfg.OpsAPIToken == "" {
		logger.Warn("OPS_API_TOKEN not set: /v1 endpoints will reject every request")
	}

	router := api.NewRouter(logger, &api.Dependencies{
		Sync:     driver,
		Requests: store.requests,
		Workers:  store.workers,
		DB:       store.db,
		APIToken: cfg.OpsAPIToken,
	})
	router.Setup()

	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("ops API listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	pollerDone := make(chan struct{})
	go func() {
		defer close(pollerDone)
		_ = driver.Run(ctx)
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		serverErr = fmt.Errorf("server error: %w", err)
		stop()
	}

	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	// the in-flight pass sees the cancelled context and stops between events
	select {
	case <-pollerDone:
	case <-time.After(30 * time.Second):
		logger.Warn("poller did not stop in time")
	}

	logger.Info("accesssync stopped")
	return serverErr
}

func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage, error) {
	if cfg.UsesMemoryStore() {
		logger.Warn("memory store: worker records are lost on restart")
		return &storage{
			workers:  memory.NewWorkerStore(),
			requests: memory.NewRequestLog(cfg.RequestLogLimit),
			close:    func() {},
		}, nil
	}

	pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.Migrate(pool, pool.Config().ConnConfig.Database, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &storage{
		workers:  repository.NewWorkerRepository(pool),
		requests: repository.NewRequestLogRepository(pool, cfg.RequestLogLimit),
		db:       pool,
		cache:    cache.NewPGCache(pool),
		close:    pool.Close,
	}, nil
}

func newMatcher(ctx context.Context, cfg *config.Config, store *storage, logger *slog.Logger) (*biometric.Matcher, error) {
	embedder, err := face.NewEmbedder(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create face embedder: %w", err)
	}

	detector, err := face.NewDetector(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create face detector: %w", err)
	}

	opts := []biometric.Option{biometric.WithThreshold(cfg.FaceMatchThreshold)}
	if detector != nil {
		opts = append(opts, biometric.WithDetector(detector))
	}
	if store.cache != nil {
		opts = append(opts, biometric.WithCache(cache.NewVectorCache(store.cache, cfg.VectorCacheTTL)))
	}

	logger.Info("biometric matcher ready",
		slog.String("provider", cfg.FaceProvider),
		slog.String("detector", cfg.FaceDetector),
		slog.Float64("threshold", cfg.FaceMatchThreshold),
	)

	fetcher := biometric.NewHTTPFetcher(cfg.CallTimeout, biometric.DefaultMaxImageSize)
	return biometric.NewMatcher(fetcher, embedder, logger, opts...), nil
}
