// Package main wires together the harvester service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/shaileshms05/learnXAI/internal/api"
	"github.com/shaileshms05/learnXAI/internal/archive"
	"github.com/shaileshms05/learnXAI/internal/clock/system"
	"github.com/shaileshms05/learnXAI/internal/config"
	"github.com/shaileshms05/learnXAI/internal/detector"
	"github.com/shaileshms05/learnXAI/internal/fetchchain"
	"github.com/shaileshms05/learnXAI/internal/harvest"
	"github.com/shaileshms05/learnXAI/internal/logging"
	"github.com/shaileshms05/learnXAI/internal/optimizer"
	"github.com/shaileshms05/learnXAI/internal/progress"
	"github.com/shaileshms05/learnXAI/internal/progress/sinks"
	"github.com/shaileshms05/learnXAI/internal/publisher/pubsub"
	"github.com/shaileshms05/learnXAI/internal/session"
	"github.com/shaileshms05/learnXAI/internal/source"
	"github.com/shaileshms05/learnXAI/internal/storage/gcs"
	"github.com/shaileshms05/learnXAI/internal/storage/local"
	"github.com/shaileshms05/learnXAI/internal/storage/memory"
	"github.com/shaileshms05/learnXAI/internal/storage/postgres"
	"github.com/shaileshms05/learnXAI/internal/store"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, stop, cfg, logger); err != nil {
		logger.Error("harvester exited", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, stop context.CancelFunc, cfg config.Config, logger *zap.Logger) error {
	var closers []namedCloser
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].close(); err != nil {
				logger.Warn("close failed", zap.String("component", closers[i].name), zap.Error(err))
			}
		}
	}()

	sess := newSession(cfg, logger)
	closers = append(closers, namedCloser{"session", sess.Close})

	snapshots, blobCloser, err := newArchiveStore(ctx, cfg.Archive)
	if err != nil {
		return err
	}
	if blobCloser != nil {
		closers = append(closers, namedCloser{"archive", blobCloser.Close})
	}
	chainOpts := []fetchchain.Option{
		fetchchain.WithDetector(detector.NewHeuristic(cfg.Headless.ShellThreshold)),
		fetchchain.WithLogger(logger.Named("fetchchain")),
	}
	if snapshots != nil {
		chainOpts = append(chainOpts, fetchchain.WithArchiver(
			archive.New(snapshots, system.New().Now, logger.Named("archive")),
		))
	}
	chain := fetchchain.New(sess, chainOpts...)

	normalizer, err := newOptimizer(ctx, cfg.Optimizer, logger)
	if err != nil {
		return err
	}

	var (
		runs  store.RunRepository
		ready []api.ReadinessCheck
	)
	if cfg.DB.DSN != "" {
		runStore, err := postgres.NewRunStore(ctx, postgres.RunStoreConfig{
			DSN:             cfg.DB.DSN,
			MaxConns:        cfg.DB.MaxConns,
			MaxConnLifetime: cfg.DB.MaxConnLifetime,
		})
		if err != nil {
			return fmt.Errorf("init run store: %w", err)
		}
		closers = append(closers, namedCloser{"run store", func() error { runStore.Close(); return nil }})
		if cfg.DB.EnsureSchema {
			if err := runStore.EnsureSchema(ctx); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}
		}
		runs = runStore
		ready = append(ready, runStore.Ping)
	}

	hub, err := newHub(cfg.Progress, runs, logger)
	if err != nil {
		return err
	}

	opts := []harvest.Option{
		harvest.WithOptimizer(normalizer),
		harvest.WithPacing(cfg.Harvest.Pacing),
		harvest.WithEvents(hub),
		harvest.WithLogger(logger.Named("harvest")),
	}
	if cfg.PubSub.Enabled {
		pub, err := pubsub.New(ctx, cfg.PubSub.ProjectID, cfg.PubSub.TopicID)
		if err != nil {
			return fmt.Errorf("init pubsub publisher: %w", err)
		}
		closers = append(closers, namedCloser{"publisher", pub.Close})
		opts = append(opts, harvest.WithPublisher(pub))
	}
	harvester := harvest.New(source.Default(), chain, opts...)

	apiServer := api.NewServer(harvester, harvester.Registry(), runs, cfg, logger.Named("api"), ready...)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	// The hub flushes to the run store, so it closes before the deferred closers.
	if err := hub.Close(shutdownCtx); err != nil {
		logger.Warn("progress hub close failed", zap.Error(err))
	}
	logger.Info("shutdown complete")
	return nil
}

type namedCloser struct {
	name  string
	close func() error
}

func newSession(cfg config.Config, logger *zap.Logger) *session.Session {
	sessCfg := session.Config{
		UserAgent:     cfg.HTTP.UserAgent,
		StaticTimeout: cfg.HTTP.StaticTimeout,
		FeedTimeout:   cfg.HTTP.FeedTimeout,
		RenderTimeout: cfg.Headless.RenderTimeout,
		RespectRobots: cfg.HTTP.RespectRobots,
		PerHostRPS:    cfg.HTTP.PerHostRPS,
		PerHostBurst:  cfg.HTTP.PerHostBurst,
		Retry: session.RetryPolicy{
			MaxAttempts: cfg.HTTP.MaxRetries,
			BaseDelay:   cfg.HTTP.BackoffBase,
			MaxDelay:    cfg.HTTP.BackoffMax,
		},
		Logger: logger.Named("session"),
	}
	if cfg.Headless.Enabled {
		sessCfg.DriverFactory = session.NewChromedpFactory(session.ChromedpConfig{
			UserAgent: cfg.HTTP.UserAgent,
			ExecPath:  cfg.Headless.ExecPath,
		})
	} else {
		logger.Info("headless rendering disabled")
	}
	return session.New(sessCfg)
}

func newArchiveStore(ctx context.Context, cfg config.ArchiveConfig) (archive.BlobStore, io.Closer, error) {
	switch cfg.Provider {
	case config.ArchiveLocal:
		blobs, err := local.New(local.Config{BaseDir: cfg.Dir})
		if err != nil {
			return nil, nil, fmt.Errorf("init local archive: %w", err)
		}
		return blobs, nil, nil
	case config.ArchiveGCS:
		client, err := gcs.NewClient(ctx)
		if err != nil {
			return nil, nil, err
		}
		blobs, err := gcs.New(client, gcs.Config{Bucket: cfg.Bucket, Prefix: cfg.Prefix})
		if err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("init gcs archive: %w", err)
		}
		return blobs, blobs, nil
	case config.ArchiveMemory:
		return memory.NewBlobStore(), nil, nil
	default:
		return nil, nil, nil
	}
}

func newOptimizer(ctx context.Context, cfg config.OptimizerConfig, logger *zap.Logger) (*optimizer.Resilient, error) {
	var primary optimizer.Optimizer
	if cfg.Provider == config.OptimizerGemini {
		gemini, err := optimizer.NewGemini(ctx, optimizer.GeminiConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("init gemini optimizer: %w", err)
		}
		primary = gemini
	}
	return optimizer.NewResilient(primary, cfg.Timeout, logger.Named("optimizer")), nil
}

func newHub(cfg config.ProgressConfig, runs store.RunRepository, logger *zap.Logger) (*progress.Hub, error) {
	promSink, err := sinks.NewPrometheusSink(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, fmt.Errorf("init prometheus sink: %w", err)
	}
	hubSinks := []progress.Sink{sinks.NewLogSink(logger.Named("progress")), promSink}
	if runs != nil {
		hubSinks = append(hubSinks, sinks.NewStoreSink(runs, logger.Named("progress")))
	}
	return progress.NewHub(progress.HubConfig{
		BufferSize:  cfg.BufferSize,
		MaxBatch:    cfg.MaxBatch,
		MaxWait:     cfg.MaxWait,
		SinkTimeout: cfg.SinkTimeout,
		Logger:      logger.Named("hub"),
	}, hubSinks...), nil
}
