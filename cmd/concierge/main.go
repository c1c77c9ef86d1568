// cmd/concierge/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"district-concierge/internal/assets"
	"district-concierge/internal/audit"
	"district-concierge/internal/catalog"
	"district-concierge/internal/common/config"
	"district-concierge/internal/common/database"
	"district-concierge/internal/common/logger"
	"district-concierge/internal/common/observability"
	"district-concierge/internal/faq"
	"district-concierge/internal/genai"
	"district-concierge/internal/intent"
	"district-concierge/internal/match"
	"district-concierge/internal/pipeline"
	"district-concierge/internal/render"
	"district-concierge/internal/selector"
	"district-concierge/internal/server"
	"district-concierge/internal/tags"
	"district-concierge/internal/validate"
)

const auditBufferSize = 256

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting district concierge",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rd *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rd, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rd.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rd.Close()
	zapLog.Info("Redis connected successfully")

	// --- Load language assets ---
	registry, err := assets.Load(cfg.Assets.Path)
	if err != nil {
		zapLog.Fatal("asset registry load failed", zap.Error(err))
	}
	zapLog.Info("language assets loaded", zap.String("version", registry.Version))

	// --- Build catalog stores ---
	queryTimeout := time.Duration(cfg.Pipeline.Catalog.QueryTimeout) * time.Millisecond
	pgStore := catalog.NewPostgresStore(pg.DB, queryTimeout, log)

	var store catalog.Store = pgStore
	if cfg.Pipeline.Catalog.CacheTTL > 0 {
		cacheTTL := time.Duration(cfg.Pipeline.Catalog.CacheTTL) * time.Second
		store = catalog.NewCachedStore(pgStore, rd.Client, cacheTTL, log)
	}

	// --- Build pipeline stages ---
	renderer, err := render.New(log)
	if err != nil {
		zapLog.Fatal("renderer init failed", zap.Error(err))
	}

	sink := audit.NewPostgresSink(pg.DB, auditBufferSize, log)
	defer sink.Close()

	var generator genai.Generator
	if cfg.GenAI.BaseURL != "" {
		generator = genai.NewClient(cfg.GenAI, log)
	}

	p := pipeline.New(pipeline.Deps{
		Classifier: intent.NewClassifier(registry, cfg.Pipeline.Classifier, log),
		Analyzer:   tags.NewAnalyzer(registry, log),
		Scorer:     match.NewScorer(cfg.Pipeline.Matcher, log),
		FAQ:        faq.NewMatcher(pgStore, registry, cfg.Pipeline.FAQ, log),
		Selector:   selector.New(store, registry, cfg.Pipeline.Selector, log),
		// The validator resolves names against the live catalog, never the
		// TTL cache: a removed record must stop resolving immediately.
		Validator: validate.New(pgStore, registry, nil, sink, log),
		Renderer:  renderer,
		Generator: generator,
		Store:     store,
		Obs:       obs,
	}, cfg.Pipeline, log)

	srv := server.New(cfg.Server, p, pg, rd, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		zapLog.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		zapLog.Error("http server stopped", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Millisecond)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("graceful shutdown failed", zap.Error(err))
	}
	zapLog.Info("shutdown complete")
}
