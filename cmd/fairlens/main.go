package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fairlens/fairlens/internal/aggregator"
	"github.com/fairlens/fairlens/internal/analyzer"
	"github.com/fairlens/fairlens/internal/audit"
	"github.com/fairlens/fairlens/internal/core/domain"
	"github.com/fairlens/fairlens/internal/monitor"
	"github.com/fairlens/fairlens/internal/pkg/config"
	"github.com/fairlens/fairlens/internal/resilience"
	"github.com/fairlens/fairlens/internal/server"
	"github.com/fairlens/fairlens/internal/storage"
	"github.com/fairlens/fairlens/internal/storage/memory"
	"github.com/fairlens/fairlens/internal/storage/sqlite"
	"github.com/fairlens/fairlens/internal/telemetry"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.InitTracer("fairlens", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	cfg, err := config.Load(os.Getenv("FAIRLENS_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store := newStore(cfg, logger)
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close store", slog.String("error", err.Error()))
		}
	}()

	auditLogger := audit.New(store, audit.Config{
		Enabled:            cfg.Audit.Enabled,
		DemographicMasking: cfg.Audit.DemographicMasking,
		Actor:              cfg.Audit.Actor,
	}, audit.WithLogger(logger))

	controller := resilience.NewController(resilience.Config{
		LayerTimeout:     cfg.Resilience.LayerTimeoutDuration(),
		FailureThreshold: cfg.Resilience.FailureThreshold,
		Cooldown:         cfg.Resilience.CooldownDuration(),
		FallbackScore:    cfg.Analysis.FallbackScore,
	}, resilience.WithLogger(logger))

	mon, err := monitor.New(monitor.Config{
		Threshold:     domain.AlertLevel(cfg.Monitor.AlertThreshold),
		QueueSize:     cfg.Monitor.QueueSize,
		RecentResults: cfg.Monitor.RecentResults,
	}, monitor.WithLogger(logger), monitor.WithSink(monitor.NewLogSink(logger)))
	if err != nil {
		log.Fatalf("Failed to create monitor: %v", err)
	}
	if err := mon.Start(); err != nil {
		log.Fatalf("Failed to start monitor: %v", err)
	}

	engine := aggregator.New(newAnalyzers(cfg, logger), controller, aggregator.Config{
		Weights:            cfg.NormalizedWeights(),
		Thresholds:         cfg.Analysis.AlertThresholds,
		ConfidenceBaseline: cfg.Analysis.ConfidenceBaseline,
		ConfidenceFloor:    cfg.Analysis.ConfidenceFloor,
		FallbackScore:      cfg.Analysis.FallbackScore,
	},
		aggregator.WithLogger(logger),
		aggregator.WithAuditor(auditLogger),
		aggregator.WithObserver(mon),
	)

	srv := server.New(
		cfg.Server.Port,
		requestTimeout(cfg),
		engine, mon, controller,
		server.WithLogger(logger),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	logger.Info("fairlens started",
		slog.Int("port", cfg.Server.Port),
		slog.String("storage", cfg.Storage.Type),
		slog.Bool("audit_enabled", cfg.Audit.Enabled),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", slog.String("error", err.Error()))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	if err := mon.Stop(shutdownCtx); err != nil {
		logger.Error("monitor stop error", slog.String("error", err.Error()))
	}

	logger.Info("fairlens shutdown complete")
}

func newStore(cfg *config.Config, logger *slog.Logger) storage.AuditStore {
	switch cfg.Storage.Type {
	case "sqlite":
		path := cfg.Storage.SQLite.Path
		if path == "" {
			path = "./data/fairlens.db"
		}
		store, err := sqlite.New(path)
		if err != nil {
			log.Fatalf("Failed to open sqlite store: %v", err)
		}
		return store
	default:
		return memory.New()
	}
}

// newAnalyzers builds the four layer adapters from the configured
// endpoints. A layer without an endpoint still gets an adapter; its calls
// fail and degrade honestly instead of being silently skipped.
func newAnalyzers(cfg *config.Config, logger *slog.Logger) []analyzer.LayerAnalyzer {
	endpoints := make(map[string]config.LayerConfig, len(cfg.Layers))
	for _, lc := range cfg.Layers {
		endpoints[lc.Name] = lc
	}

	scorerFor := func(layer domain.Layer) analyzer.Scorer {
		lc, ok := endpoints[string(layer)]
		if !ok {
			lc, ok = endpoints["default"]
		}
		if !ok {
			logger.Warn("no endpoint configured for layer; its results will degrade",
				slog.String("layer", string(layer)))
		}
		return analyzer.NewRemoteScorer(lc.BaseURL, analyzer.WithAPIKey(lc.APIKey))
	}

	opts := []analyzer.Option{
		analyzer.WithLogger(logger),
		analyzer.WithFallbackScore(cfg.Analysis.FallbackScore),
	}

	return []analyzer.LayerAnalyzer{
		analyzer.NewPreprocessing(scorerFor(domain.LayerPreprocessing), opts...),
		analyzer.NewModelLevel(scorerFor(domain.LayerModelLevel), opts...),
		analyzer.NewInteractive(scorerFor(domain.LayerInteractive), opts...),
		analyzer.NewEvaluation(scorerFor(domain.LayerEvaluation), opts...),
	}
}

func requestTimeout(cfg *config.Config) time.Duration {
	if cfg.Server.RequestTimeout == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(cfg.Server.RequestTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}
