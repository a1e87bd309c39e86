// Package main is the entry point for the shopdesk admin backoffice
// server. It wires all dependencies together and starts the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/quintor/shopdesk/internal/backend"
	"github.com/quintor/shopdesk/internal/command"
	"github.com/quintor/shopdesk/internal/config"
	"github.com/quintor/shopdesk/internal/definition"
	"github.com/quintor/shopdesk/internal/forms"
	"github.com/quintor/shopdesk/internal/metadata"
	"github.com/quintor/shopdesk/internal/observability"
	"github.com/quintor/shopdesk/internal/rates"
	"github.com/quintor/shopdesk/internal/search"
	"github.com/quintor/shopdesk/internal/transport"
)

// Build-time variables set via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc1234"
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}

	observability.Version = version
	observability.Commit = commit

	logger, err := observability.NewLogger(cfg.Observability)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	metrics := observability.InitMetrics(prometheus.DefaultRegisterer)

	// Load definitions, validate, build registry.
	defs, err := definition.Load(cfg.Definitions.Directories)
	if err != nil {
		logger.Error("definition loading failed", zap.Error(err))
		return 1
	}

	validator := definition.NewValidator()
	verrs := validator.Validate(defs)
	if len(verrs) > 0 {
		for _, ve := range verrs {
			logger.Error("definition validation error", zap.String("error", ve.Error()))
		}
		logger.Error("definition validation failed", zap.Int("errors", len(verrs)))
		return 1
	}

	registry := definition.NewRegistry(defs)
	metrics.SetDefinitionsLoaded(float64(len(defs)))

	// Backend client and rate provider.
	backendClient := backend.NewClient(cfg.Backend, logger)
	backendClient.SetMetrics(metrics)
	rateClient := rates.NewClient(cfg.Rates, logger)

	// Providers.
	lookupProvider := search.NewLookupProvider(
		registry, backendClient,
		cfg.Lookup.Cache.TTL,
		cfg.Lookup.Cache.MaxEntries,
	)
	lookupProvider.SetMetrics(metrics)

	actionProvider := metadata.NewActionProvider()
	navProvider := metadata.NewNavigationProvider(registry)
	pageProvider := metadata.NewPageProvider(registry, backendClient, actionProvider)
	detailProvider := metadata.NewDetailProvider(registry, backendClient)

	formEngine := forms.NewEngine(registry, backendClient, lookupProvider,
		forms.WithLogger(logger),
		forms.WithMetrics(metrics),
		forms.WithSessionTTL(cfg.Forms.SessionTTL),
		forms.WithMaxSessions(cfg.Forms.MaxSessions),
		forms.WithCalculationTimeout(cfg.Forms.CalculationTimeout),
		forms.WithCalculator("currency-rate", rateClient),
	)

	cmdExecutor := command.NewExecutor(registry, backendClient,
		command.WithLogger(logger),
		command.WithMetrics(metrics),
	)

	router := transport.NewRouter(transport.Dependencies{
		Config:     cfg,
		Logger:     logger,
		Metrics:    metrics,
		Navigation: navProvider,
		Pages:      pageProvider,
		Details:    detailProvider,
		Forms:      formEngine,
		Commands:   cmdExecutor,
		Lookups:    lookupProvider,
		Readiness: observability.ReadinessChecks{
			DefinitionsLoaded: func() bool { return len(registry.AllDomains()) > 0 },
			Backend:           backendClient,
		},
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Background session sweeper.
	bgCtx, bgCancel := context.WithCancel(ctx)
	defer bgCancel()
	go runSessionSweeper(bgCtx, formEngine, cfg.Forms.SessionTTL, logger)

	logger.Info("server started",
		zap.Int("port", cfg.Server.Port),
		zap.String("version", version),
		zap.String("commit", commit),
		zap.Int("definitions", len(defs)),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown initiated")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		return 1
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	bgCancel()

	logger.Info("shutdown complete")
	return 0
}

// runSessionSweeper periodically evicts idle form sessions. The sweep
// interval tracks the session TTL so evictions lag expiry by at most half
// a TTL.
func runSessionSweeper(ctx context.Context, engine *forms.Engine, ttl time.Duration, logger *zap.Logger) {
	interval := ttl / 2
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := engine.Sweep(time.Now()); n > 0 {
				logger.Info("form sessions evicted", zap.Int("count", n))
			}
		}
	}
}
