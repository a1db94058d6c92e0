package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/githubtune/githubtune/internal/api"
	"github.com/githubtune/githubtune/internal/cache"
	"github.com/githubtune/githubtune/internal/config"
	"github.com/githubtune/githubtune/internal/contrib"
	"github.com/githubtune/githubtune/internal/health"
	"github.com/githubtune/githubtune/internal/metrics"
	"github.com/githubtune/githubtune/internal/retry"
	"github.com/githubtune/githubtune/internal/scrape"
)

func main() {
	// Setup structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	if os.Getenv("ENVIRONMENT") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Logger = logger

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("listen_addr", cfg.ListenAddr).
		Str("base_url", cfg.ScrapeBaseURL).
		Int("batch_size", cfg.ScrapeBatchSize).
		Msg("starting contributions service")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Metrics
	collector := metrics.New()

	// Scrape pipeline
	fetcher := scrape.NewHTTPFetcher(cfg.ScrapeTimeout, cfg.ScrapeUserAgent)
	aggregator := scrape.NewAggregator(fetcher, scrape.Options{
		BaseURL:           cfg.ScrapeBaseURL,
		BatchSize:         cfg.ScrapeBatchSize,
		BatchDelay:        cfg.ScrapeBatchDelay,
		FloorYear:         cfg.ScrapeFloorYear,
		KeepInactiveYears: cfg.ScrapeKeepInactiveYears,
		Retry:             retry.DefaultConfig(),
	}, collector, logger)

	// Health checker: the single interesting dependency is GitHub itself.
	checker := health.NewChecker(logger)
	checker.Register("upstream", func(ctx context.Context) health.Status {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodHead, cfg.ScrapeBaseURL, nil)
		if reqErr != nil {
			return health.StatusDown
		}
		resp, doErr := http.DefaultClient.Do(req)
		if doErr != nil {
			return health.StatusDown
		}
		resp.Body.Close()
		if resp.StatusCode >= 500 {
			return health.StatusDegraded
		}
		return health.StatusOK
	})

	// Response cache
	var responseCache *cache.Cache[string, contrib.All]
	if cfg.CacheEnabled() {
		responseCache = cache.New[string, contrib.All](cfg.CacheSize, cfg.CacheTTL)
	}

	handlers := api.NewHandlers(aggregator, responseCache, checker, collector, logger)
	server := api.NewServer(api.ServerConfig{
		ListenAddr:  cfg.ListenAddr,
		CORSOrigins: cfg.CORSOrigins,
	}, handlers, collector, logger)

	// Start API server
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	// Wait for shutdown signal or server failure
	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down gracefully")
	case err := <-serverErr:
		logger.Error().Err(err).Msg("API server error")
	}

	shutdownDone := make(chan struct{})
	go func() {
		if err := server.Shutdown(); err != nil {
			logger.Error().Err(err).Msg("API server shutdown error")
		}
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		logger.Info().Msg("server stopped")
	case <-time.After(10 * time.Second):
		logger.Warn().Msg("forced shutdown after timeout")
	}

	logger.Info().Msg("contributions service stopped")
}
