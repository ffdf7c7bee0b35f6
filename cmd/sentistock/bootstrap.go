package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"stock-sentiment-agent/internal/analyzer"
	"stock-sentiment-agent/internal/datasource"
	"stock-sentiment-agent/internal/logger"
	"stock-sentiment-agent/internal/metrics"
	"stock-sentiment-agent/internal/reportlog"
	"stock-sentiment-agent/internal/scorer"
	"stock-sentiment-agent/internal/store"
	"stock-sentiment-agent/internal/trace"
)

// initializeSystem loads .env and sets up logging and tracing. defaultLevel
// applies only when LOG_LEVEL is unset.
func initializeSystem(defaultLevel string, verbose bool) error {
	_ = godotenv.Load()

	logCfg := logger.LoadConfigFromEnv()
	if os.Getenv("LOG_LEVEL") == "" {
		logCfg.Level = defaultLevel
	}
	if err := logger.InitWithConfig(logCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.SetVerbose(verbose)

	if err := trace.Init(version); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

// loadConfig loads the YAML config, falling back to defaults when absent.
func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// compressOldReports archives report log files past the retention window.
func compressOldReports(ctx context.Context, l *reportlog.Log, retentionDays int) {
	if err := l.CompressOlder(retentionDays); err != nil {
		logger.Warn(ctx, "Failed to compress old report logs", "error", err)
	}
}

// initializeAnalyzer wires sources, scorer, cache and report log. The
// returned cleanup releases the cache connection.
func initializeAnalyzer(ctx context.Context, cfg *store.Config, recorder *metrics.Recorder) (*analyzer.Analyzer, func(), error) {
	cleanup := func() {}

	cache, err := datasource.NewStore(ctx, cfg)
	if err != nil {
		return nil, cleanup, fmt.Errorf("cache: %w", err)
	}
	if c, ok := cache.(io.Closer); ok {
		cleanup = func() { _ = c.Close() }
	}

	headlines, err := datasource.NewHeadlineSource(cfg, cache, recorder)
	if err != nil {
		return nil, cleanup, fmt.Errorf("news sources: %w", err)
	}
	prices, quotes, err := datasource.NewMarketSources(cfg, cache, recorder)
	if err != nil {
		return nil, cleanup, fmt.Errorf("market source: %w", err)
	}
	sc, err := scorer.New(cfg, recorder)
	if err != nil {
		return nil, cleanup, err
	}

	opts := []analyzer.Option{analyzer.WithRecorder(recorder), analyzer.WithQuotes(quotes)}
	if cfg.ReportLog.Enabled {
		l := reportlog.New(cfg.ReportLog.Dir)
		compressOldReports(ctx, l, cfg.ReportLog.RetentionDays)
		opts = append(opts, analyzer.WithReportLog(l))
	}

	logger.Debug(ctx, "Analyzer initialized",
		"scorer", cfg.Scorer.Provider,
		"news_sources", cfg.News.Sources,
		"market_source", cfg.Market.Source,
		"cache", cfg.Cache.Backend,
	)
	return analyzer.New(headlines, prices, sc, analyzer.ConfigFrom(cfg), opts...), cleanup, nil
}
