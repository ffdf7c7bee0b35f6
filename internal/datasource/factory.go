package datasource

import (
	"context"
	"fmt"
	"os"
	"strings"

	"stock-sentiment-agent/internal/interfaces"
	"stock-sentiment-agent/internal/logger"
	"stock-sentiment-agent/internal/market"
	"stock-sentiment-agent/internal/metrics"
	"stock-sentiment-agent/internal/news"
	"stock-sentiment-agent/internal/store"
	"stock-sentiment-agent/internal/types"
)

// NewStore creates the cache backend named by cfg.Cache.Backend. NONE yields
// a nil Store, which disables caching.
func NewStore(ctx context.Context, cfg *store.Config) (Store, error) {
	switch strings.ToUpper(cfg.Cache.Backend) {
	case "", "NONE":
		return nil, nil
	case "MEMORY":
		return NewMemoryStore(cfg.Cache.MaxSize), nil
	case "REDIS":
		rs, err := NewRedisStore(ctx, RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			Prefix:   cfg.Cache.Redis.Prefix,
		})
		if err != nil {
			return nil, err
		}
		logger.Info(ctx, "Redis cache connected", "addr", cfg.Cache.Redis.Addr)
		return rs, nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s (valid options: NONE, MEMORY, REDIS)", cfg.Cache.Backend)
	}
}

func options(cfg *store.Config, cache Store, recorder *metrics.Recorder) Options {
	return Options{
		Retry: RetryPolicy{
			MaxAttempts:     cfg.Fetch.Retry.MaxAttempts,
			InitialInterval: cfg.Fetch.Retry.InitialInterval,
			MaxInterval:     cfg.Fetch.Retry.MaxInterval,
		},
		Limiter:  NewLimiter(cfg.Fetch.RatePerSecond, cfg.Fetch.Burst),
		Store:    cache,
		TTL:      cfg.Cache.TTL,
		Recorder: recorder,
	}
}

// NewHeadlineSource merges the configured news providers. Each provider gets
// its own retry and rate limit; the merged result is cached once.
func NewHeadlineSource(cfg *store.Config, cache Store, recorder *metrics.Recorder) (interfaces.HeadlineSource, error) {
	if len(cfg.News.Sources) == 0 {
		return nil, fmt.Errorf("no news sources configured")
	}

	perSource := options(cfg, nil, recorder)
	var sources []interfaces.HeadlineSource
	for _, name := range cfg.News.Sources {
		var src interfaces.HeadlineSource
		switch strings.ToUpper(name) {
		case "YAHOO_RSS":
			src = news.NewYahooRSS(cfg.Fetch.Timeout)
		case "FINVIZ":
			src = news.NewFinviz(cfg.Fetch.Timeout)
		case "STATIC":
			src = news.NewStatic(nil)
		default:
			return nil, fmt.Errorf("unknown news source: %s (valid options: YAHOO_RSS, FINVIZ, STATIC)", name)
		}
		sources = append(sources, Decorate[types.Headline](src, "news."+strings.ToLower(name), perSource))
	}

	merged := news.NewMerged(cfg.News.MaxHeadlines, sources...)
	return WithCache[types.Headline](merged, "news", cache, cfg.Cache.TTL, recorder), nil
}

// NewMarketSources builds the configured market data provider once and
// returns its price and quote views, each decorated separately.
func NewMarketSources(cfg *store.Config, cache Store, recorder *metrics.Recorder) (interfaces.PriceSource, interfaces.QuoteSource, error) {
	var src interface {
		interfaces.PriceSource
		interfaces.QuoteSource
	}
	switch strings.ToUpper(cfg.Market.Source) {
	case "", "YAHOO":
		src = market.NewYahoo(cfg.Fetch.Timeout)
	case "KITE":
		k, err := market.NewKite(os.Getenv("KITE_API_KEY"), os.Getenv("KITE_ACCESS_TOKEN"), cfg.Market.Exchange)
		if err != nil {
			return nil, nil, err
		}
		src = k
	case "STATIC":
		src = market.NewStatic(nil)
	default:
		return nil, nil, fmt.Errorf("unknown market source: %s (valid options: YAHOO, KITE, STATIC)", cfg.Market.Source)
	}

	opts := options(cfg, cache, recorder)
	prices := Decorate[types.PricePoint](src, "prices", opts)
	quotes := SourceAsQuotes(Decorate(QuotesAsSource(src), "quotes", opts))
	return prices, quotes, nil
}
