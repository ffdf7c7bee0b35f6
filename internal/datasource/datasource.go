// Package datasource decorates headline and price sources with retries,
// rate limiting, caching and observability.
package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"stock-sentiment-agent/internal/apperr"
	"stock-sentiment-agent/internal/interfaces"
	"stock-sentiment-agent/internal/logger"
	"stock-sentiment-agent/internal/metrics"
	"stock-sentiment-agent/internal/trace"
	"stock-sentiment-agent/internal/types"
)

// Source is the common shape of HeadlineSource and PriceSource. Quotes are
// adapted onto it by QuotesAsSource.
type Source[T any] interface {
	Fetch(ctx context.Context, ticker string, start, end time.Time) ([]T, error)
}

// RetryPolicy bounds exponential backoff between attempts.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// WithRetry retries source-unavailable failures. Other error kinds, such as
// an unknown ticker, are returned on the first attempt.
func WithRetry[T any](next Source[T], name string, p RetryPolicy) Source[T] {
	if p.MaxAttempts <= 1 {
		return next
	}
	return &retrying[T]{next: next, name: name, policy: p}
}

type retrying[T any] struct {
	next   Source[T]
	name   string
	policy RetryPolicy
}

func (r *retrying[T]) Fetch(ctx context.Context, ticker string, start, end time.Time) ([]T, error) {
	eb := backoff.NewExponentialBackOff()
	if r.policy.InitialInterval > 0 {
		eb.InitialInterval = r.policy.InitialInterval
	}
	if r.policy.MaxInterval > 0 {
		eb.MaxInterval = r.policy.MaxInterval
	}
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(r.policy.MaxAttempts-1)), ctx)

	var out []T
	attempt := 0
	op := func() error {
		attempt++
		res, err := r.next.Fetch(ctx, ticker, start, end)
		if err != nil {
			if !apperr.Retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		out = res
		return nil
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn(ctx, "Source fetch failed, retrying",
			"source", r.name,
			"ticker", ticker,
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)
	}

	if err := backoff.RetryNotify(op, b, notify); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, apperr.SourceUnavailable("datasource."+r.name, err)
		}
		return nil, err
	}
	return out, nil
}

// WithRateLimit makes each fetch wait for a limiter token. A nil limiter
// returns next unchanged.
func WithRateLimit[T any](next Source[T], name string, limiter *rate.Limiter) Source[T] {
	if limiter == nil {
		return next
	}
	return &limited[T]{next: next, name: name, limiter: limiter}
}

type limited[T any] struct {
	next    Source[T]
	name    string
	limiter *rate.Limiter
}

func (l *limited[T]) Fetch(ctx context.Context, ticker string, start, end time.Time) ([]T, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, apperr.SourceUnavailable("datasource."+l.name, fmt.Errorf("rate limiter: %w", err))
	}
	return l.next.Fetch(ctx, ticker, start, end)
}

// NewLimiter builds a token bucket from requests per second. A non-positive
// rate disables limiting.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// WithCache serves repeated (ticker, start, end) fetches from store. Only
// successful results are cached. Store failures are logged and bypassed.
func WithCache[T any](next Source[T], name string, store Store, ttl time.Duration, recorder *metrics.Recorder) Source[T] {
	if store == nil {
		return next
	}
	return &cached[T]{next: next, name: name, store: store, ttl: ttl, recorder: recorder}
}

type cached[T any] struct {
	next     Source[T]
	name     string
	store    Store
	ttl      time.Duration
	recorder *metrics.Recorder
}

// CacheKey identifies a fetch by source name, ticker and calendar range.
func CacheKey(name, ticker string, start, end time.Time) string {
	return fmt.Sprintf("%s|%s|%s|%s", name, ticker, start.UTC().Format(time.DateOnly), end.UTC().Format(time.DateOnly))
}

func (c *cached[T]) Fetch(ctx context.Context, ticker string, start, end time.Time) ([]T, error) {
	key := CacheKey(c.name, ticker, start, end)

	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		logger.Warn(ctx, "Cache read failed", "source", c.name, "key", key, "error", err)
	}
	if ok {
		var out []T
		if err := json.Unmarshal(data, &out); err == nil {
			c.recorder.RecordCache(c.name, true)
			logger.Debug(ctx, "Cache hit", "source", c.name, "key", key, "items", len(out))
			return out, nil
		}
	}
	c.recorder.RecordCache(c.name, false)

	out, err := c.next.Fetch(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(out); err == nil {
		if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
			logger.Warn(ctx, "Cache write failed", "source", c.name, "key", key, "error", err)
		}
	}
	return out, nil
}

// WithObservability adds a span, logs and a latency histogram per fetch.
func WithObservability[T any](next Source[T], name string, recorder *metrics.Recorder) Source[T] {
	return &observed[T]{next: next, name: name, recorder: recorder}
}

type observed[T any] struct {
	next     Source[T]
	name     string
	recorder *metrics.Recorder
}

func (o *observed[T]) Fetch(ctx context.Context, ticker string, start, end time.Time) ([]T, error) {
	ctx, span := trace.StartSpan(ctx, "datasource."+o.name+".Fetch")
	defer span.End()

	begin := time.Now()
	out, err := o.next.Fetch(ctx, ticker, start, end)
	o.recorder.RecordLatency("fetch."+o.name, time.Since(begin).Seconds())

	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Source fetch failed", err,
			"source", o.name,
			"ticker", ticker,
			"code", apperr.Code(err),
		)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Source fetch complete",
		"source", o.name,
		"ticker", ticker,
		"items", len(out),
		"duration", time.Since(begin),
	)
	return out, nil
}

// Options configures Decorate.
type Options struct {
	Retry    RetryPolicy
	Limiter  *rate.Limiter
	Store    Store
	TTL      time.Duration
	Recorder *metrics.Recorder
}

// Decorate applies the standard stack: observability, cache, retry, then
// rate limiting closest to the network.
func Decorate[T any](src Source[T], name string, opts Options) Source[T] {
	s := WithRateLimit(src, name, opts.Limiter)
	s = WithRetry(s, name, opts.Retry)
	s = WithCache(s, name, opts.Store, opts.TTL, opts.Recorder)
	return WithObservability(s, name, opts.Recorder)
}

// QuotesAsSource lets a QuoteSource share the Source decorators. The range
// only takes part in the cache key.
func QuotesAsSource(q interfaces.QuoteSource) Source[types.Quote] {
	return quoteSource{q: q}
}

type quoteSource struct {
	q interfaces.QuoteSource
}

func (s quoteSource) Fetch(ctx context.Context, ticker string, _, _ time.Time) ([]types.Quote, error) {
	q, err := s.q.Quote(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return []types.Quote{*q}, nil
}

// SourceAsQuotes turns a decorated quote Source back into a QuoteSource.
// Each call keys on the current UTC day, so cached quotes never outlive it.
func SourceAsQuotes(src Source[types.Quote]) interfaces.QuoteSource {
	return quoteAdapter{src: src, now: time.Now}
}

type quoteAdapter struct {
	src Source[types.Quote]
	now func() time.Time
}

func (a quoteAdapter) Quote(ctx context.Context, ticker string) (*types.Quote, error) {
	y, m, d := a.now().UTC().Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	out, err := a.src.Fetch(ctx, ticker, day, day)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, apperr.UnknownTicker("datasource.quote", ticker)
	}
	q := out[0]
	return &q, nil
}
