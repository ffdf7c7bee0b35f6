package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"stock-sentiment-agent/internal/apperr"
	"stock-sentiment-agent/internal/logger"
	"stock-sentiment-agent/internal/trend"
	"stock-sentiment-agent/internal/types"
)

// CompareRequest selects tickers and a range the same way Request does.
type CompareRequest struct {
	Tickers []string
	Days    int `validate:"gte=0,lte=3650"`
	Start   time.Time
	End     time.Time
}

// Compare lines up the normalised price series of several tickers over one
// range. Entries keep request order; duplicates are dropped. Any price
// failure fails the whole comparison.
func (a *Analyzer) Compare(ctx context.Context, req CompareRequest) (*types.Comparison, error) {
	tickers, rng, err := a.resolveCompare(req)
	if err != nil {
		a.recorder.RecordError(apperr.Code(err))
		return nil, err
	}

	op := logger.StartOperation(ctx, "compare", "tickers", strings.Join(tickers, ","), "start", rng.Start.Format(time.DateOnly), "end", rng.End.Format(time.DateOnly))
	ctx = op.GetContext()

	c, err := a.compare(ctx, tickers, rng)
	if err != nil {
		elapsed := op.EndWithError(err, "code", apperr.Code(err))
		a.recorder.RecordLatency("compare", elapsed.Seconds())
		a.recorder.RecordError(apperr.Code(err))
		return nil, err
	}
	elapsed := op.End("entries", len(c.Entries))
	a.recorder.RecordLatency("compare", elapsed.Seconds())
	return c, nil
}

func (a *Analyzer) resolveCompare(req CompareRequest) ([]string, types.DateRange, error) {
	const op = "analyzer.validate"

	seen := make(map[string]bool, len(req.Tickers))
	var tickers []string
	for _, t := range req.Tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		if err := a.validate.Var(t, "ticker"); err != nil {
			return nil, types.DateRange{}, apperr.InvalidInput(op, invalidTicker(t))
		}
		seen[t] = true
		tickers = append(tickers, t)
	}
	if len(tickers) < 2 || len(tickers) > MaxCompareTickers {
		return nil, types.DateRange{}, apperr.InvalidInput(op, fmt.Sprintf("compare needs 2 to %d distinct tickers, got %d", MaxCompareTickers, len(tickers)))
	}

	if err := a.validate.Struct(req); err != nil {
		return nil, types.DateRange{}, apperr.InvalidInput(op, describe(err, "", req.Days))
	}
	rng, err := a.dateRange(req.Days, req.Start, req.End)
	if err != nil {
		return nil, rng, err
	}
	return tickers, rng, nil
}

func (a *Analyzer) compare(ctx context.Context, tickers []string, rng types.DateRange) (*types.Comparison, error) {
	if a.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.FetchTimeout)
		defer cancel()
	}

	entries := make([]types.ComparisonEntry, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Concurrency)
	for i, ticker := range tickers {
		g.Go(func() error {
			prices, err := a.prices.Fetch(gctx, ticker, rng.Start, rng.End)
			if err != nil {
				return fmt.Errorf("fetch prices for %s: %w", ticker, err)
			}
			entries[i] = types.ComparisonEntry{
				Ticker:    ticker,
				ChangePct: trend.PriceChangePct(prices),
				Series:    trend.Normalize(prices),
				Quote:     a.quote(gctx, ticker),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if apperr.KindOf(err) == nil {
			return nil, apperr.SourceUnavailable("analyzer.compare", err)
		}
		return nil, err
	}

	return &types.Comparison{
		Range:       rng,
		GeneratedAt: a.now().UTC(),
		Entries:     entries,
	}, nil
}
