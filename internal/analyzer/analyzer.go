// Package analyzer runs the end-to-end pipeline for one ticker: fetch
// prices and headlines, score headlines, aggregate, correlate and assemble.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"stock-sentiment-agent/internal/apperr"
	"stock-sentiment-agent/internal/interfaces"
	"stock-sentiment-agent/internal/logger"
	"stock-sentiment-agent/internal/metrics"
	"stock-sentiment-agent/internal/report"
	"stock-sentiment-agent/internal/reportlog"
	"stock-sentiment-agent/internal/sentiment"
	"stock-sentiment-agent/internal/store"
	"stock-sentiment-agent/internal/trend"
	"stock-sentiment-agent/internal/types"
)

// MaxDays bounds the lookback of a single request.
const MaxDays = 3650

// MaxCompareTickers bounds the tickers of one comparison.
const MaxCompareTickers = 10

var tickerPattern = regexp.MustCompile(`^[A-Z0-9]{1,10}(\.NS|\.BO)?$`)

// Config holds the pipeline settings taken from store.Config.
type Config struct {
	// Thresholds nil means sentiment.DefaultThresholds. A zero band is a
	// valid setting.
	Thresholds   *sentiment.Thresholds
	FetchTimeout time.Duration
	Concurrency  int
	DefaultDays  int
	Indicators   report.IndicatorPeriods
}

// ConfigFrom maps the application config onto the pipeline settings.
func ConfigFrom(cfg *store.Config) Config {
	th := sentiment.Symmetric(cfg.Sentiment.Threshold)
	return Config{
		Thresholds:   &th,
		FetchTimeout: cfg.Fetch.Timeout,
		Concurrency:  cfg.Scorer.Concurrency,
		DefaultDays:  cfg.Analysis.DefaultDays,
		Indicators: report.IndicatorPeriods{
			SMAShort:   cfg.Indicators.SMAShort,
			SMALong:    cfg.Indicators.SMALong,
			RSI:        cfg.Indicators.RSIPeriod,
			MACDFast:   cfg.Indicators.MACDFast,
			MACDSlow:   cfg.Indicators.MACDSlow,
			MACDSignal: cfg.Indicators.MACDSignal,
		},
	}
}

// Request describes one analysis. Either Days or both Start and End select
// the range; with neither, Config.DefaultDays ending today is used.
type Request struct {
	Ticker    string `validate:"required,ticker"`
	Days      int    `validate:"gte=0,lte=3650"`
	Start     time.Time
	End       time.Time
	Threshold *float64
}

type Analyzer struct {
	headlines interfaces.HeadlineSource
	prices    interfaces.PriceSource
	quotes    interfaces.QuoteSource
	scorer    interfaces.PolarityScorer
	cfg       Config
	recorder  *metrics.Recorder
	reportLog *reportlog.Log
	validate  *validator.Validate
	now       func() time.Time
}

type Option func(*Analyzer)

func WithRecorder(r *metrics.Recorder) Option {
	return func(a *Analyzer) { a.recorder = r }
}

// WithReportLog appends every completed report to l.
func WithReportLog(l *reportlog.Log) Option {
	return func(a *Analyzer) { a.reportLog = l }
}

// WithQuotes attaches a quote snapshot to reports and comparisons. A quote
// failure is logged and leaves the quote empty.
func WithQuotes(q interfaces.QuoteSource) Option {
	return func(a *Analyzer) { a.quotes = q }
}

func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

func New(headlines interfaces.HeadlineSource, prices interfaces.PriceSource, scorer interfaces.PolarityScorer, cfg Config, opts ...Option) *Analyzer {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.DefaultDays < 1 {
		cfg.DefaultDays = 30
	}
	if cfg.Thresholds == nil {
		th := sentiment.DefaultThresholds()
		cfg.Thresholds = &th
	}

	v := validator.New()
	_ = v.RegisterValidation("ticker", func(fl validator.FieldLevel) bool {
		return tickerPattern.MatchString(fl.Field().String())
	})

	a := &Analyzer{
		headlines: headlines,
		prices:    prices,
		scorer:    scorer,
		cfg:       cfg,
		validate:  v,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze produces a Report or fails as a whole. Invalid input is rejected
// before any source is contacted.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*types.Report, error) {
	req.Ticker = strings.ToUpper(strings.TrimSpace(req.Ticker))

	rng, th, err := a.resolve(req)
	if err != nil {
		a.recorder.RecordError(apperr.Code(err))
		return nil, err
	}

	op := logger.StartOperation(ctx, "analyze", "ticker", req.Ticker, "start", rng.Start.Format(time.DateOnly), "end", rng.End.Format(time.DateOnly))
	ctx = op.GetContext()

	r, err := a.run(ctx, req.Ticker, rng, th)
	if err != nil {
		elapsed := op.EndWithError(err, "code", apperr.Code(err))
		a.recorder.RecordLatency("analyze", elapsed.Seconds())
		a.recorder.RecordError(apperr.Code(err))
		return nil, err
	}
	elapsed := op.End("headlines", r.Aggregate.HeadlineCount, "prices", len(r.Prices))
	a.recorder.RecordLatency("analyze", elapsed.Seconds())

	logger.Verdict(ctx, r.Ticker, string(r.Aggregate.Label), string(r.Correlation.Agreement), r.Aggregate.MeanPolarity, r.Aggregate.HeadlineCount,
		"confidence", r.Aggregate.Confidence,
		"price_change_pct", r.Correlation.PriceChangePct,
	)
	a.recorder.RecordAnalysis(string(r.Aggregate.Label), string(r.Correlation.Agreement))
	a.recorder.RecordMeanPolarity(r.Ticker, r.Aggregate.MeanPolarity)

	if a.reportLog != nil {
		if err := a.reportLog.Append(r); err != nil {
			logger.Warn(ctx, "Failed to append report log", "error", err, "report_id", r.ID)
		}
	}
	return r, nil
}

func (a *Analyzer) resolve(req Request) (types.DateRange, sentiment.Thresholds, error) {
	if err := a.validate.Struct(req); err != nil {
		return types.DateRange{}, sentiment.Thresholds{}, apperr.InvalidInput("analyzer.validate", describe(err, req.Ticker, req.Days))
	}
	rng, err := a.dateRange(req.Days, req.Start, req.End)
	if err != nil {
		return rng, sentiment.Thresholds{}, err
	}

	th := *a.cfg.Thresholds
	if req.Threshold != nil {
		th = sentiment.Symmetric(*req.Threshold)
	}
	if err := th.Validate(); err != nil {
		return rng, sentiment.Thresholds{}, err
	}
	return rng, th, nil
}

// dateRange turns either days or start/end into a calendar range ending no
// later than today.
func (a *Analyzer) dateRange(days int, start, end time.Time) (types.DateRange, error) {
	const op = "analyzer.validate"
	var rng types.DateRange

	today := dayOf(a.now())
	switch {
	case !start.IsZero() || !end.IsZero():
		if days != 0 {
			return rng, apperr.InvalidInput(op, "days cannot be combined with start/end")
		}
		if start.IsZero() || end.IsZero() {
			return rng, apperr.InvalidInput(op, "both start and end are required")
		}
		rng = types.DateRange{Start: dayOf(start), End: dayOf(end)}
	default:
		if days == 0 {
			days = a.cfg.DefaultDays
		}
		rng = types.DateRange{Start: today.AddDate(0, 0, -(days - 1)), End: today}
	}

	if rng.Start.After(rng.End) {
		return rng, apperr.InvalidInput(op, "start must not be after end")
	}
	if rng.End.After(today) {
		return rng, apperr.InvalidInput(op, "end must not be in the future")
	}
	if rng.Days() > MaxDays {
		return rng, apperr.InvalidInput(op, fmt.Sprintf("range exceeds %d days", MaxDays))
	}
	return rng, nil
}

func invalidTicker(ticker string) string {
	return fmt.Sprintf("invalid ticker %q: expected 1-10 upper-case letters or digits, optionally suffixed .NS or .BO", ticker)
}

func describe(err error, ticker string, days int) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Field() {
		case "Ticker":
			return invalidTicker(ticker)
		case "Days":
			return fmt.Sprintf("days must be between 1 and %d, got %d", MaxDays, days)
		}
	}
	return err.Error()
}

func (a *Analyzer) run(ctx context.Context, ticker string, rng types.DateRange, th sentiment.Thresholds) (*types.Report, error) {
	prices, headlines, quote, err := a.fetch(ctx, ticker, rng)
	if err != nil {
		return nil, err
	}

	scored, err := a.score(ctx, headlines)
	if err != nil {
		return nil, err
	}

	agg := sentiment.NewAggregator(th).Aggregate(scored)
	corr := trend.Correlate(prices, agg)

	r, err := report.Assemble(ticker, rng, prices, scored, agg, corr)
	if err != nil {
		return nil, err
	}
	r.Quote = quote
	return report.WithIndicators(r, a.cfg.Indicators), nil
}

// fetch loads prices, headlines and the quote concurrently. The first price
// or headline failure cancels the rest; the quote never fails the fetch.
func (a *Analyzer) fetch(ctx context.Context, ticker string, rng types.DateRange) ([]types.PricePoint, []types.Headline, *types.Quote, error) {
	if a.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.FetchTimeout)
		defer cancel()
	}

	var prices []types.PricePoint
	var headlines []types.Headline
	var quote *types.Quote

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		prices, err = a.prices.Fetch(gctx, ticker, rng.Start, rng.End)
		if err != nil {
			return fmt.Errorf("fetch prices: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		headlines, err = a.headlines.Fetch(gctx, ticker, rng.Start, rng.End)
		if err != nil {
			return fmt.Errorf("fetch headlines: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		quote = a.quote(gctx, ticker)
		return nil
	})

	if err := g.Wait(); err != nil {
		if apperr.KindOf(err) == nil {
			return nil, nil, nil, apperr.SourceUnavailable("analyzer.fetch", err)
		}
		return nil, nil, nil, err
	}
	logger.Debug(ctx, "Sources fetched", "ticker", ticker, "prices", len(prices), "headlines", len(headlines), "quote", quote != nil)
	return prices, headlines, quote, nil
}

func (a *Analyzer) quote(ctx context.Context, ticker string) *types.Quote {
	if a.quotes == nil {
		return nil
	}
	q, err := a.quotes.Quote(ctx, ticker)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn(ctx, "Quote unavailable", "ticker", ticker, "error", err)
		}
		return nil
	}
	return q
}

// score runs the scorer over every headline with bounded concurrency. The
// first failure aborts the remaining work.
func (a *Analyzer) score(ctx context.Context, headlines []types.Headline) ([]types.ScoredHeadline, error) {
	scored := make([]types.ScoredHeadline, len(headlines))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Concurrency)
	for i, h := range headlines {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, s, err := a.scorer.Score(gctx, h.Text)
			if err != nil {
				return fmt.Errorf("score headline %d: %w", i, err)
			}
			scored[i] = types.ScoredHeadline{Headline: h, Polarity: p, Subjectivity: s}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if apperr.KindOf(err) == nil {
			return nil, apperr.ScorerUnavailable("analyzer.score", err)
		}
		return nil, err
	}

	if logger.IsDebugEnabled() {
		for _, sh := range scored {
			logger.Debug(ctx, "Headline scored", "source", sh.Source, "polarity", sh.Polarity, "subjectivity", sh.Subjectivity, "text", sh.Text)
		}
	}
	return scored, nil
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
