package analyzer

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"stock-sentiment-agent/internal/apperr"
	"stock-sentiment-agent/internal/reportlog"
	"stock-sentiment-agent/internal/store"
	"stock-sentiment-agent/internal/types"
)

var today = time.Date(2024, 3, 5, 15, 0, 0, 0, time.UTC)

func clock() time.Time { return today }

type fakeHeadlines struct {
	out   []types.Headline
	err   error
	block bool
	calls atomic.Int32
}

func (f *fakeHeadlines) Fetch(ctx context.Context, _ string, _, _ time.Time) ([]types.Headline, error) {
	f.calls.Add(1)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.out, f.err
}

type fakePrices struct {
	out   []types.PricePoint
	err   error
	calls atomic.Int32
	start time.Time
	end   time.Time
}

func (f *fakePrices) Fetch(_ context.Context, _ string, start, end time.Time) ([]types.PricePoint, error) {
	f.calls.Add(1)
	f.start, f.end = start, end
	return f.out, f.err
}

// tableScorer returns fixed polarities keyed by headline text.
type tableScorer struct {
	polarity map[string]float64
	failOn   string
	calls    atomic.Int32
}

func (s *tableScorer) Score(_ context.Context, text string) (float64, float64, error) {
	s.calls.Add(1)
	if s.failOn != "" && text == s.failOn {
		return 0, 0, apperr.ScorerUnavailable("test", errors.New("model offline"))
	}
	return s.polarity[text], 0.5, nil
}

func headlines(texts ...string) []types.Headline {
	out := make([]types.Headline, len(texts))
	for i, t := range texts {
		out[i] = types.Headline{Text: t, PublishedAt: today.Add(-time.Duration(i) * time.Hour)}
	}
	return out
}

func risingPrices() []types.PricePoint {
	return []types.PricePoint{
		{Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Close: 100},
		{Date: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), Close: 103},
		{Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), Close: 105},
	}
}

func testConfig() Config {
	return ConfigFrom(store.Default())
}

func TestAnalyzeBullishConfirming(t *testing.T) {
	hs := &fakeHeadlines{out: headlines("beat", "upgrade", "meeting")}
	ps := &fakePrices{out: risingPrices()}
	sc := &tableScorer{polarity: map[string]float64{"beat": 0.6, "upgrade": 0.5, "meeting": 0.0}}

	a := New(hs, ps, sc, testConfig(), WithClock(clock))
	r, err := a.Analyze(context.Background(), Request{Ticker: "aapl", Days: 5})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if r.Ticker != "AAPL" {
		t.Errorf("Expected upper-cased ticker, got %q", r.Ticker)
	}
	if r.Aggregate.Label != types.Bullish {
		t.Errorf("Expected BULLISH, got %s", r.Aggregate.Label)
	}
	if r.Aggregate.PositiveCount != 2 || r.Aggregate.NeutralCount != 1 {
		t.Errorf("Unexpected counts %+v", r.Aggregate)
	}
	if r.Correlation.Agreement != types.Confirming {
		t.Errorf("Expected CONFIRMING, got %s", r.Correlation.Agreement)
	}
	if r.Aggregate.HeadlineCount != len(r.ScoredHeadlines) {
		t.Errorf("Aggregate count %d does not match scored %d", r.Aggregate.HeadlineCount, len(r.ScoredHeadlines))
	}
	if r.ScoredHeadlines[0].Text != "beat" || r.ScoredHeadlines[0].Polarity != 0.6 {
		t.Errorf("Expected scored headlines in source order, got %+v", r.ScoredHeadlines[0])
	}
	if r.Indicators == nil {
		t.Error("Expected indicators to be attached")
	}

	wantStart := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if !ps.start.Equal(wantStart) || !ps.end.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected range 2024-03-01..2024-03-05, got %v..%v", ps.start, ps.end)
	}
}

func TestAnalyzeNoHeadlines(t *testing.T) {
	a := New(&fakeHeadlines{out: []types.Headline{}}, &fakePrices{out: risingPrices()}, &tableScorer{}, testConfig(), WithClock(clock))

	r, err := a.Analyze(context.Background(), Request{Ticker: "AAPL", Days: 5})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if r.Aggregate.Label != types.Neutral || r.Aggregate.HeadlineCount != 0 {
		t.Errorf("Expected empty neutral aggregate, got %+v", r.Aggregate)
	}
	if r.Correlation.Agreement != types.Inconclusive {
		t.Errorf("Expected INCONCLUSIVE, got %s", r.Correlation.Agreement)
	}
	if r.ScoredHeadlines == nil {
		t.Error("Expected non-nil scored headlines")
	}
}

func TestAnalyzeThresholdOverride(t *testing.T) {
	hs := &fakeHeadlines{out: headlines("mild")}
	sc := &tableScorer{polarity: map[string]float64{"mild": 0.15}}
	a := New(hs, &fakePrices{out: risingPrices()}, sc, testConfig(), WithClock(clock))

	th := 0.2
	r, err := a.Analyze(context.Background(), Request{Ticker: "AAPL", Days: 5, Threshold: &th})
	if err != nil {
		t.Fatal(err)
	}
	if r.Aggregate.Label != types.Neutral {
		t.Errorf("Expected NEUTRAL with 0.2 threshold, got %s", r.Aggregate.Label)
	}

	r, err = a.Analyze(context.Background(), Request{Ticker: "AAPL", Days: 5})
	if err != nil {
		t.Fatal(err)
	}
	if r.Aggregate.Label != types.Bullish {
		t.Errorf("Expected BULLISH with default threshold, got %s", r.Aggregate.Label)
	}
}

func TestAnalyzeZeroConfiguredThreshold(t *testing.T) {
	cfg := store.Default()
	cfg.Sentiment.Threshold = 0

	hs := &fakeHeadlines{out: headlines("slight")}
	sc := &tableScorer{polarity: map[string]float64{"slight": 0.05}}
	a := New(hs, &fakePrices{out: risingPrices()}, sc, ConfigFrom(cfg), WithClock(clock))

	r, err := a.Analyze(context.Background(), Request{Ticker: "AAPL", Days: 5})
	if err != nil {
		t.Fatal(err)
	}
	if r.Aggregate.Label != types.Bullish || r.Aggregate.PositiveCount != 1 {
		t.Errorf("Expected BULLISH with one positive at threshold 0, got %s positive=%d", r.Aggregate.Label, r.Aggregate.PositiveCount)
	}
}

func TestAnalyzeDefaultThresholdWhenUnset(t *testing.T) {
	hs := &fakeHeadlines{out: headlines("slight")}
	sc := &tableScorer{polarity: map[string]float64{"slight": 0.05}}
	a := New(hs, &fakePrices{out: risingPrices()}, sc, Config{}, WithClock(clock))

	r, err := a.Analyze(context.Background(), Request{Ticker: "AAPL", Days: 5})
	if err != nil {
		t.Fatal(err)
	}
	if r.Aggregate.Label != types.Neutral {
		t.Errorf("Expected NEUTRAL with default threshold, got %s", r.Aggregate.Label)
	}
}

func TestAnalyzeRejectsInvalidInputBeforeFetch(t *testing.T) {
	neg := -0.5
	nan := math.NaN()
	inf := math.Inf(1)
	tests := []struct {
		name string
		req  Request
	}{
		{"empty ticker", Request{Ticker: ""}},
		{"punctuation", Request{Ticker: "BRK-B"}},
		{"too long", Request{Ticker: "ABCDEFGHIJK"}},
		{"bad suffix", Request{Ticker: "TCS.L"}},
		{"negative days", Request{Ticker: "AAPL", Days: -1}},
		{"too many days", Request{Ticker: "AAPL", Days: 4000}},
		{"start after end", Request{Ticker: "AAPL", Start: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}},
		{"end in future", Request{Ticker: "AAPL", Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)}},
		{"only start", Request{Ticker: "AAPL", Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}},
		{"days and range", Request{Ticker: "AAPL", Days: 3, Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)}},
		{"negative threshold", Request{Ticker: "AAPL", Days: 5, Threshold: &neg}},
		{"NaN threshold", Request{Ticker: "AAPL", Days: 5, Threshold: &nan}},
		{"infinite threshold", Request{Ticker: "AAPL", Days: 5, Threshold: &inf}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := &fakeHeadlines{}
			ps := &fakePrices{}
			a := New(hs, ps, &tableScorer{}, testConfig(), WithClock(clock))

			_, err := a.Analyze(context.Background(), tt.req)
			if !errors.Is(err, apperr.ErrInvalidInput) {
				t.Errorf("Expected ErrInvalidInput, got %v", err)
			}
			if hs.calls.Load() != 0 || ps.calls.Load() != 0 {
				t.Errorf("Expected no fetches, got headlines=%d prices=%d", hs.calls.Load(), ps.calls.Load())
			}
		})
	}
}

func TestAnalyzeAcceptsExchangeSuffix(t *testing.T) {
	a := New(&fakeHeadlines{}, &fakePrices{out: risingPrices()}, &tableScorer{}, testConfig(), WithClock(clock))
	r, err := a.Analyze(context.Background(), Request{Ticker: "reliance.ns", Days: 5})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if r.Ticker != "RELIANCE.NS" {
		t.Errorf("Expected RELIANCE.NS, got %s", r.Ticker)
	}
}

func TestAnalyzeFailsFastOnSourceError(t *testing.T) {
	hs := &fakeHeadlines{block: true}
	ps := &fakePrices{err: apperr.UnknownTicker("test", "ZZZZ")}
	sc := &tableScorer{}
	a := New(hs, ps, sc, testConfig(), WithClock(clock))

	done := make(chan error, 1)
	go func() {
		_, err := a.Analyze(context.Background(), Request{Ticker: "ZZZZ", Days: 5})
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, apperr.ErrUnknownTicker) {
			t.Errorf("Expected ErrUnknownTicker, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Expected price failure to cancel the headline fetch")
	}
	if sc.calls.Load() != 0 {
		t.Errorf("Expected no scoring after fetch failure, got %d calls", sc.calls.Load())
	}
}

func TestAnalyzeFetchTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.FetchTimeout = 20 * time.Millisecond
	a := New(&fakeHeadlines{block: true}, &fakePrices{out: risingPrices()}, &tableScorer{}, cfg, WithClock(clock))

	_, err := a.Analyze(context.Background(), Request{Ticker: "AAPL", Days: 5})
	if !errors.Is(err, apperr.ErrSourceUnavailable) {
		t.Errorf("Expected ErrSourceUnavailable on timeout, got %v", err)
	}
}

func TestAnalyzeFailsClosedOnScorerError(t *testing.T) {
	texts := make([]string, 20)
	for i := range texts {
		texts[i] = strings.Repeat("x", i+1)
	}
	sc := &tableScorer{polarity: map[string]float64{}, failOn: texts[7]}
	a := New(&fakeHeadlines{out: headlines(texts...)}, &fakePrices{out: risingPrices()}, sc, testConfig(), WithClock(clock))

	r, err := a.Analyze(context.Background(), Request{Ticker: "AAPL", Days: 5})
	if !errors.Is(err, apperr.ErrScorerUnavailable) {
		t.Errorf("Expected ErrScorerUnavailable, got %v", err)
	}
	if r != nil {
		t.Error("Expected no partial report")
	}
}

func TestAnalyzeAppendsReportLog(t *testing.T) {
	dir := t.TempDir()
	a := New(&fakeHeadlines{}, &fakePrices{out: risingPrices()}, &tableScorer{}, testConfig(),
		WithClock(clock), WithReportLog(reportlog.New(dir)))

	if _, err := a.Analyze(context.Background(), Request{Ticker: "AAPL", Days: 5}); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(filepath.Join(dir, "reports"))
	if err != nil || len(entries) != 1 {
		t.Errorf("Expected one report log file, got %v (err %v)", entries, err)
	}
}

type fakeQuotes struct {
	byTicker map[string]*types.Quote
	err      error
}

func (f *fakeQuotes) Quote(_ context.Context, ticker string) (*types.Quote, error) {
	if f.err != nil {
		return nil, f.err
	}
	q, ok := f.byTicker[ticker]
	if !ok {
		return nil, apperr.UnknownTicker("test", ticker)
	}
	return q, nil
}

func TestAnalyzeAttachesQuote(t *testing.T) {
	quotes := &fakeQuotes{byTicker: map[string]*types.Quote{
		"AAPL": {Ticker: "AAPL", Name: "Apple Inc.", Currency: "USD", Price: 105},
	}}
	a := New(&fakeHeadlines{out: headlines("beat")}, &fakePrices{out: risingPrices()}, &tableScorer{}, testConfig(),
		WithClock(clock), WithQuotes(quotes))

	r, err := a.Analyze(context.Background(), Request{Ticker: "AAPL", Days: 5})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if r.Quote == nil || r.Quote.Name != "Apple Inc." || r.Quote.Price != 105 {
		t.Errorf("Expected Apple quote, got %+v", r.Quote)
	}
}

func TestAnalyzeSurvivesQuoteFailure(t *testing.T) {
	quotes := &fakeQuotes{err: apperr.SourceUnavailable("test", errors.New("crumb required"))}
	a := New(&fakeHeadlines{out: headlines("beat")}, &fakePrices{out: risingPrices()}, &tableScorer{}, testConfig(),
		WithClock(clock), WithQuotes(quotes))

	r, err := a.Analyze(context.Background(), Request{Ticker: "AAPL", Days: 5})
	if err != nil {
		t.Fatalf("Expected quote failure to be tolerated, got %v", err)
	}
	if r.Quote != nil {
		t.Errorf("Expected no quote, got %+v", r.Quote)
	}
}
