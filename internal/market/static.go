package market

import (
	"context"
	"hash/fnv"
	"math"
	"time"

	"stock-sentiment-agent/internal/apperr"
	"stock-sentiment-agent/internal/interfaces"
	"stock-sentiment-agent/internal/types"
)

// Static serves fixed series per ticker, or a deterministic random walk when
// no fixed series map is configured.
type Static struct {
	byTicker map[string][]types.PricePoint
	now      func() time.Time
}

var (
	_ interfaces.PriceSource = (*Static)(nil)
	_ interfaces.QuoteSource = (*Static)(nil)
)

func NewStatic(byTicker map[string][]types.PricePoint) *Static {
	return &Static{byTicker: byTicker, now: time.Now}
}

func (s *Static) Fetch(_ context.Context, ticker string, start, end time.Time) ([]types.PricePoint, error) {
	if s.byTicker != nil {
		pts, ok := s.byTicker[ticker]
		if !ok {
			return nil, apperr.UnknownTicker("market.static", ticker)
		}
		return normalize(pts, start, end), nil
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(ticker))
	seed := h.Sum64()

	price := 50 + float64(seed%450)
	var out []types.PricePoint
	for d := dayOf(start); !d.After(dayOf(end)); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		seed = seed*6364136223846793005 + 1442695040888963407
		step := (float64(seed>>33)/float64(1<<31) - 0.5) * 0.04
		price = math.Max(1, price*(1+step))
		out = append(out, types.PricePoint{Date: d, Close: math.Round(price*100) / 100})
	}
	if out == nil {
		out = []types.PricePoint{}
	}
	return out, nil
}

// Quote derives a snapshot from the trailing year of the series: the last
// close is the price, the one before it the previous close.
func (s *Static) Quote(ctx context.Context, ticker string) (*types.Quote, error) {
	today := dayOf(s.now())
	pts, err := s.Fetch(ctx, ticker, today.AddDate(-1, 0, 0), today)
	if err != nil {
		return nil, err
	}
	if len(pts) == 0 {
		return nil, apperr.UnknownTicker("market.static", ticker)
	}

	currency := "USD"
	if _, exchange := SplitTicker(ticker, ""); exchange != "" {
		currency = "INR"
	}

	high := 0.0
	for _, p := range pts {
		high = math.Max(high, p.Close)
	}
	q := &types.Quote{
		Ticker:           ticker,
		Name:             ticker,
		Currency:         currency,
		Price:            pts[len(pts)-1].Close,
		FiftyTwoWeekHigh: &high,
	}
	if n := len(pts); n > 1 {
		prev := pts[n-2].Close
		q.PreviousClose = &prev
	}
	return q, nil
}
