// Package report composes analysis outputs into the presentation-agnostic
// Report consumed by every renderer.
package report

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"stock-sentiment-agent/internal/apperr"
	"stock-sentiment-agent/internal/ta"
	"stock-sentiment-agent/internal/types"
)

// Assemble copies its inputs into a Report. The only check is that the
// aggregate was computed over exactly the scored headlines supplied.
func Assemble(
	ticker string,
	rng types.DateRange,
	prices []types.PricePoint,
	scored []types.ScoredHeadline,
	agg types.SentimentAggregate,
	corr types.CorrelationSignal,
) (*types.Report, error) {
	if agg.HeadlineCount != len(scored) {
		return nil, apperr.InvalidInput("report.assemble",
			fmt.Sprintf("aggregate covers %d headlines but %d were scored", agg.HeadlineCount, len(scored)))
	}
	if prices == nil {
		prices = []types.PricePoint{}
	}
	if scored == nil {
		scored = []types.ScoredHeadline{}
	}

	return &types.Report{
		ID:              uuid.NewString(),
		Ticker:          ticker,
		Range:           rng,
		GeneratedAt:     time.Now().UTC(),
		Prices:          prices,
		Aggregate:       agg,
		Correlation:     corr,
		ScoredHeadlines: scored,
	}, nil
}

// IndicatorPeriods selects the windows for ComputeIndicators.
type IndicatorPeriods struct {
	SMAShort, SMALong, RSI         int
	MACDFast, MACDSlow, MACDSignal int
}

func DefaultIndicatorPeriods() IndicatorPeriods {
	return IndicatorPeriods{SMAShort: 20, SMALong: 50, RSI: 14, MACDFast: 12, MACDSlow: 26, MACDSignal: 9}
}

// ComputeIndicators derives technical readings from the report's closes.
func ComputeIndicators(prices []types.PricePoint, p IndicatorPeriods) *types.Indicators {
	closes := make([]float64, len(prices))
	for i, pp := range prices {
		closes[i] = pp.Close
	}

	macd, signal := ta.MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	return &types.Indicators{
		SMAShortPeriod: p.SMAShort,
		SMAShort:       finite(ta.SMA(closes, p.SMAShort)),
		SMALongPeriod:  p.SMALong,
		SMALong:        finite(ta.SMA(closes, p.SMALong)),
		RSIPeriod:      p.RSI,
		RSI:            finite(ta.RSI(closes, p.RSI)),
		MACD:           finite(macd),
		MACDSignal:     finite(signal),
	}
}

// WithIndicators attaches indicators computed over r.Prices.
func WithIndicators(r *types.Report, p IndicatorPeriods) *types.Report {
	r.Indicators = ComputeIndicators(r.Prices, p)
	return r
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
