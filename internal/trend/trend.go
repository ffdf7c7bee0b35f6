// Package trend relates a sentiment verdict to the realised price move.
package trend

import (
	"stock-sentiment-agent/internal/types"
)

// PriceChangePct is the percent move from the first to the last close.
// Fewer than two points, or a non-positive first close, yields 0.
func PriceChangePct(prices []types.PricePoint) float64 {
	if len(prices) < 2 {
		return 0
	}
	first, last := prices[0].Close, prices[len(prices)-1].Close
	if first <= 0 {
		return 0
	}
	return (last - first) / first * 100
}

// Correlate labels whether the price move agrees with the sentiment label.
// The result is a display annotation, not a trading recommendation.
func Correlate(prices []types.PricePoint, agg types.SentimentAggregate) types.CorrelationSignal {
	sig := types.CorrelationSignal{
		SentimentLabel: agg.Label,
		Agreement:      types.Inconclusive,
	}
	if len(prices) < 2 {
		return sig
	}

	sig.PriceChangePct = PriceChangePct(prices)
	sig.Agreement = agreement(agg.Label, sig.PriceChangePct)
	return sig
}

func agreement(label types.SentimentLabel, change float64) types.Agreement {
	switch label {
	case types.Bullish:
		if change > 0 {
			return types.Confirming
		}
		return types.Diverging
	case types.Bearish:
		if change < 0 {
			return types.Confirming
		}
		return types.Diverging
	default:
		return types.Inconclusive
	}
}

// Normalize rebases a series to percent change from its first close, the
// form used to compare tickers on one axis. A non-positive first close
// yields an empty series.
func Normalize(prices []types.PricePoint) []types.NormalizedPoint {
	out := make([]types.NormalizedPoint, 0, len(prices))
	if len(prices) == 0 || prices[0].Close <= 0 {
		return out
	}
	base := prices[0].Close
	for _, p := range prices {
		out = append(out, types.NormalizedPoint{Date: p.Date, ChangePct: (p.Close - base) / base * 100})
	}
	return out
}
