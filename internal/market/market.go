// Package market provides PriceSource implementations.
package market

import (
	"sort"
	"strings"
	"time"

	"stock-sentiment-agent/internal/types"
)

// Exchange suffixes accepted on tickers for Indian listings.
const (
	SuffixNSE = ".NS"
	SuffixBSE = ".BO"
)

// SplitTicker separates "RELIANCE.NS" into ("RELIANCE", "NSE"). A ticker
// without a known suffix returns fallback as the exchange.
func SplitTicker(ticker, fallback string) (symbol, exchange string) {
	switch {
	case strings.HasSuffix(ticker, SuffixNSE):
		return strings.TrimSuffix(ticker, SuffixNSE), "NSE"
	case strings.HasSuffix(ticker, SuffixBSE):
		return strings.TrimSuffix(ticker, SuffixBSE), "BSE"
	default:
		return ticker, fallback
	}
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// normalize drops non-positive closes and points outside [start, end],
// truncates dates to the day, sorts ascending and keeps the last point per day.
func normalize(points []types.PricePoint, start, end time.Time) []types.PricePoint {
	from, to := dayOf(start), dayOf(end)

	byDay := make(map[time.Time]types.PricePoint, len(points))
	for _, p := range points {
		if p.Close <= 0 {
			continue
		}
		d := dayOf(p.Date)
		if d.Before(from) || d.After(to) {
			continue
		}
		p.Date = d
		byDay[d] = p
	}

	out := make([]types.PricePoint, 0, len(byDay))
	for _, p := range byDay {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
