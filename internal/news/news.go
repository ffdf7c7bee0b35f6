// Package news provides HeadlineSource implementations backed by public
// finance news feeds.
package news

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"stock-sentiment-agent/internal/api"
	"stock-sentiment-agent/internal/types"
)

// inRange reports whether t falls on a calendar day within [start, end].
// Undated headlines are kept.
func inRange(t, start, end time.Time) bool {
	if t.IsZero() {
		return true
	}
	day := func(x time.Time) time.Time {
		y, m, d := x.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	td := day(t)
	return !td.Before(day(start)) && !td.After(day(end))
}

// normalizeText collapses whitespace so duplicate headlines from different
// feeds compare equal.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func dedupeKey(h types.Headline) string {
	return strings.ToLower(normalizeText(h.Text))
}

// baseSymbol strips an exchange suffix such as ".NS".
func baseSymbol(ticker string) string {
	if i := strings.IndexByte(ticker, '.'); i > 0 {
		return ticker[:i]
	}
	return ticker
}

// getDomain extracts domain from URL
func getDomain(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// newCollector builds a single-page collector restricted to baseURL's host.
func newCollector(ctx context.Context, baseURL string, timeout time.Duration) *colly.Collector {
	c := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.AllowedDomains(getDomain(baseURL)),
		colly.MaxDepth(1),
		colly.Async(false),
	)
	c.SetRequestTimeout(timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", api.BrowserUserAgent)
	})
	return c
}
