package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"stock-sentiment-agent/internal/apperr"
	"stock-sentiment-agent/internal/interfaces"
	"stock-sentiment-agent/internal/logger"
	"stock-sentiment-agent/internal/types"
)

const yahooRSSBaseURL = "https://feeds.finance.yahoo.com"

// YahooRSS reads the Yahoo Finance per-symbol headline feed.
type YahooRSS struct {
	baseURL string
	timeout time.Duration
}

var _ interfaces.HeadlineSource = (*YahooRSS)(nil)

func NewYahooRSS(timeout time.Duration) *YahooRSS {
	return &YahooRSS{baseURL: yahooRSSBaseURL, timeout: timeout}
}

// WithBaseURL points the source at another feed host.
func (y *YahooRSS) WithBaseURL(u string) *YahooRSS {
	y.baseURL = strings.TrimRight(u, "/")
	return y
}

var rssDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	time.RFC3339,
}

func parseRSSDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range rssDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func (y *YahooRSS) Fetch(ctx context.Context, ticker string, start, end time.Time) ([]types.Headline, error) {
	feedURL := fmt.Sprintf("%s/rss/2.0/headline?s=%s&region=US&lang=en-US", y.baseURL, url.QueryEscape(ticker))

	headlines := []types.Headline{}
	var scrapeErr error

	c := newCollector(ctx, y.baseURL, y.timeout)

	c.OnXML("//item", func(e *colly.XMLElement) {
		text := normalizeText(e.ChildText("title"))
		if text == "" {
			return
		}
		published := parseRSSDate(e.ChildText("pubDate"))
		if !inRange(published, start, end) {
			return
		}
		headlines = append(headlines, types.Headline{
			Text:        text,
			PublishedAt: published,
			Source:      "Yahoo Finance",
			URL:         strings.TrimSpace(e.ChildText("link")),
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		scrapeErr = fmt.Errorf("status %d: %w", r.StatusCode, err)
	})

	if err := c.Visit(feedURL); err != nil && scrapeErr == nil {
		scrapeErr = err
	}
	c.Wait()

	if scrapeErr != nil {
		logger.ErrorWithErr(ctx, "Yahoo RSS fetch failed", scrapeErr, "ticker", ticker)
		return nil, apperr.SourceUnavailable("news.yahoo_rss", scrapeErr)
	}

	logger.Debug(ctx, "Yahoo RSS headlines fetched", "ticker", ticker, "count", len(headlines))
	return headlines, nil
}
