package news

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"stock-sentiment-agent/internal/apperr"
	"stock-sentiment-agent/internal/interfaces"
	"stock-sentiment-agent/internal/logger"
	"stock-sentiment-agent/internal/types"
)

const finvizBaseURL = "https://finviz.com"

// Finviz scrapes the news table on a Finviz quote page. Finviz only lists
// US symbols, so exchange-suffixed tickers yield no headlines.
type Finviz struct {
	baseURL string
	timeout time.Duration
	loc     *time.Location
}

var _ interfaces.HeadlineSource = (*Finviz)(nil)

func NewFinviz(timeout time.Duration) *Finviz {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.FixedZone("ET", -5*3600)
	}
	return &Finviz{baseURL: finvizBaseURL, timeout: timeout, loc: loc}
}

func (f *Finviz) WithBaseURL(u string) *Finviz {
	f.baseURL = strings.TrimRight(u, "/")
	return f
}

func (f *Finviz) Fetch(ctx context.Context, ticker string, start, end time.Time) ([]types.Headline, error) {
	headlines := []types.Headline{}
	if strings.Contains(ticker, ".") {
		return headlines, nil
	}

	pageURL := fmt.Sprintf("%s/quote.ashx?t=%s", f.baseURL, url.QueryEscape(ticker))
	var scrapeErr error
	notFound := false

	c := newCollector(ctx, f.baseURL, f.timeout)

	c.OnHTML("table#news-table", func(e *colly.HTMLElement) {
		headlines = append(headlines, f.parseNewsTable(e.DOM, start, end)...)
	})

	c.OnError(func(r *colly.Response, err error) {
		if r.StatusCode == http.StatusNotFound {
			notFound = true
			return
		}
		scrapeErr = fmt.Errorf("status %d: %w", r.StatusCode, err)
	})

	if err := c.Visit(pageURL); err != nil && scrapeErr == nil && !notFound {
		scrapeErr = err
	}
	c.Wait()

	if scrapeErr != nil {
		logger.ErrorWithErr(ctx, "Finviz fetch failed", scrapeErr, "ticker", ticker)
		return nil, apperr.SourceUnavailable("news.finviz", scrapeErr)
	}
	if notFound {
		logger.Debug(ctx, "Finviz has no page for ticker", "ticker", ticker)
		return headlines, nil
	}

	logger.Debug(ctx, "Finviz headlines fetched", "ticker", ticker, "count", len(headlines))
	return headlines, nil
}

// parseNewsTable walks the rows of the news table. A row's date cell is
// either "Jan-02-24 09:30AM", "Today 09:30AM", or just a time that
// continues the previous row's date.
func (f *Finviz) parseNewsTable(table *goquery.Selection, start, end time.Time) []types.Headline {
	var out []types.Headline
	var day time.Time

	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		stamp := strings.TrimSpace(cells.First().Text())
		published, d := f.parseStamp(stamp, day)
		day = d

		link := row.Find("a.tab-link-news").First()
		if link.Length() == 0 {
			link = cells.Eq(1).Find("a").First()
		}
		text := normalizeText(link.Text())
		if text == "" || !inRange(published, start, end) {
			return
		}

		href, _ := link.Attr("href")
		if href != "" && !strings.HasPrefix(href, "http") {
			href = f.baseURL + href
		}
		source := strings.Trim(strings.TrimSpace(row.Find(".news-link-right span").First().Text()), "()")
		if source == "" {
			source = "Finviz"
		}

		out = append(out, types.Headline{
			Text:        text,
			PublishedAt: published,
			Source:      source,
			URL:         href,
		})
	})
	return out
}

// parseStamp returns the row timestamp and the date it falls on.
func (f *Finviz) parseStamp(stamp string, prevDay time.Time) (time.Time, time.Time) {
	fields := strings.Fields(stamp)
	day := prevDay
	clock := ""

	switch len(fields) {
	case 2:
		clock = fields[1]
		if strings.EqualFold(fields[0], "today") {
			y, m, d := time.Now().In(f.loc).Date()
			day = time.Date(y, m, d, 0, 0, 0, 0, f.loc)
		} else if t, err := time.ParseInLocation("Jan-02-06", fields[0], f.loc); err == nil {
			day = t
		}
	case 1:
		clock = fields[0]
	}

	if day.IsZero() {
		return time.Time{}, day
	}
	t, err := time.ParseInLocation("03:04PM", clock, f.loc)
	if err != nil {
		return day.UTC(), day
	}
	ts := time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, f.loc)
	return ts.UTC(), day
}
