package market

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"stock-sentiment-agent/internal/api"
	"stock-sentiment-agent/internal/apperr"
	"stock-sentiment-agent/internal/interfaces"
	"stock-sentiment-agent/internal/logger"
	"stock-sentiment-agent/internal/types"
)

const yahooChartBaseURL = "https://query1.finance.yahoo.com"

// Yahoo reads daily bars from the Yahoo Finance chart API.
type Yahoo struct {
	client *api.Client
}

var (
	_ interfaces.PriceSource = (*Yahoo)(nil)
	_ interfaces.QuoteSource = (*Yahoo)(nil)
)

func NewYahoo(timeout time.Duration) *Yahoo {
	return NewYahooWithBaseURL(yahooChartBaseURL, timeout)
}

func NewYahooWithBaseURL(baseURL string, timeout time.Duration) *Yahoo {
	return &Yahoo{
		client: api.NewClient(
			api.WithBaseURL(strings.TrimRight(baseURL, "/")),
			api.WithTimeout(timeout),
			api.WithHeaders(api.YahooFinanceHeaders()),
			api.WithLogging(true),
		),
	}
}

type chartMeta struct {
	Symbol             string   `json:"symbol"`
	Currency           string   `json:"currency"`
	LongName           string   `json:"longName"`
	ShortName          string   `json:"shortName"`
	RegularMarketPrice *float64 `json:"regularMarketPrice"`
	ChartPreviousClose *float64 `json:"chartPreviousClose"`
	PreviousClose      *float64 `json:"previousClose"`
	FiftyTwoWeekHigh   *float64 `json:"fiftyTwoWeekHigh"`
	RegularMarketVol   *int64   `json:"regularMarketVolume"`
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta       chartMeta `json:"meta"`
			Timestamp  []int64   `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (y *Yahoo) Fetch(ctx context.Context, ticker string, start, end time.Time) ([]types.PricePoint, error) {
	// period2 is exclusive, so extend to the end of the last day
	path := fmt.Sprintf("/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d&events=history",
		url.PathEscape(ticker), dayOf(start).Unix(), dayOf(end).AddDate(0, 0, 1).Unix())

	chart, err := y.chart(ctx, ticker, path)
	if err != nil {
		return nil, err
	}

	res := chart.Chart.Result[0]
	points := make([]types.PricePoint, 0, len(res.Timestamp))
	if len(res.Indicators.Quote) > 0 {
		q := res.Indicators.Quote[0]
		for i, ts := range res.Timestamp {
			c := at(q.Close, i)
			if c == nil {
				continue
			}
			p := types.PricePoint{Date: time.Unix(ts, 0).UTC(), Close: *c}
			if v := at(q.Open, i); v != nil {
				p.Open = *v
			}
			if v := at(q.High, i); v != nil {
				p.High = *v
			}
			if v := at(q.Low, i); v != nil {
				p.Low = *v
			}
			if v := at(q.Volume, i); v != nil {
				p.Volume = *v
			}
			points = append(points, p)
		}
	}

	out := normalize(points, start, end)
	logger.Debug(ctx, "Yahoo prices fetched", "ticker", ticker, "points", len(out), "currency", res.Meta.Currency)
	return out, nil
}

// chart fetches one chart document and maps provider failures onto error
// kinds. The result has at least one entry.
func (y *Yahoo) chart(ctx context.Context, ticker, path string) (*chartResponse, error) {
	var chart chartResponse
	if err := y.client.GetJSON(ctx, path, &chart); err != nil {
		var se *api.StatusError
		if errors.As(err, &se) && se.NotFound() {
			return nil, apperr.UnknownTicker("market.yahoo", ticker)
		}
		logger.ErrorWithErr(ctx, "Yahoo chart request failed", err, "ticker", ticker)
		return nil, apperr.SourceUnavailable("market.yahoo", err)
	}

	if e := chart.Chart.Error; e != nil {
		if strings.EqualFold(e.Code, "Not Found") {
			return nil, apperr.UnknownTicker("market.yahoo", ticker)
		}
		return nil, apperr.SourceUnavailable("market.yahoo", fmt.Errorf("%s: %s", e.Code, e.Description))
	}
	if len(chart.Chart.Result) == 0 {
		return nil, apperr.UnknownTicker("market.yahoo", ticker)
	}
	return &chart, nil
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol           string   `json:"symbol"`
			LongName         string   `json:"longName"`
			MarketCap        *float64 `json:"marketCap"`
			TrailingPE       *float64 `json:"trailingPE"`
			FiftyTwoWeekHigh *float64 `json:"fiftyTwoWeekHigh"`
		} `json:"result"`
	} `json:"quoteResponse"`
}

// Quote reads price, name and currency from the chart metadata, then adds
// market cap and P/E from the quote endpoint when it answers. The quote
// endpoint often demands a session cookie, so its failure only leaves those
// fields empty.
func (y *Yahoo) Quote(ctx context.Context, ticker string) (*types.Quote, error) {
	path := fmt.Sprintf("/v8/finance/chart/%s?range=1d&interval=1d", url.PathEscape(ticker))
	chart, err := y.chart(ctx, ticker, path)
	if err != nil {
		return nil, err
	}

	meta := chart.Chart.Result[0].Meta
	if meta.RegularMarketPrice == nil {
		return nil, apperr.UnknownTicker("market.yahoo", ticker)
	}
	q := &types.Quote{
		Ticker:           ticker,
		Name:             firstNonEmpty(meta.LongName, meta.ShortName, ticker),
		Currency:         firstNonEmpty(meta.Currency, "USD"),
		Price:            *meta.RegularMarketPrice,
		PreviousClose:    meta.PreviousClose,
		FiftyTwoWeekHigh: meta.FiftyTwoWeekHigh,
		Volume:           meta.RegularMarketVol,
	}
	if q.PreviousClose == nil {
		q.PreviousClose = meta.ChartPreviousClose
	}

	var fundamentals quoteResponse
	if err := y.client.GetJSON(ctx, "/v7/finance/quote?symbols="+url.QueryEscape(ticker), &fundamentals); err != nil {
		logger.Debug(ctx, "Yahoo fundamentals unavailable", "ticker", ticker, "error", err)
		return q, nil
	}
	for _, r := range fundamentals.QuoteResponse.Result {
		if !strings.EqualFold(r.Symbol, ticker) {
			continue
		}
		q.MarketCap = r.MarketCap
		q.TrailingPE = r.TrailingPE
		if q.FiftyTwoWeekHigh == nil {
			q.FiftyTwoWeekHigh = r.FiftyTwoWeekHigh
		}
		if r.LongName != "" {
			q.Name = r.LongName
		}
	}
	return q, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func at[T any](vals []*T, i int) *T {
	if i < 0 || i >= len(vals) {
		return nil
	}
	return vals[i]
}
