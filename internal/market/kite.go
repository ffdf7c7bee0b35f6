package market

import (
	"context"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"stock-sentiment-agent/internal/apperr"
	"stock-sentiment-agent/internal/interfaces"
	"stock-sentiment-agent/internal/logger"
	"stock-sentiment-agent/internal/types"
)

// kiteAPI is the subset of *kiteconnect.Client used for bars and quotes.
type kiteAPI interface {
	GetInstrumentsByExchange(exchange string) (kiteconnect.Instruments, error)
	GetHistoricalData(instrumentToken int, interval string, fromDate time.Time, toDate time.Time, continuous bool, OI bool) ([]kiteconnect.HistoricalData, error)
	GetQuote(instruments ...string) (kiteconnect.Quote, error)
}

// Kite reads daily candles from Zerodha Kite Connect. Tickers may carry a
// ".NS" or ".BO" suffix; otherwise the configured exchange is used.
type Kite struct {
	kc       kiteAPI
	exchange string
	mapper   *instrumentMapper
	loadMu   chan struct{}
}

var (
	_ interfaces.PriceSource = (*Kite)(nil)
	_ interfaces.QuoteSource = (*Kite)(nil)
)

// NewKite builds a Kite source from API credentials.
func NewKite(apiKey, accessToken, exchange string) (*Kite, error) {
	if apiKey == "" || accessToken == "" {
		return nil, apperr.New(apperr.ErrSourceUnavailable, "market.kite", "KITE_API_KEY and KITE_ACCESS_TOKEN are required")
	}
	kc := kiteconnect.New(apiKey)
	kc.SetAccessToken(accessToken)
	return newKite(kc, exchange), nil
}

func newKite(kc kiteAPI, exchange string) *Kite {
	if exchange == "" {
		exchange = "NSE"
	}
	return &Kite{
		kc:       kc,
		exchange: exchange,
		mapper:   newInstrumentMapper(),
		loadMu:   make(chan struct{}, 1),
	}
}

func (k *Kite) Fetch(ctx context.Context, ticker string, start, end time.Time) ([]types.PricePoint, error) {
	symbol, exchange := SplitTicker(ticker, k.exchange)

	token, err := k.resolve(ctx, exchange, symbol)
	if err != nil {
		return nil, err
	}

	type result struct {
		bars []kiteconnect.HistoricalData
		err  error
	}
	done := make(chan result, 1)
	go func() {
		bars, err := k.kc.GetHistoricalData(token, "day", dayOf(start), dayOf(end).Add(24*time.Hour-time.Second), false, false)
		done <- result{bars, err}
	}()

	var r result
	select {
	case <-ctx.Done():
		return nil, apperr.SourceUnavailable("market.kite", ctx.Err())
	case r = <-done:
	}
	if r.err != nil {
		logger.ErrorWithErr(ctx, "Kite historical data failed", r.err, "ticker", ticker, "token", token)
		return nil, apperr.SourceUnavailable("market.kite", r.err)
	}

	points := make([]types.PricePoint, 0, len(r.bars))
	for _, b := range r.bars {
		points = append(points, types.PricePoint{
			Date:   b.Date.Time,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: int64(b.Volume),
		})
	}

	out := normalize(points, start, end)
	logger.Debug(ctx, "Kite prices fetched", "ticker", ticker, "exchange", exchange, "points", len(out))
	return out, nil
}

// resolve looks up the instrument token, loading the exchange's instrument
// dump on first use.
func (k *Kite) resolve(ctx context.Context, exchange, symbol string) (int, error) {
	if token, ok := k.mapper.getToken(exchange, symbol); ok {
		return token, nil
	}

	select {
	case k.loadMu <- struct{}{}:
	case <-ctx.Done():
		return 0, apperr.SourceUnavailable("market.kite", ctx.Err())
	}
	defer func() { <-k.loadMu }()

	if !k.mapper.isLoaded(exchange) {
		instruments, err := k.kc.GetInstrumentsByExchange(exchange)
		if err != nil {
			logger.ErrorWithErr(ctx, "Kite instrument dump failed", err, "exchange", exchange)
			return 0, apperr.SourceUnavailable("market.kite", err)
		}
		for _, inst := range instruments {
			k.mapper.addMapping(exchange, inst.Tradingsymbol, inst.InstrumentToken)
		}
		k.mapper.markLoaded(exchange)
		logger.Info(ctx, "Kite instruments loaded", "exchange", exchange, "count", len(instruments))
	}

	token, ok := k.mapper.getToken(exchange, symbol)
	if !ok {
		return 0, apperr.UnknownTicker("market.kite", symbol)
	}
	return token, nil
}

// Quote returns the last traded price, previous close and day volume. Kite
// does not publish fundamentals, so market cap, P/E and 52-week high stay nil.
func (k *Kite) Quote(ctx context.Context, ticker string) (*types.Quote, error) {
	symbol, exchange := SplitTicker(ticker, k.exchange)
	if _, err := k.resolve(ctx, exchange, symbol); err != nil {
		return nil, err
	}
	key := exchange + ":" + symbol

	type result struct {
		quotes kiteconnect.Quote
		err    error
	}
	done := make(chan result, 1)
	go func() {
		quotes, err := k.kc.GetQuote(key)
		done <- result{quotes, err}
	}()

	var r result
	select {
	case <-ctx.Done():
		return nil, apperr.SourceUnavailable("market.kite", ctx.Err())
	case r = <-done:
	}
	if r.err != nil {
		logger.ErrorWithErr(ctx, "Kite quote failed", r.err, "ticker", ticker)
		return nil, apperr.SourceUnavailable("market.kite", r.err)
	}

	data, ok := r.quotes[key]
	if !ok || data.LastPrice <= 0 {
		return nil, apperr.UnknownTicker("market.kite", symbol)
	}

	vol := int64(data.Volume)
	q := &types.Quote{
		Ticker:   ticker,
		Name:     symbol,
		Currency: "INR",
		Price:    data.LastPrice,
		Volume:   &vol,
	}
	if prev := data.OHLC.Close; prev > 0 {
		q.PreviousClose = &prev
	}
	return q, nil
}
