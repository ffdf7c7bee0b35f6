package types

import "time"

// SentimentLabel is the three-way verdict derived from polarity thresholds.
type SentimentLabel string

const (
	Bullish SentimentLabel = "BULLISH"
	Bearish SentimentLabel = "BEARISH"
	Neutral SentimentLabel = "NEUTRAL"
)

// HeadlineClass is the bucket a single headline falls into.
type HeadlineClass string

const (
	ClassPositive HeadlineClass = "POSITIVE"
	ClassNegative HeadlineClass = "NEGATIVE"
	ClassNeutral  HeadlineClass = "NEUTRAL"
)

// Agreement relates the sentiment direction to the realised price direction.
type Agreement string

const (
	Confirming   Agreement = "CONFIRMING"
	Diverging    Agreement = "DIVERGING"
	Inconclusive Agreement = "INCONCLUSIVE"
)

type Headline struct {
	Text        string    `json:"text"`
	PublishedAt time.Time `json:"published_at"`
	Source      string    `json:"source,omitempty"`
	URL         string    `json:"url,omitempty"`
}

type ScoredHeadline struct {
	Headline
	Polarity     float64 `json:"polarity"`
	Subjectivity float64 `json:"subjectivity"`
}

// PricePoint is one daily bar. Only Date and Close are required.
type PricePoint struct {
	Date   time.Time `json:"date"`
	Close  float64   `json:"close"`
	Open   float64   `json:"open,omitempty"`
	High   float64   `json:"high,omitempty"`
	Low    float64   `json:"low,omitempty"`
	Volume int64     `json:"volume,omitempty"`
}

type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days returns the inclusive number of calendar days covered by the range.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

type SentimentAggregate struct {
	MeanPolarity     float64        `json:"mean_polarity"`
	Label            SentimentLabel `json:"label"`
	HeadlineCount    int            `json:"headline_count"`
	PositiveCount    int            `json:"positive_count"`
	NegativeCount    int            `json:"negative_count"`
	NeutralCount     int            `json:"neutral_count"`
	MeanSubjectivity float64        `json:"mean_subjectivity"`
	Confidence       float64        `json:"confidence"`
}

type CorrelationSignal struct {
	PriceChangePct float64        `json:"price_change_pct"`
	SentimentLabel SentimentLabel `json:"sentiment_label"`
	Agreement      Agreement      `json:"agreement"`
}

// Indicators holds technical readings over the report's closes. A nil field
// means the series was too short to compute it.
type Indicators struct {
	SMAShortPeriod int      `json:"sma_short_period"`
	SMAShort       *float64 `json:"sma_short"`
	SMALongPeriod  int      `json:"sma_long_period"`
	SMALong        *float64 `json:"sma_long"`
	RSIPeriod      int      `json:"rsi_period"`
	RSI            *float64 `json:"rsi"`
	MACD           *float64 `json:"macd"`
	MACDSignal     *float64 `json:"macd_signal"`
}

type Report struct {
	ID              string             `json:"id"`
	Ticker          string             `json:"ticker"`
	Range           DateRange          `json:"date_range"`
	GeneratedAt     time.Time          `json:"generated_at"`
	Prices          []PricePoint       `json:"prices"`
	Aggregate       SentimentAggregate `json:"aggregate"`
	Correlation     CorrelationSignal  `json:"correlation"`
	ScoredHeadlines []ScoredHeadline   `json:"scored_headlines"`
	Indicators      *Indicators        `json:"indicators,omitempty"`
	Quote           *Quote             `json:"quote,omitempty"`
}

// Quote is the latest snapshot and fundamentals for a ticker. Fields the
// provider does not report are nil.
type Quote struct {
	Ticker           string   `json:"ticker"`
	Name             string   `json:"name"`
	Currency         string   `json:"currency"`
	Price            float64  `json:"price"`
	PreviousClose    *float64 `json:"previous_close,omitempty"`
	MarketCap        *float64 `json:"market_cap,omitempty"`
	TrailingPE       *float64 `json:"trailing_pe,omitempty"`
	FiftyTwoWeekHigh *float64 `json:"fifty_two_week_high,omitempty"`
	Volume           *int64   `json:"volume,omitempty"`
}

// DayChangePct is the move from the previous close to Price. ok is false
// when the previous close is unknown or not positive.
func (q Quote) DayChangePct() (pct float64, ok bool) {
	if q.PreviousClose == nil || *q.PreviousClose <= 0 {
		return 0, false
	}
	return (q.Price - *q.PreviousClose) / *q.PreviousClose * 100, true
}

// NormalizedPoint is a close expressed as percent change from the first
// close of its series.
type NormalizedPoint struct {
	Date      time.Time `json:"date"`
	ChangePct float64   `json:"change_pct"`
}

type ComparisonEntry struct {
	Ticker    string            `json:"ticker"`
	ChangePct float64           `json:"change_pct"`
	Series    []NormalizedPoint `json:"series"`
	Quote     *Quote            `json:"quote,omitempty"`
}

// Comparison lines up several tickers over one range, in request order.
type Comparison struct {
	Range       DateRange         `json:"date_range"`
	GeneratedAt time.Time         `json:"generated_at"`
	Entries     []ComparisonEntry `json:"entries"`
}
