package interfaces

import (
	"context"
	"time"

	"stock-sentiment-agent/internal/types"
)

// PolarityScorer maps one text to polarity in [-1,1] and subjectivity in
// [0,1]. Blank text fails with apperr.ErrInvalidInput; a backend that cannot
// score fails with apperr.ErrScorerUnavailable.
type PolarityScorer interface {
	Score(ctx context.Context, text string) (polarity, subjectivity float64, err error)
}

// HeadlineSource returns the headlines published for ticker within
// [start, end]. No headlines is an empty slice, not an error.
type HeadlineSource interface {
	Fetch(ctx context.Context, ticker string, start, end time.Time) ([]types.Headline, error)
}

// PriceSource returns daily closes for ticker within [start, end], ascending
// by date with unique dates.
type PriceSource interface {
	Fetch(ctx context.Context, ticker string, start, end time.Time) ([]types.PricePoint, error)
}

// QuoteSource returns the latest quote and fundamentals for ticker.
type QuoteSource interface {
	Quote(ctx context.Context, ticker string) (*types.Quote, error)
}
