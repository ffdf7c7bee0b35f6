// Package sentiment turns scored headlines into a single verdict.
package sentiment

import (
	"fmt"
	"math"
	"sort"

	"stock-sentiment-agent/internal/apperr"
	"stock-sentiment-agent/internal/types"
)

// DefaultThreshold is the polarity magnitude above which a headline, or the
// mean of all headlines, stops being neutral.
const DefaultThreshold = 0.1

// Thresholds bound the neutral band. Positive >= 0 >= Negative.
type Thresholds struct {
	Positive float64
	Negative float64
}

// DefaultThresholds returns the band [-DefaultThreshold, +DefaultThreshold].
func DefaultThresholds() Thresholds {
	return Symmetric(DefaultThreshold)
}

// Symmetric returns the band [-t, +t].
func Symmetric(t float64) Thresholds {
	return Thresholds{Positive: t, Negative: -t}
}

// Validate rejects bands that are not finite or fall outside [-1,1].
func (th Thresholds) Validate() error {
	if !finite(th.Positive) || !finite(th.Negative) {
		return apperr.InvalidInput("sentiment.thresholds", fmt.Sprintf("thresholds must be finite, got %v/%v", th.Positive, th.Negative))
	}
	if th.Positive < 0 || th.Positive > 1 {
		return apperr.InvalidInput("sentiment.thresholds", fmt.Sprintf("positive threshold %.3f outside [0,1]", th.Positive))
	}
	if th.Negative > 0 || th.Negative < -1 {
		return apperr.InvalidInput("sentiment.thresholds", fmt.Sprintf("negative threshold %.3f outside [-1,0]", th.Negative))
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Classify buckets a single polarity. The same rule labels the aggregate mean.
func (th Thresholds) Classify(polarity float64) types.HeadlineClass {
	switch {
	case polarity > th.Positive:
		return types.ClassPositive
	case polarity < th.Negative:
		return types.ClassNegative
	default:
		return types.ClassNeutral
	}
}

// Label is Classify expressed as a market verdict.
func (th Thresholds) Label(polarity float64) types.SentimentLabel {
	switch th.Classify(polarity) {
	case types.ClassPositive:
		return types.Bullish
	case types.ClassNegative:
		return types.Bearish
	default:
		return types.Neutral
	}
}

// Aggregator is stateless apart from its thresholds and safe for concurrent use.
type Aggregator struct {
	th Thresholds
}

// NewAggregator returns an Aggregator classifying with th.
func NewAggregator(th Thresholds) *Aggregator {
	return &Aggregator{th: th}
}

func (a *Aggregator) Thresholds() Thresholds {
	return a.th
}

// Aggregate computes the unweighted verdict over scored. Empty input yields
// the zero aggregate labelled Neutral. The result does not depend on the
// order of scored.
func (a *Aggregator) Aggregate(scored []types.ScoredHeadline) types.SentimentAggregate {
	if len(scored) == 0 {
		return types.SentimentAggregate{Label: types.Neutral}
	}

	agg := types.SentimentAggregate{HeadlineCount: len(scored)}

	polarities := make([]float64, len(scored))
	subjectivities := make([]float64, len(scored))
	for i, s := range scored {
		polarities[i] = s.Polarity
		subjectivities[i] = s.Subjectivity

		switch a.th.Classify(s.Polarity) {
		case types.ClassPositive:
			agg.PositiveCount++
		case types.ClassNegative:
			agg.NegativeCount++
		default:
			agg.NeutralCount++
		}
	}

	agg.MeanPolarity = mean(polarities)
	agg.MeanSubjectivity = mean(subjectivities)
	agg.Label = a.th.Label(agg.MeanPolarity)
	agg.Confidence = confidence(agg)
	return agg
}

// mean sums a sorted copy so float rounding is identical for every
// permutation of the input.
func mean(vals []float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	return sum / float64(len(sorted))
}

// confidence scales a base by headline count with how consistent the bucket
// split is. It is display metadata and never feeds the label.
func confidence(agg types.SentimentAggregate) float64 {
	base := 0.0
	switch n := agg.HeadlineCount; {
	case n >= 10:
		base = 0.9
	case n >= 5:
		base = 0.7
	case n >= 3:
		base = 0.5
	case n >= 1:
		base = 0.3
	default:
		return 0
	}

	largest := max(agg.PositiveCount, agg.NegativeCount, agg.NeutralCount)
	return base * float64(largest) / float64(agg.HeadlineCount)
}
