package sentiment

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"stock-sentiment-agent/internal/apperr"
	"stock-sentiment-agent/internal/types"
)

const eps = 1e-9

func scored(polarities ...float64) []types.ScoredHeadline {
	out := make([]types.ScoredHeadline, len(polarities))
	for i, p := range polarities {
		out[i] = types.ScoredHeadline{
			Headline:     types.Headline{Text: "headline"},
			Polarity:     p,
			Subjectivity: 0.5,
		}
	}
	return out
}

func TestAggregateEmpty(t *testing.T) {
	agg := NewAggregator(DefaultThresholds()).Aggregate(nil)

	if agg.Label != types.Neutral {
		t.Errorf("Expected Neutral, got %s", agg.Label)
	}
	if agg.MeanPolarity != 0.0 || math.IsNaN(agg.MeanPolarity) {
		t.Errorf("Expected mean 0.0, got %f", agg.MeanPolarity)
	}
	if agg.HeadlineCount != 0 || agg.PositiveCount != 0 || agg.NegativeCount != 0 || agg.NeutralCount != 0 {
		t.Errorf("Expected all counts zero, got %+v", agg)
	}
	if agg.Confidence != 0 {
		t.Errorf("Expected zero confidence, got %f", agg.Confidence)
	}
}

func TestAggregateScenarios(t *testing.T) {
	tests := []struct {
		name       string
		polarities []float64
		mean       float64
		label      types.SentimentLabel
		pos        int
		neg        int
		neu        int
	}{
		{"all positive", []float64{0.8, 0.6, 0.7}, 0.7, types.Bullish, 3, 0, 0},
		{"all neutral", []float64{0.05, -0.05, 0.0}, 0.0, types.Neutral, 0, 0, 3},
		{"all negative", []float64{-0.5, -0.3}, -0.4, types.Bearish, 0, 2, 0},
		{"mixed cancels", []float64{0.9, -0.9}, 0.0, types.Neutral, 1, 1, 0},
		{"boundary stays neutral", []float64{0.1, -0.1}, 0.0, types.Neutral, 0, 0, 2},
		{"single bullish", []float64{0.2}, 0.2, types.Bullish, 1, 0, 0},
	}

	agg := NewAggregator(DefaultThresholds())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := agg.Aggregate(scored(tt.polarities...))

			if math.Abs(got.MeanPolarity-tt.mean) > eps {
				t.Errorf("Expected mean %f, got %f", tt.mean, got.MeanPolarity)
			}
			if got.Label != tt.label {
				t.Errorf("Expected label %s, got %s", tt.label, got.Label)
			}
			if got.PositiveCount != tt.pos || got.NegativeCount != tt.neg || got.NeutralCount != tt.neu {
				t.Errorf("Expected counts %d/%d/%d, got %d/%d/%d",
					tt.pos, tt.neg, tt.neu, got.PositiveCount, got.NegativeCount, got.NeutralCount)
			}
			if got.HeadlineCount != len(tt.polarities) {
				t.Errorf("Expected headline count %d, got %d", len(tt.polarities), got.HeadlineCount)
			}
		})
	}
}

func randomPolarities(r *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = r.Float64()*2 - 1
	}
	return out
}

func TestAggregatePermutationInvariant(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	agg := NewAggregator(DefaultThresholds())

	for trial := 0; trial < 200; trial++ {
		in := scored(randomPolarities(r, 1+r.Intn(40))...)
		want := agg.Aggregate(in)

		shuffled := append([]types.ScoredHeadline(nil), in...)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		if got := agg.Aggregate(shuffled); got != want {
			t.Fatalf("Trial %d: permuted aggregate differs\nwant %+v\ngot  %+v", trial, want, got)
		}
	}
}

func TestAggregateCountsSum(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	agg := NewAggregator(DefaultThresholds())

	for trial := 0; trial < 200; trial++ {
		n := r.Intn(30)
		got := agg.Aggregate(scored(randomPolarities(r, n)...))
		if got.PositiveCount+got.NegativeCount+got.NeutralCount != got.HeadlineCount {
			t.Fatalf("Counts %+v do not sum to headline count", got)
		}
		if got.HeadlineCount != n {
			t.Fatalf("Expected headline count %d, got %d", n, got.HeadlineCount)
		}
	}
}

func TestThresholdSymmetry(t *testing.T) {
	r := rand.New(rand.NewSource(99))
	th := DefaultThresholds()
	agg := NewAggregator(th)

	for trial := 0; trial < 200; trial++ {
		got := agg.Aggregate(scored(randomPolarities(r, 1+r.Intn(20))...))

		synthetic := agg.Aggregate(scored(got.MeanPolarity))
		if synthetic.Label != got.Label {
			t.Fatalf("Mean %f labelled %s but single headline labelled %s", got.MeanPolarity, got.Label, synthetic.Label)
		}
		if th.Label(got.MeanPolarity) != got.Label {
			t.Fatalf("Label rule mismatch for mean %f", got.MeanPolarity)
		}
	}
}

func TestAggregateIsPure(t *testing.T) {
	agg := NewAggregator(DefaultThresholds())
	in := scored(0.3, -0.2, 0.05)
	before := append([]types.ScoredHeadline(nil), in...)

	first := agg.Aggregate(in)
	second := agg.Aggregate(in)
	if first != second {
		t.Errorf("Expected repeated calls to match: %+v vs %+v", first, second)
	}
	for i := range in {
		if in[i] != before[i] {
			t.Fatalf("Input mutated at %d", i)
		}
	}
}

func TestCustomThreshold(t *testing.T) {
	agg := NewAggregator(Symmetric(0.3))
	got := agg.Aggregate(scored(0.2, 0.25))

	if got.Label != types.Neutral {
		t.Errorf("Expected Neutral with wider band, got %s", got.Label)
	}
	if got.NeutralCount != 2 {
		t.Errorf("Expected 2 neutral, got %d", got.NeutralCount)
	}
}

func TestThresholdsValidate(t *testing.T) {
	if err := DefaultThresholds().Validate(); err != nil {
		t.Errorf("Expected default thresholds to be valid, got %v", err)
	}
	if err := Symmetric(0).Validate(); err != nil {
		t.Errorf("Expected zero band to be valid, got %v", err)
	}
	invalid := []Thresholds{
		{Positive: -0.1, Negative: -0.2},
		{Positive: 0.1, Negative: 0.1},
		{Positive: 1.5, Negative: -0.1},
		Symmetric(math.NaN()),
		Symmetric(math.Inf(1)),
		{Positive: 0.1, Negative: math.NaN()},
	}
	for _, th := range invalid {
		err := th.Validate()
		if !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("Expected invalid input for %+v, got %v", th, err)
		}
	}
}

func TestConfidence(t *testing.T) {
	agg := NewAggregator(DefaultThresholds())

	unanimous := agg.Aggregate(scored(0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5))
	if math.Abs(unanimous.Confidence-0.9) > eps {
		t.Errorf("Expected 0.9 for ten unanimous headlines, got %f", unanimous.Confidence)
	}

	split := agg.Aggregate(scored(0.5, -0.5))
	if math.Abs(split.Confidence-0.15) > eps {
		t.Errorf("Expected 0.15 for an even split of two, got %f", split.Confidence)
	}
}
