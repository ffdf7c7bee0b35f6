package scorerobs

import (
	"context"
	"time"

	"stock-sentiment-agent/internal/interfaces"
	"stock-sentiment-agent/internal/logger"
	"stock-sentiment-agent/internal/metrics"
	"stock-sentiment-agent/internal/trace"
)

// observableScorer wraps a PolarityScorer with logging, tracing and latency metrics
type observableScorer struct {
	scorer   interfaces.PolarityScorer
	name     string
	recorder *metrics.Recorder
}

var _ interfaces.PolarityScorer = (*observableScorer)(nil)

// Wrap wraps a scorer with observability middleware
func Wrap(scorer interfaces.PolarityScorer, name string, recorder *metrics.Recorder) interfaces.PolarityScorer {
	return &observableScorer{scorer: scorer, name: name, recorder: recorder}
}

func (o *observableScorer) Score(ctx context.Context, text string) (float64, float64, error) {
	ctx, span := trace.StartSpan(ctx, "scorer.Score")
	defer span.End()

	start := time.Now()
	polarity, subjectivity, err := o.scorer.Score(ctx, text)
	o.recorder.RecordLatency("score."+o.name, time.Since(start).Seconds())

	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to score headline", err,
			"scorer", o.name,
			"headline", text,
		)
		return 0, 0, err
	}

	logger.DebugSkip(ctx, 1, "Headline scored",
		"scorer", o.name,
		"headline", text,
		"polarity", polarity,
		"subjectivity", subjectivity,
	)
	return polarity, subjectivity, nil
}
