// Package metrics exposes Prometheus instruments for the analysis pipeline.
// A nil *Recorder is valid and records nothing.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Recorder struct {
	analyses     *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	meanPolarity *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
}

// New registers the instruments with reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		analyses: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentistock_analyses_total",
				Help: "Completed analyses by sentiment label and agreement",
			},
			[]string{"label", "agreement"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentistock_errors_total",
				Help: "Failed analyses by error kind",
			},
			[]string{"kind"},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentistock_cache_lookups_total",
				Help: "Fetch cache lookups by cache and result",
			},
			[]string{"cache", "result"},
		),
		meanPolarity: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sentistock_mean_polarity",
				Help: "Mean headline polarity of the last analysis for a ticker",
			},
			[]string{"ticker"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sentistock_operation_duration_seconds",
				Help:    "Duration of pipeline operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

var (
	defaultOnce     sync.Once
	defaultRecorder *Recorder
)

// Default returns the process-wide recorder on the default registry.
func Default() *Recorder {
	defaultOnce.Do(func() {
		defaultRecorder = New(prometheus.DefaultRegisterer)
	})
	return defaultRecorder
}

func (r *Recorder) RecordAnalysis(label, agreement string) {
	if r == nil {
		return
	}
	r.analyses.WithLabelValues(label, agreement).Inc()
}

func (r *Recorder) RecordError(kind string) {
	if r == nil {
		return
	}
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordCache(cache string, hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(cache, result).Inc()
}

func (r *Recorder) RecordMeanPolarity(ticker string, v float64) {
	if r == nil {
		return
	}
	r.meanPolarity.WithLabelValues(ticker).Set(v)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	if r == nil {
		return
	}
	r.latency.WithLabelValues(op).Observe(seconds)
}
