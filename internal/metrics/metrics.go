// Package metrics records pricing pipeline activity with Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stage names used as the "stage" label.
const (
	StageNormalize = "normalize"
	StageCurve     = "curve"
	StageSwap      = "swap"
	StageExercise  = "exercise"
	StageCalibrate = "calibrate"
	StagePrice     = "price"
)

// Recorder observes stage latencies, failures and calibration quality.
type Recorder struct {
	stageDuration *prometheus.HistogramVec
	failures      *prometheus.CounterVec
	pricings      *prometheus.CounterVec
	calibRMS      *prometheus.GaugeVec
}

// New registers the collectors on reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "swaption",
				Name:      "stage_duration_seconds",
				Help:      "Duration of pricing pipeline stages in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "swaption",
				Name:      "failures_total",
				Help:      "Pricing failures by stage and error type",
			},
			[]string{"stage", "type"},
		),
		pricings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "swaption",
				Name:      "pricings_total",
				Help:      "Completed pricings by model variant and engine",
			},
			[]string{"variant", "engine"},
		),
		calibRMS: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "swaption",
				Name:      "calibration_rms_vol_error",
				Help:      "Root mean square model minus market vol of the last calibration",
			},
			[]string{"variant"},
		),
	}
}

// ObserveStage records how long a stage took.
func (r *Recorder) ObserveStage(stage string, seconds float64) {
	r.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordFailure counts a failed stage.
func (r *Recorder) RecordFailure(stage, errType string) {
	r.failures.WithLabelValues(stage, errType).Inc()
}

// RecordPricing counts a completed pricing.
func (r *Recorder) RecordPricing(variant, engine string) {
	r.pricings.WithLabelValues(variant, engine).Inc()
}

// RecordCalibration sets the RMS vol error of the latest calibration.
func (r *Recorder) RecordCalibration(variant string, rms float64) {
	r.calibRMS.WithLabelValues(variant).Set(rms)
}
