package schedule

import (
	"time"

	"tutorroute/models"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics receives recalculation events.
type Metrics interface {
	RecordRun(mode models.TravelMode, took time.Duration)
	RecordOutcome(status models.PlacementStatus)
	RecordLegFallback(mode models.TravelMode)
}

type nopMetrics struct{}

func (nopMetrics) RecordRun(models.TravelMode, time.Duration) {}
func (nopMetrics) RecordOutcome(models.PlacementStatus)       {}
func (nopMetrics) RecordLegFallback(models.TravelMode)        {}

// PromMetrics records recalculation events in Prometheus metrics.
type PromMetrics struct {
	runs      *prometheus.HistogramVec
	outcomes  *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
}

// NewPromMetrics registers the scheduling metrics on reg. A nil registerer
// defaults to the global Prometheus registerer.
func NewPromMetrics(reg prometheus.Registerer) (*PromMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "schedule_recalculation_seconds",
		Help:    "Duration of schedule recalculation runs",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_placement_outcomes_total",
		Help: "Placement outcomes of activities during recalculation",
	}, []string{"status"})
	fallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_travel_leg_fallbacks_total",
		Help: "Travel legs estimated locally after a provider failure",
	}, []string{"mode"})

	if err := reg.Register(runs); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			runs = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(outcomes); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			outcomes = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(fallbacks); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			fallbacks = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	return &PromMetrics{runs: runs, outcomes: outcomes, fallbacks: fallbacks}, nil
}

func (m *PromMetrics) RecordRun(mode models.TravelMode, took time.Duration) {
	m.runs.WithLabelValues(string(mode)).Observe(took.Seconds())
}

func (m *PromMetrics) RecordOutcome(status models.PlacementStatus) {
	m.outcomes.WithLabelValues(string(status)).Inc()
}

func (m *PromMetrics) RecordLegFallback(mode models.TravelMode) {
	m.fallbacks.WithLabelValues(string(mode)).Inc()
}
