package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "competition"

// Engine holds the bracket engine collectors. A nil *Engine records nothing.
type Engine struct {
	registry *prometheus.Registry

	BracketsGenerated  *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
	MatchesCreated     prometheus.Counter
	ByesResolved       prometheus.Counter
	ResultsSubmitted   *prometheus.CounterVec
	Confirmations      prometheus.Counter
	PlacementFailures  prometheus.Counter
	CategoryFailures   prometheus.Counter
	PublishFailures    *prometheus.CounterVec
}

func NewEngine(reg *prometheus.Registry) *Engine {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Engine{
		registry: reg,
		BracketsGenerated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "brackets_generated_total",
			Help:      "Brackets materialized, by bracket type.",
		}, []string{"type"}),
		GenerationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bracket_generation_seconds",
			Help:      "Time spent generating and materializing one bracket.",
			Buckets:   prometheus.DefBuckets,
		}),
		MatchesCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_created_total",
			Help:      "Match rows created by bracket materialization.",
		}),
		ByesResolved: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "byes_resolved_total",
			Help:      "One-sided matches completed automatically.",
		}),
		ResultsSubmitted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_total",
			Help:      "Result workflow transitions, by mode (direct, provisional, approved).",
		}, []string{"mode"}),
		Confirmations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_confirmations_total",
			Help:      "Judge confirmations stamped on completed matches.",
		}),
		PlacementFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "placement_failures_total",
			Help:      "Placement recordings that failed after a committed result.",
		}),
		CategoryFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "regeneration_category_failures_total",
			Help:      "Categories that failed during competition-wide regeneration.",
		}),
		PublishFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_failures_total",
			Help:      "Domain events that could not be delivered, by topic.",
		}, []string{"topic"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (e *Engine) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

func (e *Engine) BracketGenerated(bracketType string, matches int, took time.Duration) {
	if e == nil {
		return
	}
	e.BracketsGenerated.WithLabelValues(bracketType).Inc()
	e.MatchesCreated.Add(float64(matches))
	e.GenerationDuration.Observe(took.Seconds())
}

func (e *Engine) ByeResolved() {
	if e == nil {
		return
	}
	e.ByesResolved.Inc()
}

func (e *Engine) Result(mode string) {
	if e == nil {
		return
	}
	e.ResultsSubmitted.WithLabelValues(mode).Inc()
}

func (e *Engine) Confirmed() {
	if e == nil {
		return
	}
	e.Confirmations.Inc()
}

func (e *Engine) PlacementFailed() {
	if e == nil {
		return
	}
	e.PlacementFailures.Inc()
}

func (e *Engine) CategoryFailed() {
	if e == nil {
		return
	}
	e.CategoryFailures.Inc()
}

func (e *Engine) PublishFailed(topic string) {
	if e == nil {
		return
	}
	e.PublishFailures.WithLabelValues(topic).Inc()
}
