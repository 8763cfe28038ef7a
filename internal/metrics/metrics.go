// Package metrics exposes Prometheus instruments for evaluations, backtests and the screener.
// All methods are safe on a nil *Metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Alias1177/nicempc/internal/model"
)

const namespace = "nicempc"

// Metrics holds the registered collectors
type Metrics struct {
	evaluations      *prometheus.CounterVec
	guardFailures    *prometheus.CounterVec
	weightedScore    *prometheus.GaugeVec
	evaluateDuration prometheus.Histogram
	backtests        *prometheus.CounterVec
	screenerSkipped  prometheus.Counter
	screenerRanked   prometheus.Gauge
	httpRequests     *prometheus.CounterVec
}

// New registers the collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		evaluations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Evaluations by outcome.",
		}, []string{"outcome"}),
		guardFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_failures_total",
			Help:      "Guard chain failures by phase.",
		}, []string{"phase"}),
		weightedScore: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "weighted_score",
			Help:      "Latest weighted agent score per ticker.",
		}, []string{"ticker"}),
		evaluateDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluate_duration_seconds",
			Help:      "Time to fetch and evaluate one ticker.",
			Buckets:   prometheus.DefBuckets,
		}),
		backtests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backtests_total",
			Help:      "Backtest runs by outcome.",
		}, []string{"outcome"}),
		screenerSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "screener_skipped_total",
			Help:      "Screener candidates dropped on timeout or error.",
		}),
		screenerRanked: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "screener_ranked",
			Help:      "Candidates ranked by the last screener run.",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}
}

// ObserveEvaluation records a finished evaluation
func (m *Metrics) ObserveEvaluation(ev model.Evaluation, took time.Duration) {
	if m == nil {
		return
	}
	m.evaluateDuration.Observe(took.Seconds())
	m.weightedScore.WithLabelValues(ev.Ticker).Set(ev.Aggregate.WeightedScore)
	if ev.Guard.AllPassed {
		m.evaluations.WithLabelValues("passed").Inc()
		return
	}
	m.evaluations.WithLabelValues("blocked").Inc()
	if ev.Guard.FailedPhase != nil {
		m.guardFailures.WithLabelValues(strconv.Itoa(*ev.Guard.FailedPhase)).Inc()
	}
}

// EvaluationFailed counts an evaluation that returned an error
func (m *Metrics) EvaluationFailed() {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues("error").Inc()
}

// ObserveBacktest counts a backtest run
func (m *Metrics) ObserveBacktest(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.backtests.WithLabelValues(outcome).Inc()
}

// ScreenerSkipped counts a dropped screener candidate
func (m *Metrics) ScreenerSkipped() {
	if m == nil {
		return
	}
	m.screenerSkipped.Inc()
}

// ScreenerRanked records how many candidates survived a run
func (m *Metrics) ScreenerRanked(n int) {
	if m == nil {
		return
	}
	m.screenerRanked.Set(float64(n))
}

// HTTPRequest counts one served request
func (m *Metrics) HTTPRequest(route string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
