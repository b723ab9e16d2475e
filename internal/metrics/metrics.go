package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

const namespace = "quiz"

// Metrics holds the attempt collectors on their own registry so tests and
// multiple servers in one process do not collide on the default one.
type Metrics struct {
	reg *prometheus.Registry

	attemptsStarted   *prometheus.CounterVec
	attemptsCompleted *prometheus.CounterVec
	checks            *prometheus.CounterVec
	scorePercentage   prometheus.Histogram
	activeSessions    prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		attemptsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "attempts_started_total",
				Help:      "Attempts started, by lesson",
			},
			[]string{"lesson"},
		),
		attemptsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "attempts_completed_total",
				Help:      "Attempts completed, by lesson",
			},
			[]string{"lesson"},
		),
		checks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checks_total",
				Help:      "Answer checks, by question kind and result",
			},
			[]string{"kind", "correct"},
		),
		scorePercentage: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "score_percentage",
				Help:      "Final score percentage of completed attempts",
				Buckets:   []float64{0, 20, 40, 50, 60, 70, 80, 90, 100},
			},
		),
		activeSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_sessions",
				Help:      "Attempts started and not yet completed by this process",
			},
		),
	}
	m.reg.MustRegister(
		m.attemptsStarted,
		m.attemptsCompleted,
		m.checks,
		m.scorePercentage,
		m.activeSessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// A nil *Metrics is valid and records nothing.

func (m *Metrics) AttemptStarted(lessonID string) {
	if m == nil {
		return
	}
	m.attemptsStarted.WithLabelValues(lessonID).Inc()
	m.activeSessions.Inc()
}

func (m *Metrics) Checked(kind quiz.Kind, correct bool) {
	if m == nil {
		return
	}
	m.checks.WithLabelValues(string(kind), strconv.FormatBool(correct)).Inc()
}

func (m *Metrics) AttemptCompleted(lessonID string, score quiz.Score) {
	if m == nil {
		return
	}
	m.attemptsCompleted.WithLabelValues(lessonID).Inc()
	m.scorePercentage.Observe(float64(score.Percentage))
	m.activeSessions.Dec()
}
