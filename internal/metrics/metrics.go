// Package metrics exports simulation activity as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/berth-dev/cutover/internal/simulation"
)

const namespace = "cutover"

// Metrics implements simulation.Observer on top of Prometheus collectors.
type Metrics struct {
	sessionsStarted prometheus.Counter
	sessionsEnded   prometheus.Counter
	finalReviews    prometheus.Counter

	// turns counts submitted turns. Labels: outcome (completed, extraction_failed, persona_failed, rejected)
	turns *prometheus.CounterVec

	// collaboratorLatency measures extraction, scenario, complication and
	// persona calls. Labels: collaborator, status (ok, error)
	collaboratorLatency *prometheus.HistogramVec

	// personaTurns counts persona replies. Labels: persona
	personaTurns *prometheus.CounterVec

	finalScore prometheus.Histogram
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		sessionsStarted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Sessions opened.",
		}),
		sessionsEnded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_ended_total",
			Help:      "Sessions that reached the end and were evaluated.",
		}),
		finalReviews: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "final_reviews_total",
			Help:      "Sessions that entered the final review.",
		}),
		turns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Submitted turns by outcome.",
		}, []string{"outcome"}),
		collaboratorLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "collaborator",
			Name:      "latency_seconds",
			Help:      "Collaborator call latency in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"collaborator", "status"}),
		personaTurns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persona_turns_total",
			Help:      "Persona replies by persona.",
		}, []string{"persona"}),
		finalScore: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "final_score",
			Help:      "Reasoning-quality score of evaluated sessions.",
			Buckets:   prometheus.LinearBuckets(0, 1, simulation.MaxScore+1),
		}),
	}
}

// Observe implements simulation.Observer.
func (m *Metrics) Observe(e simulation.Event) {
	switch e.Kind {
	case simulation.EventSessionStarted:
		m.sessionsStarted.Inc()
	case simulation.EventTurnCompleted:
		m.turns.WithLabelValues("completed").Inc()
		if e.Persona != "" {
			m.personaTurns.WithLabelValues(string(e.Persona)).Inc()
		}
	case simulation.EventExtractionFailed:
		m.turns.WithLabelValues("extraction_failed").Inc()
	case simulation.EventPersonaFailed:
		m.turns.WithLabelValues("persona_failed").Inc()
	case simulation.EventTurnRejected:
		m.turns.WithLabelValues("rejected").Inc()
	case simulation.EventFinalReview:
		m.finalReviews.Inc()
	case simulation.EventSessionEnded:
		m.sessionsEnded.Inc()
		m.finalScore.Observe(float64(e.Score))
	case simulation.EventCollaboratorCall:
		status := "ok"
		if e.Err != nil {
			status = "error"
		}
		m.collaboratorLatency.WithLabelValues(e.Collaborator, status).Observe(e.Duration.Seconds())
	}
}
