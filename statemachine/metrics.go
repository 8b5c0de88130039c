package statemachine

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric outcome constants. Failures are labelled with their FailureKind.
const (
	outcomeSuccess = "success"
)

// Metric definitions with appropriate labels.
var (
	// transitionAttemptsTotal tracks transition attempts by machine, transition and outcome.
	transitionAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "statemachine_transition_attempts_total",
		Help: "Total number of transition attempts by machine, transition, and outcome",
	}, []string{"machine", "transition", "outcome"})

	// transitionDuration tracks how long an attempt took, action and notifications included.
	transitionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "statemachine_transition_duration_seconds",
		Help:    "Duration of transition attempts by machine, transition, and outcome",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"machine", "transition", "outcome"})

	// guardRejectionsTotal tracks guards that returned false.
	guardRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "statemachine_guard_rejections_total",
		Help: "Total number of transition attempts blocked by a guard",
	}, []string{"machine", "transition"})
)

func recordAttempt(t *Transition, result Result, elapsed time.Duration) {
	machine := sanitizeLabel(t.machine.Name())
	name := sanitizeLabel(t.name)

	outcome := outcomeSuccess
	if result.Failure != nil {
		outcome = result.Failure.Kind.String()
	}

	transitionAttemptsTotal.WithLabelValues(machine, name, outcome).Inc()
	transitionDuration.WithLabelValues(machine, name, outcome).Observe(elapsed.Seconds())

	if result.Failure != nil && errors.Is(result.Failure.Cause, ErrTransitionGuardFailed) {
		guardRejectionsTotal.WithLabelValues(machine, name).Inc()
	}
}

// recordNotFound counts name lookups that matched nothing. The requested name
// is user input, so it is not used as a label.
func recordNotFound(machine string) {
	transitionAttemptsTotal.WithLabelValues(sanitizeLabel(machine), "none", FailureNotFound.String()).Inc()
}

func sanitizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}

	return value
}
