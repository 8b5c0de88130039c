package statemachine

import (
	"context"
	"log/slog"
	"time"
)

// Logger provides logging hooks for transition attempts.
type Logger interface {
	TransitionStarted(ctx context.Context, machine string, t *Transition, from State)
	TransitionApplied(ctx context.Context, machine string, t *Transition, from State, duration time.Duration)
	TransitionFailed(ctx context.Context, machine string, failure *TransitionFailedError, from State, duration time.Duration)
	NotificationFailed(ctx context.Context, machine string, event string, err error)
}

// DefaultLogger implements Logger using slog.
type DefaultLogger struct {
	logger *slog.Logger
}

// NewDefaultLogger creates a logger writing to logger, or to slog.Default() when nil.
func NewDefaultLogger(logger *slog.Logger) *DefaultLogger {
	if logger == nil {
		logger = slog.Default()
	}

	return &DefaultLogger{
		logger: logger,
	}
}

func (l *DefaultLogger) TransitionStarted(ctx context.Context, machine string, t *Transition, from State) {
	l.logger.DebugContext(ctx, "Transition started",
		"machine", machine,
		"transition", t.Name(),
		"from", from,
		"to", t.To(),
	)
}

func (l *DefaultLogger) TransitionApplied(
	ctx context.Context, machine string, t *Transition, from State, duration time.Duration,
) {
	l.logger.InfoContext(ctx, "Transition applied",
		"machine", machine,
		"transition", t.Name(),
		"from", from,
		"to", t.To(),
		"duration_ms", duration.Milliseconds(),
	)
}

func (l *DefaultLogger) TransitionFailed(
	ctx context.Context, machine string, failure *TransitionFailedError, from State, duration time.Duration,
) {
	fields := []any{
		"machine", machine,
		"from", from,
		"failure_kind", failure.Kind.String(),
		"duration_ms", duration.Milliseconds(),
		"error", failure.Cause,
	}

	if failure.Transition != nil {
		fields = append(fields,
			"transition", failure.Transition.Name(),
			"to", failure.Transition.To(),
		)
	}

	l.logger.WarnContext(ctx, "Transition failed", fields...)
}

func (l *DefaultLogger) NotificationFailed(ctx context.Context, machine string, event string, err error) {
	l.logger.ErrorContext(ctx, "Notification failed after state change",
		"machine", machine,
		"event", event,
		"error", err,
	)
}

type nopLogger struct{}

func (nopLogger) TransitionStarted(context.Context, string, *Transition, State) {}

func (nopLogger) TransitionApplied(context.Context, string, *Transition, State, time.Duration) {}

func (nopLogger) TransitionFailed(context.Context, string, *TransitionFailedError, State, time.Duration) {}

func (nopLogger) NotificationFailed(context.Context, string, string, error) {}
