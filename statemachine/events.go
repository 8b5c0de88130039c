package statemachine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// TransitionEvent is the payload dispatched before and after a transition. The
// before/after pair of one attempt shares the same ID.
type TransitionEvent struct {
	ID         uuid.UUID
	Machine    string
	Transition *Transition
	From       State
	To         State

	stopped bool
}

func newTransitionEvent(t *Transition, from State) *TransitionEvent {
	return &TransitionEvent{
		ID:         uuid.New(),
		Machine:    t.machine.Name(),
		Transition: t,
		From:       from,
		To:         t.to,
	}
}

// next returns a fresh event for the following notification of the same attempt.
func (e *TransitionEvent) next() *TransitionEvent {
	return &TransitionEvent{
		ID:         e.ID,
		Machine:    e.Machine,
		Transition: e.Transition,
		From:       e.From,
		To:         e.To,
	}
}

// StopPropagation prevents later listeners of a Dispatcher from seeing the event.
func (e *TransitionEvent) StopPropagation() {
	e.stopped = true
}

// IsPropagationStopped reports whether StopPropagation was called.
func (e *TransitionEvent) IsPropagationStopped() bool {
	return e.stopped
}

// NotificationSink receives the events a machine dispatches. It is called
// synchronously; whatever it returns is handed back to the dispatcher's caller.
type NotificationSink interface {
	Dispatch(ctx context.Context, name string, event *TransitionEvent) (any, error)
}

// SinkFunc adapts a function to a NotificationSink.
type SinkFunc func(ctx context.Context, name string, event *TransitionEvent) (any, error)

func (f SinkFunc) Dispatch(ctx context.Context, name string, event *TransitionEvent) (any, error) {
	return f(ctx, name, event)
}

// Listener handles one event name on a Dispatcher.
type Listener func(ctx context.Context, event *TransitionEvent) error

// Dispatcher is an in-process NotificationSink that fans events out to
// listeners registered by name, in registration order.
type Dispatcher struct {
	listeners map[string][]Listener
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		listeners: make(map[string][]Listener),
	}
}

// AddListener registers l for events called name.
func (d *Dispatcher) AddListener(name string, l Listener) *Dispatcher {
	if l != nil {
		d.listeners[name] = append(d.listeners[name], l)
	}

	return d
}

// HasListeners reports whether any listener is registered for name.
func (d *Dispatcher) HasListeners(name string) bool {
	return len(d.listeners[name]) > 0
}

// Dispatch calls the listeners for name until one fails or stops propagation.
// The event itself is returned as the result.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, event *TransitionEvent) (any, error) {
	for i, l := range d.listeners[name] {
		if event.IsPropagationStopped() {
			break
		}

		if err := l(ctx, event); err != nil {
			return event, fmt.Errorf("listener %d for %q: %w", i, name, err)
		}
	}

	return event, nil
}
