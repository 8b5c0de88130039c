package testing

import (
	"context"

	"github.com/amp-labs/amp-fsm/statemachine"
)

// RecordedEvent is one notification seen by a Recorder.
type RecordedEvent struct {
	Name  string
	Event *statemachine.TransitionEvent
	// State is the machine's current state when the event was dispatched.
	State statemachine.State
}

// Recorder is a NotificationSink that keeps every event it receives. Errors
// can be injected per event name to exercise failure paths.
type Recorder struct {
	machine *statemachine.StateMachine
	events  []RecordedEvent
	fail    map[string]error
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		fail: make(map[string]error),
	}
}

// Observe makes the recorder note m's current state with each event.
func (r *Recorder) Observe(m *statemachine.StateMachine) *Recorder {
	r.machine = m

	return r
}

// FailOn makes Dispatch return err for events called name. A nil err clears it.
func (r *Recorder) FailOn(name string, err error) *Recorder {
	if err == nil {
		delete(r.fail, name)
	} else {
		r.fail[name] = err
	}

	return r
}

// Dispatch records the event.
func (r *Recorder) Dispatch(_ context.Context, name string, event *statemachine.TransitionEvent) (any, error) {
	recorded := RecordedEvent{Name: name, Event: event}
	if r.machine != nil {
		recorded.State = r.machine.CurrentState()
	}

	r.events = append(r.events, recorded)

	return event, r.fail[name]
}

// Events returns the recorded events in dispatch order.
func (r *Recorder) Events() []RecordedEvent {
	return r.events
}

// Names returns the names of the recorded events in dispatch order.
func (r *Recorder) Names() []string {
	names := make([]string, len(r.events))
	for i, e := range r.events {
		names[i] = e.Name
	}

	return names
}

// Reset forgets every recorded event. Injected failures are kept.
func (r *Recorder) Reset() {
	r.events = nil
}
