// Package progress defines the ordered event stream a provisioning run
// emits and the sinks that consume it. Every run publishes a sequence of
// events ending in exactly one terminal event (success or error); sinks
// observe events in publish order.
package progress

import "time"

// EventType identifies the kind of a provisioning event. The string
// values are part of the wire format consumed by the HTTP stream and
// the web console.
type EventType string

const (
	// EventConnected indicates the session to the hub is established.
	EventConnected EventType = "connected"
	// EventInfo carries an informational message, including skip notices.
	EventInfo EventType = "info"
	// EventStep announces a pipeline stage about to run.
	EventStep EventType = "step"
	// EventStdout carries a chunk of remote standard output.
	EventStdout EventType = "stdout"
	// EventStderr carries a chunk of remote standard error.
	EventStderr EventType = "stderr"
	// EventSuccess is the terminal event of a completed run.
	EventSuccess EventType = "success"
	// EventError is the terminal event of a failed run.
	EventError EventType = "error"
	// EventDone is the transport end-of-stream marker appended after a
	// terminal event. The runner never publishes it.
	EventDone EventType = "done"
)

// Event is a single entry in a run's progress stream.
type Event struct {
	Type    EventType      `json:"type"`
	Step    int            `json:"step,omitempty"`
	Message string         `json:"message,omitempty"`
	Data    string         `json:"data,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
	Time    time.Time      `json:"-"`
}

// Terminal reports whether the event ends a run.
func (e Event) Terminal() bool {
	return e.Type == EventSuccess || e.Type == EventError
}

// Connected builds the session-established event.
func Connected(message string) Event {
	return Event{Type: EventConnected, Message: message, Time: time.Now()}
}

// Info builds an informational event.
func Info(message string) Event {
	return Event{Type: EventInfo, Message: message, Time: time.Now()}
}

// Step builds a stage announcement with its 1-based ordinal.
func Step(ordinal int, message string) Event {
	return Event{Type: EventStep, Step: ordinal, Message: message, Time: time.Now()}
}

// Stdout builds a remote standard output chunk event.
func Stdout(data string) Event {
	return Event{Type: EventStdout, Data: data, Time: time.Now()}
}

// Stderr builds a remote standard error chunk event.
func Stderr(data string) Event {
	return Event{Type: EventStderr, Data: data, Time: time.Now()}
}

// Success builds the terminal event of a completed run.
func Success(message string, payload map[string]any) Event {
	return Event{Type: EventSuccess, Message: message, Payload: payload, Time: time.Now()}
}

// Error builds the terminal event of a failed run.
func Error(message string) Event {
	return Event{Type: EventError, Message: message, Time: time.Now()}
}

// Done builds the end-of-stream marker.
func Done() Event {
	return Event{Type: EventDone, Time: time.Now()}
}
