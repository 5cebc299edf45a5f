package progress

import (
	"log"
	"os"
	"sync"
)

// Sink receives provisioning events in publish order.
type Sink interface {
	Publish(event Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(event Event)

// Publish implements Sink.
func (f SinkFunc) Publish(event Event) { f(event) }

// Multi fans every event out to all given sinks, in order.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(event Event) {
		for _, s := range sinks {
			s.Publish(event)
		}
	})
}

// ConsoleSink renders events for a plain terminal. Remote output chunks
// go raw to the local stdout/stderr; everything else goes through the
// standard log package like the rest of the CLI.
type ConsoleSink struct{}

// NewConsoleSink creates a console-based sink.
func NewConsoleSink() *ConsoleSink {
	return &ConsoleSink{}
}

// Publish implements Sink.
func (s *ConsoleSink) Publish(event Event) {
	switch event.Type {
	case EventStdout:
		_, _ = os.Stdout.WriteString(event.Data)
	case EventStderr:
		_, _ = os.Stderr.WriteString(event.Data)
	case EventStep:
		log.Printf("[%d] %s", event.Step, event.Message)
	case EventError:
		log.Printf("Error: %s", event.Message)
	case EventDone:
		// End-of-stream marker carries no content.
	default:
		log.Print(event.Message)
	}
}

// ChannelSink delivers events over a channel, preserving publish order.
// It backs the HTTP stream and the TUI, which drain the channel from
// their own goroutine.
//
// Publish and Close must come from the producing side only: the runner
// publishes sequentially and the owner closes once the run returns.
type ChannelSink struct {
	ch chan Event

	mu       sync.Mutex
	closed   bool
	terminal bool
}

// NewChannelSink creates a channel-backed sink with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{ch: make(chan Event, buffer)}
}

// Publish implements Sink. Events published after Close are dropped, as
// is anything after the run's terminal event except the end-of-stream
// marker the serving layer appends.
func (s *ChannelSink) Publish(event Event) {
	s.mu.Lock()
	if s.closed || (s.terminal && event.Type != EventDone) {
		s.mu.Unlock()
		return
	}
	if event.Terminal() {
		s.terminal = true
	}
	s.mu.Unlock()
	s.ch <- event
}

// Events returns the receive side of the sink.
func (s *ChannelSink) Events() <-chan Event {
	return s.ch
}

// Close ends the stream. It is idempotent.
func (s *ChannelSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// Recorder is a Sink that captures events for inspection in tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish implements Sink.
func (r *Recorder) Publish(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the event types in publish order.
func (r *Recorder) Types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

// Last returns the most recent event, if any.
func (r *Recorder) Last() (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return Event{}, false
	}
	return r.events[len(r.events)-1], true
}
