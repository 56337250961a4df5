// Package events defines the notifications emitted while models are acquired.
package events

import "sync"

// Kind names an event.
type Kind string

// Event kinds. The string values are the names front ends subscribe to.
const (
	KindDownloadProgress    Kind = "model-download-progress"
	KindExtractionStarted   Kind = "model-extraction-started"
	KindExtractionCompleted Kind = "model-extraction-completed"
	KindExtractionFailed    Kind = "model-extraction-failed"
	KindDownloadComplete    Kind = "model-download-complete"
)

// Event is a single notification. Only the fields relevant to Kind are set.
// The progress counters are always encoded; an unknown total is reported as 0 with percentage 0.
type Event struct {
	Kind       Kind    `json:"kind"`
	ModelID    string  `json:"model_id"`
	Attempt    string  `json:"attempt,omitempty"`
	Downloaded uint64  `json:"downloaded"`
	Total      uint64  `json:"total"`
	Percentage float64 `json:"percentage"`
	Error      string  `json:"error,omitempty"`
}

// Sink receives events. Emit must not block for long; delivery is fire-and-forget.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Multi fans an event out to several sinks in order.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(e Event) {
		for _, s := range sinks {
			if s != nil {
				s.Emit(e)
			}
		}
	})
}

// ChannelSink forwards events to a buffered channel, dropping events when the channel is full.
type ChannelSink struct {
	C chan Event
}

// NewChannelSink returns a ChannelSink with the given buffer size.
func NewChannelSink(size int) *ChannelSink {
	return &ChannelSink{C: make(chan Event, size)}
}

// Emit implements Sink.
func (s *ChannelSink) Emit(e Event) {
	select {
	case s.C <- e:
	default:
	}
}

// Recorder keeps every event it receives. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements Sink.
func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Kinds returns the kinds of recorded events for model id, in order.
func (r *Recorder) Kinds(id string) []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kinds []Kind
	for _, e := range r.events {
		if e.ModelID == id {
			kinds = append(kinds, e.Kind)
		}
	}
	return kinds
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
