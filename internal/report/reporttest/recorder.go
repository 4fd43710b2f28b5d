// Package reporttest provides a report.Sink that keeps events in memory for assertions.
package reporttest

import (
	"context"
	"fmt"
	"sync"

	"github.com/oshokin/asset-sync/internal/report"
)

// Event kinds captured by Recorder.
const (
	EventStage    = "stage"
	EventProgress = "progress"
	EventSuccess  = "success"
	EventFailure  = "failure"
)

// Event is one captured sink call.
type Event struct {
	// Kind is one of the Event* constants.
	Kind string
	// Message is the rendered text, or the progress title.
	Message string
	// Total is the declared size for progress events.
	Total int64
	// Transferred is the number of bytes added for progress events.
	Transferred int64
	// Err is the failure for failure events.
	Err error
}

// Recorder is a report.Sink that keeps every event in memory. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []*Event
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return new(Recorder)
}

// Stage records a stage event.
func (r *Recorder) Stage(_ context.Context, format string, args ...any) {
	r.add(&Event{Kind: EventStage, Message: fmt.Sprintf(format, args...)})
}

// Progress records a progress event whose byte count grows as the tracker is fed.
func (r *Recorder) Progress(_ context.Context, title string, total int64) report.Tracker {
	event := &Event{Kind: EventProgress, Message: title, Total: total}
	r.add(event)

	return &recordedTracker{recorder: r, event: event}
}

// Success records a success event.
func (r *Recorder) Success(_ context.Context, format string, args ...any) {
	r.add(&Event{Kind: EventSuccess, Message: fmt.Sprintf(format, args...)})
}

// Failure records a failure event.
func (r *Recorder) Failure(_ context.Context, err error) {
	r.add(&Event{Kind: EventFailure, Message: err.Error(), Err: err})
}

// Events returns copies of the recorded events of the given kind, or all events when kind is empty.
func (r *Recorder) Events(kind string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]Event, 0, len(r.events))

	for _, e := range r.events {
		if kind == "" || e.Kind == kind {
			result = append(result, *e)
		}
	}

	return result
}

// Messages returns the messages of the recorded events of the given kind.
func (r *Recorder) Messages(kind string) []string {
	events := r.Events(kind)
	result := make([]string, 0, len(events))

	for _, e := range events {
		result = append(result, e.Message)
	}

	return result
}

func (r *Recorder) add(e *Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, e)
}

type recordedTracker struct {
	recorder *Recorder
	event    *Event
}

func (t *recordedTracker) Add(n int64) {
	t.recorder.mu.Lock()
	defer t.recorder.mu.Unlock()

	t.event.Transferred += n
}

func (t *recordedTracker) Done() {}
