package report

import "context"

// Sink receives progress and status events from the pipeline.
type Sink interface {
	// Stage reports a stage transition such as "Downloading <url>".
	Stage(ctx context.Context, format string, args ...any)
	// Progress starts tracking a transfer of total bytes.
	Progress(ctx context.Context, title string, total int64) Tracker
	// Success reports a terminal success message.
	Success(ctx context.Context, format string, args ...any)
	// Failure reports a terminal failure.
	Failure(ctx context.Context, err error)
}

// Tracker accumulates bytes for one transfer.
type Tracker interface {
	// Add reports n more bytes transferred.
	Add(n int64)
	// Done finishes the transfer.
	Done()
}

// Discard is a Sink that drops every event.
var Discard Sink = discard{} //nolint:gochecknoglobals // Stateless singleton.

type discard struct{}

func (discard) Stage(context.Context, string, ...any)           {}
func (discard) Progress(context.Context, string, int64) Tracker { return nopTracker{} }
func (discard) Success(context.Context, string, ...any)         {}
func (discard) Failure(context.Context, error)                  {}

type nopTracker struct{}

func (nopTracker) Add(int64) {}
func (nopTracker) Done()     {}
