package report

import (
	"context"
	"fmt"

	"github.com/oshokin/asset-sync/internal/domain/asset"
	"github.com/oshokin/asset-sync/internal/logger"
)

// logged mirrors every event to the logger carried by the context.
type logged struct {
	next Sink
}

// WithLog returns a Sink that writes each event to the durable log and then forwards it to next.
func WithLog(next Sink) Sink {
	if next == nil {
		next = Discard
	}

	return &logged{next: next}
}

func (l *logged) Stage(ctx context.Context, format string, args ...any) {
	logger.Info(ctx, fmt.Sprintf(format, args...))
	l.next.Stage(ctx, format, args...)
}

func (l *logged) Progress(ctx context.Context, title string, total int64) Tracker {
	logger.DebugKV(ctx, "Transfer started", "title", title, "expected_bytes", total)

	return &loggedTracker{
		ctx:   ctx,
		title: title,
		next:  l.next.Progress(ctx, title, total),
	}
}

func (l *logged) Success(ctx context.Context, format string, args ...any) {
	logger.Info(ctx, fmt.Sprintf(format, args...))
	l.next.Success(ctx, format, args...)
}

func (l *logged) Failure(ctx context.Context, err error) {
	logger.ErrorKV(ctx, "Sync failed", "error", err, "kind", asset.Kind(err), "retryable", asset.IsRetryable(err))
	l.next.Failure(ctx, err)
}

type loggedTracker struct {
	ctx   context.Context //nolint:containedctx // Tracker callbacks have no context of their own.
	title string
	next  Tracker
	total int64
}

func (t *loggedTracker) Add(n int64) {
	t.total += n
	t.next.Add(n)
}

func (t *loggedTracker) Done() {
	logger.InfoKV(t.ctx, "Transfer finished", "title", t.title, "bytes", t.total)
	t.next.Done()
}
