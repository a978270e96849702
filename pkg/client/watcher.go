package client

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/soapnote/pkg/utils/logging"
)

const DefaultPollInterval = 5 * time.Second

// ChangeHandler receives the timeline each time the revision changes
type ChangeHandler func(ctx context.Context, revision int64, entries []*TimelineEntry) error

// Watcher polls the revision of one patient and re-fetches the timeline
// only when it changes.
type Watcher struct {
	client    *Client
	patientID string
	interval  time.Duration
	limit     int
}

type WatcherOption func(*Watcher)

func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithTimelineLimit(limit int) WatcherOption {
	return func(w *Watcher) {
		w.limit = limit
	}
}

func NewWatcher(client *Client, patientID string, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		client:    client,
		patientID: patientID,
		interval:  DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run polls until ctx is cancelled. The handler is called once with the
// initial state and then after every revision change. Poll failures are
// logged and retried on the next tick; a handler error stops the watcher.
func (w *Watcher) Run(ctx context.Context, handler ChangeHandler) error {
	logger := logging.From(ctx).With("patient_id", w.patientID)

	known := int64(-1)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		revision, entries, err := w.poll(ctx, known)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil
		case err != nil:
			logger.Warn("failed to poll visit revision", "error", err)
		case revision != known:
			if err := handler(ctx, revision, entries); err != nil {
				return goerr.Wrap(err, "change handler failed", goerr.V("revision", revision))
			}
			known = revision
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// poll fetches the timeline only when the revision differs from known
func (w *Watcher) poll(ctx context.Context, known int64) (int64, []*TimelineEntry, error) {
	revision, err := w.client.Revision(ctx, w.patientID)
	if err != nil {
		return known, nil, err
	}
	if revision == known {
		return known, nil, nil
	}

	entries, err := w.client.Timeline(ctx, w.patientID, w.limit)
	if err != nil {
		return known, nil, err
	}
	return revision, entries, nil
}
