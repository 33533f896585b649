package app

import (
	"context"
	"log"
	"time"

	"github.com/louisbranch/sinkline/internal/services/match/storage"
	"github.com/louisbranch/sinkline/internal/services/match/storage/sqlite"
)

// Sink receives outbox items in journal order. A returned error requeues the
// item with backoff.
type Sink interface {
	Deliver(ctx context.Context, item storage.SyncItem) error
}

// LogSink is the default sink: it announces each delivery and accepts it.
// Deployments wire a real upstream in its place.
type LogSink struct{}

// Deliver logs the item.
func (LogSink) Deliver(_ context.Context, item storage.SyncItem) error {
	log.Printf("[sync] deliver %s match=%s event=%s", item.Kind, item.MatchID, item.EventID)
	return nil
}

const (
	defaultForwardInterval = 2 * time.Second
	defaultForwardBatch    = 32
)

// Forwarder drains the sync outbox: it claims due items, hands them to the
// sink, and completes or requeues each one. Delivery order follows the queue,
// so journal appends reach the sink in sequence per match.
type Forwarder struct {
	store    storage.SyncStore
	sink     Sink
	interval time.Duration
	batch    int
	now      func() time.Time
}

// ForwarderOption configures a Forwarder.
type ForwarderOption func(*Forwarder)

// WithForwardInterval overrides the polling interval.
func WithForwardInterval(interval time.Duration) ForwarderOption {
	return func(f *Forwarder) {
		if interval > 0 {
			f.interval = interval
		}
	}
}

// WithForwardBatch overrides the claim batch size.
func WithForwardBatch(batch int) ForwarderOption {
	return func(f *Forwarder) {
		if batch > 0 {
			f.batch = batch
		}
	}
}

// WithForwarderClock overrides the timestamp source.
func WithForwarderClock(now func() time.Time) ForwarderOption {
	return func(f *Forwarder) {
		if now != nil {
			f.now = now
		}
	}
}

// NewForwarder creates a forwarder on the given outbox store. A nil sink
// falls back to LogSink.
func NewForwarder(store storage.SyncStore, sink Sink, opts ...ForwarderOption) *Forwarder {
	if sink == nil {
		sink = LogSink{}
	}
	f := &Forwarder{
		store:    store,
		sink:     sink,
		interval: defaultForwardInterval,
		batch:    defaultForwardBatch,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Run polls the outbox until the context ends.
func (f *Forwarder) Run(ctx context.Context) error {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := f.DrainOnce(ctx); err != nil {
				log.Printf("[sync] drain outbox: %v", err)
			}
		}
	}
}

// DrainOnce claims and delivers one batch of due items, returning how many
// were delivered.
func (f *Forwarder) DrainOnce(ctx context.Context) (int, error) {
	now := f.now().UTC()
	items, err := f.store.ClaimDueSyncItems(ctx, now, f.batch)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return delivered, err
		}
		if err := f.sink.Deliver(ctx, item); err != nil {
			attempt := item.AttemptCount + 1
			nextAttemptAt := f.now().UTC().Add(sqlite.SyncRetryBackoff(attempt))
			if retryErr := f.store.MarkSyncItemRetry(ctx, item.ID, attempt, nextAttemptAt, err.Error(), f.now().UTC()); retryErr != nil {
				log.Printf("[sync] mark item %d retry: %v", item.ID, retryErr)
			}
			continue
		}
		if err := f.store.CompleteSyncItem(ctx, item.ID); err != nil {
			log.Printf("[sync] complete item %d: %v", item.ID, err)
			continue
		}
		delivered++
	}
	return delivered, nil
}
