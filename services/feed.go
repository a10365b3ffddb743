package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"agriaid/errorz"
	"agriaid/models"
	"agriaid/store"
)

// FeedEvent is one emission from a ChangeFeed: either a complete ordered
// snapshot of the questions collection, or the error that ended the
// subscription. Never both.
type FeedEvent struct {
	Snapshot []models.Question
	Err      error
}

// ChangeFeed is a live subscription to the questions collection. It emits a
// full snapshot, newest first, on open and after every remote change. Events
// arrive on a single-consumer channel; a subscription failure arrives as a
// terminal FeedEvent with Err set, never as an empty snapshot. The caller
// decides whether to reopen after a failure.
type ChangeFeed struct {
	events chan FeedEvent
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	now func() time.Time
}

// OpenChangeFeed starts the subscription and the initial snapshot read.
func OpenChangeFeed(ctx context.Context, st store.Store) (*ChangeFeed, error) {
	fctx, cancel := context.WithCancel(ctx)
	changes, err := st.Watch(fctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: open subscription: %v", errorz.ErrTransport, err)
	}
	f := &ChangeFeed{
		events: make(chan FeedEvent),
		cancel: cancel,
		done:   make(chan struct{}),
		now:    time.Now,
	}
	go f.run(fctx, st, changes)
	return f, nil
}

// Events is the feed's single-consumer channel. It closes once the feed
// stops, whether by Close or by a terminal error event.
func (f *ChangeFeed) Events() <-chan FeedEvent {
	return f.events
}

// Close tears the subscription down. It returns only after the feed
// goroutine has exited, so no event is ever delivered after Close returns.
func (f *ChangeFeed) Close() {
	f.once.Do(func() {
		f.cancel()
		<-f.done
	})
}

func (f *ChangeFeed) run(ctx context.Context, st store.Store, changes <-chan struct{}) {
	defer close(f.done)
	defer close(f.events)

	if !f.emitSnapshot(ctx, st) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				// a cancelled watch also closes the channel; only a live
				// context means the connection was lost
				if ctx.Err() == nil {
					f.emit(ctx, FeedEvent{Err: fmt.Errorf("%w: change feed connection lost", errorz.ErrTransport)})
				}
				return
			}
			if !f.emitSnapshot(ctx, st) {
				return
			}
		}
	}
}

func (f *ChangeFeed) emitSnapshot(ctx context.Context, st store.Store) bool {
	docs, err := st.Snapshot(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		f.emit(ctx, FeedEvent{Err: fmt.Errorf("%w: read snapshot: %v", errorz.ErrTransport, err)})
		return false
	}
	return f.emit(ctx, FeedEvent{Snapshot: OrderSnapshot(docs, f.now())})
}

func (f *ChangeFeed) emit(ctx context.Context, ev FeedEvent) bool {
	select {
	case f.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// OrderSnapshot sorts questions newest first. A question whose server
// timestamp has not round-tripped yet gets now as a placeholder so it sorts
// to the top; a later emission carries the authoritative value and corrects
// the order. The input is not modified.
func OrderSnapshot(docs []models.Question, now time.Time) []models.Question {
	out := make([]models.Question, len(docs))
	copy(out, docs)
	for i := range out {
		if out[i].CreatedAt.IsZero() {
			out[i].CreatedAt = models.ServerTimeOf(now)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt.Time)
	})
	return out
}
