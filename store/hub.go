package store

import (
	"context"
	"sync"
)

// hub fans a change signal out to any number of watchers. Each watcher gets
// a buffered channel so a slow reader coalesces signals instead of blocking
// writers.
type hub struct {
	mu       sync.Mutex
	watchers map[int]chan struct{}
	next     int
}

func newHub() *hub {
	return &hub{watchers: make(map[int]chan struct{})}
}

func (h *hub) watch(ctx context.Context) <-chan struct{} {
	ch := make(chan struct{}, 1)
	h.mu.Lock()
	id := h.next
	h.next++
	h.watchers[id] = ch
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		// closeAll may have beaten us to it
		if ch, ok := h.watchers[id]; ok {
			delete(h.watchers, id)
			close(ch)
		}
		h.mu.Unlock()
	}()
	return ch
}

func (h *hub) notify() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// closeAll closes every watcher without their contexts being done, the way a
// lost transport would.
func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.watchers {
		delete(h.watchers, id)
		close(ch)
	}
}
