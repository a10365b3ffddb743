package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"agriaid/errorz"
	"agriaid/models"
)

// MemStore is an in-process Store. It backs local development without a
// database and the test suite's multi-client simulations. Writes from any
// number of goroutines are serialized per document set, which matches the
// durable-acceptance ordering the remote store provides.
type MemStore struct {
	mu    sync.Mutex
	docs  map[string]*models.Question
	order []string // creation order, for deterministic snapshots
	hub   *hub

	now      func() time.Time
	holdTime bool // when set, CreateQuestion leaves CreatedAt unassigned
}

func NewMemStore() *MemStore {
	return &MemStore{
		docs: make(map[string]*models.Question),
		hub:  newHub(),
		now:  time.Now,
	}
}

func (s *MemStore) CreateQuestion(ctx context.Context, q models.Question) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	q.ID = uuid.NewString()
	if !s.holdTime {
		q.CreatedAt = models.ServerTimeOf(s.now())
	}
	if q.Answers == nil {
		q.Answers = []models.Answer{}
	}
	if q.LikedBy == nil {
		q.LikedBy = []string{}
	}
	doc := q
	s.docs[q.ID] = &doc
	s.order = append(s.order, q.ID)
	s.mu.Unlock()

	s.hub.notify()
	return q.ID, nil
}

func (s *MemStore) UpdateQuestion(ctx context.Context, id string, u Update) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	doc, ok := s.docs[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: question %s", errorz.ErrNotFound, id)
	}
	applyUpdate(doc, u)
	s.mu.Unlock()

	s.hub.notify()
	return nil
}

func (s *MemStore) Snapshot(ctx context.Context) ([]models.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Question, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, cloneQuestion(*s.docs[id]))
	}
	return out, nil
}

func (s *MemStore) Watch(ctx context.Context) (<-chan struct{}, error) {
	return s.hub.watch(ctx), nil
}

// HoldServerTime makes subsequent creates leave CreatedAt unassigned, the
// way a new document looks before its server timestamp round-trips.
func (s *MemStore) HoldServerTime() {
	s.mu.Lock()
	s.holdTime = true
	s.mu.Unlock()
}

// ReleaseServerTime assigns the authoritative timestamp to every held
// document and signals watchers, like the store's follow-up emission.
func (s *MemStore) ReleaseServerTime() {
	s.mu.Lock()
	s.holdTime = false
	for _, id := range s.order {
		if s.docs[id].CreatedAt.IsZero() {
			s.docs[id].CreatedAt = models.ServerTimeOf(s.now())
		}
	}
	s.mu.Unlock()
	s.hub.notify()
}

// DropWatchers simulates transport loss: every watcher channel closes even
// though its context is still live.
func (s *MemStore) DropWatchers() {
	s.hub.closeAll()
}

func cloneQuestion(q models.Question) models.Question {
	answers := make([]models.Answer, len(q.Answers))
	copy(answers, q.Answers)
	likedBy := make([]string, len(q.LikedBy))
	copy(likedBy, q.LikedBy)
	q.Answers = answers
	q.LikedBy = likedBy
	return q
}
