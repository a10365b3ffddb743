package services

import (
	"sync"

	"agriaid/models"
)

// QuestionCache holds the latest change-feed snapshot as the single local
// source of truth. Each emission replaces the whole snapshot; there is no
// merge logic, the remote snapshot always wholly supersedes the local one.
// Readers never see a partially applied replacement.
type QuestionCache struct {
	mu   sync.RWMutex
	snap []models.Question
}

func NewQuestionCache() *QuestionCache {
	return &QuestionCache{}
}

// Replace installs snap as the new snapshot. The caller must not mutate
// snap afterwards.
func (c *QuestionCache) Replace(snap []models.Question) {
	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()
}

// Snapshot returns the current snapshot. The returned slice is shared and
// read-only.
func (c *QuestionCache) Snapshot() []models.Question {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Get returns the cached copy of one question.
func (c *QuestionCache) Get(id string) (models.Question, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, q := range c.snap {
		if q.ID == id {
			return q, true
		}
	}
	return models.Question{}, false
}

func (c *QuestionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.snap)
}
