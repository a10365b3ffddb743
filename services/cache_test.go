package services

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agriaid/models"
)

func taggedSnapshot(tag string, n int) []models.Question {
	snap := make([]models.Question, n)
	for i := range snap {
		snap[i] = models.Question{ID: fmt.Sprintf("%s-%d", tag, i), Category: tag}
	}
	return snap
}

func TestCacheReplaceAndGet(t *testing.T) {
	c := NewQuestionCache()
	assert.Equal(t, 0, c.Len())

	c.Replace(taggedSnapshot("a", 3))
	require.Equal(t, 3, c.Len())

	q, ok := c.Get("a-1")
	require.True(t, ok)
	assert.Equal(t, "a", q.Category)

	_, ok = c.Get("missing")
	assert.False(t, ok)

	// wholesale replacement, nothing from the old snapshot survives
	c.Replace(taggedSnapshot("b", 1))
	assert.Equal(t, 1, c.Len())
	_, ok = c.Get("a-1")
	assert.False(t, ok)
}

// Readers sampling the cache during replacements must never observe a state
// mixing documents from two snapshots.
func TestCacheReplacementIsAtomic(t *testing.T) {
	c := NewQuestionCache()
	c.Replace(taggedSnapshot("a", 8))

	done := make(chan struct{})
	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				snap := c.Snapshot()
				if len(snap) == 0 {
					continue
				}
				tag := snap[0].Category
				for _, q := range snap {
					if q.Category != tag {
						t.Errorf("mixed snapshot: saw %s and %s", tag, q.Category)
						return
					}
				}
			}
		}()
	}

	for i := 0; i < 2000; i++ {
		if i%2 == 0 {
			c.Replace(taggedSnapshot("a", 8))
		} else {
			c.Replace(taggedSnapshot("b", 5))
		}
	}
	close(done)
	wg.Wait()
}
