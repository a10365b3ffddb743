package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agriaid/errorz"
	"agriaid/models"
	"agriaid/store"
)

// spyStore counts writes so tests can assert a rejected call never reached
// the remote store.
type spyStore struct {
	store.Store
	creates int32
	updates int32
}

func (s *spyStore) CreateQuestion(ctx context.Context, q models.Question) (string, error) {
	atomic.AddInt32(&s.creates, 1)
	return s.Store.CreateQuestion(ctx, q)
}

func (s *spyStore) UpdateQuestion(ctx context.Context, id string, u store.Update) error {
	atomic.AddInt32(&s.updates, 1)
	return s.Store.UpdateQuestion(ctx, id, u)
}

func (s *spyStore) writes() int32 {
	return atomic.LoadInt32(&s.creates) + atomic.LoadInt32(&s.updates)
}

func newTestForum() (*ForumService, *spyStore, *QuestionCache) {
	spy := &spyStore{Store: store.NewMemStore()}
	cache := NewQuestionCache()
	return NewForumService(spy, cache), spy, cache
}

// refreshCache mimics a settled feed emission.
func refreshCache(t *testing.T, st store.Store, cache *QuestionCache) {
	t.Helper()
	snap, err := st.Snapshot(context.Background())
	require.NoError(t, err)
	cache.Replace(snap)
}

var alice = models.Identity{ID: "alice", DisplayName: "Alice"}
var bob = models.Identity{ID: "bob", DisplayName: "Bob"}

func TestCreateQuestionValidation(t *testing.T) {
	svc, spy, _ := newTestForum()
	ctx := context.Background()

	_, err := svc.CreateQuestion(ctx, alice, "", "body", "general")
	assert.ErrorIs(t, err, errorz.ErrValidation)

	_, err = svc.CreateQuestion(ctx, alice, "title", "", "general")
	assert.ErrorIs(t, err, errorz.ErrValidation)

	_, err = svc.CreateQuestion(ctx, alice, "   ", "  \t ", "general")
	assert.ErrorIs(t, err, errorz.ErrValidation)

	_, err = svc.CreateQuestion(ctx, alice, "title", "body", "starships")
	assert.ErrorIs(t, err, errorz.ErrValidation)

	assert.Equal(t, int32(0), spy.writes(), "rejected calls must not reach the store")
}

func TestMutationsRequireIdentity(t *testing.T) {
	svc, spy, cache := newTestForum()
	ctx := context.Background()
	var nobody models.Identity

	_, err := svc.CreateQuestion(ctx, nobody, "title", "body", "general")
	assert.ErrorIs(t, err, errorz.ErrUnauthenticated)

	_, err = svc.AppendAnswer(ctx, nobody, "q1", "an answer")
	assert.ErrorIs(t, err, errorz.ErrUnauthenticated)

	cache.Replace([]models.Question{{ID: "q1"}})
	err = svc.ToggleLike(ctx, nobody, "q1")
	assert.ErrorIs(t, err, errorz.ErrUnauthenticated)

	assert.Equal(t, int32(0), spy.writes())
}

func TestCreateQuestionWritesDocument(t *testing.T) {
	svc, spy, _ := newTestForum()
	ctx := context.Background()

	id, err := svc.CreateQuestion(ctx, alice, "  Wheat rotation ", "How often?", "")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	snap, err := spy.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap, 1)
	q := snap[0]
	assert.Equal(t, "Wheat rotation", q.Title, "fields are trimmed")
	assert.Equal(t, "general", q.Category, "category defaults")
	assert.Equal(t, "Alice", q.Author)
	assert.Equal(t, "alice", q.AuthorID)
	assert.Empty(t, q.Answers)
	assert.Zero(t, q.Likes)
	assert.Empty(t, q.LikedBy)
	assert.False(t, q.CreatedAt.IsZero(), "store assigns the timestamp")
}

func TestAppendAnswerValidation(t *testing.T) {
	svc, spy, _ := newTestForum()

	_, err := svc.AppendAnswer(context.Background(), alice, "q1", "   ")
	assert.ErrorIs(t, err, errorz.ErrValidation)
	assert.Equal(t, int32(0), spy.writes())
}

func TestAppendAnswerUnknownQuestion(t *testing.T) {
	svc, _, _ := newTestForum()

	_, err := svc.AppendAnswer(context.Background(), alice, "no-such-id", "an answer")
	assert.ErrorIs(t, err, errorz.ErrNotFound)
}

func TestAppendAnswerStampsClientTime(t *testing.T) {
	svc, spy, _ := newTestForum()
	ctx := context.Background()

	id, err := svc.CreateQuestion(ctx, alice, "t", "c", "crops")
	require.NoError(t, err)

	ans, err := svc.AppendAnswer(ctx, bob, id, "rotate with legumes")
	require.NoError(t, err)
	assert.NotEmpty(t, ans.ID)
	assert.False(t, ans.CreatedAt.IsZero())
	assert.Equal(t, "bob", ans.AuthorID)

	snap, _ := spy.Snapshot(ctx)
	require.Len(t, snap[0].Answers, 1)
	assert.Equal(t, ans.ID, snap[0].Answers[0].ID)
}

// A duplicated submission carrying the same answer id lands exactly once.
func TestAppendAnswerDuplicateSafe(t *testing.T) {
	svc, spy, _ := newTestForum()
	ctx := context.Background()

	id, err := svc.CreateQuestion(ctx, alice, "t", "c", "crops")
	require.NoError(t, err)

	svc.newAnswerID = func() string { return "fixed-token" }
	_, err = svc.AppendAnswer(ctx, bob, id, "same answer")
	require.NoError(t, err)
	_, err = svc.AppendAnswer(ctx, bob, id, "same answer")
	require.NoError(t, err)

	snap, _ := spy.Snapshot(ctx)
	assert.Len(t, snap[0].Answers, 1, "set-union append keyed by id")
}

// N concurrent clients appending distinct answers converge to exactly N
// entries with no duplicate ids, whatever order the store accepted them in.
func TestConcurrentAppendsConverge(t *testing.T) {
	const clients = 16

	st := store.NewMemStore()
	cache := NewQuestionCache()
	svc := NewForumService(st, cache)
	ctx := context.Background()

	id, err := svc.CreateQuestion(ctx, alice, "t", "c", "crops")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			client := NewForumService(st, NewQuestionCache())
			ident := models.Identity{ID: fmt.Sprintf("user-%d", i), DisplayName: fmt.Sprintf("User %d", i)}
			_, err := client.AppendAnswer(ctx, ident, id, fmt.Sprintf("answer %d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	snap, err := st.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap, 1)
	answers := snap[0].Answers
	require.Len(t, answers, clients)

	ids := make(map[string]bool)
	contents := make(map[string]bool)
	for _, a := range answers {
		assert.False(t, ids[a.ID], "duplicate answer id %s", a.ID)
		ids[a.ID] = true
		contents[a.Content] = true
	}
	assert.Len(t, contents, clients)
}

func TestToggleLike(t *testing.T) {
	svc, spy, cache := newTestForum()
	ctx := context.Background()

	id, err := svc.CreateQuestion(ctx, alice, "t", "c", "crops")
	require.NoError(t, err)
	refreshCache(t, spy, cache)

	require.NoError(t, svc.ToggleLike(ctx, bob, id))

	snap, _ := spy.Snapshot(ctx)
	assert.Equal(t, 1, snap[0].Likes)
	assert.Equal(t, []string{"bob"}, snap[0].LikedBy)
}

func TestToggleLikeTwiceIsRejectedSoft(t *testing.T) {
	svc, spy, cache := newTestForum()
	ctx := context.Background()

	id, err := svc.CreateQuestion(ctx, alice, "t", "c", "crops")
	require.NoError(t, err)
	refreshCache(t, spy, cache)

	require.NoError(t, svc.ToggleLike(ctx, bob, id))
	refreshCache(t, spy, cache)

	writesBefore := spy.writes()
	err = svc.ToggleLike(ctx, bob, id)
	assert.ErrorIs(t, err, errorz.ErrAlreadyLiked)
	assert.Equal(t, writesBefore, spy.writes(), "second like performs no write")

	snap, _ := spy.Snapshot(ctx)
	assert.Equal(t, []string{"bob"}, snap[0].LikedBy)
	assert.Equal(t, 1, snap[0].Likes)
}

// Even when the local cache is stale and misses the earlier like, the
// set-union keeps likedBy exact.
func TestToggleLikeWithStaleCacheKeepsMembershipExact(t *testing.T) {
	svc, spy, cache := newTestForum()
	ctx := context.Background()

	id, err := svc.CreateQuestion(ctx, alice, "t", "c", "crops")
	require.NoError(t, err)
	refreshCache(t, spy, cache)

	require.NoError(t, svc.ToggleLike(ctx, bob, id))
	// no refresh: the second call sees the pre-like snapshot
	require.NoError(t, svc.ToggleLike(ctx, bob, id))

	snap, _ := spy.Snapshot(ctx)
	assert.Equal(t, []string{"bob"}, snap[0].LikedBy, "membership never duplicates")
}

// Two clients racing on the same question from equally stale snapshots: the
// membership set stays exact while the plain counter can undercount. This is
// the accepted trade-off of pairing a last-write-wins counter with a
// conflict-free set.
func TestConcurrentLikesKeepMembershipExact(t *testing.T) {
	st := store.NewMemStore()
	ctx := context.Background()

	cacheA := NewQuestionCache()
	clientA := NewForumService(st, cacheA)
	cacheB := NewQuestionCache()
	clientB := NewForumService(st, cacheB)

	id, err := clientA.CreateQuestion(ctx, alice, "t", "c", "crops")
	require.NoError(t, err)

	snap, err := st.Snapshot(ctx)
	require.NoError(t, err)
	cacheA.Replace(snap)
	cacheB.Replace(snap) // both clients observe likes == 0

	require.NoError(t, clientA.ToggleLike(ctx, alice, id))
	require.NoError(t, clientB.ToggleLike(ctx, bob, id))

	final, err := st.Snapshot(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, final[0].LikedBy)
	assert.Equal(t, 1, final[0].Likes, "last write wins on the plain counter")
}

func TestToggleLikeUnknownQuestion(t *testing.T) {
	svc, spy, _ := newTestForum()

	err := svc.ToggleLike(context.Background(), alice, "no-such-id")
	assert.ErrorIs(t, err, errorz.ErrNotFound)
	assert.Equal(t, int32(0), spy.writes())
}
