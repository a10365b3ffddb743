package store

import (
	"context"

	"agriaid/models"
)

// Update describes a single-document mutation built from the two field
// primitives the store offers: set-union append and a numeric write.
// Each primitive is idempotent per field; the fields of one Update are not
// applied atomically with respect to other writers.
type Update struct {
	// AddAnswers is unioned into the answers sequence keyed by answer id.
	// An answer whose id is already present is dropped, so retried or
	// duplicated submissions never produce two entries.
	AddAnswers []models.Answer
	// AddLikedBy is unioned into the likedBy membership set.
	AddLikedBy []string
	// SetLikes overwrites the likes counter with a value the client computed
	// from its last-seen copy (last write wins under races).
	SetLikes *int
	// IncLikes adds to the likes counter store-side. Exact under concurrent
	// likers, unlike SetLikes.
	IncLikes int
}

// Store is the remote document store holding the questions collection.
// Every client sees it as the single source of truth: reads come back as a
// full snapshot, and Watch signals whenever any subscribed document changes
// so the caller can re-read.
type Store interface {
	// CreateQuestion writes a new document and returns the store-assigned
	// id. CreatedAt is assigned by the store, not taken from q.
	CreateQuestion(ctx context.Context, q models.Question) (string, error)
	// UpdateQuestion applies u to one document. Returns errorz.ErrNotFound
	// for an unknown id.
	UpdateQuestion(ctx context.Context, id string, u Update) error
	// Snapshot returns the full current document set. Ordering is the
	// subscriber's concern.
	Snapshot(ctx context.Context) ([]models.Question, error)
	// Watch returns a channel that receives a signal after every accepted
	// write (signals may coalesce). The channel closes when ctx is done, or
	// without ctx being done if the underlying transport is lost.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
