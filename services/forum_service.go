package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"agriaid/errorz"
	"agriaid/models"
	"agriaid/store"
)

// ForumService is the only sanctioned way to mutate forum state. Every call
// takes the caller's identity as a value and performs one round trip against
// the remote store; the authoritative confirmation of any mutation is the
// next change-feed emission, not the call's return. The service never
// retries on its own and never mutates the local cache optimistically.
type ForumService struct {
	store store.Store
	cache *QuestionCache

	newAnswerID func() string
	clientNow   func() models.ClientTime
}

func NewForumService(st store.Store, cache *QuestionCache) *ForumService {
	return &ForumService{
		store:       st,
		cache:       cache,
		newAnswerID: uuid.NewString,
		clientNow:   models.ClientNow,
	}
}

// CreateQuestion writes a new question document and returns its
// store-assigned id once the write is durably accepted.
func (s *ForumService) CreateQuestion(ctx context.Context, ident models.Identity, title, content, category string) (string, error) {
	if ident.IsZero() {
		return "", errorz.ErrUnauthenticated
	}
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" {
		return "", fmt.Errorf("%w: title is required", errorz.ErrValidation)
	}
	if content == "" {
		return "", fmt.Errorf("%w: content is required", errorz.ErrValidation)
	}
	if category == "" {
		category = "general"
	}
	if !models.ValidCategory(category) {
		return "", fmt.Errorf("%w: unknown category %q", errorz.ErrValidation, category)
	}

	id, err := s.store.CreateQuestion(ctx, models.Question{
		Title:    title,
		Content:  content,
		Category: category,
		Author:   ident.DisplayName,
		AuthorID: ident.ID,
		Answers:  []models.Answer{},
		Likes:    0,
		LikedBy:  []string{},
	})
	if err != nil {
		return "", storeErr(err)
	}
	return id, nil
}

// AppendAnswer unions a new answer into the question's answers sequence.
// The answer id is generated here and keys the union, so a retried or
// duplicated submission can never land twice. CreatedAt is the caller's
// local clock, not server time.
func (s *ForumService) AppendAnswer(ctx context.Context, ident models.Identity, questionID, content string) (models.Answer, error) {
	if ident.IsZero() {
		return models.Answer{}, errorz.ErrUnauthenticated
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Answer{}, fmt.Errorf("%w: answer content is required", errorz.ErrValidation)
	}

	ans := models.Answer{
		ID:        s.newAnswerID(),
		Content:   content,
		Author:    ident.DisplayName,
		AuthorID:  ident.ID,
		CreatedAt: s.clientNow(),
	}
	if err := s.store.UpdateQuestion(ctx, questionID, store.Update{
		AddAnswers: []models.Answer{ans},
	}); err != nil {
		return models.Answer{}, storeErr(err)
	}
	return ans, nil
}

// ToggleLike records a like for the caller. The cached copy decides whether
// the caller already liked the question; if so the call fails soft with
// ErrAlreadyLiked and writes nothing. Otherwise one update carries both
// effects: the counter is overwritten with last-seen+1 and the caller joins
// likedBy by set union. Under two clients racing on the same question the
// counter can undercount |likedBy|; likedBy itself stays exact because the
// union is conflict-free.
func (s *ForumService) ToggleLike(ctx context.Context, ident models.Identity, questionID string) error {
	if ident.IsZero() {
		return errorz.ErrUnauthenticated
	}
	q, ok := s.cache.Get(questionID)
	if !ok {
		return fmt.Errorf("%w: question %s", errorz.ErrNotFound, questionID)
	}
	if q.HasLiked(ident.ID) {
		return errorz.ErrAlreadyLiked
	}

	likes := q.Likes + 1
	return storeErr(s.store.UpdateQuestion(ctx, questionID, store.Update{
		SetLikes:   &likes,
		AddLikedBy: []string{ident.ID},
	}))
}

// storeErr classifies a remote failure into the error taxonomy. A context
// cancellation means the mutation may still be pending remotely; it maps to
// the transport class so callers can distinguish it from a rejection.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errorz.ErrNotFound),
		errors.Is(err, errorz.ErrValidation),
		errors.Is(err, errorz.ErrTransport):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: mutation outcome unknown, still pending remotely: %v", errorz.ErrTransport, err)
	default:
		return fmt.Errorf("%w: %v", errorz.ErrUnknown, err)
	}
}
