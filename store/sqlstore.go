package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"agriaid/errorz"
	"agriaid/models"
)

// questionRow is the MySQL shape of a question document. Answers and likedBy
// are JSON columns; the union primitives are applied inside a row-locked
// transaction so concurrent writers to the same document serialize here.
type questionRow struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Title     string    `gorm:"size:255"`
	Content   string    `gorm:"type:text"`
	Category  string    `gorm:"size:32;index"`
	Author    string    `gorm:"size:128"`
	AuthorID  string    `gorm:"size:64;index"`
	CreatedAt time.Time `gorm:"index"`
	Answers   string    `gorm:"type:json"`
	Likes     int
	LikedBy   string `gorm:"type:json"`
}

func (questionRow) TableName() string { return "questions" }

// SQLStore implements Store on gorm/MySQL. After every committed write it
// notifies through RabbitMQ so subscribers in every process re-read; when no
// broker is configured it falls back to in-process fan-out only.
type SQLStore struct {
	db       *gorm.DB
	notifier *Notifier
	local    *hub
}

func NewSQLStore(db *gorm.DB, notifier *Notifier) (*SQLStore, error) {
	if err := db.AutoMigrate(&questionRow{}); err != nil {
		return nil, fmt.Errorf("migrate questions: %w", err)
	}
	return &SQLStore{db: db, notifier: notifier, local: newHub()}, nil
}

func (s *SQLStore) CreateQuestion(ctx context.Context, q models.Question) (string, error) {
	row := questionRow{
		ID:        uuid.NewString(),
		Title:     q.Title,
		Content:   q.Content,
		Category:  q.Category,
		Author:    q.Author,
		AuthorID:  q.AuthorID,
		CreatedAt: time.Now().UTC(),
		Answers:   mustJSON(q.Answers),
		Likes:     q.Likes,
		LikedBy:   mustJSON(q.LikedBy),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("create question: %w", err)
	}
	s.changed(ctx)
	return row.ID, nil
}

func (s *SQLStore) UpdateQuestion(ctx context.Context, id string, u Update) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row questionRow
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&row, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: question %s", errorz.ErrNotFound, id)
			}
			return err
		}
		doc, err := row.toQuestion()
		if err != nil {
			return err
		}
		applyUpdate(&doc, u)
		return tx.Model(&questionRow{}).Where("id = ?", id).Updates(map[string]interface{}{
			"answers":  mustJSON(doc.Answers),
			"likes":    doc.Likes,
			"liked_by": mustJSON(doc.LikedBy),
		}).Error
	})
	if err != nil {
		return err
	}
	s.changed(ctx)
	return nil
}

func (s *SQLStore) Snapshot(ctx context.Context) ([]models.Question, error) {
	var rows []questionRow
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	out := make([]models.Question, 0, len(rows))
	for _, row := range rows {
		q, err := row.toQuestion()
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

func (s *SQLStore) Watch(ctx context.Context) (<-chan struct{}, error) {
	if s.notifier != nil {
		return s.notifier.Subscribe(ctx)
	}
	return s.local.watch(ctx), nil
}

func (s *SQLStore) changed(ctx context.Context) {
	if s.notifier != nil {
		if err := s.notifier.Publish(ctx); err != nil {
			// the write is durable either way; subscribers catch up on
			// the next notification
			log.Printf("publish change notification: %v", err)
		}
		return
	}
	s.local.notify()
}

func (r questionRow) toQuestion() (models.Question, error) {
	q := models.Question{
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content,
		Category:  r.Category,
		Author:    r.Author,
		AuthorID:  r.AuthorID,
		CreatedAt: models.ServerTimeOf(r.CreatedAt),
		Likes:     r.Likes,
		Answers:   []models.Answer{},
		LikedBy:   []string{},
	}
	if r.Answers != "" {
		if err := json.Unmarshal([]byte(r.Answers), &q.Answers); err != nil {
			return models.Question{}, fmt.Errorf("decode answers for %s: %w", r.ID, err)
		}
	}
	if r.LikedBy != "" {
		if err := json.Unmarshal([]byte(r.LikedBy), &q.LikedBy); err != nil {
			return models.Question{}, fmt.Errorf("decode likedBy for %s: %w", r.ID, err)
		}
	}
	return q, nil
}

func mustJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
