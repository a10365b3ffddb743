package models

import "time"

// ServerTime is a timestamp assigned by the remote store (question creation).
// ClientTime is a timestamp stamped from the local clock (answer creation).
// They are distinct types so the two clocks cannot be compared or sorted
// against each other without going through Time().
type ServerTime struct{ time.Time }

type ClientTime struct{ time.Time }

func ServerTimeOf(t time.Time) ServerTime { return ServerTime{t} }

func ClientNow() ClientTime { return ClientTime{time.Now()} }

// Identity is the authenticated caller, passed into mutations as a value.
// The zero Identity means "not signed in".
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

func (i Identity) IsZero() bool { return i.ID == "" }

// Question is one forum document. The canonical copy lives in the remote
// store; every client holds a read-only replica refreshed by the change feed.
// Title, content and category are set once at creation. Author/AuthorID are a
// denormalized snapshot of the poster's profile and may go stale.
type Question struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Category  string     `json:"category"`
	Author    string     `json:"author"`
	AuthorID  string     `json:"authorId"`
	CreatedAt ServerTime `json:"createdAt"`
	Answers   []Answer   `json:"answers"`
	Likes     int        `json:"likes"`
	LikedBy   []string   `json:"likedBy"`
}

// HasLiked reports whether uid is already a member of LikedBy.
func (q Question) HasLiked(uid string) bool {
	for _, id := range q.LikedBy {
		if id == uid {
			return true
		}
	}
	return false
}

// Answer is appended to a question's answers sequence. The id is generated on
// the client at append time and is the dedup key for the set-union append.
// Likes exists in the stored schema but no mutation path updates it.
type Answer struct {
	ID        string     `json:"id"`
	Content   string     `json:"content"`
	Author    string     `json:"author"`
	AuthorID  string     `json:"authorId"`
	CreatedAt ClientTime `json:"createdAt"`
	Likes     int        `json:"likes"`
}

// Categories accepted for new questions. "all" is only a filter wildcard,
// never stored on a question.
var Categories = []string{"general", "crops", "rotation", "weather", "pests", "equipment"}

func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}
