package db

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	Email               string    `json:"email"`
	Password            string    `json:"-"`
	Photo               string    `json:"photo,omitempty"`
	Active              bool      `json:"-"`
	UnreadNotifications int       `json:"unread_notifications"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type Recording struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"user_id"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	Audio            string    `json:"audio"`
	Active           bool      `json:"-"`
	RatingsAverage   int       `json:"ratings_average"`
	RatingsQuantity  int       `json:"ratings_quantity"`
	CommentsQuantity int       `json:"comments_quantity"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Comment struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	RecordingID  uuid.UUID `json:"recording_id"`
	TextComment  string    `json:"text_comment,omitempty"`
	VoiceComment string    `json:"voice_comment,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Rating struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	RecordingID uuid.UUID `json:"recording_id"`
	Rating      int       `json:"rating"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Question struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	Title           string    `json:"title"`
	TextQuestion    string    `json:"text_question,omitempty"`
	VoiceQuestion   string    `json:"voice_question,omitempty"`
	AnswersQuantity int       `json:"answers_quantity"`
	Active          bool      `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type Answer struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	QuestionID  uuid.UUID `json:"question_id"`
	TextAnswer  string    `json:"text_answer,omitempty"`
	VoiceAnswer string    `json:"voice_answer,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type NotificationKind string

const (
	NotificationRating  NotificationKind = "rating"
	NotificationComment NotificationKind = "comment"
	NotificationAnswer  NotificationKind = "answer"
)

// Actor is a snapshot of the user who triggered a notification
type Actor struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Photo string    `json:"photo,omitempty"`
}

type RatingEvent struct {
	RecordingID    uuid.UUID `json:"recording_id"`
	RecordingTitle string    `json:"recording_title"`
	Rating         int       `json:"rating"`
}

type CommentEvent struct {
	RecordingID    uuid.UUID `json:"recording_id"`
	RecordingTitle string    `json:"recording_title"`
	CommentID      uuid.UUID `json:"comment_id"`
	TextComment    string    `json:"text_comment,omitempty"`
	HasVoice       bool      `json:"has_voice"`
}

type AnswerEvent struct {
	QuestionID    uuid.UUID `json:"question_id"`
	QuestionTitle string    `json:"question_title"`
	AnswerID      uuid.UUID `json:"answer_id"`
	TextAnswer    string    `json:"text_answer,omitempty"`
	HasVoice      bool      `json:"has_voice"`
}

// Notification is an immutable inbox entry. Exactly one of the event
// pointers is set and it must match Kind.
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	Kind      NotificationKind `json:"kind"`
	Actor     Actor            `json:"actor"`
	Rating    *RatingEvent     `json:"rating,omitempty"`
	Comment   *CommentEvent    `json:"comment,omitempty"`
	Answer    *AnswerEvent     `json:"answer,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// Check verifies the tagged union is well formed
func (n *Notification) Check() error {
	set := 0
	for _, present := range []bool{n.Rating != nil, n.Comment != nil, n.Answer != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("notification must carry exactly one event, got %d", set)
	}

	switch n.Kind {
	case NotificationRating:
		if n.Rating == nil {
			return fmt.Errorf("rating notification without rating event")
		}
	case NotificationComment:
		if n.Comment == nil {
			return fmt.Errorf("comment notification without comment event")
		}
	case NotificationAnswer:
		if n.Answer == nil {
			return fmt.Errorf("answer notification without answer event")
		}
	default:
		return fmt.Errorf("unknown notification kind: %q", n.Kind)
	}

	return nil
}

// Page limits list queries
type Page struct {
	Limit  int
	Offset int
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Normalize clamps the page into the allowed range
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// RecordingSort orders recording listings. Questions are always newest first.
type RecordingSort string

const (
	SortNewest        RecordingSort = "newest"
	SortTopRated      RecordingSort = "top_rated"
	SortMostCommented RecordingSort = "most_commented"
)

// Valid reports whether s is a known order; empty means newest
func (s RecordingSort) Valid() bool {
	switch s {
	case "", SortNewest, SortTopRated, SortMostCommented:
		return true
	}
	return false
}

func (s RecordingSort) orderBy() string {
	switch s {
	case SortTopRated:
		return "ratings_average DESC, ratings_quantity DESC, created_at DESC, id"
	case SortMostCommented:
		return "comments_quantity DESC, created_at DESC, id"
	default:
		return "created_at DESC, id"
	}
}

// ListFilter narrows recording and question listings
type ListFilter struct {
	UserID *uuid.UUID
	Sort   RecordingSort
	Page   Page
}

// RatingStats is the raw input of the ratings aggregate
type RatingStats struct {
	Count int
	Sum   int
}

// RatingSummary is the derived ratings aggregate written on a recording
type RatingSummary struct {
	Quantity int
	Average  int
}
