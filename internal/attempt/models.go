package attempt

import (
	"context"
	"errors"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/lesson"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/session"
)

var (
	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrAttemptCompleted = errors.New("attempt already completed")
	ErrLessonNotFound   = lesson.ErrLessonNotFound
)

const StatusCompleted = "completed"

// Record is a completed attempt as persisted by a Store.
type Record struct {
	ID          string          `json:"id"`
	LessonID    string          `json:"lesson_id"`
	UserID      string          `json:"user_id,omitempty"`
	Status      string          `json:"status"`
	Score       quiz.Score      `json:"score"`
	Attempt     session.Attempt `json:"attempt"`
	StartedAt   int64           `json:"started_at"`
	CompletedAt int64           `json:"completed_at"`
}

func recordOf(c session.Completion) Record {
	return Record{
		ID:          c.Attempt.AttemptID,
		LessonID:    c.Attempt.LessonID,
		UserID:      c.Attempt.UserID,
		Status:      StatusCompleted,
		Score:       c.Score,
		Attempt:     c.Attempt,
		StartedAt:   unixOrZero(c.Attempt.StartedAt),
		CompletedAt: unixOrZero(c.Attempt.CompletedAt),
	}
}

type ListOpts struct {
	UserID   string
	LessonID string
	Limit    int
	Offset   int
}

// Store persists checked submissions as they happen and attempts once they
// complete.
type Store interface {
	SaveSubmission(ctx context.Context, s quiz.Submission) error
	SaveAttempt(ctx context.Context, c session.Completion) error
	GetAttempt(ctx context.Context, id string) (Record, error)
	ListAttempts(ctx context.Context, opts ListOpts) ([]Record, error)
	ListSubmissions(ctx context.Context, attemptID string) ([]quiz.Submission, error)
}

// SessionStore holds live attempt snapshots between requests.
type SessionStore interface {
	Load(ctx context.Context, attemptID string) (session.State, error) // ErrAttemptNotFound if absent
	Save(ctx context.Context, s session.State) error
	Delete(ctx context.Context, attemptID string) error
}

const (
	EventStarted   = "attempt.started"
	EventChecked   = "answer.checked"
	EventCompleted = "attempt.completed"
)

// Event is what a Publisher receives. Data is JSON-encodable.
type Event struct {
	Type      string    `json:"type"`
	AttemptID string    `json:"attempt_id"`
	LessonID  string    `json:"lesson_id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	At        time.Time `json:"at"`
	Data      any       `json:"data,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
