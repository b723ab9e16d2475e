package lesson

import (
	"context"
	"errors"
	"fmt"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

var (
	ErrLessonNotFound = errors.New("lesson not found")
	ErrInvalidLesson  = errors.New("invalid lesson")
)

type Lesson struct {
	ID        string          `json:"id" yaml:"id"`
	Title     string          `json:"title" yaml:"title"`
	CourseID  string          `json:"course_id,omitempty" yaml:"course_id,omitempty"`
	Questions []quiz.Question `json:"questions" yaml:"questions"`

	CreatedAt int64 `json:"created_at,omitempty" yaml:"-"`
}

// Summary is the list view of a lesson.
type Summary struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	CourseID      string `json:"course_id,omitempty"`
	QuestionCount int    `json:"question_count"`
	CreatedAt     int64  `json:"created_at"`
}

type ListOpts struct {
	CourseID string
	Q        string // title substring
	Limit    int
	Offset   int
}

type Store interface {
	PutLesson(ctx context.Context, l Lesson) error
	GetLesson(ctx context.Context, id string) (Lesson, error)      // learner-safe (no correctness fields)
	GetLessonAdmin(ctx context.Context, id string) (Lesson, error) // full lesson, for grading and authors
	ListLessons(ctx context.Context, opts ListOpts) ([]Summary, error)
}

// Validate checks the lesson envelope and its question list.
func Validate(l Lesson) error {
	if l.ID == "" {
		return fmt.Errorf("%w: id required", ErrInvalidLesson)
	}
	return quiz.ValidateList(l.Questions)
}

func redacted(l Lesson) Lesson {
	l.Questions = quiz.RedactAll(l.Questions)
	return l
}

func summarize(l Lesson) Summary {
	return Summary{
		ID:            l.ID,
		Title:         l.Title,
		CourseID:      l.CourseID,
		QuestionCount: len(l.Questions),
		CreatedAt:     l.CreatedAt,
	}
}
