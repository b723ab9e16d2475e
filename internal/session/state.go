package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

type Feedback string

const (
	FeedbackIdle      Feedback = "idle"
	FeedbackCorrect   Feedback = "correct"
	FeedbackIncorrect Feedback = "incorrect"
)

// State is one quiz attempt. It is a value: transitions return a new State and
// never modify the receiver's maps, so a State may be shared, snapshotted or
// serialized freely.
type State struct {
	AttemptID string          `json:"attempt_id"`
	LessonID  string          `json:"lesson_id,omitempty"`
	UserID    string          `json:"user_id,omitempty"`
	Questions []quiz.Question `json:"questions"`

	Index    int                    `json:"index"`
	Answers  map[string]quiz.Answer `json:"answers"`
	Feedback Feedback               `json:"feedback"`
	Locked   bool                   `json:"locked"`

	// Checked holds the result of each question's first check. Its size is
	// the score denominator.
	Checked      map[string]bool `json:"checked"`
	CorrectCount int             `json:"correct_count"`

	// AllowRetry lets an edit after an incorrect check unlock the question.
	AllowRetry bool `json:"allow_retry,omitempty"`

	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
	Done        bool      `json:"done"`
}

// Attempt is the payload handed to a submission endpoint when an attempt ends.
type Attempt struct {
	AttemptID   string            `json:"attempt_id"`
	UserID      string            `json:"user_id,omitempty"`
	LessonID    string            `json:"lesson_id"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt time.Time         `json:"completed_at"`
	Answers     []quiz.Submission `json:"answers"`
}

// Completion is emitted exactly once, when the last question is left.
type Completion struct {
	Score   quiz.Score `json:"score"`
	Attempt Attempt    `json:"attempt"`
}

type options struct {
	attemptID  string
	lessonID   string
	userID     string
	now        func() time.Time
	allowRetry bool
	onComplete func(Completion)
	onCheck    func(quiz.Submission)
}

type Option func(*options)

func WithAttemptID(id string) Option { return func(o *options) { o.attemptID = id } }
func WithLessonID(id string) Option  { return func(o *options) { o.lessonID = id } }
func WithUserID(id string) Option    { return func(o *options) { o.userID = id } }
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}
func WithRetry(allow bool) Option { return func(o *options) { o.allowRetry = allow } }

// OnComplete and OnCheck are used by Controller; New ignores them.
func OnComplete(fn func(Completion)) Option   { return func(o *options) { o.onComplete = fn } }
func OnCheck(fn func(quiz.Submission)) Option { return func(o *options) { o.onCheck = fn } }

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	if o.attemptID == "" {
		o.attemptID = uuid.NewString()
	}
	return o
}

// New starts an attempt over questions, which must form a valid list.
func New(questions []quiz.Question, opts ...Option) (State, error) {
	if err := quiz.ValidateList(questions); err != nil {
		return State{}, err
	}
	o := buildOptions(opts)
	return newState(questions, o), nil
}

func newState(questions []quiz.Question, o options) State {
	return State{
		AttemptID:  o.attemptID,
		LessonID:   o.lessonID,
		UserID:     o.userID,
		Questions:  append([]quiz.Question(nil), questions...),
		Answers:    map[string]quiz.Answer{},
		Feedback:   FeedbackIdle,
		Checked:    map[string]bool{},
		AllowRetry: o.allowRetry,
		StartedAt:  o.now(),
	}
}

// Current returns the active question. ok is false for an empty state.
func (s State) Current() (q quiz.Question, ok bool) {
	if s.Index < 0 || s.Index >= len(s.Questions) {
		return quiz.Question{}, false
	}
	return s.Questions[s.Index], true
}

func (s State) IsLast() bool { return s.Index == len(s.Questions)-1 }

// Answer returns the stored answer for a question, or nil.
func (s State) Answer(questionID string) *quiz.Answer {
	a, ok := s.Answers[questionID]
	if !ok {
		return nil
	}
	c := a.Clone()
	return &c
}

func (s State) Score() quiz.Score {
	return quiz.NewScore(s.CorrectCount, len(s.Checked))
}

// Progress returns the 1-based position of the active question and the
// list length.
func (s State) Progress() (position, total int) {
	return s.Index + 1, len(s.Questions)
}

func (s State) clone() State {
	out := s
	out.Answers = make(map[string]quiz.Answer, len(s.Answers))
	for k, v := range s.Answers {
		out.Answers[k] = v
	}
	out.Checked = make(map[string]bool, len(s.Checked))
	for k, v := range s.Checked {
		out.Checked[k] = v
	}
	return out
}

func (s State) attempt() Attempt {
	subs := make([]quiz.Submission, 0, len(s.Questions))
	for _, q := range s.Questions {
		sub := quiz.Submission{
			AttemptID:    s.AttemptID,
			QuestionID:   q.ID,
			QuestionKind: q.Kind,
		}
		if a, ok := s.Answers[q.ID]; ok {
			c := a.Clone()
			sub.RawAnswer = &c
		}
		if correct, ok := s.Checked[q.ID]; ok {
			sub.Checked = true
			sub.Correct = correct
		}
		subs = append(subs, sub)
	}
	return Attempt{
		AttemptID:   s.AttemptID,
		UserID:      s.UserID,
		LessonID:    s.LessonID,
		StartedAt:   s.StartedAt,
		CompletedAt: s.CompletedAt,
		Answers:     subs,
	}
}
