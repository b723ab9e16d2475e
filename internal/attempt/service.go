package attempt

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mind-engage/mindengage-quiz/internal/lesson"
	"github.com/mind-engage/mindengage-quiz/internal/metrics"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/session"
)

// Service hosts attempts for remote clients. Each call loads the live
// snapshot, applies one engine event and writes the result back.
type Service struct {
	lessons  lesson.Store
	records  Store
	sessions SessionStore
	pub      Publisher
	metrics  *metrics.Metrics
	now      func() time.Time
	retry    bool

	mu    sync.Mutex
	locks map[string]*attemptLock
}

type attemptLock struct {
	mu   sync.Mutex
	refs int
}

type ServiceOption func(*Service)

func WithPublisher(p Publisher) ServiceOption      { return func(s *Service) { s.pub = p } }
func WithMetrics(m *metrics.Metrics) ServiceOption { return func(s *Service) { s.metrics = m } }
func WithClock(now func() time.Time) ServiceOption { return func(s *Service) { s.now = now } }
func WithRetry(allow bool) ServiceOption           { return func(s *Service) { s.retry = allow } }

func NewService(lessons lesson.Store, records Store, sessions SessionStore, opts ...ServiceOption) *Service {
	s := &Service{
		lessons:  lessons,
		records:  records,
		sessions: sessions,
		pub:      NopPublisher{},
		now:      time.Now,
		locks:    map[string]*attemptLock{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// lock serializes calls on one attempt. The returned func releases it.
func (s *Service) lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &attemptLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

// Start begins an attempt at the first question of a lesson.
func (s *Service) Start(ctx context.Context, lessonID, userID string) (session.State, error) {
	l, err := s.lessons.GetLessonAdmin(ctx, lessonID)
	if err != nil {
		return session.State{}, err
	}
	st, err := session.New(l.Questions,
		session.WithLessonID(l.ID),
		session.WithUserID(userID),
		session.WithClock(s.now),
		session.WithRetry(s.retry),
	)
	if err != nil {
		return session.State{}, err
	}
	if err := s.sessions.Save(ctx, st); err != nil {
		return session.State{}, err
	}
	s.metrics.AttemptStarted(l.ID)
	s.publish(ctx, st, EventStarted, nil)
	log.WithFields(log.Fields{"attempt": st.AttemptID, "lesson": l.ID, "user": userID}).Info("attempt started")
	return st, nil
}

func (s *Service) SetAnswer(ctx context.Context, attemptID, userID, questionID string, a quiz.Answer) (session.Transition, error) {
	return s.apply(ctx, attemptID, userID, session.SetAnswer{QuestionID: questionID, Answer: a})
}

func (s *Service) Check(ctx context.Context, attemptID, userID string) (session.Transition, error) {
	return s.apply(ctx, attemptID, userID, session.Check{})
}

func (s *Service) Next(ctx context.Context, attemptID, userID string) (session.Transition, error) {
	return s.apply(ctx, attemptID, userID, session.Next{})
}

func (s *Service) ResetFeedback(ctx context.Context, attemptID, userID string) (session.Transition, error) {
	return s.apply(ctx, attemptID, userID, session.ResetFeedback{})
}

// Snapshot is either a live attempt or a completed record.
type Snapshot struct {
	Live   *session.State
	Record *Record
}

// Get returns the attempt in whichever form it exists. A non-empty userID
// restricts the lookup to that user's attempts.
func (s *Service) Get(ctx context.Context, attemptID, userID string) (Snapshot, error) {
	st, err := s.sessions.Load(ctx, attemptID)
	switch {
	case err == nil && !st.Done:
		if !owns(userID, st.UserID) {
			return Snapshot{}, ErrAttemptNotFound
		}
		return Snapshot{Live: &st}, nil
	case err != nil && !errors.Is(err, ErrAttemptNotFound):
		return Snapshot{}, err
	}
	r, err := s.records.GetAttempt(ctx, attemptID)
	if err != nil {
		return Snapshot{}, err
	}
	if !owns(userID, r.UserID) {
		return Snapshot{}, ErrAttemptNotFound
	}
	return Snapshot{Record: &r}, nil
}

func (s *Service) List(ctx context.Context, opts ListOpts) ([]Record, error) {
	return s.records.ListAttempts(ctx, opts)
}

func (s *Service) Submissions(ctx context.Context, attemptID string) ([]quiz.Submission, error) {
	return s.records.ListSubmissions(ctx, attemptID)
}

func owns(caller, owner string) bool { return caller == "" || caller == owner }

func (s *Service) apply(ctx context.Context, attemptID, userID string, ev session.Event) (session.Transition, error) {
	unlock := s.lock(attemptID)
	defer unlock()

	st, err := s.sessions.Load(ctx, attemptID)
	if errors.Is(err, ErrAttemptNotFound) {
		if r, rerr := s.records.GetAttempt(ctx, attemptID); rerr == nil && owns(userID, r.UserID) {
			return session.Transition{}, ErrAttemptCompleted
		}
		return session.Transition{}, ErrAttemptNotFound
	}
	if err != nil {
		return session.Transition{}, err
	}
	if !owns(userID, st.UserID) {
		return session.Transition{}, ErrAttemptNotFound
	}
	if st.Done {
		return session.Transition{}, ErrAttemptCompleted
	}

	tr := session.Apply(st, ev, s.now())
	if !tr.Applied {
		return tr, nil
	}
	fields := log.Fields{"attempt": attemptID, "lesson": st.LessonID}

	if tr.Completed != nil {
		if err := s.complete(ctx, tr, fields); err != nil {
			return session.Transition{}, err
		}
		return tr, nil
	}

	// Snapshot first: every stored submission has a locked snapshot behind it.
	if err := s.sessions.Save(ctx, tr.State); err != nil {
		return session.Transition{}, err
	}
	if tr.Checked != nil {
		sub := *tr.Checked
		if err := s.records.SaveSubmission(ctx, sub); err != nil {
			return session.Transition{}, err
		}
		s.metrics.Checked(sub.QuestionKind, sub.Correct)
		s.publish(ctx, tr.State, EventChecked, sub)
		log.WithFields(fields).WithFields(log.Fields{"question": sub.QuestionID, "correct": sub.Correct}).Debug("answer checked")
	}
	return tr, nil
}

// complete persists a finished attempt and retires its live snapshot. An
// attempt already on record is never completed twice, even when a leftover
// snapshot replays the final Next.
func (s *Service) complete(ctx context.Context, tr session.Transition, fields log.Fields) error {
	c := *tr.Completed
	id := c.Attempt.AttemptID
	if _, err := s.records.GetAttempt(ctx, id); err == nil {
		if err := s.sessions.Delete(ctx, id); err != nil {
			log.WithFields(fields).WithError(err).Warn("delete completed session")
		}
		return ErrAttemptCompleted
	} else if !errors.Is(err, ErrAttemptNotFound) {
		return err
	}

	if err := s.records.SaveAttempt(ctx, c); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		log.WithFields(fields).WithError(err).Warn("delete completed session")
		if err := s.sessions.Save(ctx, tr.State); err != nil {
			log.WithFields(fields).WithError(err).Warn("save completed session")
		}
	}
	s.metrics.AttemptCompleted(c.Attempt.LessonID, c.Score)
	s.publish(ctx, tr.State, EventCompleted, c)
	log.WithFields(fields).WithField("percentage", c.Score.Percentage).Info("attempt completed")
	return nil
}

// publish is best effort: the attempt is already persisted when it runs.
func (s *Service) publish(ctx context.Context, st session.State, typ string, data any) {
	err := s.pub.Publish(ctx, Event{
		Type:      typ,
		AttemptID: st.AttemptID,
		LessonID:  st.LessonID,
		UserID:    st.UserID,
		At:        s.now(),
		Data:      data,
	})
	if err != nil {
		log.WithFields(log.Fields{"attempt": st.AttemptID, "event": typ}).WithError(err).Warn("publish event")
	}
}
