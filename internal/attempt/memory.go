package attempt

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/session"
)

type memoryStore struct {
	mu          sync.RWMutex
	attempts    map[string]Record
	submissions map[string][]quiz.Submission
}

func NewInMemoryStore() Store {
	return &memoryStore{
		attempts:    map[string]Record{},
		submissions: map[string][]quiz.Submission{},
	}
}

func (m *memoryStore) SaveSubmission(_ context.Context, s quiz.Submission) error {
	if s.RawAnswer != nil {
		c := s.RawAnswer.Clone()
		s.RawAnswer = &c
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submissions[s.AttemptID] = append(m.submissions[s.AttemptID], s)
	return nil
}

func (m *memoryStore) SaveAttempt(_ context.Context, c session.Completion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[c.Attempt.AttemptID] = recordOf(c)
	return nil
}

func (m *memoryStore) GetAttempt(_ context.Context, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.attempts[id]
	if !ok {
		return Record{}, ErrAttemptNotFound
	}
	return r, nil
}

func (m *memoryStore) ListAttempts(_ context.Context, opts ListOpts) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Record{}
	for _, r := range m.attempts {
		if opts.UserID != "" && r.UserID != opts.UserID {
			continue
		}
		if opts.LessonID != "" && r.LessonID != opts.LessonID {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CompletedAt != out[j].CompletedAt {
			return out[i].CompletedAt > out[j].CompletedAt
		}
		return out[i].ID < out[j].ID
	})
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	if opts.Offset >= len(out) {
		return []Record{}, nil
	}
	out = out[opts.Offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStore) ListSubmissions(_ context.Context, attemptID string) ([]quiz.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]quiz.Submission{}, m.submissions[attemptID]...), nil
}

type memorySessions struct {
	mu     sync.Mutex
	states map[string][]byte
}

// NewMemorySessionStore keeps snapshots encoded, as the redis store does, so
// a loaded state never shares memory with a saved one.
func NewMemorySessionStore() SessionStore {
	return &memorySessions{states: map[string][]byte{}}
}

func (m *memorySessions) Load(_ context.Context, id string) (session.State, error) {
	m.mu.Lock()
	b, ok := m.states[id]
	m.mu.Unlock()
	if !ok {
		return session.State{}, ErrAttemptNotFound
	}
	return decodeState(b)
}

func (m *memorySessions) Save(_ context.Context, s session.State) error {
	b, err := encodeState(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[s.AttemptID] = b
	return nil
}

func (m *memorySessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, id)
	return nil
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
