package lesson

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryStore struct {
	mu      sync.RWMutex
	lessons map[string]Lesson
}

func NewInMemoryStore() Store {
	return &memoryStore{lessons: map[string]Lesson{}}
}

func (m *memoryStore) PutLesson(_ context.Context, l Lesson) error {
	if err := Validate(l); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.lessons[l.ID]; ok {
		l.CreatedAt = prev.CreatedAt
	} else if l.CreatedAt == 0 {
		l.CreatedAt = time.Now().Unix()
	}
	m.lessons[l.ID] = l
	return nil
}

func (m *memoryStore) GetLesson(ctx context.Context, id string) (Lesson, error) {
	l, err := m.GetLessonAdmin(ctx, id)
	if err != nil {
		return Lesson{}, err
	}
	return redacted(l), nil
}

func (m *memoryStore) GetLessonAdmin(_ context.Context, id string) (Lesson, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.lessons[id]
	if !ok {
		return Lesson{}, ErrLessonNotFound
	}
	return l, nil
}

func (m *memoryStore) ListLessons(_ context.Context, opts ListOpts) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q := strings.ToLower(strings.TrimSpace(opts.Q))
	out := make([]Summary, 0, len(m.lessons))
	for _, l := range m.lessons {
		if opts.CourseID != "" && l.CourseID != opts.CourseID {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(l.Title), q) {
			continue
		}
		out = append(out, summarize(l))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	return page(out, limit, opts.Offset), nil
}

func page[T any](in []T, limit, offset int) []T {
	if offset >= len(in) {
		return []T{}
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}
