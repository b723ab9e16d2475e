package lesson

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mind-engage/mindengage-quiz/internal/db"
)

type SQLStore struct {
	db     *sql.DB
	driver db.Driver // "sqlite" or "postgres"
}

func NewSQLStore(dbh *sql.DB, driver db.Driver) *SQLStore {
	return &SQLStore{db: dbh, driver: driver}
}

func (s *SQLStore) q(query string) string { return db.Rebind(s.driver, query) }

func (s *SQLStore) PutLesson(ctx context.Context, l Lesson) error {
	if err := Validate(l); err != nil {
		return err
	}
	qj, err := json.Marshal(l.Questions)
	if err != nil {
		return err
	}
	if l.CreatedAt == 0 {
		l.CreatedAt = time.Now().Unix()
	}
	_, err = s.db.ExecContext(ctx, s.q(`INSERT INTO lessons (id,title,course_id,questions_json,created_at)
		VALUES (?,?,?,?,?)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, course_id=EXCLUDED.course_id, questions_json=EXCLUDED.questions_json`),
		l.ID, l.Title, l.CourseID, string(qj), l.CreatedAt)
	if err != nil {
		return fmt.Errorf("put lesson %s: %w", l.ID, err)
	}
	return nil
}

func (s *SQLStore) GetLesson(ctx context.Context, id string) (Lesson, error) {
	l, err := s.GetLessonAdmin(ctx, id)
	if err != nil {
		return Lesson{}, err
	}
	return redacted(l), nil
}

func (s *SQLStore) GetLessonAdmin(ctx context.Context, id string) (Lesson, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT id,title,course_id,questions_json,created_at FROM lessons WHERE id=?`), id)
	var l Lesson
	var qjson string
	if err := row.Scan(&l.ID, &l.Title, &l.CourseID, &qjson, &l.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Lesson{}, ErrLessonNotFound
		}
		return Lesson{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &l.Questions); err != nil {
		return Lesson{}, fmt.Errorf("decode questions of %s: %w", id, err)
	}
	return l, nil
}

func (s *SQLStore) ListLessons(ctx context.Context, opts ListOpts) ([]Summary, error) {
	var where []string
	var args []any
	if opts.CourseID != "" {
		where = append(where, "course_id=?")
		args = append(args, opts.CourseID)
	}
	if q := strings.TrimSpace(opts.Q); q != "" {
		where = append(where, "LOWER(title) LIKE ?")
		args = append(args, "%"+strings.ToLower(q)+"%")
	}
	query := `SELECT id,title,course_id,questions_json,created_at FROM lessons`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id ASC"
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var l Lesson
		var qjson string
		if err := rows.Scan(&l.ID, &l.Title, &l.CourseID, &qjson, &l.CreatedAt); err != nil {
			return nil, err
		}
		// a row with undecodable questions still lists, with zero questions
		if err := json.Unmarshal([]byte(qjson), &l.Questions); err != nil {
			log.WithField("lesson", l.ID).WithError(err).Warn("decode lesson questions")
		}
		out = append(out, summarize(l))
	}
	return out, rows.Err()
}
