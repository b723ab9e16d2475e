package attempt

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/db"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/session"
)

type SQLStore struct {
	db     *sql.DB
	driver db.Driver
}

func NewSQLStore(dbh *sql.DB, driver db.Driver) *SQLStore {
	return &SQLStore{db: dbh, driver: driver}
}

func (s *SQLStore) q(query string) string { return db.Rebind(s.driver, query) }

func (s *SQLStore) SaveSubmission(ctx context.Context, sub quiz.Submission) error {
	raw := []byte("null")
	if sub.RawAnswer != nil {
		b, err := json.Marshal(sub.RawAnswer)
		if err != nil {
			return err
		}
		raw = b
	}
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO submissions (attempt_id,question_id,question_kind,raw_answer_json,correct,created_at)
		VALUES (?,?,?,?,?,?)`),
		sub.AttemptID, sub.QuestionID, string(sub.QuestionKind), string(raw), sub.Correct, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save submission %s/%s: %w", sub.AttemptID, sub.QuestionID, err)
	}
	return nil
}

func (s *SQLStore) SaveAttempt(ctx context.Context, c session.Completion) error {
	r := recordOf(c)
	payload, err := json.Marshal(r.Attempt)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.q(`INSERT INTO attempts (id,lesson_id,user_id,status,correct,total,percentage,payload_json,started_at,completed_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT (id) DO UPDATE SET status=EXCLUDED.status, correct=EXCLUDED.correct, total=EXCLUDED.total,
			percentage=EXCLUDED.percentage, payload_json=EXCLUDED.payload_json, completed_at=EXCLUDED.completed_at`),
		r.ID, r.LessonID, r.UserID, r.Status, r.Score.Correct, r.Score.Total, r.Score.Percentage,
		string(payload), r.StartedAt, r.CompletedAt)
	if err != nil {
		return fmt.Errorf("save attempt %s: %w", r.ID, err)
	}
	return nil
}

const attemptCols = `id,lesson_id,user_id,status,correct,total,percentage,payload_json,started_at,COALESCE(completed_at,0)`

type scanner interface{ Scan(dest ...any) error }

func scanRecord(sc scanner) (Record, error) {
	var r Record
	var payload string
	if err := sc.Scan(&r.ID, &r.LessonID, &r.UserID, &r.Status,
		&r.Score.Correct, &r.Score.Total, &r.Score.Percentage,
		&payload, &r.StartedAt, &r.CompletedAt); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal([]byte(payload), &r.Attempt); err != nil {
		return Record{}, fmt.Errorf("decode attempt %s: %w", r.ID, err)
	}
	return r, nil
}

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+attemptCols+` FROM attempts WHERE id=?`), id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrAttemptNotFound
	}
	return r, err
}

func (s *SQLStore) ListAttempts(ctx context.Context, opts ListOpts) ([]Record, error) {
	var where []string
	var args []any
	if opts.UserID != "" {
		where = append(where, "user_id=?")
		args = append(args, opts.UserID)
	}
	if opts.LessonID != "" {
		where = append(where, "lesson_id=?")
		args = append(args, opts.LessonID)
	}
	query := `SELECT ` + attemptCols + ` FROM attempts`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " ORDER BY completed_at DESC, id ASC LIMIT ? OFFSET ?"
	args = append(args, limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListSubmissions(ctx context.Context, attemptID string) ([]quiz.Submission, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT attempt_id,question_id,question_kind,raw_answer_json,correct
		FROM submissions WHERE attempt_id=? ORDER BY id ASC`), attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []quiz.Submission{}
	for rows.Next() {
		var sub quiz.Submission
		var kind, raw string
		if err := rows.Scan(&sub.AttemptID, &sub.QuestionID, &kind, &raw, &sub.Correct); err != nil {
			return nil, err
		}
		sub.QuestionKind = quiz.Kind(kind)
		sub.Checked = true
		if raw != "null" {
			var a quiz.Answer
			if err := json.Unmarshal([]byte(raw), &a); err != nil {
				return nil, fmt.Errorf("decode submission answer: %w", err)
			}
			sub.RawAnswer = &a
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}
