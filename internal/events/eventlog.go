package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mind-engage/mindengage-quiz/internal/attempt"
	"github.com/mind-engage/mindengage-quiz/internal/db"
)

// Entry is one row of the event_log table.
type Entry struct {
	Seq       int64  `json:"seq"`
	SiteID    string `json:"site_id"`
	Type      string `json:"type"`
	Key       string `json:"key"`
	DataJSON  string `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

// LogPublisher appends attempt events to the event_log table, keyed by
// attempt id, so another process can tail them by sequence number.
type LogPublisher struct {
	db     *sql.DB
	driver db.Driver
	siteID string
}

func NewLogPublisher(dbh *sql.DB, driver db.Driver, siteID string) *LogPublisher {
	if siteID == "" {
		siteID = "local"
	}
	return &LogPublisher{db: dbh, driver: driver, siteID: siteID}
}

func (p *LogPublisher) Publish(ctx context.Context, e attempt.Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	_, err = p.db.ExecContext(ctx, db.Rebind(p.driver,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES (?,?,?,?,?)`),
		p.siteID, e.Type, e.AttemptID, string(body), e.At.Unix())
	return err
}

// Since returns up to limit entries with seq greater than after, oldest first.
func (p *LogPublisher) Since(ctx context.Context, after int64, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx, db.Rebind(p.driver,
		`SELECT seq, site_id, typ, key, data, created_at FROM event_log
		 WHERE seq > ? ORDER BY seq ASC LIMIT ?`), after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Seq, &e.SiteID, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
