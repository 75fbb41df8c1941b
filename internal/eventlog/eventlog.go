package eventlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Repo appends audit events for the attempt lifecycle
// (AttemptStarted, AttemptSubmitted, AttemptReviewed).
type Repo struct{ db *sql.DB }

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Append(ctx context.Context, typ, key string, data any) error {
	buf, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at) VALUES ($1,$2,$3,$4)`,
		typ, key, string(buf), time.Now().Unix())
	return err
}
