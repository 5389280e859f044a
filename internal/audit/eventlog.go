package audit

import (
	"context"
	"database/sql"
	"time"
)

const TypeSubmissionRecorded = "SubmissionRecorded"

type Event struct {
	Offset    int64
	Type      string
	Key       string // natural key: user ID
	DataJSON  string
	CreatedAt int64
}

// Execer is satisfied by both *sql.DB and *sql.Tx so events can be appended
// inside the caller's transaction.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Append writes one event to the append-only log.
func Append(ctx context.Context, db Execer, e Event) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4)`,
		e.Type, e.Key, e.DataJSON, time.Now().Unix())
	return err
}
