package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	audit "epp-gateway/pkg/platform/audit"
)

// Schema creates the transaction log table. Deployments normally apply it
// through migrations; tests apply it directly.
const Schema = `
CREATE TABLE IF NOT EXISTS epp_transactions (
	id          UUID PRIMARY KEY,
	category    TEXT        NOT NULL,
	timestamp   TIMESTAMPTZ NOT NULL,
	operator    TEXT        NOT NULL DEFAULT '',
	command     TEXT        NOT NULL,
	object_type TEXT        NOT NULL DEFAULT '',
	object_id   TEXT        NOT NULL DEFAULT '',
	cltrid      TEXT        NOT NULL DEFAULT '',
	svtrid      TEXT        NOT NULL DEFAULT '',
	result_code INTEGER     NOT NULL DEFAULT 0,
	message     TEXT        NOT NULL DEFAULT '',
	outcome     TEXT        NOT NULL,
	request_id  TEXT        NOT NULL DEFAULT '',
	client_ip   TEXT        NOT NULL DEFAULT '',
	duration_ms BIGINT      NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS epp_transactions_object_idx
	ON epp_transactions (object_type, object_id, timestamp DESC);
`

// Store implements audit.Store on the epp_transactions table.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL transaction log.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const columns = `id, category, timestamp, operator, command, object_type, object_id,
	cltrid, svtrid, result_code, message, outcome, request_id, client_ip, duration_ms`

// Append inserts a transaction. Re-appending the same ID is a no-op.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO epp_transactions (` + columns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		string(event.Category),
		event.Timestamp,
		event.Operator,
		event.Command,
		event.ObjectType,
		event.ObjectID,
		event.ClTRID,
		event.SvTRID,
		event.ResultCode,
		event.Message,
		string(event.Outcome),
		event.RequestID,
		event.ClientIP,
		event.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert epp transaction: %w", err)
	}
	return nil
}

// ListByObject returns transactions against one object, newest first.
func (s *Store) ListByObject(ctx context.Context, objectType, objectID string, limit int) ([]audit.Event, error) {
	query := `
		SELECT ` + columns + `
		FROM epp_transactions
		WHERE object_type = $1 AND object_id = $2
		ORDER BY timestamp DESC
		LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, query, objectType, objectID, limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("query epp transactions: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListRecent returns the N most recent transactions.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `
		SELECT ` + columns + `
		FROM epp_transactions
		ORDER BY timestamp DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("query epp transactions: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// limitOrAll maps a non-positive limit to NULL, which Postgres treats as LIMIT ALL.
func limitOrAll(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event

	for rows.Next() {
		var (
			event      audit.Event
			category   string
			outcome    string
			durationMS int64
		)
		err := rows.Scan(
			&event.ID,
			&category,
			&event.Timestamp,
			&event.Operator,
			&event.Command,
			&event.ObjectType,
			&event.ObjectID,
			&event.ClTRID,
			&event.SvTRID,
			&event.ResultCode,
			&event.Message,
			&outcome,
			&event.RequestID,
			&event.ClientIP,
			&durationMS,
		)
		if err != nil {
			return nil, fmt.Errorf("scan epp transaction: %w", err)
		}
		event.Category = audit.EventCategory(category)
		event.Outcome = audit.Outcome(outcome)
		event.Duration = time.Duration(durationMS) * time.Millisecond
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate epp transactions: %w", err)
	}
	return events, nil
}
