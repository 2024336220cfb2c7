package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// NOTE: This repository assumes the following table exists:
//
// CREATE TABLE audit_events (
//   id         UUID PRIMARY KEY,
//   type       TEXT NOT NULL,
//   call_id    TEXT,
//   record_id  TEXT,
//   message    TEXT,
//   created_at TIMESTAMPTZ NOT NULL
// );

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events (id, type, call_id, record_id, message, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
`
	_, err := r.db.ExecContext(ctx, q, e.ID, e.Type, e.CallID, e.RecordID, e.Message, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}
