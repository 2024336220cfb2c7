package interview

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// NOTE: This repository assumes the following table exists:
//
// CREATE TABLE interview_records (
//   id               UUID PRIMARY KEY,
//   provider_call_id TEXT UNIQUE,
//   candidate_name   TEXT NOT NULL,
//   candidate_phone  TEXT NOT NULL,
//   position         TEXT NOT NULL,
//   status           TEXT NOT NULL DEFAULT 'starting',
//   started_at       TIMESTAMPTZ NOT NULL,
//   ended_at         TIMESTAMPTZ,
//   duration_seconds INT,
//   transcript       JSONB NOT NULL DEFAULT '[]'::jsonb,
//   summary          TEXT,
//   score            DOUBLE PRECISION,
//   tags             JSONB NOT NULL DEFAULT '[]'::jsonb
// );
//
// The transcript column is treated as an append-only document array; appends
// are a single `transcript || $n::jsonb` statement so concurrent appends for
// different records never conflict.

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, rec Record) error {
	const q = `
INSERT INTO interview_records (
  id, candidate_name, candidate_phone, position, status, started_at, transcript, tags
) VALUES (
  $1, $2, $3, $4, $5, $6, '[]'::jsonb, '[]'::jsonb
)
`
	_, err := s.db.ExecContext(ctx, q,
		rec.ID,
		rec.CandidateName,
		rec.CandidatePhone,
		rec.Position,
		rec.Status,
		rec.StartTime,
	)
	if err != nil {
		return fmt.Errorf("create record: %w", err)
	}
	return nil
}

func (s *PostgresStore) AssignCall(ctx context.Context, recordID, callID string) error {
	const q = `
UPDATE interview_records
SET provider_call_id = $2, status = $3
WHERE id = $1
`
	res, err := s.db.ExecContext(ctx, q, recordID, callID, StatusActive)
	if err != nil {
		return fmt.Errorf("assign call: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) AppendTranscript(ctx context.Context, recordID string, e TranscriptEntry) error {
	buf, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal transcript entry: %w", err)
	}
	const q = `
UPDATE interview_records
SET transcript = transcript || $2::jsonb
WHERE id = $1
`
	res, err := s.db.ExecContext(ctx, q, recordID, string(buf))
	if err != nil {
		return fmt.Errorf("append transcript: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) Complete(ctx context.Context, recordID string, endedAt time.Time, summary string) (Record, error) {
	const q = `
UPDATE interview_records
SET status           = $2,
    ended_at         = $3,
    duration_seconds = floor(EXTRACT(EPOCH FROM ($3::timestamptz - started_at)))::int,
    summary          = COALESCE(NULLIF($4, ''), summary)
WHERE id = $1
RETURNING ` + recordColumns + `
`
	row := s.db.QueryRowContext(ctx, q, recordID, StatusCompleted, endedAt, summary)
	return scanRecord(row, true)
}

func (s *PostgresStore) List(ctx context.Context) ([]Record, error) {
	const q = `
SELECT id, provider_call_id, candidate_name, candidate_phone, position, status,
       started_at, ended_at, duration_seconds, summary, score, tags
FROM interview_records
ORDER BY started_at DESC
`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows, false)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Record, error) {
	const q = `SELECT ` + recordColumns + ` FROM interview_records WHERE id = $1`
	return scanRecord(s.db.QueryRowContext(ctx, q, id), true)
}

func (s *PostgresStore) GetByCallID(ctx context.Context, callID string) (Record, error) {
	const q = `SELECT ` + recordColumns + ` FROM interview_records WHERE provider_call_id = $1`
	return scanRecord(s.db.QueryRowContext(ctx, q, callID), true)
}

const recordColumns = `id, provider_call_id, candidate_name, candidate_phone, position, status,
       started_at, ended_at, duration_seconds, summary, score, tags, transcript`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner, withTranscript bool) (Record, error) {
	var (
		rec        Record
		callID     sql.NullString
		endedAt    sql.NullTime
		duration   sql.NullInt64
		summary    sql.NullString
		score      sql.NullFloat64
		tags       []byte
		transcript []byte
	)

	dest := []any{
		&rec.ID, &callID, &rec.CandidateName, &rec.CandidatePhone, &rec.Position,
		&rec.Status, &rec.StartTime, &endedAt, &duration, &summary, &score, &tags,
	}
	if withTranscript {
		dest = append(dest, &transcript)
	}

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("scan record: %w", err)
	}

	rec.CallID = callID.String
	if endedAt.Valid {
		t := endedAt.Time
		rec.EndTime = &t
	}
	rec.Duration = int(duration.Int64)
	rec.Summary = summary.String
	if score.Valid {
		v := score.Float64
		rec.Score = &v
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &rec.Tags); err != nil {
			return Record{}, fmt.Errorf("decode tags: %w", err)
		}
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	if withTranscript && len(transcript) > 0 {
		if err := json.Unmarshal(transcript, &rec.Transcript); err != nil {
			return Record{}, fmt.Errorf("decode transcript: %w", err)
		}
	}
	return rec, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
