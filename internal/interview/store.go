package interview

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no record matches the given id or call id.
	ErrNotFound = errors.New("interview: record not found")

	// ErrUnavailable is returned when the backing store is not reachable.
	// Handlers translate it to a 503 rather than failing the process.
	ErrUnavailable = errors.New("interview: store not available")
)

// Store is the persistence contract for interview records.
//
// Transcript entries are append-only; no method mutates or removes an
// existing entry.
type Store interface {
	Create(ctx context.Context, rec Record) error

	// AssignCall stores the provider call id and moves the record from
	// starting to active.
	AssignCall(ctx context.Context, recordID, callID string) error

	AppendTranscript(ctx context.Context, recordID string, e TranscriptEntry) error

	// Complete marks the record completed at endedAt and computes its
	// duration from the stored start time. An empty summary leaves any
	// existing summary untouched.
	Complete(ctx context.Context, recordID string, endedAt time.Time, summary string) (Record, error)

	// List returns all records sorted by start time descending, with the
	// transcript omitted.
	List(ctx context.Context) ([]Record, error)

	Get(ctx context.Context, id string) (Record, error)
	GetByCallID(ctx context.Context, callID string) (Record, error)
}
