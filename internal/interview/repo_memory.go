package interview

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store useful for tests and local hacking.
// It is not intended for production use.

type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]Record{}}
}

func (s *MemoryStore) Create(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	s.records[rec.ID] = rec
	return nil
}

func (s *MemoryStore) AssignCall(_ context.Context, recordID, callID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[recordID]
	if !ok {
		return ErrNotFound
	}
	rec.CallID = callID
	rec.Status = StatusActive
	s.records[recordID] = rec
	return nil
}

func (s *MemoryStore) AppendTranscript(_ context.Context, recordID string, e TranscriptEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[recordID]
	if !ok {
		return ErrNotFound
	}
	rec.Transcript = append(rec.Transcript, e)
	s.records[recordID] = rec
	return nil
}

func (s *MemoryStore) Complete(_ context.Context, recordID string, endedAt time.Time, summary string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[recordID]
	if !ok {
		return Record{}, ErrNotFound
	}
	t := endedAt
	rec.Status = StatusCompleted
	rec.EndTime = &t
	rec.Duration = DurationSeconds(rec.StartTime, endedAt)
	if summary != "" {
		rec.Summary = summary
	}
	s.records[recordID] = rec
	return rec, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		rec.Transcript = nil
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) GetByCallID(_ context.Context, callID string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if callID == "" {
		return Record{}, ErrNotFound
	}
	for _, rec := range s.records {
		if rec.CallID == callID {
			return rec, nil
		}
	}
	return Record{}, ErrNotFound
}
