package interview

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-recruiter/internal/audit"
	"ai-recruiter/internal/voice"
	"ai-recruiter/pkg/logger"

	"github.com/google/uuid"
)

var (
	// ErrInvalidInput is returned when a start request misses required fields.
	ErrInvalidInput = errors.New("interview: candidate name, phone and position are required")

	// ErrTooManyCalls is returned when the concurrent-call cap is exhausted.
	ErrTooManyCalls = errors.New("interview: concurrent call limit reached")
)

// CallRegistry is the slice of the active-call directory the service needs.
// The relay package owns the implementation.
type CallRegistry interface {
	Register(providerCallID, recordID string)
	Remove(providerCallID string)
}

// Broadcaster fans events out to the realtime room for a call.
type Broadcaster interface {
	Broadcast(ctx context.Context, room, event string, data any) error
}

// Service orchestrates the interview lifecycle: record creation, provider
// dialing, directory registration and completion.
type Service struct {
	store       Store // nil when the database is unavailable
	provider    voice.Provider
	registry    CallRegistry
	broadcaster Broadcaster
	limiter     CallLimiter    // optional
	audits      *audit.Service // optional
	clock       func() time.Time
}

func NewService(store Store, provider voice.Provider, registry CallRegistry, broadcaster Broadcaster, limiter CallLimiter, audits *audit.Service) *Service {
	return &Service{
		store:       store,
		provider:    provider,
		registry:    registry,
		broadcaster: broadcaster,
		limiter:     limiter,
		audits:      audits,
		clock:       time.Now,
	}
}

// StartResult is what the control surface returns to the recruiter.
type StartResult struct {
	CallID   string
	RecordID string
}

// Start creates a record, dials the candidate through the provider, and
// registers the call for webhook correlation.
//
// On provider failure the record deliberately stays in the starting status:
// the failed attempt remains visible to the recruiter instead of being
// rolled back.
func (s *Service) Start(ctx context.Context, candidateName, candidatePhone, position string) (StartResult, error) {
	log := logger.From(ctx)

	if candidateName == "" || candidatePhone == "" || position == "" {
		return StartResult{}, ErrInvalidInput
	}
	if s.store == nil {
		return StartResult{}, ErrUnavailable
	}

	rec := Record{
		ID:             uuid.NewString(),
		CandidateName:  candidateName,
		CandidatePhone: candidatePhone,
		Position:       position,
		Status:         StatusStarting,
		StartTime:      s.clock().UTC(),
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return StartResult{}, fmt.Errorf("create record: %w", err)
	}

	release, err := s.acquireSlot(ctx)
	if err != nil {
		return StartResult{RecordID: rec.ID}, err
	}

	res, err := s.provider.StartCall(ctx, voice.StartCallRequest{
		CandidateName:  candidateName,
		CandidatePhone: candidatePhone,
		Position:       position,
	})
	if err != nil {
		release(ctx)
		// Record stays in starting; the error carries provider details.
		return StartResult{RecordID: rec.ID}, fmt.Errorf("start call: %w", err)
	}

	if err := s.store.AssignCall(ctx, rec.ID, res.ProviderCallID); err != nil {
		release(ctx)
		return StartResult{RecordID: rec.ID}, fmt.Errorf("assign call: %w", err)
	}

	s.registry.Register(res.ProviderCallID, rec.ID)
	if s.audits != nil {
		if err := s.audits.LogInterviewStarted(ctx, res.ProviderCallID, rec.ID); err != nil {
			log.Warn("audit append failed", "err", err)
		}
	}

	log.Info("interview started",
		"record_id", rec.ID,
		"call_id", res.ProviderCallID,
		"position", position,
	)
	return StartResult{CallID: res.ProviderCallID, RecordID: rec.ID}, nil
}

// End terminates the provider call and completes the record.
//
// A call id with no directory entry or no record is not an error: the store
// update is still attempted and the cleanup is a no-op.
func (s *Service) End(ctx context.Context, callID string) error {
	log := logger.From(ctx)

	if err := s.provider.EndCall(ctx, callID); err != nil {
		return fmt.Errorf("end call: %w", err)
	}

	recordID := ""
	if s.store != nil {
		rec, err := s.store.GetByCallID(ctx, callID)
		switch {
		case err == nil:
			recordID = rec.ID
			if _, err := s.store.Complete(ctx, rec.ID, s.clock().UTC(), ""); err != nil {
				log.Error("record completion failed", "call_id", callID, "err", err)
			}
		case errors.Is(err, ErrNotFound):
			log.Warn("no record for ended call", "call_id", callID)
		default:
			log.Error("record lookup failed", "call_id", callID, "err", err)
		}
	}

	s.registry.Remove(callID)
	s.releaseSlot(ctx)
	if s.audits != nil && recordID != "" {
		if err := s.audits.LogInterviewEnded(ctx, callID, recordID, "api"); err != nil {
			log.Warn("audit append failed", "err", err)
		}
	}

	if err := s.broadcaster.Broadcast(ctx, callID, "call-ended", map[string]string{"callId": callID}); err != nil {
		log.Error("broadcast failed", "call_id", callID, "err", err)
	}
	return nil
}

// StatusInfo is the live view of a call.
type StatusInfo struct {
	Status     string            `json:"status"`
	Duration   int               `json:"duration"`
	Transcript []TranscriptEntry `json:"transcript"`
}

// CallStatus looks a record up by provider call id, defaulting to
// unknown/0/empty when nothing matches.
func (s *Service) CallStatus(ctx context.Context, callID string) (StatusInfo, error) {
	if s.store == nil {
		return StatusInfo{}, ErrUnavailable
	}
	rec, err := s.store.GetByCallID(ctx, callID)
	if errors.Is(err, ErrNotFound) {
		return StatusInfo{Status: "unknown", Transcript: []TranscriptEntry{}}, nil
	}
	if err != nil {
		return StatusInfo{}, err
	}
	transcript := rec.Transcript
	if transcript == nil {
		transcript = []TranscriptEntry{}
	}
	return StatusInfo{
		Status:     string(rec.Status),
		Duration:   rec.Duration,
		Transcript: transcript,
	}, nil
}

// List returns all records newest-first with transcripts omitted.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	if s.store == nil {
		return nil, ErrUnavailable
	}
	return s.store.List(ctx)
}

// Get returns one record with its full transcript.
func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	if s.store == nil {
		return Record{}, ErrUnavailable
	}
	return s.store.Get(ctx, id)
}

func (s *Service) acquireSlot(ctx context.Context) (func(context.Context), error) {
	if s.limiter == nil {
		return func(context.Context) {}, nil
	}
	ok, err := s.limiter.Acquire(ctx)
	if err != nil {
		// The cap is protective, not load-bearing; fail open.
		logger.From(ctx).Warn("call slot acquire failed", "err", err)
		return func(context.Context) {}, nil
	}
	if !ok {
		return nil, ErrTooManyCalls
	}
	return func(ctx context.Context) { s.releaseSlot(ctx) }, nil
}

func (s *Service) releaseSlot(ctx context.Context) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.Release(ctx); err != nil {
		logger.From(ctx).Warn("call slot release failed", "err", err)
	}
}
