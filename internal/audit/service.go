package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only. No Update/Delete methods are provided by design.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service records operational audit information.
//
// Callers should treat audit logging as best-effort: a failed append never
// fails the operation being audited.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

func (s *Service) LogInterviewStarted(ctx context.Context, callID, recordID string) error {
	return s.Append(ctx, Event{
		Type:     EventTypeInterviewStarted,
		CallID:   callID,
		RecordID: recordID,
		Message:  "outbound interview call placed",
	})
}

func (s *Service) LogInterviewEnded(ctx context.Context, callID, recordID, source string) error {
	return s.Append(ctx, Event{
		Type:     EventTypeInterviewEnded,
		CallID:   callID,
		RecordID: recordID,
		Message:  "interview ended via " + source,
	})
}

func (s *Service) LogWebhookDropped(ctx context.Context, callID, eventType string) error {
	return s.Append(ctx, Event{
		Type:    EventTypeWebhookDropped,
		CallID:  callID,
		Message: "dropped " + eventType + " event for unknown call",
	})
}
