package audit

import "time"

// Event is one immutable operational audit entry.
type Event struct {
	ID       string    `json:"id" db:"id"`
	Type     EventType `json:"type" db:"type"`
	CallID   string    `json:"call_id,omitempty" db:"call_id"`
	RecordID string    `json:"record_id,omitempty" db:"record_id"`
	Message  string    `json:"message,omitempty" db:"message"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	// EventTypeInterviewStarted records a recruiter-triggered outbound call.
	EventTypeInterviewStarted EventType = "interview_started"

	// EventTypeInterviewEnded records call completion, whether triggered by
	// the end-call endpoint or a provider call-ended event.
	EventTypeInterviewEnded EventType = "interview_ended"

	// EventTypeWebhookDropped records a provider event for a call id the
	// directory does not know. Dropped events are acknowledged to the
	// provider, so this trail is the only visibility into them.
	EventTypeWebhookDropped EventType = "webhook_dropped"
)
