package voice

import "time"

// Event is the webhook envelope delivered by the voice provider.
//
// Only the fields the relay consumes are modeled; unknown fields are
// ignored on decode. Delivery is best-effort: events may arrive out of
// order or more than once, and the relay acknowledges everything.

type Event struct {
	Type       string           `json:"type"`
	Call       *EventCall       `json:"call,omitempty"`
	Transcript *EventTranscript `json:"transcript,omitempty"`

	// Role accompanies speech-started / speech-ended events.
	Role string `json:"role,omitempty"`

	// Timestamp is the provider-reported event time, when present.
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

type EventCall struct {
	ID string `json:"id"`
}

type EventTranscript struct {
	Role string `json:"role"`
	Text string `json:"text"`

	// Timestamp is the provider-reported utterance time, when present.
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Recognized event kinds. Anything else is acknowledged and ignored.
const (
	EventTranscriptKind = "transcript"
	EventCallStarted    = "call-started"
	EventCallEnded      = "call-ended"
	EventSpeechStarted  = "speech-started"
	EventSpeechEnded    = "speech-ended"
)

// CallID extracts the provider call id, or "" when the envelope has none.
func (e Event) CallID() string {
	if e.Call == nil {
		return ""
	}
	return e.Call.ID
}

// MapSpeaker maps the provider's role field onto the wire speaker values:
// "assistant" is the AI interviewer, anything else is the candidate.
func MapSpeaker(role string) string {
	if role == "assistant" {
		return "ai"
	}
	return "user"
}
