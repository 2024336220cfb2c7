package interview

import "time"

// Record tracks one AI-conducted phone interview end-to-end.
//
// JSON field names are camelCase to stay wire-compatible with the recruiter
// dashboard. The transcript is append-only; insertion order is chronological
// order.
//
// Invariants:
// - Duration is defined iff Status == StatusCompleted, as whole seconds of
//   EndTime - StartTime.
// - CallID, once assigned by the voice provider, is unique across all
//   records and is the sole join key used by the webhook relay.
type Record struct {
	ID string `json:"id"`

	// CallID is the provider-assigned call identifier. Empty until the
	// provider accepts the call.
	CallID string `json:"callId,omitempty"`

	CandidateName  string `json:"candidateName"`
	CandidatePhone string `json:"candidatePhone"`
	Position       string `json:"position"`

	Status Status `json:"status"`

	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`

	// Duration is the call duration in whole seconds.
	Duration int `json:"duration"`

	// Transcript is omitted from list views.
	Transcript []TranscriptEntry `json:"transcript,omitempty"`

	Summary string   `json:"summary,omitempty"`
	Score   *float64 `json:"score,omitempty"`
	Tags    []string `json:"tags"`
}

type Status string

const (
	StatusStarting  Status = "starting"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// TranscriptEntry is one utterance in an interview. Immutable once appended.
type TranscriptEntry struct {
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type Speaker string

const (
	SpeakerAI    Speaker = "ai"
	SpeakerHuman Speaker = "user"
)

// DurationSeconds computes the whole-second duration between start and end,
// truncated toward zero. Zero-length calls report 0.
func DurationSeconds(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Seconds())
}
