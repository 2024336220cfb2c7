package relay

import (
	"context"
	"time"

	"ai-recruiter/internal/audit"
	"ai-recruiter/internal/interview"
	"ai-recruiter/internal/voice"
	"ai-recruiter/pkg/logger"
)

// completedSummary is the placeholder attached when a call-ended event closes
// a record. Scoring and real summaries are produced offline by the reviewer.
const completedSummary = "Interview completed successfully"

// Broadcaster is the slice of the realtime channel the relay needs.
type Broadcaster interface {
	Broadcast(ctx context.Context, room, event string, data any) error
}

// Options tune relay behavior.
type Options struct {
	// TrustProviderTime prefers provider-reported timestamps over relay
	// receipt time for transcript entries, when the envelope carries one.
	TrustProviderTime bool

	// Now is overridable for tests.
	Now func() time.Time
}

// Relay translates provider webhook events into transcript mutations and
// realtime broadcasts.
//
// Delivery policy is best-effort by design: unknown calls are dropped
// silently, store failures are logged and skip the broadcast, and the HTTP
// handler acknowledges the provider either way so it never retries and
// double-applies effects. Duplicate deliveries are NOT deduplicated; a
// duplicated transcript event appends twice.
type Relay struct {
	store       interview.Store // nil when the database is unavailable
	directory   *Directory
	broadcaster Broadcaster
	audits      *audit.Service        // optional
	limiter     interview.CallLimiter // optional
	trustTime   bool
	now         func() time.Time
}

func New(store interview.Store, directory *Directory, broadcaster Broadcaster, audits *audit.Service, limiter interview.CallLimiter, opts Options) *Relay {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Relay{
		store:       store,
		directory:   directory,
		broadcaster: broadcaster,
		audits:      audits,
		limiter:     limiter,
		trustTime:   opts.TrustProviderTime,
		now:         now,
	}
}

// Handle applies one provider event. It never fails the caller; every
// internal problem is logged and swallowed so the provider always gets its
// acknowledgment.
func (r *Relay) Handle(ctx context.Context, ev voice.Event) {
	log := logger.From(ctx)

	callID := ev.CallID()
	if callID == "" {
		log.Debug("webhook event without call id", "type", ev.Type)
		return
	}

	entry, ok := r.directory.Lookup(callID)
	if !ok {
		log.Debug("webhook for unknown call", "type", ev.Type, "call_id", callID)
		if r.audits != nil {
			_ = r.audits.LogWebhookDropped(ctx, callID, ev.Type)
		}
		return
	}

	// Serialize per call: append order must match arrival order.
	entry.Lock()
	defer entry.Unlock()

	switch ev.Type {
	case voice.EventTranscriptKind:
		r.handleTranscript(ctx, callID, entry, ev)

	case voice.EventCallStarted:
		r.broadcast(ctx, entry.Room, voice.EventCallStarted, callRef{CallID: callID})

	case voice.EventCallEnded:
		r.handleCallEnded(ctx, callID, entry)

	case voice.EventSpeechStarted, voice.EventSpeechEnded:
		r.broadcast(ctx, entry.Room, ev.Type, speakerRef{
			Speaker: voice.MapSpeaker(ev.Role),
		})

	default:
		log.Debug("ignoring webhook event", "type", ev.Type, "call_id", callID)
	}
}

func (r *Relay) handleTranscript(ctx context.Context, callID string, entry *Entry, ev voice.Event) {
	log := logger.From(ctx)

	if ev.Transcript == nil {
		log.Warn("transcript event without transcript body", "call_id", callID)
		return
	}

	ts := r.now().UTC()
	if r.trustTime && ev.Transcript.Timestamp != nil {
		ts = ev.Transcript.Timestamp.UTC()
	}

	e := interview.TranscriptEntry{
		Speaker:   interview.Speaker(voice.MapSpeaker(ev.Transcript.Role)),
		Text:      ev.Transcript.Text,
		Timestamp: ts,
	}

	if r.store == nil {
		log.Error("transcript dropped, store not available", "call_id", callID)
		return
	}
	if err := r.store.AppendTranscript(ctx, entry.RecordID, e); err != nil {
		// Still acknowledge the provider; a retry would double-append.
		log.Error("transcript append failed", "call_id", callID, "err", err)
		return
	}

	r.broadcast(ctx, entry.Room, "transcript-update", e)
}

func (r *Relay) handleCallEnded(ctx context.Context, callID string, entry *Entry) {
	log := logger.From(ctx)

	if r.store == nil {
		log.Error("call-ended dropped, store not available", "call_id", callID)
		return
	}
	if _, err := r.store.Complete(ctx, entry.RecordID, r.now().UTC(), completedSummary); err != nil {
		log.Error("record completion failed", "call_id", callID, "err", err)
		return
	}

	r.directory.Remove(callID)
	if r.limiter != nil {
		if err := r.limiter.Release(ctx); err != nil {
			log.Warn("call slot release failed", "err", err)
		}
	}
	if r.audits != nil {
		_ = r.audits.LogInterviewEnded(ctx, callID, entry.RecordID, "webhook")
	}
	r.broadcast(ctx, entry.Room, voice.EventCallEnded, callRef{CallID: callID})
}

func (r *Relay) broadcast(ctx context.Context, room, event string, data any) {
	if err := r.broadcaster.Broadcast(ctx, room, event, data); err != nil {
		logger.From(ctx).Error("broadcast failed", "room", room, "event", event, "err", err)
	}
}

type callRef struct {
	CallID string `json:"callId"`
}

type speakerRef struct {
	Speaker string `json:"speaker"`
}
