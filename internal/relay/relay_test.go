package relay

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-recruiter/internal/audit"
	"ai-recruiter/internal/interview"
	"ai-recruiter/internal/voice"
)

type captureBroadcaster struct {
	events []broadcastCall
}

type broadcastCall struct {
	Room  string
	Event string
	Data  any
}

func (b *captureBroadcaster) Broadcast(_ context.Context, room, event string, data any) error {
	b.events = append(b.events, broadcastCall{Room: room, Event: event, Data: data})
	return nil
}

type failingStore struct {
	interview.Store
}

func (failingStore) AppendTranscript(context.Context, string, interview.TranscriptEntry) error {
	return errors.New("db down")
}

func transcriptEvent(callID, role, text string) voice.Event {
	return voice.Event{
		Type:       voice.EventTranscriptKind,
		Call:       &voice.EventCall{ID: callID},
		Transcript: &voice.EventTranscript{Role: role, Text: text},
	}
}

func newTestRelay(store interview.Store, opts Options) (*Relay, *Directory, *captureBroadcaster) {
	d := NewDirectory()
	bc := &captureBroadcaster{}
	return New(store, d, bc, nil, nil, opts), d, bc
}

func seedActiveCall(t *testing.T, store *interview.MemoryStore, d *Directory, callID, recordID string, start time.Time) {
	t.Helper()
	err := store.Create(context.Background(), interview.Record{
		ID:        recordID,
		CallID:    callID,
		Status:    interview.StatusActive,
		StartTime: start,
	})
	if err != nil {
		t.Fatalf("seed record: %v", err)
	}
	d.Register(callID, recordID)
}

func TestHandle_TranscriptAppendsAndBroadcasts(t *testing.T) {
	store := interview.NewMemoryStore()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	r, d, bc := newTestRelay(store, Options{Now: func() time.Time { return now }})
	seedActiveCall(t, store, d, "call_123", "rec_1", now.Add(-time.Minute))

	r.Handle(context.Background(), transcriptEvent("call_123", "user", "Hello"))
	r.Handle(context.Background(), transcriptEvent("call_123", "assistant", "Hi, tell me about yourself"))

	rec, err := store.Get(context.Background(), "rec_1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(rec.Transcript) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(rec.Transcript))
	}
	if rec.Transcript[0].Speaker != interview.SpeakerHuman || rec.Transcript[0].Text != "Hello" {
		t.Fatalf("unexpected first entry: %+v", rec.Transcript[0])
	}
	if rec.Transcript[1].Speaker != interview.SpeakerAI {
		t.Fatalf("assistant role should map to ai, got %q", rec.Transcript[1].Speaker)
	}
	if !rec.Transcript[0].Timestamp.Equal(now) {
		t.Fatalf("timestamp should be relay receipt time, got %v", rec.Transcript[0].Timestamp)
	}

	if len(bc.events) != 2 {
		t.Fatalf("expected 2 broadcasts, got %d", len(bc.events))
	}
	if bc.events[0].Room != "call_123" || bc.events[0].Event != "transcript-update" {
		t.Fatalf("unexpected broadcast: %+v", bc.events[0])
	}
}

func TestHandle_UnknownCallDroppedSilently(t *testing.T) {
	store := interview.NewMemoryStore()
	r, _, bc := newTestRelay(store, Options{})

	r.Handle(context.Background(), transcriptEvent("call_unknown", "user", "Hello"))

	if len(bc.events) != 0 {
		t.Fatalf("nothing should be broadcast")
	}
}

func TestHandle_MissingCallIDIgnored(t *testing.T) {
	r, _, bc := newTestRelay(interview.NewMemoryStore(), Options{})
	r.Handle(context.Background(), voice.Event{Type: voice.EventTranscriptKind})
	if len(bc.events) != 0 {
		t.Fatalf("nothing should be broadcast")
	}
}

func TestHandle_CallEndedCompletesRecord(t *testing.T) {
	store := interview.NewMemoryStore()
	start := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	end := start.Add(95*time.Second + 500*time.Millisecond)
	r, d, bc := newTestRelay(store, Options{Now: func() time.Time { return end }})
	seedActiveCall(t, store, d, "call_9", "rec_9", start)

	r.Handle(context.Background(), voice.Event{
		Type: voice.EventCallEnded,
		Call: &voice.EventCall{ID: "call_9"},
	})

	rec, _ := store.Get(context.Background(), "rec_9")
	if rec.Status != interview.StatusCompleted {
		t.Fatalf("expected completed, got %q", rec.Status)
	}
	if rec.Duration != 95 {
		t.Fatalf("expected duration 95, got %d", rec.Duration)
	}
	if rec.Summary == "" {
		t.Fatalf("expected placeholder summary")
	}
	if _, ok := d.Lookup("call_9"); ok {
		t.Fatalf("directory entry should be removed")
	}
	last := bc.events[len(bc.events)-1]
	if last.Event != "call-ended" || last.Room != "call_9" {
		t.Fatalf("unexpected broadcast: %+v", last)
	}
}

func TestHandle_ZeroDurationCall(t *testing.T) {
	store := interview.NewMemoryStore()
	at := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	r, d, _ := newTestRelay(store, Options{Now: func() time.Time { return at }})
	seedActiveCall(t, store, d, "call_0", "rec_0", at)

	r.Handle(context.Background(), voice.Event{
		Type: voice.EventCallEnded,
		Call: &voice.EventCall{ID: "call_0"},
	})

	rec, _ := store.Get(context.Background(), "rec_0")
	if rec.Duration != 0 {
		t.Fatalf("expected duration 0, got %d", rec.Duration)
	}
}

func TestHandle_CallStartedAndSpeechEventsBroadcastOnly(t *testing.T) {
	store := interview.NewMemoryStore()
	r, d, bc := newTestRelay(store, Options{})
	seedActiveCall(t, store, d, "call_2", "rec_2", time.Now().UTC())

	r.Handle(context.Background(), voice.Event{Type: voice.EventCallStarted, Call: &voice.EventCall{ID: "call_2"}})
	r.Handle(context.Background(), voice.Event{Type: voice.EventSpeechStarted, Call: &voice.EventCall{ID: "call_2"}, Role: "assistant"})
	r.Handle(context.Background(), voice.Event{Type: voice.EventSpeechEnded, Call: &voice.EventCall{ID: "call_2"}, Role: "user"})

	if len(bc.events) != 3 {
		t.Fatalf("expected 3 broadcasts, got %d", len(bc.events))
	}
	if bc.events[0].Event != "call-started" {
		t.Fatalf("unexpected event: %+v", bc.events[0])
	}
	if got := bc.events[1].Data.(speakerRef); got.Speaker != "ai" {
		t.Fatalf("expected ai speaker, got %+v", got)
	}
	if got := bc.events[2].Data.(speakerRef); got.Speaker != "user" {
		t.Fatalf("expected user speaker, got %+v", got)
	}

	rec, _ := store.Get(context.Background(), "rec_2")
	if len(rec.Transcript) != 0 || rec.Status != interview.StatusActive {
		t.Fatalf("no store mutation expected: %+v", rec)
	}
}

func TestHandle_UnrecognizedKindIgnored(t *testing.T) {
	store := interview.NewMemoryStore()
	r, d, bc := newTestRelay(store, Options{})
	seedActiveCall(t, store, d, "call_3", "rec_3", time.Now().UTC())

	r.Handle(context.Background(), voice.Event{Type: "status-update", Call: &voice.EventCall{ID: "call_3"}})

	if len(bc.events) != 0 {
		t.Fatalf("nothing should be broadcast")
	}
}

func TestHandle_StoreFailureSkipsBroadcast(t *testing.T) {
	d := NewDirectory()
	bc := &captureBroadcaster{}
	r := New(failingStore{}, d, bc, nil, nil, Options{})
	d.Register("call_4", "rec_4")

	r.Handle(context.Background(), transcriptEvent("call_4", "user", "Hello"))

	if len(bc.events) != 0 {
		t.Fatalf("broadcast should be skipped when the store write fails")
	}
}

func TestHandle_TrustProviderTime(t *testing.T) {
	store := interview.NewMemoryStore()
	receipt := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	provided := receipt.Add(-3 * time.Second)
	r, d, _ := newTestRelay(store, Options{
		TrustProviderTime: true,
		Now:               func() time.Time { return receipt },
	})
	seedActiveCall(t, store, d, "call_5", "rec_5", receipt.Add(-time.Minute))

	ev := transcriptEvent("call_5", "user", "Hello")
	ev.Transcript.Timestamp = &provided
	r.Handle(context.Background(), ev)

	rec, _ := store.Get(context.Background(), "rec_5")
	if !rec.Transcript[0].Timestamp.Equal(provided) {
		t.Fatalf("expected provider time, got %v", rec.Transcript[0].Timestamp)
	}
}

func TestHandle_DroppedWebhookAudited(t *testing.T) {
	repo := audit.NewMemoryRepo()
	d := NewDirectory()
	r := New(interview.NewMemoryStore(), d, &captureBroadcaster{}, audit.NewService(repo), nil, Options{})

	r.Handle(context.Background(), transcriptEvent("call_gone", "user", "Hello"))

	evs := repo.Events()
	if len(evs) != 1 || evs[0].Type != audit.EventTypeWebhookDropped {
		t.Fatalf("expected webhook_dropped audit event, got %+v", evs)
	}
}
