package interview

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-recruiter/internal/voice"
)

type fakeProvider struct {
	callID   string
	startErr error
	endErr   error

	started []voice.StartCallRequest
	ended   []string
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) StartCall(_ context.Context, req voice.StartCallRequest) (voice.StartCallResult, error) {
	p.started = append(p.started, req)
	if p.startErr != nil {
		return voice.StartCallResult{}, p.startErr
	}
	return voice.StartCallResult{ProviderCallID: p.callID}, nil
}

func (p *fakeProvider) EndCall(_ context.Context, callID string) error {
	p.ended = append(p.ended, callID)
	return p.endErr
}

type fakeRegistry struct {
	registered map[string]string
	removed    []string
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{registered: map[string]string{}}
}

func (r *fakeRegistry) Register(callID, recordID string) { r.registered[callID] = recordID }
func (r *fakeRegistry) Remove(callID string)             { r.removed = append(r.removed, callID) }

type fakeBroadcaster struct {
	events []broadcastCall
}

type broadcastCall struct {
	Room  string
	Event string
	Data  any
}

func (b *fakeBroadcaster) Broadcast(_ context.Context, room, event string, data any) error {
	b.events = append(b.events, broadcastCall{Room: room, Event: event, Data: data})
	return nil
}

type fakeLimiter struct {
	allow    bool
	acquired int
	released int
}

func (l *fakeLimiter) Acquire(context.Context) (bool, error) {
	l.acquired++
	return l.allow, nil
}

func (l *fakeLimiter) Release(context.Context) error {
	l.released++
	return nil
}

func newTestService(store Store, p voice.Provider) (*Service, *fakeRegistry, *fakeBroadcaster) {
	reg := newFakeRegistry()
	bc := &fakeBroadcaster{}
	svc := NewService(store, p, reg, bc, nil, nil)
	return svc, reg, bc
}

func TestStart_Success(t *testing.T) {
	store := NewMemoryStore()
	provider := &fakeProvider{callID: "call_123"}
	svc, reg, _ := newTestService(store, provider)

	res, err := svc.Start(context.Background(), "Alice", "+15551234567", "Backend Developer")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.CallID != "call_123" || res.RecordID == "" {
		t.Fatalf("unexpected result: %+v", res)
	}

	rec, err := store.Get(context.Background(), res.RecordID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if rec.Status != StatusActive {
		t.Fatalf("expected active, got %q", rec.Status)
	}
	if rec.CallID != "call_123" {
		t.Fatalf("expected call id assigned, got %q", rec.CallID)
	}
	if reg.registered["call_123"] != res.RecordID {
		t.Fatalf("expected directory registration")
	}
	if len(provider.started) != 1 || provider.started[0].CandidatePhone != "+15551234567" {
		t.Fatalf("unexpected provider request: %+v", provider.started)
	}
}

func TestStart_ProviderFailureLeavesStartingRecord(t *testing.T) {
	store := NewMemoryStore()
	provider := &fakeProvider{startErr: errors.New("provider down")}
	svc, reg, _ := newTestService(store, provider)

	res, err := svc.Start(context.Background(), "Bob", "+15550000000", "QA Engineer")
	if err == nil {
		t.Fatalf("expected error")
	}
	if res.RecordID == "" {
		t.Fatalf("expected record id even on failure")
	}

	rec, err := store.Get(context.Background(), res.RecordID)
	if err != nil {
		t.Fatalf("record should exist: %v", err)
	}
	if rec.Status != StatusStarting {
		t.Fatalf("record should stay in starting, got %q", rec.Status)
	}
	if rec.CallID != "" {
		t.Fatalf("no call id should be assigned")
	}
	if len(reg.registered) != 0 {
		t.Fatalf("nothing should be registered")
	}
}

func TestStart_ValidatesInput(t *testing.T) {
	svc, _, _ := newTestService(NewMemoryStore(), &fakeProvider{callID: "c"})
	if _, err := svc.Start(context.Background(), "", "+1555", "QA"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestStart_StoreUnavailable(t *testing.T) {
	svc, _, _ := newTestService(nil, &fakeProvider{callID: "c"})
	if _, err := svc.Start(context.Background(), "A", "+1555", "QA"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestStart_LimiterRejects(t *testing.T) {
	store := NewMemoryStore()
	provider := &fakeProvider{callID: "call_1"}
	lim := &fakeLimiter{allow: false}
	svc := NewService(store, provider, newFakeRegistry(), &fakeBroadcaster{}, lim, nil)

	_, err := svc.Start(context.Background(), "A", "+1555", "QA")
	if !errors.Is(err, ErrTooManyCalls) {
		t.Fatalf("expected ErrTooManyCalls, got %v", err)
	}
	if len(provider.started) != 0 {
		t.Fatalf("provider should not be called")
	}
}

func TestStart_LimiterReleasedOnProviderFailure(t *testing.T) {
	store := NewMemoryStore()
	provider := &fakeProvider{startErr: errors.New("boom")}
	lim := &fakeLimiter{allow: true}
	svc := NewService(store, provider, newFakeRegistry(), &fakeBroadcaster{}, lim, nil)

	if _, err := svc.Start(context.Background(), "A", "+1555", "QA"); err == nil {
		t.Fatalf("expected error")
	}
	if lim.acquired != 1 || lim.released != 1 {
		t.Fatalf("slot should be acquired and released, got %d/%d", lim.acquired, lim.released)
	}
}

func TestEnd_CompletesRecordAndBroadcasts(t *testing.T) {
	store := NewMemoryStore()
	provider := &fakeProvider{callID: "call_9"}
	svc, reg, bc := newTestService(store, provider)

	res, err := svc.Start(context.Background(), "Carol", "+1555", "SRE")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if err := svc.End(context.Background(), "call_9"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	rec, _ := store.Get(context.Background(), res.RecordID)
	if rec.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q", rec.Status)
	}
	if rec.EndTime == nil {
		t.Fatalf("expected end time set")
	}
	if len(reg.removed) != 1 || reg.removed[0] != "call_9" {
		t.Fatalf("directory entry should be removed")
	}

	last := bc.events[len(bc.events)-1]
	if last.Room != "call_9" || last.Event != "call-ended" {
		t.Fatalf("unexpected broadcast: %+v", last)
	}
}

func TestEnd_UnknownCallDoesNotFail(t *testing.T) {
	svc, _, bc := newTestService(NewMemoryStore(), &fakeProvider{})

	if err := svc.End(context.Background(), "nope"); err != nil {
		t.Fatalf("end of unknown call should not fail: %v", err)
	}
	if len(bc.events) != 1 || bc.events[0].Event != "call-ended" {
		t.Fatalf("end notification should still be broadcast")
	}
}

func TestEnd_ProviderFailureSurfaces(t *testing.T) {
	svc, reg, _ := newTestService(NewMemoryStore(), &fakeProvider{endErr: errors.New("no")})

	if err := svc.End(context.Background(), "call_1"); err == nil {
		t.Fatalf("expected error")
	}
	if len(reg.removed) != 0 {
		t.Fatalf("no cleanup should run on provider failure")
	}
}

func TestCallStatus_DefaultsForUnknownCall(t *testing.T) {
	svc, _, _ := newTestService(NewMemoryStore(), &fakeProvider{})

	info, err := svc.CallStatus(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if info.Status != "unknown" || info.Duration != 0 {
		t.Fatalf("unexpected defaults: %+v", info)
	}
	if info.Transcript == nil || len(info.Transcript) != 0 {
		t.Fatalf("expected empty transcript slice")
	}
}

func TestCallStatus_ReturnsRecordView(t *testing.T) {
	store := NewMemoryStore()
	provider := &fakeProvider{callID: "call_5"}
	svc, _, _ := newTestService(store, provider)

	res, err := svc.Start(context.Background(), "Dave", "+1555", "Data Engineer")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	entry := TranscriptEntry{Speaker: SpeakerAI, Text: "Hi Dave", Timestamp: time.Now().UTC()}
	if err := store.AppendTranscript(context.Background(), res.RecordID, entry); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	info, err := svc.CallStatus(context.Background(), "call_5")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if info.Status != string(StatusActive) {
		t.Fatalf("expected active, got %q", info.Status)
	}
	if len(info.Transcript) != 1 || info.Transcript[0].Text != "Hi Dave" {
		t.Fatalf("unexpected transcript: %+v", info.Transcript)
	}
}

func TestList_NewestFirstWithoutTranscript(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		rec := Record{
			ID:        id,
			Status:    StatusActive,
			StartTime: base.Add(time.Duration(i) * time.Hour),
			Transcript: []TranscriptEntry{
				{Speaker: SpeakerAI, Text: "x", Timestamp: base},
			},
		}
		if err := store.Create(context.Background(), rec); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}

	svc, _, _ := newTestService(store, &fakeProvider{})
	out, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 records, got %d", len(out))
	}
	if out[0].ID != "c" || out[2].ID != "a" {
		t.Fatalf("expected newest-first order, got %v %v %v", out[0].ID, out[1].ID, out[2].ID)
	}
	for _, rec := range out {
		if rec.Transcript != nil {
			t.Fatalf("transcript should be omitted from list view")
		}
	}
}
