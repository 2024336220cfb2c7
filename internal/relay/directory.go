package relay

import "sync"

// Directory correlates provider call ids with local record ids and broadcast
// rooms for the lifetime of a call.
//
// It is an explicit injected service, created at process start and cleared at
// shutdown. Entries are registered when the provider accepts a call and
// removed when the call ends; nothing expires them otherwise, so an entry for
// a call whose terminating event never arrives lives until shutdown. That is
// an accepted limitation, not an eviction policy.
type Directory struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// Entry maps one provider call id to its owning record and room.
//
// The per-entry mutex serializes the relay's store-append + broadcast pair
// for a single call, so two webhook deliveries for the same call cannot
// interleave even under parallel handlers. Different calls proceed
// independently.
type Entry struct {
	RecordID string

	// Room is the broadcast room name; by convention it equals the provider
	// call id.
	Room string

	mu sync.Mutex
}

// Lock serializes relay processing for this call.
func (e *Entry) Lock() { e.mu.Lock() }

func (e *Entry) Unlock() { e.mu.Unlock() }

func NewDirectory() *Directory {
	return &Directory{entries: map[string]*Entry{}}
}

func (d *Directory) Register(providerCallID, recordID string) {
	if providerCallID == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[providerCallID] = &Entry{
		RecordID: recordID,
		Room:     providerCallID,
	}
}

func (d *Directory) Lookup(providerCallID string) (*Entry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.entries[providerCallID]
	return e, ok
}

func (d *Directory) Remove(providerCallID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.entries, providerCallID)
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

// Clear drops all entries. Called on shutdown.
func (d *Directory) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = map[string]*Entry{}
}
