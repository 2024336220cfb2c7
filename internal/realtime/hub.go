package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Hub groups WebSocket clients into rooms keyed by provider call id and
// delivers broadcast frames to every member of a room.
//
// Membership is mutated from connection read loops and broadcasts arrive
// from webhook handlers, so everything is guarded by a single RWMutex.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
	log   *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		rooms: map[string]map[*Client]struct{}{},
		log:   log,
	}
}

// frame is the wire format for both directions of the WebSocket.
type frame struct {
	Event  string          `json:"event"`
	CallID string          `json:"callId,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Broadcast sends one event to every client in the room. Clients whose send
// buffer is full are dropped rather than allowed to stall the rest.
func (h *Hub) Broadcast(_ context.Context, room, event string, data any) error {
	raw, err := marshalData(data)
	if err != nil {
		return fmt.Errorf("realtime: encode %s payload: %w", event, err)
	}
	msg, err := json.Marshal(frame{Event: event, Data: raw})
	if err != nil {
		return fmt.Errorf("realtime: encode frame: %w", err)
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	for _, c := range members {
		select {
		case c.send <- msg:
		default:
			h.log.Warn("dropping slow realtime client", "room", room)
			h.detach(c)
			c.closeSend()
		}
	}
	return nil
}

// RoomSize reports the number of clients currently joined to a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) join(room string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = map[*Client]struct{}{}
	}
	h.rooms[room][c] = struct{}{}
}

func (h *Hub) detach(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room, members := range h.rooms {
		if _, ok := members[c]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
}

func marshalData(data any) (json.RawMessage, error) {
	if data == nil {
		return nil, nil
	}
	if raw, ok := data.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(data)
}
