package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// bridgeChannel is the single pub/sub channel shared by all API instances.
// The room travels inside the envelope, so no pattern subscription is needed.
const bridgeChannel = "realtime:events"

// Bridge is a Broadcaster that routes events through Redis pub/sub.
//
// Broadcast publishes to Redis; Run subscribes and feeds delivered envelopes
// into the local hub. With every instance doing both, a webhook handled by
// one instance reaches clients attached to any of them.
type Bridge struct {
	rdb *redis.Client
	hub *Hub
	log *slog.Logger
}

func NewBridge(rdb *redis.Client, hub *Hub, log *slog.Logger) *Bridge {
	if log == nil {
		log = slog.Default()
	}
	return &Bridge{rdb: rdb, hub: hub, log: log}
}

type bridgeEnvelope struct {
	Room  string          `json:"room"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func (b *Bridge) Broadcast(ctx context.Context, room, event string, data any) error {
	raw, err := marshalData(data)
	if err != nil {
		return fmt.Errorf("realtime: encode %s payload: %w", event, err)
	}
	payload, err := json.Marshal(bridgeEnvelope{Room: room, Event: event, Data: raw})
	if err != nil {
		return fmt.Errorf("realtime: encode envelope: %w", err)
	}
	if err := b.rdb.Publish(ctx, bridgeChannel, payload).Err(); err != nil {
		return fmt.Errorf("realtime: publish: %w", err)
	}
	return nil
}

// Run consumes the pub/sub channel until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	sub := b.rdb.Subscribe(ctx, bridgeChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("realtime: subscription closed")
			}
			var env bridgeEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.log.Warn("discarding malformed realtime envelope", "err", err)
				continue
			}
			if err := b.hub.Broadcast(ctx, env.Room, env.Event, env.Data); err != nil {
				b.log.Warn("local fanout failed", "room", env.Room, "err", err)
			}
		}
	}
}
