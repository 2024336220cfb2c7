package realtime

import "context"

// Broadcaster fans an event out to every client watching a room.
//
// Rooms are named after provider call ids. The Hub implements Broadcaster
// for a single-process deployment; the Bridge implements it on top of Redis
// pub/sub so broadcasts reach clients attached to any API instance.
type Broadcaster interface {
	Broadcast(ctx context.Context, room, event string, data any) error
}

var (
	_ Broadcaster = (*Hub)(nil)
	_ Broadcaster = (*Bridge)(nil)
)
