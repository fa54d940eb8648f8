package collab

import (
	"sync"
	"sync/atomic"
)

// outboundBuffer is the per-participant send queue depth. A participant whose
// queue fills up is treated as a slow consumer and disconnected rather than
// allowed to stall the room.
const outboundBuffer = 64

// Participant is one websocket connection inside a room. All frames destined
// for the connection flow through the outbound channel so the room can fan
// out without blocking on any single socket.
type Participant struct {
	ID   string
	Name string

	out     chan Message
	once    sync.Once
	dropped atomic.Bool
}

func newParticipant(id, name string) *Participant {
	return &Participant{
		ID:   id,
		Name: name,
		out:  make(chan Message, outboundBuffer),
	}
}

// Outbound returns the channel the connection writer drains. The channel is
// closed when the participant leaves or is dropped as a slow consumer.
func (p *Participant) Outbound() <-chan Message {
	return p.out
}

// send enqueues a frame without blocking. It reports false when the buffer is
// full, which marks the participant for disconnection.
func (p *Participant) send(msg Message) bool {
	select {
	case p.out <- msg:
		return true
	default:
		return false
	}
}

// markDropped records that the room evicted this participant as a slow
// consumer, so the connection can report the reason before closing.
func (p *Participant) markDropped() {
	p.dropped.Store(true)
}

// Dropped reports whether the participant was evicted as a slow consumer.
func (p *Participant) Dropped() bool {
	return p.dropped.Load()
}

func (p *Participant) close() {
	p.once.Do(func() {
		close(p.out)
	})
}
