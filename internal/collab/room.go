package collab

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrRoomFull is returned when a join would exceed the participant limit.
var ErrRoomFull = errors.New("room is full")

// Room holds the shared state for one collaborative document: the opaque
// update log and the set of connected participants. A single mutex guards
// both so that the snapshot a joiner receives and the relay order every
// participant observes are consistent.
type Room struct {
	ID string

	mu           sync.Mutex
	participants map[string]*Participant
	updates      [][]byte
	seq          int
	lastActive   time.Time
	maxPeers     int
}

// RoomInfo is a point-in-time snapshot used by the HTTP listing endpoints.
type RoomInfo struct {
	ID           string    `json:"id"`
	Participants int       `json:"participants"`
	Updates      int       `json:"updates"`
	LastActive   time.Time `json:"last_active"`
}

func newRoom(id string, maxPeers int) *Room {
	return &Room{
		ID:           id,
		participants: make(map[string]*Participant),
		lastActive:   time.Now(),
		maxPeers:     maxPeers,
	}
}

// Join registers the participant and enqueues the sync frame carrying the
// full update log and the member list before any later relay can be
// delivered, so the joiner never observes an update out of order relative to
// its snapshot.
func (r *Room) Join(p *Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.maxPeers > 0 && len(r.participants) >= r.maxPeers {
		return ErrRoomFull
	}

	updates := make([][]byte, len(r.updates))
	copy(updates, r.updates)

	members := make([]ParticipantInfo, 0, len(r.participants)+1)
	for _, member := range r.participants {
		members = append(members, ParticipantInfo{ID: member.ID, Name: member.Name})
	}
	members = append(members, ParticipantInfo{ID: p.ID, Name: p.Name})
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })

	p.send(newMessage(MsgTypeSync, r.ID, SyncPayload{Seq: r.seq, Updates: updates, Participants: members}))

	r.participants[p.ID] = p
	r.lastActive = time.Now()

	r.relayLocked(p, newMessage(MsgTypeParticipantJoin, r.ID, ParticipantPayload{
		ParticipantID: p.ID,
		Name:          p.Name,
		Count:         len(r.participants),
	}))
	return nil
}

// Leave removes the participant and announces the departure to the rest of
// the room. Leaving twice is harmless.
func (r *Room) Leave(p *Participant) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.participants[p.ID]; !ok {
		return
	}
	delete(r.participants, p.ID)
	p.close()
	r.lastActive = time.Now()

	r.relayLocked(p, newMessage(MsgTypeParticipantLeft, r.ID, ParticipantPayload{
		ParticipantID: p.ID,
		Name:          p.Name,
		Count:         len(r.participants),
	}))
}

// AppendUpdate stores an opaque update in the room log and relays it to every
// participant except the sender. Append and relay happen under one lock hold,
// so all participants observe updates in the same order.
func (r *Room) AppendUpdate(from *Participant, update []byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.updates = append(r.updates, update)
	r.seq++
	r.lastActive = time.Now()

	r.relayLocked(from, newMessage(MsgTypeUpdate, r.ID, UpdatePayload{Update: update}))
	return r.seq
}

// Relay forwards an ephemeral frame (awareness, chat) to every participant
// except the sender without touching the update log.
func (r *Room) Relay(from *Participant, msg Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActive = time.Now()
	r.relayLocked(from, msg)
}

// relayLocked delivers msg to everyone but from. Participants whose outbound
// buffer is full are dropped from the room as slow consumers. Caller holds r.mu.
func (r *Room) relayLocked(from *Participant, msg Message) {
	var slow []*Participant
	for _, p := range r.participants {
		if from != nil && p.ID == from.ID {
			continue
		}
		if !p.send(msg) {
			slow = append(slow, p)
		}
	}
	for _, p := range slow {
		delete(r.participants, p.ID)
		p.markDropped()
		p.close()
	}
}

// Info returns a consistent snapshot of the room counters.
func (r *Room) Info() RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	return RoomInfo{
		ID:           r.ID,
		Participants: len(r.participants),
		Updates:      len(r.updates),
		LastActive:   r.lastActive,
	}
}

// idle reports whether the room is empty and untouched since the cutoff.
func (r *Room) idle(cutoff time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.participants) == 0 && r.lastActive.Before(cutoff)
}
