package collab

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"appforge/internal/config"
)

// ErrRoomNotFound is returned when looking up a room that was never created
// or has been garbage collected.
var ErrRoomNotFound = errors.New("room not found")

// Registry owns the set of live rooms. Rooms are created lazily on first
// join and garbage collected once idle past the configured TTL. Occupied
// rooms are never collected.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	cfg   config.CollabConfig
}

// NewRegistry constructs an empty room registry.
func NewRegistry(cfg config.CollabConfig) *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		cfg:   cfg,
	}
}

// Room returns the room for the given ID, creating it if needed.
func (reg *Registry) Room(id string) *Room {
	reg.mu.RLock()
	room, ok := reg.rooms[id]
	reg.mu.RUnlock()
	if ok {
		return room
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if room, ok := reg.rooms[id]; ok {
		return room
	}
	room = newRoom(id, reg.cfg.MaxParticipants)
	reg.rooms[id] = room
	return room
}

// Join atomically resolves (or creates) the room for the given ID and joins
// the participant while the registry lock is held, so the idle collector can
// never remove the room between lookup and join.
func (reg *Registry) Join(id string, p *Participant) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[id]
	if !ok {
		room = newRoom(id, reg.cfg.MaxParticipants)
		reg.rooms[id] = room
	}
	if err := room.Join(p); err != nil {
		return nil, err
	}
	return room, nil
}

// Get returns an existing room without creating one.
func (reg *Registry) Get(id string) (*Room, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	room, ok := reg.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// List returns snapshots of all live rooms ordered by ID.
func (reg *Registry) List() []RoomInfo {
	reg.mu.RLock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		rooms = append(rooms, room)
	}
	reg.mu.RUnlock()

	infos := make([]RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		infos = append(infos, room.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// CollectIdle removes rooms that are empty and idle past the TTL. It returns
// how many rooms were collected.
func (reg *Registry) CollectIdle() int {
	ttl := time.Duration(reg.cfg.RoomIdleTTLSec) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	cutoff := time.Now().Add(-ttl)

	reg.mu.Lock()
	defer reg.mu.Unlock()

	collected := 0
	for id, room := range reg.rooms {
		if room.idle(cutoff) {
			delete(reg.rooms, id)
			collected++
		}
	}
	return collected
}

// StartGC runs the idle-room collector until the context is cancelled.
func (reg *Registry) StartGC(ctx context.Context) {
	interval := time.Duration(reg.cfg.SweepIntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := reg.CollectIdle(); n > 0 {
				logRoomGC(n)
			}
		}
	}
}

func logRoomGC(n int) {
	b, _ := json.Marshal(map[string]any{
		"ts":        time.Now().UTC().Format(time.RFC3339Nano),
		"level":     "info",
		"component": "collab",
		"event":     "room_gc",
		"collected": n,
	})
	log.SetFlags(0)
	log.Println(string(b))
}
