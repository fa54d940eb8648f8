package collab

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appforge/internal/config"
)

func testConfig() config.CollabConfig {
	return config.CollabConfig{
		RoomIdleTTLSec:   300,
		SweepIntervalSec: 60,
		MaxParticipants:  32,
	}
}

// drain empties a participant's outbound queue and returns the frames.
func drain(p *Participant) []Message {
	var msgs []Message
	for {
		select {
		case msg, ok := <-p.out:
			if !ok {
				return msgs
			}
			msgs = append(msgs, msg)
		default:
			return msgs
		}
	}
}

func decodeSync(t *testing.T, msg Message) SyncPayload {
	t.Helper()
	require.Equal(t, MsgTypeSync, msg.Type)
	var payload SyncPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	return payload
}

func TestRegistry_Room_LazyCreate(t *testing.T) {
	reg := NewRegistry(testConfig())

	_, err := reg.Get("doc-1")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	room := reg.Room("doc-1")
	require.NotNil(t, room)

	again := reg.Room("doc-1")
	assert.Same(t, room, again)

	got, err := reg.Get("doc-1")
	require.NoError(t, err)
	assert.Same(t, room, got)
}

func TestRoom_JoinReceivesSnapshotBeforeRelays(t *testing.T) {
	reg := NewRegistry(testConfig())
	room := reg.Room("doc-1")

	alice := newParticipant("alice", "Alice")
	require.NoError(t, room.Join(alice))
	drain(alice)

	room.AppendUpdate(alice, []byte("u1"))
	room.AppendUpdate(alice, []byte("u2"))

	bob := newParticipant("bob", "Bob")
	require.NoError(t, room.Join(bob))

	msgs := drain(bob)
	require.NotEmpty(t, msgs)

	sync := decodeSync(t, msgs[0])
	assert.Equal(t, 2, sync.Seq)
	require.Len(t, sync.Updates, 2)
	assert.Equal(t, []byte("u1"), sync.Updates[0])
	assert.Equal(t, []byte("u2"), sync.Updates[1])

	// The snapshot also tells the joiner who is present.
	require.Len(t, sync.Participants, 2)
	assert.Equal(t, ParticipantInfo{ID: "alice", Name: "Alice"}, sync.Participants[0])
	assert.Equal(t, ParticipantInfo{ID: "bob", Name: "Bob"}, sync.Participants[1])
}

func TestRoom_UpdatesRelayedInOrderWithoutSelfEcho(t *testing.T) {
	reg := NewRegistry(testConfig())
	room := reg.Room("doc-1")

	alice := newParticipant("alice", "Alice")
	bob := newParticipant("bob", "Bob")
	require.NoError(t, room.Join(alice))
	require.NoError(t, room.Join(bob))
	drain(alice)
	drain(bob)

	room.AppendUpdate(alice, []byte("u1"))
	room.AppendUpdate(alice, []byte("u2"))
	room.AppendUpdate(bob, []byte("u3"))

	bobMsgs := drain(bob)
	require.Len(t, bobMsgs, 2)
	for i, want := range [][]byte{[]byte("u1"), []byte("u2")} {
		var payload UpdatePayload
		require.Equal(t, MsgTypeUpdate, bobMsgs[i].Type)
		require.NoError(t, json.Unmarshal(bobMsgs[i].Payload, &payload))
		assert.Equal(t, want, payload.Update)
	}

	// Alice sees only bob's update, never her own.
	aliceMsgs := drain(alice)
	require.Len(t, aliceMsgs, 1)
	var payload UpdatePayload
	require.NoError(t, json.Unmarshal(aliceMsgs[0].Payload, &payload))
	assert.Equal(t, []byte("u3"), payload.Update)
}

func TestRoom_JoinAndLeaveAnnounced(t *testing.T) {
	reg := NewRegistry(testConfig())
	room := reg.Room("doc-1")

	alice := newParticipant("alice", "Alice")
	require.NoError(t, room.Join(alice))
	drain(alice)

	bob := newParticipant("bob", "Bob")
	require.NoError(t, room.Join(bob))

	msgs := drain(alice)
	require.Len(t, msgs, 1)
	assert.Equal(t, MsgTypeParticipantJoin, msgs[0].Type)
	var joined ParticipantPayload
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &joined))
	assert.Equal(t, "bob", joined.ParticipantID)
	assert.Equal(t, 2, joined.Count)

	room.Leave(bob)
	msgs = drain(alice)
	require.Len(t, msgs, 1)
	assert.Equal(t, MsgTypeParticipantLeft, msgs[0].Type)
	var left ParticipantPayload
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &left))
	assert.Equal(t, 1, left.Count)

	// Leaving twice is a no-op.
	room.Leave(bob)
	assert.Empty(t, drain(alice))
}

func TestRoom_JoinRejectedWhenFull(t *testing.T) {
	cfg := testConfig()
	cfg.MaxParticipants = 2
	reg := NewRegistry(cfg)
	room := reg.Room("doc-1")

	require.NoError(t, room.Join(newParticipant("p1", "P1")))
	require.NoError(t, room.Join(newParticipant("p2", "P2")))

	err := room.Join(newParticipant("p3", "P3"))
	assert.ErrorIs(t, err, ErrRoomFull)
	assert.Equal(t, 2, room.Info().Participants)
}

func TestRoom_SlowConsumerDropped(t *testing.T) {
	reg := NewRegistry(testConfig())
	room := reg.Room("doc-1")

	alice := newParticipant("alice", "Alice")
	slow := newParticipant("slow", "Slow")
	require.NoError(t, room.Join(alice))
	require.NoError(t, room.Join(slow))
	drain(alice)
	drain(slow)

	// Fill the slow participant's buffer, then overflow it by one.
	for i := 0; i <= outboundBuffer; i++ {
		room.AppendUpdate(alice, []byte("u"))
	}

	info := room.Info()
	assert.Equal(t, 1, info.Participants)

	// The dropped participant's channel is closed and the eviction is marked
	// so the connection can report it before closing.
	msgs := drain(slow)
	assert.Len(t, msgs, outboundBuffer)
	_, open := <-slow.out
	assert.False(t, open)
	assert.True(t, slow.Dropped())
	assert.False(t, alice.Dropped())
}

func TestRoom_AwarenessRelayedNotStored(t *testing.T) {
	reg := NewRegistry(testConfig())
	room := reg.Room("doc-1")

	alice := newParticipant("alice", "Alice")
	bob := newParticipant("bob", "Bob")
	require.NoError(t, room.Join(alice))
	require.NoError(t, room.Join(bob))
	drain(alice)
	drain(bob)

	room.Relay(alice, newMessage(MsgTypeAwareness, alice.ID, AwarenessPayload{State: []byte(`{"cursor":5}`)}))

	msgs := drain(bob)
	require.Len(t, msgs, 1)
	assert.Equal(t, MsgTypeAwareness, msgs[0].Type)
	assert.Zero(t, room.Info().Updates)
	assert.Empty(t, drain(alice))
}

func TestRegistry_CollectIdle(t *testing.T) {
	cfg := testConfig()
	cfg.RoomIdleTTLSec = 1
	reg := NewRegistry(cfg)

	idle := reg.Room("idle-room")
	idle.mu.Lock()
	idle.lastActive = time.Now().Add(-time.Minute)
	idle.mu.Unlock()

	occupied := reg.Room("occupied-room")
	require.NoError(t, occupied.Join(newParticipant("p1", "P1")))
	occupied.mu.Lock()
	occupied.lastActive = time.Now().Add(-time.Minute)
	occupied.mu.Unlock()

	fresh := reg.Room("fresh-room")
	_ = fresh

	collected := reg.CollectIdle()
	assert.Equal(t, 1, collected)

	_, err := reg.Get("idle-room")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	// Occupied rooms survive regardless of age.
	_, err = reg.Get("occupied-room")
	assert.NoError(t, err)
	_, err = reg.Get("fresh-room")
	assert.NoError(t, err)
}

func TestRegistry_JoinAtomicWithCollector(t *testing.T) {
	cfg := testConfig()
	cfg.RoomIdleTTLSec = 1
	reg := NewRegistry(cfg)

	// A stale lookup raced by the collector must not leave a joiner in a room
	// the registry no longer tracks.
	stale := reg.Room("doc-1")
	stale.mu.Lock()
	stale.lastActive = time.Now().Add(-time.Minute)
	stale.mu.Unlock()
	require.Equal(t, 1, reg.CollectIdle())

	alice := newParticipant("alice", "Alice")
	room, err := reg.Join("doc-1", alice)
	require.NoError(t, err)

	got, err := reg.Get("doc-1")
	require.NoError(t, err)
	assert.Same(t, room, got)

	// A second joiner lands in the same room and sees alice's updates.
	bob := newParticipant("bob", "Bob")
	room2, err := reg.Join("doc-1", bob)
	require.NoError(t, err)
	assert.Same(t, room, room2)
	drain(alice)
	drain(bob)

	room.AppendUpdate(alice, []byte("u1"))
	msgs := drain(bob)
	require.Len(t, msgs, 1)
	assert.Equal(t, MsgTypeUpdate, msgs[0].Type)
}

func TestRegistry_JoinRejectedWhenFull(t *testing.T) {
	cfg := testConfig()
	cfg.MaxParticipants = 1
	reg := NewRegistry(cfg)

	_, err := reg.Join("doc-1", newParticipant("p1", "P1"))
	require.NoError(t, err)

	room, err := reg.Join("doc-1", newParticipant("p2", "P2"))
	assert.ErrorIs(t, err, ErrRoomFull)
	assert.Nil(t, room)
}

func TestRegistry_ListOrderedByID(t *testing.T) {
	reg := NewRegistry(testConfig())
	reg.Room("charlie")
	reg.Room("alpha")
	reg.Room("bravo")

	infos := reg.List()
	require.Len(t, infos, 3)
	assert.Equal(t, "alpha", infos[0].ID)
	assert.Equal(t, "bravo", infos[1].ID)
	assert.Equal(t, "charlie", infos[2].ID)
}
