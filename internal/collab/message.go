package collab

import (
	"encoding/json"
	"time"
)

// Frame types exchanged over a room websocket.
const (
	// Client -> Server
	MsgTypeUpdate    = "update"
	MsgTypeAwareness = "awareness"
	MsgTypeChat      = "chat"
	MsgTypePing      = "ping"

	// Server -> Client
	MsgTypeSync            = "sync"
	MsgTypePong            = "pong"
	MsgTypeError           = "error"
	MsgTypeParticipantJoin = "participant_joined"
	MsgTypeParticipantLeft = "participant_left"
)

// Error codes carried in error frames.
const (
	CodeRoomFull        = "ROOM_FULL"
	CodeInvalidType     = "INVALID_TYPE"
	CodeInvalidPayload  = "INVALID_PAYLOAD"
	CodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	CodeSlowConsumer    = "SLOW_CONSUMER"
)

// Message is the envelope for every websocket frame. Payload stays opaque at
// this level; each frame type decodes it into its own payload struct.
type Message struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// UpdatePayload carries one opaque document update. The server never
// interprets updates; merging is the client's concern.
type UpdatePayload struct {
	Update []byte `json:"update"`
}

// SyncPayload replays the room's full update log to a joining participant,
// together with who is present at the moment of joining.
type SyncPayload struct {
	Seq          int               `json:"seq"`
	Updates      [][]byte          `json:"updates"`
	Participants []ParticipantInfo `json:"participants"`
}

// ParticipantInfo identifies one room member in a sync snapshot.
type ParticipantInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AwarenessPayload relays ephemeral presence state (cursor, selection). It is
// forwarded as-is and never stored.
type AwarenessPayload struct {
	State json.RawMessage `json:"state"`
}

// ChatPayload carries a room chat line.
type ChatPayload struct {
	Body string `json:"body"`
}

// ParticipantPayload announces membership changes.
type ParticipantPayload struct {
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name"`
	Count         int    `json:"count"`
}

// ErrorPayload is the body of an error frame.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newMessage(msgType, id string, payload any) Message {
	return Message{
		Type:      msgType,
		ID:        id,
		Payload:   mustJSON(payload),
		Timestamp: time.Now().UnixMilli(),
	}
}

func errorMessage(code, message string) Message {
	return newMessage(MsgTypeError, "", ErrorPayload{Code: code, Message: message})
}

func mustJSON(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return b
}
