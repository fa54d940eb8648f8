package collab

import (
	"encoding/json"
	"errors"

	fws "github.com/fasthttp/websocket"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	maxFrameBytes          = 64 * 1024
	maxDecodeErrorsPerConn = 3
)

// UpgradeRequired rejects plain HTTP requests on the websocket route before
// the upgrade handler runs.
func UpgradeRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// Handler returns the websocket endpoint for a room. The room ID comes from
// the route parameter; a display name may be passed as the name query param.
func Handler(reg *Registry) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		serveConn(reg, conn)
	})
}

func serveConn(reg *Registry, conn *websocket.Conn) {
	defer conn.Close()
	conn.SetReadLimit(maxFrameBytes)

	name := conn.Query("name")
	if name == "" {
		name = "anonymous"
	}

	p := newParticipant(uuid.New().String(), name)

	// Join goes through the registry so room resolution and membership are
	// one atomic step with respect to the idle collector.
	room, err := reg.Join(conn.Params("id"), p)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(CodeRoomFull, "room participant limit reached"))
		return
	}

	// Writer goroutine: the only place that writes relayed frames to the
	// socket. It exits when the outbound channel closes, which happens on
	// leave or when the room drops this participant as a slow consumer.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range p.Outbound() {
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
		if p.Dropped() {
			_ = conn.WriteJSON(errorMessage(CodeSlowConsumer, "outbound queue overflowed"))
			_ = conn.Close()
		}
	}()

	readLoop(room, p, conn)

	room.Leave(p)
	<-done
}

// readFailureFrame maps a read error to the error frame the peer should see
// before the connection policy applies. Oversized frames terminate the
// connection; malformed JSON is tolerated up to maxDecodeErrorsPerConn.
func readFailureFrame(err error) (frame Message, notify, tolerable bool) {
	if errors.Is(err, fws.ErrReadLimit) {
		return errorMessage(CodePayloadTooLarge, "frame exceeds size limit"), true, false
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return errorMessage(CodeInvalidPayload, "invalid frame"), true, true
	}
	return Message{}, false, false
}

func readLoop(room *Room, p *Participant, conn *websocket.Conn) {
	decodeErrors := 0
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			frame, notify, tolerable := readFailureFrame(err)
			if notify {
				p.send(frame)
			}
			if tolerable {
				decodeErrors++
				if decodeErrors < maxDecodeErrorsPerConn {
					continue
				}
			}
			return
		}
		decodeErrors = 0

		switch msg.Type {
		case MsgTypePing:
			p.send(newMessage(MsgTypePong, room.ID, nil))
		case MsgTypeUpdate:
			var payload UpdatePayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil || len(payload.Update) == 0 {
				p.send(errorMessage(CodeInvalidPayload, "update frame requires a non-empty update"))
				continue
			}
			room.AppendUpdate(p, payload.Update)
		case MsgTypeAwareness:
			var payload AwarenessPayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				p.send(errorMessage(CodeInvalidPayload, "invalid awareness frame"))
				continue
			}
			room.Relay(p, newMessage(MsgTypeAwareness, p.ID, payload))
		case MsgTypeChat:
			var payload ChatPayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.Body == "" {
				p.send(errorMessage(CodeInvalidPayload, "chat frame requires a body"))
				continue
			}
			room.Relay(p, newMessage(MsgTypeChat, p.ID, payload))
		default:
			p.send(errorMessage(CodeInvalidType, "unsupported frame type: "+msg.Type))
		}
	}
}
