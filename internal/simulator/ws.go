package simulator

import (
	"encoding/json"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/kbukum/ranchkit/logger"
	"github.com/kbukum/ranchkit/session"
)

type authRequest struct {
	Token string `json:"token"`
}

type subscribeRequest struct {
	Channels []string `json:"channels"`
}

type commandRequest struct {
	BovineID string         `json:"bovine_id"`
	Command  string         `json:"command"`
	Params   map[string]any `json:"params,omitempty"`
}

type liveDataRequest struct {
	DataType string `json:"data_type"`
}

// serveWS runs one WebSocket connection: a writer goroutine drains the
// client's event channel while this goroutine reads requests.
func (s *Simulator) serveWS(ws *websocket.Conn) {
	client := newClient(uuid.New().String())
	if !s.hub.Register(client) {
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for frame := range client.Events() {
			if err := websocket.Message.Send(ws, string(frame)); err != nil {
				return
			}
		}
	}()

	for {
		var frame []byte
		if err := websocket.Message.Receive(ws, &frame); err != nil {
			break
		}
		s.handleFrame(client, frame)
	}

	s.hub.Unregister(client)
	<-done
	if userID := client.UserID(); userID != "" {
		_ = s.Publish("", "USER_OFFLINE", map[string]any{"user_id": userID, "name": client.Name()})
	}
}

func (s *Simulator) handleFrame(client *Client, frame []byte) {
	var msg wireMessage
	if err := json.Unmarshal(frame, &msg); err != nil || msg.Type == "" {
		s.reply(client, "ERROR", map[string]any{"message": "malformed message"})
		return
	}

	switch msg.Type {
	case "PING":
		pong, err := json.Marshal(wireMessage{Type: "PONG", Timestamp: msg.Timestamp})
		if err == nil {
			client.Send(pong)
		}

	case "AUTH":
		var req authRequest
		_ = json.Unmarshal(msg.Data, &req)
		id, err := session.Verify(s.cfg.JWTSecret, req.Token)
		if err != nil {
			s.reply(client, "AUTH_ERROR", map[string]any{"message": err.Error()})
			return
		}
		client.authenticate(id.UserID, id.Name)
		s.reply(client, "AUTH_SUCCESS", map[string]any{"user_id": id.UserID, "name": id.Name})
		_ = s.Publish("", "USER_ONLINE", map[string]any{"user_id": id.UserID, "name": id.Name})

	case "SUBSCRIBE":
		if client.UserID() == "" {
			s.reply(client, "ERROR", map[string]any{"message": "authenticate before subscribing"})
			return
		}
		var req subscribeRequest
		_ = json.Unmarshal(msg.Data, &req)
		client.subscribe(req.Channels...)
		s.reply(client, "SUBSCRIBED", req)

	case "BOVINE_COMMAND":
		var req commandRequest
		_ = json.Unmarshal(msg.Data, &req)
		s.reply(client, "COMMAND_ACK", map[string]any{
			"bovine_id": req.BovineID,
			"command":   req.Command,
			"status":    "accepted",
		})

	case "REQUEST_LIVE_DATA":
		var req liveDataRequest
		_ = json.Unmarshal(msg.Data, &req)
		if !isEventType(req.DataType) {
			s.reply(client, "ERROR", map[string]any{"message": "unknown data type " + req.DataType})
			return
		}
		ev := s.gen.make(req.DataType, s.ranches.ids())
		s.reply(client, ev.msgType, ev.data)

	default:
		s.log.Debug("Unknown client message", logger.Fields(logger.FieldEventType, msg.Type))
		s.reply(client, "ERROR", map[string]any{"message": "unknown message type " + msg.Type})
	}
}

func (s *Simulator) reply(client *Client, msgType string, data any) {
	frame, err := encodeMessage(msgType, data, s.now())
	if err != nil {
		s.log.Warn("Reply not encodable", logger.ErrorFields("reply", err))
		return
	}
	client.Send(frame)
}

func isEventType(t string) bool {
	for _, et := range eventTypes {
		if et == t {
			return true
		}
	}
	return false
}
