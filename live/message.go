package live

import (
	"encoding/json"
	"fmt"
	"time"
)

// Inbound message types handled by the manager.
const (
	TypePong             = "PONG"
	TypeAuthSuccess      = "AUTH_SUCCESS"
	TypeAuthError        = "AUTH_ERROR"
	TypeUserOnline       = "USER_ONLINE"
	TypeUserOffline      = "USER_OFFLINE"
	TypeBovineUpdate     = "BOVINE_UPDATE"
	TypeProductionUpdate = "PRODUCTION_UPDATE"
	TypeLocationUpdate   = "LOCATION_UPDATE"
	TypeHealthAlert      = "HEALTH_ALERT"
	TypeNotification     = "NOTIFICATION"
	TypeSystemMessage    = "SYSTEM_MESSAGE"

	// TypeParseError is delivered to listeners for frames that could not be
	// decoded.
	TypeParseError = "PARSE_ERROR"
)

// Outbound message types.
const (
	TypePing            = "PING"
	TypeAuth            = "AUTH"
	TypeSubscribe       = "SUBSCRIBE"
	TypeBovineCommand   = "BOVINE_COMMAND"
	TypeRequestLiveData = "REQUEST_LIVE_DATA"
)

// Message is one JSON frame.
type Message struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`

	// Raw is the undecoded inbound frame.
	Raw []byte `json:"-"`
	// Err is set on PARSE_ERROR messages.
	Err error `json:"-"`
}

// NewMessage builds a message whose data is v encoded as JSON.
func NewMessage(msgType string, v any) (Message, error) {
	msg := Message{Type: msgType, Timestamp: time.Now().UnixMilli()}
	if v == nil {
		return msg, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return Message{}, fmt.Errorf("live: encode %s data: %w", msgType, err)
	}
	msg.Data = data
	return msg, nil
}

// Decode unmarshals the message data into v.
func (m Message) Decode(v any) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("live: %s message has no data", m.Type)
	}
	return json.Unmarshal(m.Data, v)
}

// Handler receives inbound messages.
type Handler func(msg Message)

// Update is an entry in one of the update rings.
type Update struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Payload    map[string]any `json:"payload"`
	ReceivedAt time.Time      `json:"received_at"`
}

// String reads a string field of the payload.
func (u Update) String(key string) string {
	if v, ok := u.Payload[key]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

// Bool reads a boolean field of the payload.
func (u Update) Bool(key string) bool {
	b, _ := u.Payload[key].(bool)
	return b
}

type authData struct {
	Token    string   `json:"token"`
	UserID   string   `json:"user_id"`
	Name     string   `json:"name,omitempty"`
	Role     string   `json:"role,omitempty"`
	RanchIDs []string `json:"ranch_ids,omitempty"`
}

type subscribeData struct {
	Channels []string `json:"channels"`
}

type bovineCommandData struct {
	BovineID string         `json:"bovine_id"`
	Command  string         `json:"command"`
	Params   map[string]any `json:"params,omitempty"`
}

type liveDataRequest struct {
	DataType string         `json:"data_type"`
	Filters  map[string]any `json:"filters,omitempty"`
}

type presenceData struct {
	UserID string `json:"user_id"`
	Name   string `json:"name,omitempty"`
}

type errorData struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

type systemData struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Level   string `json:"level"`
}

func timeFromMillis(ms int64) time.Time { return time.UnixMilli(ms) }
