package notify

import "time"

// Type is the visual kind of a notification.
type Type string

const (
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
)

// Priority orders notifications for display.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Categories used by the live connection.
const (
	CategoryHealth     = "health"
	CategoryProduction = "production"
	CategoryLocation   = "location"
	CategorySystem     = "system"
	CategoryGeneral    = "general"
)

// Notification is a single user-facing message.
type Notification struct {
	ID       string   `json:"id"`
	Type     Type     `json:"type"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Priority Priority `json:"priority"`
	Category string   `json:"category"`
	// Persistent notifications stay until removed explicitly.
	Persistent bool `json:"persistent,omitempty"`
	// AutoRemove is the delay before a non-persistent notification is
	// removed. Zero uses the Center default.
	AutoRemove time.Duration `json:"auto_remove,omitempty"`
	BovineID   string        `json:"bovine_id,omitempty"`
	Read       bool          `json:"read,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Sink receives notifications.
type Sink interface {
	Notify(n Notification)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(n Notification)

// Notify calls f(n).
func (f SinkFunc) Notify(n Notification) { f(n) }

// Multi fans a notification out to every sink in order.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(n Notification) {
		for _, s := range sinks {
			if s != nil {
				s.Notify(n)
			}
		}
	})
}
