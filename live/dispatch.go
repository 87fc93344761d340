package live

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "github.com/kbukum/ranchkit/errors"
	"github.com/kbukum/ranchkit/logger"
	"github.com/kbukum/ranchkit/notify"
)

// dispatch decodes one inbound frame and routes it. It runs on the read
// goroutine, so messages are handled one at a time in arrival order.
func (m *Manager) dispatch(gen uint64, frame []byte) {
	var msg Message
	if err := json.Unmarshal(frame, &msg); err != nil || msg.Type == "" {
		if err == nil {
			err = fmt.Errorf("message has no type")
		}
		m.log.Warn("Malformed message", logger.ErrorFields("decode", err))
		msg = Message{Type: TypeParseError, Err: apperrors.MalformedMessage(err)}
	}
	msg.Raw = frame

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.lastMessage = msg
	m.mu.Unlock()
	m.metrics.RecordLiveMessage(context.Background(), "in", msg.Type)

	switch msg.Type {
	case TypePong:
		m.onPong(msg)
	case TypeAuthSuccess:
		m.onAuthSuccess()
	case TypeAuthError:
		m.onAuthError(msg)
	case TypeUserOnline, TypeUserOffline:
		m.onPresence(msg)
	case TypeBovineUpdate:
		m.handleUpdate(msg, m.bovine)
	case TypeProductionUpdate:
		m.handleUpdate(msg, m.production)
	case TypeLocationUpdate:
		m.handleUpdate(msg, m.location)
	case TypeHealthAlert:
		m.onHealthAlert(msg)
	case TypeNotification:
		m.onNotification(msg)
	case TypeSystemMessage:
		m.onSystemMessage(msg)
	default:
		m.deliver(msg)
	}
}

func (m *Manager) deliver(msg Message) {
	m.mu.Lock()
	handlers := m.handlers.lookup(msg.Type)
	m.mu.Unlock()

	if len(handlers) == 0 {
		m.log.Debug("Unhandled message", logger.Fields(logger.FieldEventType, msg.Type))
		return
	}
	for _, h := range handlers {
		m.invoke(h, msg)
	}
}

func (m *Manager) invoke(h Handler, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("Listener panicked", logger.Fields(
				logger.FieldEventType, msg.Type,
				logger.FieldError, fmt.Sprint(r),
			))
		}
	}()
	h(msg)
}

func (m *Manager) onPong(msg Message) {
	now := m.now()
	m.mu.Lock()
	m.lastPong = now
	if msg.Timestamp > 0 {
		if rtt := now.Sub(timeFromMillis(msg.Timestamp)); rtt >= 0 {
			m.latency = rtt
		}
	}
	m.mu.Unlock()
}

func (m *Manager) onAuthSuccess() {
	m.mu.Lock()
	var channels []string
	if m.ident != nil {
		channels = append(channels, "user_"+m.ident.UserID)
		for _, ranchID := range m.ident.RanchIDs {
			channels = append(channels, "ranch_"+ranchID)
		}
	}
	channels = append(channels, m.cfg.Channels...)
	m.mu.Unlock()

	m.log.Info("Authenticated", logger.Fields("channels", len(channels)))
	if len(channels) == 0 {
		return
	}
	msg, err := NewMessage(TypeSubscribe, subscribeData{Channels: channels})
	if err != nil {
		return
	}
	m.Send(msg)
}

func (m *Manager) onAuthError(msg Message) {
	var data errorData
	_ = msg.Decode(&data)
	reason := data.Message
	if reason == "" {
		reason = data.Error
	}
	err := apperrors.AuthFailed(reason)

	m.mu.Lock()
	m.connErr = err
	m.mu.Unlock()
	m.log.Error("Authentication rejected", logger.ErrorFields("auth", err))
}

func (m *Manager) onPresence(msg Message) {
	var data presenceData
	if err := msg.Decode(&data); err != nil || data.UserID == "" {
		m.log.Warn("Presence message without user_id", logger.Fields(logger.FieldEventType, msg.Type))
		return
	}
	m.mu.Lock()
	if msg.Type == TypeUserOnline {
		m.online[data.UserID] = data
	} else {
		delete(m.online, data.UserID)
	}
	m.mu.Unlock()
}

func (m *Manager) handleUpdate(msg Message, r *ring) {
	u, ok := m.decodeUpdate(msg)
	if !ok {
		return
	}
	m.mu.Lock()
	r.upsert(u)
	m.mu.Unlock()
	m.emitUpdate(u)

	if n, notable := notableUpdate(u); notable {
		m.notify(n)
	}
}

func (m *Manager) onHealthAlert(msg Message) {
	u, ok := m.decodeUpdate(msg)
	if !ok {
		return
	}
	if u.ID == "" {
		u.ID = u.String("bovine_id")
	}
	m.mu.Lock()
	m.alerts.push(u)
	m.mu.Unlock()
	m.emitUpdate(u)

	n := notify.Notification{
		Type:     notify.TypeWarning,
		Title:    "Health alert: " + u.String("bovine_name"),
		Message:  u.String("alert_message"),
		Priority: notify.PriorityMedium,
		Category: notify.CategoryHealth,
		BovineID: u.String("bovine_id"),
	}
	if u.String("severity") == "critical" {
		n.Type = notify.TypeError
		n.Priority = notify.PriorityHigh
		n.Persistent = true
	}
	m.notify(n)
}

func (m *Manager) onNotification(msg Message) {
	var n notify.Notification
	if err := msg.Decode(&n); err != nil {
		m.log.Warn("Notification payload not decodable", logger.ErrorFields("decode", err))
		return
	}
	m.notify(n)
}

func (m *Manager) onSystemMessage(msg Message) {
	var data systemData
	if err := msg.Decode(&data); err != nil {
		m.log.Warn("System message payload not decodable", logger.ErrorFields("decode", err))
		return
	}
	n := notify.Notification{
		Type:     notify.TypeInfo,
		Title:    data.Title,
		Message:  data.Message,
		Priority: notify.PriorityMedium,
		Category: notify.CategorySystem,
	}
	if n.Title == "" {
		n.Title = "System message"
	}
	switch notify.Type(data.Level) {
	case notify.TypeSuccess, notify.TypeWarning, notify.TypeError:
		n.Type = notify.Type(data.Level)
	}
	m.notify(n)
}

func (m *Manager) decodeUpdate(msg Message) (Update, bool) {
	var payload map[string]any
	if err := msg.Decode(&payload); err != nil {
		m.log.Warn("Update payload not decodable", logger.Fields(
			logger.FieldEventType, msg.Type,
			logger.FieldError, err.Error(),
		))
		return Update{}, false
	}
	u := Update{Type: msg.Type, Payload: payload, ReceivedAt: m.now()}
	u.ID = u.String("id")
	return u, true
}

// notableUpdate returns the notification an update raises, if any.
func notableUpdate(u Update) (notify.Notification, bool) {
	name := u.String("name")
	if name == "" {
		name = u.ID
	}
	switch u.Type {
	case TypeBovineUpdate:
		status := u.String("health_status")
		if status == "" || status == "healthy" {
			return notify.Notification{}, false
		}
		return notify.Notification{
			Type:     notify.TypeWarning,
			Title:    "Health status changed",
			Message:  fmt.Sprintf("%s is now %s", name, status),
			Priority: notify.PriorityMedium,
			Category: notify.CategoryHealth,
			BovineID: u.ID,
		}, true
	case TypeProductionUpdate:
		if !u.Bool("alert") {
			return notify.Notification{}, false
		}
		message := u.String("message")
		if message == "" {
			message = fmt.Sprintf("Production alert for %s", name)
		}
		return notify.Notification{
			Type:     notify.TypeWarning,
			Title:    "Production alert",
			Message:  message,
			Priority: notify.PriorityMedium,
			Category: notify.CategoryProduction,
			BovineID: u.String("bovine_id"),
		}, true
	case TypeLocationUpdate:
		if !u.Bool("out_of_bounds") {
			return notify.Notification{}, false
		}
		return notify.Notification{
			Type:     notify.TypeWarning,
			Title:    "Location alert",
			Message:  fmt.Sprintf("%s is outside the ranch boundary", name),
			Priority: notify.PriorityHigh,
			Category: notify.CategoryLocation,
			BovineID: u.ID,
		}, true
	}
	return notify.Notification{}, false
}

func (m *Manager) emitUpdate(u Update) {
	if m.onUpdate == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("Update listener panicked", logger.Fields(
				logger.FieldEventType, u.Type,
				logger.FieldError, fmt.Sprint(r),
			))
		}
	}()
	m.onUpdate(u)
}

func (m *Manager) notify(n notify.Notification) {
	if m.notifier == nil {
		return
	}
	m.notifier.Notify(n)
}
