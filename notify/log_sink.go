package notify

import "github.com/kbukum/ranchkit/logger"

// LogSink writes notifications to a logger. High priority notifications are
// logged as warnings.
type LogSink struct {
	log *logger.Logger
}

// NewLogSink creates a LogSink. A nil logger uses logger.Get("notify").
func NewLogSink(log *logger.Logger) *LogSink {
	if log == nil {
		log = logger.Get("notify")
	}
	return &LogSink{log: log}
}

// Notify logs n.
func (s *LogSink) Notify(n Notification) {
	fields := logger.Fields(
		"title", n.Title,
		"category", n.Category,
		"priority", string(n.Priority),
		"type", string(n.Type),
	)
	if n.BovineID != "" {
		fields["bovine_id"] = n.BovineID
	}
	if n.Priority == PriorityHigh || n.Type == TypeError {
		s.log.Warn(n.Message, fields)
		return
	}
	s.log.Info(n.Message, fields)
}
