package events

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Logger is the progress logger shared by every orchestration component.
// Each line is published as a LogEvent and mirrored to zap with an agent field.
// A nil *Logger discards everything.
type Logger struct {
	bus *EventBus
	zl  *zap.Logger
}

// NewLogger creates a Logger. Either argument may be nil.
func NewLogger(bus *EventBus, zl *zap.Logger) *Logger {
	if zl == nil {
		zl = zap.NewNop()
	}
	return &Logger{bus: bus, zl: zl}
}

// Log broadcasts message on behalf of agent. Delivery is not guaranteed.
func (l *Logger) Log(agent, message string) {
	if l == nil {
		return
	}
	l.zl.Info(message, zap.String("agent", agent))
	if l.bus != nil {
		l.bus.Publish(TopicLog, LogEvent{Agent: agent, Message: message, Timestamp: time.Now()})
	}
}

// Logf formats and broadcasts a message.
func (l *Logger) Logf(agent, format string, args ...any) {
	l.Log(agent, fmt.Sprintf(format, args...))
}

// Warn broadcasts message and records it at warn level.
func (l *Logger) Warn(agent, message string, fields ...zap.Field) {
	if l == nil {
		return
	}
	l.zl.Warn(message, append(fields, zap.String("agent", agent))...)
	if l.bus != nil {
		l.bus.Publish(TopicLog, LogEvent{Agent: agent, Message: message, Timestamp: time.Now()})
	}
}

// Emit publishes a typed event on its topic.
func (l *Logger) Emit(event Event) {
	if l == nil || l.bus == nil {
		return
	}
	l.bus.Emit(event)
}

// Zap returns the underlying structured logger.
func (l *Logger) Zap() *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l.zl
}
