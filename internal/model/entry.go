package model

import (
	"time"

	"github.com/google/uuid"
)

// Chunk is one read from the console transport. Chunk boundaries carry no meaning.
type Chunk struct {
	Data   []byte
	Source string // device or file the bytes came from
	Time   time.Time
}

// LogEntry represents a single classified console line.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Level     string    `json:"level"`   // configured level name, e.g. error, warn, info, debug
	Message   string    `json:"message"` // the line exactly as received, without the delimiter
}

// EventKind tells notification collaborators what raised an Event.
type EventKind string

const (
	KindConsole  EventKind = "console"
	KindWatchdog EventKind = "watchdog"
	KindRecovery EventKind = "recovery"
	KindReport   EventKind = "report"
	KindSystem   EventKind = "system"
)

// Event is an outbound (level, message) pair for the notification collaborator.
type Event struct {
	ID      string    `json:"id"`
	Time    time.Time `json:"time"`
	Kind    EventKind `json:"kind"`
	Origin  string    `json:"origin"` // watchdog or schedule name
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

// Emitter receives events raised by watchdogs and reporters.
type Emitter func(Event)

// NewEvent stamps an event with a fresh correlation id.
func NewEvent(t time.Time, kind EventKind, origin, level, message string) Event {
	return Event{
		ID:      uuid.NewString(),
		Time:    t,
		Kind:    kind,
		Origin:  origin,
		Level:   level,
		Message: message,
	}
}

// TimeLayout renders instants in UTC with millisecond precision.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// FormatTime formats t for event messages.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}
