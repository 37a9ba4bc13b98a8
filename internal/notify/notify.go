// Package notify delivers events to chat channels such as Slack and Telegram.
//
// Delivery is best effort: events are queued and sent in order by a single
// worker, a full queue drops the event, and send failures are only logged.
package notify

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/atikulmunna/uartwatch/internal/logger"
	"github.com/atikulmunna/uartwatch/internal/model"
)

const (
	defaultQueueSize = 256
	sendTimeout      = 15 * time.Second
)

// Alerter is one notification channel.
type Alerter interface {
	Name() string
	Send(ctx context.Context, ev model.Event) error
}

// icons are prefixed to messages; Telegram has no :emoji: codes, so these are
// plain Unicode.
var icons = map[string]string{
	"error": "❌ ",
	"warn":  "⚠ ",
	"info":  "ℹ ",
}

// Icon returns the prefix for a level, or "" for levels without one.
func Icon(level string) string {
	if level == "warning" {
		level = "warn"
	}
	return icons[level]
}

// Text renders an event as it appears in a chat message.
func Text(ev model.Event) string {
	return Icon(ev.Level) + ev.Message
}

type registration struct {
	alerter Alerter
	min     logrus.Level
}

// ResultFunc observes the outcome of every send attempt.
type ResultFunc func(alerter string, ev model.Event, err error)

// Manager dispatches events to the registered alerters.
type Manager struct {
	alerters []registration
	queue    chan model.Event
	log      logrus.FieldLogger
	onResult ResultFunc
	dropped  atomic.Int64
}

// NewManager creates a manager with the given queue size (0 for the default).
func NewManager(queueSize int, log logrus.FieldLogger) *Manager {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Manager{
		queue: make(chan model.Event, queueSize),
		log:   log.WithField("component", "notify"),
	}
}

// Register adds an alerter that receives events at minLevel or more severe.
func (m *Manager) Register(a Alerter, minLevel string) error {
	min, err := logger.ParseLevel(minLevel)
	if err != nil {
		return fmt.Errorf("%s: %w", a.Name(), err)
	}
	m.alerters = append(m.alerters, registration{alerter: a, min: min})
	return nil
}

// OnResult installs an observer for send outcomes, e.g. metrics.
func (m *Manager) OnResult(fn ResultFunc) {
	m.onResult = fn
}

// Enabled reports whether any alerter is registered.
func (m *Manager) Enabled() bool {
	return len(m.alerters) > 0
}

// Dropped returns the number of events dropped because the queue was full.
func (m *Manager) Dropped() int64 {
	return m.dropped.Load()
}

// Notify queues an event without blocking. Events that no alerter admits are
// not queued at all.
func (m *Manager) Notify(ev model.Event) {
	if !m.admitted(ev.Level) {
		return
	}
	select {
	case m.queue <- ev:
	default:
		n := m.dropped.Add(1)
		m.log.WithField("event_id", ev.ID).Warnf("notification queue full, dropped event (total dropped: %d)", n)
	}
}

func (m *Manager) admitted(level string) bool {
	for _, r := range m.alerters {
		if logger.Admits(r.min, level) {
			return true
		}
	}
	return false
}

// Start delivers queued events until the context is cancelled. Events still
// queued at that point are discarded.
func (m *Manager) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-m.queue:
			m.deliver(ctx, ev)
		}
	}
}

func (m *Manager) deliver(ctx context.Context, ev model.Event) {
	for _, r := range m.alerters {
		if !logger.Admits(r.min, ev.Level) {
			continue
		}
		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		err := r.alerter.Send(sendCtx, ev)
		cancel()
		if err != nil {
			m.log.WithError(err).WithFields(logrus.Fields{
				"alerter":  r.alerter.Name(),
				"event_id": ev.ID,
				"level":    ev.Level,
			}).Error("failed to send notification")
		}
		if m.onResult != nil {
			m.onResult(r.alerter.Name(), ev, err)
		}
	}
}
