// Package watchdog raises alerts when expected console output stops arriving.
//
// A watchdog without a pattern is a pure liveness check fed by heartbeats (any
// byte from the transport). A watchdog with a pattern is fed only by complete
// lines that satisfy it. Each enabled watchdog checks itself once per second:
// the first check past the timeout raises an error, further errors are
// suppressed until the repeat window has passed, and the first check after a
// fresh signal raises a single recovery warning.
package watchdog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"

	"github.com/atikulmunna/uartwatch/internal/model"
	"github.com/atikulmunna/uartwatch/internal/parser"
)

// TickInterval is how often every enabled watchdog checks its state.
const TickInterval = time.Second

const (
	levelError = "error"
	levelWarn  = "warn"
)

// Spec configures one named watchdog.
type Spec struct {
	Name    string
	Pattern *parser.Pattern // nil for heartbeat mode
	Timeout time.Duration
	Repeat  time.Duration
}

// Status is a point-in-time view of a watchdog, for the API.
type Status struct {
	Name          string     `json:"name"`
	Mode          string     `json:"mode"` // heartbeat or pattern
	Enabled       bool       `json:"enabled"`
	Errored       bool       `json:"errored"`
	Timeout       string     `json:"timeout"`
	LastSignal    time.Time  `json:"last_signal"`
	FirstError    *time.Time `json:"first_error,omitempty"`
	LastErrorEmit *time.Time `json:"last_error_emit,omitempty"`
}

// Watchdog tracks the time since the last satisfying signal.
type Watchdog struct {
	spec    Spec
	clock   clock.Clock
	emit    model.Emitter
	enabled bool

	mu            sync.Mutex
	lastSignal    time.Time
	errored       bool
	firstError    time.Time // zero unless errored
	lastErrorEmit time.Time // zero unless errored
}

// New creates a watchdog. A spec without a positive timeout yields a disabled
// watchdog; that is logged once and the watchdog stays inert.
func New(spec Spec, clk clock.Clock, emit model.Emitter, log logrus.FieldLogger) *Watchdog {
	w := &Watchdog{
		spec:       spec,
		clock:      clk,
		emit:       emit,
		enabled:    spec.Timeout > 0,
		lastSignal: clk.Now(),
	}
	if !w.enabled {
		log.WithField("watchdog", spec.Name).
			Warnf("No watchdog timeout in configuration; not enabling watchdog %s", spec.Name)
	}
	return w
}

// Name returns the configured name.
func (w *Watchdog) Name() string {
	return w.spec.Name
}

// Enabled reports whether the watchdog has a positive timeout.
func (w *Watchdog) Enabled() bool {
	return w.enabled
}

// Heartbeat registers liveness, but only for watchdogs without a pattern.
func (w *Watchdog) Heartbeat() {
	if !w.enabled || w.spec.Pattern.Configured() {
		return
	}
	w.signal()
}

// Message registers liveness if the line satisfies the configured pattern.
// Watchdogs without a pattern ignore lines.
func (w *Watchdog) Message(line string) {
	if !w.enabled || !w.spec.Pattern.Configured() {
		return
	}
	if w.spec.Pattern.Match(line) {
		w.signal()
	}
}

func (w *Watchdog) signal() {
	now := w.clock.Now()
	w.mu.Lock()
	w.lastSignal = now
	w.mu.Unlock()
}

// Tick evaluates the watchdog against the current time and emits at most one event.
func (w *Watchdog) Tick() {
	if !w.enabled {
		return
	}
	if ev, ok := w.check(w.clock.Now()); ok {
		w.emit(ev)
	}
}

func (w *Watchdog) check(now time.Time) (model.Event, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if now.Sub(w.lastSignal) > w.spec.Timeout {
		if w.errored && now.Sub(w.lastErrorEmit) < w.spec.Repeat {
			return model.Event{}, false
		}
		if !w.errored {
			w.errored = true
			w.firstError = w.lastSignal
		}
		w.lastErrorEmit = now
		msg := fmt.Sprintf("No %s since %s", w.spec.Name, model.FormatTime(w.lastSignal))
		return model.NewEvent(now, model.KindWatchdog, w.spec.Name, levelError, msg), true
	}

	if !w.errored {
		return model.Event{}, false
	}
	msg := fmt.Sprintf("First %s since %s", w.spec.Name, model.FormatTime(w.firstError))
	w.errored = false
	w.firstError = time.Time{}
	w.lastErrorEmit = time.Time{}
	return model.NewEvent(now, model.KindRecovery, w.spec.Name, levelWarn, msg), true
}

// Start ticks once per TickInterval until the context is cancelled.
// It returns immediately for a disabled watchdog.
func (w *Watchdog) Start(ctx context.Context) {
	if !w.enabled {
		return
	}
	ticker := w.clock.Ticker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Tick()
		}
	}
}

// Status returns a snapshot of the watchdog state.
func (w *Watchdog) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := Status{
		Name:       w.spec.Name,
		Mode:       "heartbeat",
		Enabled:    w.enabled,
		Errored:    w.errored,
		Timeout:    w.spec.Timeout.String(),
		LastSignal: w.lastSignal,
	}
	if w.spec.Pattern.Configured() {
		s.Mode = "pattern"
	}
	if w.errored {
		first, last := w.firstError, w.lastErrorEmit
		s.FirstError, s.LastErrorEmit = &first, &last
	}
	return s
}
