package watchdog

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"

	"github.com/atikulmunna/uartwatch/internal/model"
)

// Set owns all configured watchdogs and broadcasts signals to them.
type Set struct {
	dogs []*Watchdog
}

// NewSet builds one watchdog per spec, in configuration order.
func NewSet(specs []Spec, clk clock.Clock, emit model.Emitter, log logrus.FieldLogger) *Set {
	log = log.WithField("component", "watchdog")
	s := &Set{dogs: make([]*Watchdog, 0, len(specs))}
	for _, spec := range specs {
		s.dogs = append(s.dogs, New(spec, clk, emit, log))
	}
	return s
}

// Heartbeat forwards a content-free liveness signal to every watchdog.
func (s *Set) Heartbeat() {
	for _, w := range s.dogs {
		w.Heartbeat()
	}
}

// Message forwards a complete line to every watchdog.
func (s *Set) Message(line string) {
	for _, w := range s.dogs {
		w.Message(line)
	}
}

// Tick checks every watchdog once against the current time.
func (s *Set) Tick() {
	for _, w := range s.dogs {
		w.Tick()
	}
}

// Start runs every enabled watchdog on its own ticker and blocks until the
// context is cancelled and all of them have stopped.
func (s *Set) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for _, w := range s.dogs {
		if !w.Enabled() {
			continue
		}
		wg.Add(1)
		go func(w *Watchdog) {
			defer wg.Done()
			w.Start(ctx)
		}(w)
	}
	wg.Wait()
}

// Status returns a snapshot of every watchdog in configuration order.
func (s *Set) Status() []Status {
	out := make([]Status, 0, len(s.dogs))
	for _, w := range s.dogs {
		out = append(out, w.Status())
	}
	return out
}

// Len returns the number of configured watchdogs, enabled or not.
func (s *Set) Len() int {
	return len(s.dogs)
}
