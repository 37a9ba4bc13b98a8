package report

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"

	"github.com/atikulmunna/uartwatch/internal/model"
)

// Scheduler owns one Reporter per (group, schedule) pair. Schedules that share
// a group count the same reports in independent windows.
type Scheduler struct {
	reporters []*Reporter
}

// NewScheduler builds the reporters for all groups.
func NewScheduler(groups []Group, clk clock.Clock, emit model.Emitter, log logrus.FieldLogger) *Scheduler {
	log = log.WithField("component", "report")
	s := &Scheduler{}
	for _, g := range groups {
		for _, sched := range g.Schedules {
			s.reporters = append(s.reporters, NewReporter(g.Reports, sched, clk, emit, log))
		}
	}
	return s
}

// Message forwards a complete line to every reporter.
func (s *Scheduler) Message(line string) {
	for _, r := range s.reporters {
		r.Message(line)
	}
}

// Start runs every enabled reporter on its own timer and blocks until the
// context is cancelled and all of them have stopped.
func (s *Scheduler) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for _, r := range s.reporters {
		if !r.Enabled() {
			continue
		}
		wg.Add(1)
		go func(r *Reporter) {
			defer wg.Done()
			r.Start(ctx)
		}(r)
	}
	wg.Wait()
}

// Snapshot returns the current window of every reporter.
func (s *Scheduler) Snapshot() []Snapshot {
	out := make([]Snapshot, 0, len(s.reporters))
	for _, r := range s.reporters {
		out = append(out, r.Snapshot())
	}
	return out
}

// Len returns the number of reporter instances.
func (s *Scheduler) Len() int {
	return len(s.reporters)
}
