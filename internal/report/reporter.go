// Package report counts pattern matches per line and flushes the counts as
// summaries on wall-clock-aligned schedules.
package report

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"

	"github.com/atikulmunna/uartwatch/internal/model"
	"github.com/atikulmunna/uartwatch/internal/parser"
)

// DefaultLevel is used for schedules that do not configure a level.
const DefaultLevel = "info"

// Report counts the lines that satisfy a pattern.
type Report struct {
	Name    string
	Pattern *parser.Pattern
}

// Schedule decides when, and at which level, counts are flushed.
type Schedule struct {
	Name     string
	Interval time.Duration
	Level    string
}

// Group is one configured reporter: reports shared by one or more schedules.
type Group struct {
	Schedules []Schedule
	Reports   []Report
}

// Count is one report's tally in a Snapshot.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Snapshot is the current window of a Reporter, for the API.
type Snapshot struct {
	Schedule string    `json:"schedule"`
	Interval string    `json:"interval"`
	Level    string    `json:"level"`
	Enabled  bool      `json:"enabled"`
	Since    time.Time `json:"since"`
	Counts   []Count   `json:"counts"`
}

// Reporter pairs a list of reports with one schedule and owns its counts.
type Reporter struct {
	reports  []Report
	schedule Schedule
	clock    clock.Clock
	emit     model.Emitter
	enabled  bool

	mu      sync.Mutex
	counts  map[string]int
	lastRun time.Time
}

// NewReporter creates a Reporter. A schedule without a positive interval is
// logged once and never fires.
func NewReporter(reports []Report, schedule Schedule, clk clock.Clock, emit model.Emitter, log logrus.FieldLogger) *Reporter {
	if schedule.Level == "" {
		schedule.Level = DefaultLevel
	}
	r := &Reporter{
		reports:  reports,
		schedule: schedule,
		clock:    clk,
		emit:     emit,
		enabled:  schedule.Interval > 0,
		counts:   make(map[string]int),
		lastRun:  clk.Now(),
	}
	if !r.enabled {
		log.WithField("schedule", schedule.Name).
			Warnf("No reporting interval in configuration; not enabling reporter %s", schedule.Name)
	}
	return r
}

// Enabled reports whether the schedule has a positive interval.
func (r *Reporter) Enabled() bool {
	return r.enabled
}

// Message increments the counter of every report the line satisfies.
func (r *Reporter) Message(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rep := range r.reports {
		if rep.Pattern.Match(line) {
			r.counts[rep.Name]++
		}
	}
}

// Fire emits the summary of the current window and starts a new one.
func (r *Reporter) Fire() {
	now := r.clock.Now()

	r.mu.Lock()
	var b strings.Builder
	fmt.Fprintf(&b, "%s since %s:", r.schedule.Name, model.FormatTime(r.lastRun))
	for _, rep := range r.reports {
		fmt.Fprintf(&b, "\n• %s: %d", rep.Name, r.counts[rep.Name])
	}
	r.lastRun = now
	r.counts = make(map[string]int)
	r.mu.Unlock()

	r.emit(model.NewEvent(now, model.KindReport, r.schedule.Name, r.schedule.Level, b.String()))
}

// NextDelay is the wait until the next aligned fire, measured from now.
func (r *Reporter) NextDelay() time.Duration {
	return NextDelay(r.clock.Now(), r.schedule.Interval)
}

// Start fires on every aligned boundary until the context is cancelled.
// It returns immediately for a disabled schedule.
func (r *Reporter) Start(ctx context.Context) {
	if !r.enabled {
		return
	}
	timer := r.clock.Timer(r.NextDelay())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			r.Fire()
			timer.Reset(RearmDelay(r.clock.Now(), r.schedule.Interval))
		}
	}
}

// Snapshot returns the counts collected in the current window.
func (r *Reporter) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make([]Count, 0, len(r.reports))
	for _, rep := range r.reports {
		counts = append(counts, Count{Name: rep.Name, Count: r.counts[rep.Name]})
	}
	return Snapshot{
		Schedule: r.schedule.Name,
		Interval: r.schedule.Interval.String(),
		Level:    r.schedule.Level,
		Enabled:  r.enabled,
		Since:    r.lastRun,
		Counts:   counts,
	}
}
