package aggregator

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/atikulmunna/uartwatch/internal/model"
)

// rateWindow is the sliding window used for the lines-per-second figure.
const rateWindow = 5 * time.Second

// Stats holds a point-in-time snapshot of console throughput.
type Stats struct {
	Source       string           `json:"source"`
	Uptime       string           `json:"uptime"`
	TotalLines   int64            `json:"total_lines"`
	LPS          float64          `json:"lps"`
	LevelCounts  map[string]int64 `json:"level_counts"`
	DroppedLines int64            `json:"dropped_lines"`
	LastLine     *time.Time       `json:"last_line,omitempty"`
}

// Aggregator subscribes to the Hub and computes time-windowed counters.
type Aggregator struct {
	clock   clock.Clock
	source  string
	dropped func() int64
	entries <-chan model.LogEntry

	mu          sync.RWMutex
	startTime   time.Time
	totalLines  int64
	levelCounts map[string]int64
	window      []time.Time
	lastLine    time.Time
}

// New creates an Aggregator that reads from a Hub subscriber channel.
// droppedFn reports the Hub's live drop count.
func New(entries <-chan model.LogEntry, clk clock.Clock, source string, droppedFn func() int64) *Aggregator {
	return &Aggregator{
		clock:       clk,
		source:      source,
		dropped:     droppedFn,
		entries:     entries,
		startTime:   clk.Now(),
		levelCounts: make(map[string]int64),
	}
}

// Snapshot returns the current counters.
func (a *Aggregator) Snapshot() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	counts := make(map[string]int64, len(a.levelCounts))
	for k, v := range a.levelCounts {
		counts[k] = v
	}

	now := a.clock.Now()
	cutoff := now.Add(-rateWindow)
	var recent int
	for _, t := range a.window {
		if t.After(cutoff) {
			recent++
		}
	}

	s := Stats{
		Source:       a.source,
		Uptime:       now.Sub(a.startTime).Truncate(time.Second).String(),
		TotalLines:   a.totalLines,
		LPS:          float64(recent) / rateWindow.Seconds(),
		LevelCounts:  counts,
		DroppedLines: a.dropped(),
	}
	if !a.lastLine.IsZero() {
		last := a.lastLine
		s.LastLine = &last
	}
	return s
}

// Start consumes entries until the context is cancelled or the channel closes.
func (a *Aggregator) Start(ctx context.Context) {
	ticker := a.clock.Ticker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-a.entries:
			if !ok {
				return
			}
			a.record(entry)
		case <-ticker.C:
			a.prune()
		}
	}
}

func (a *Aggregator) record(entry model.LogEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now()
	a.totalLines++
	a.levelCounts[entry.Level]++
	a.window = append(a.window, now)
	a.lastLine = entry.Timestamp
}

// prune removes timestamps that have left the rate window.
func (a *Aggregator) prune() {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := a.clock.Now().Add(-rateWindow)
	i := 0
	for _, t := range a.window {
		if t.After(cutoff) {
			a.window[i] = t
			i++
		}
	}
	a.window = a.window[:i]
}
