package parser

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/atikulmunna/uartwatch/internal/model"
)

// DefaultLevel is assigned to lines that match no configured level.
const DefaultLevel = "debug"

// Parser converts a raw console line into a structured LogEntry.
type Parser interface {
	Parse(raw string, source string) model.LogEntry
}

// Level pairs a level name with the pattern that selects it.
type Level struct {
	Name    string
	Pattern *Pattern
}

// LevelRules is an ordered rule set: the first satisfied level wins.
type LevelRules []Level

// ---------------------------------------------------------------------------
// Classifier
// ---------------------------------------------------------------------------

// Classifier assigns a level to each line using ordered LevelRules.
type Classifier struct {
	rules    LevelRules
	fallback string
	clock    clock.Clock
}

// NewClassifier returns a Classifier. An empty fallback selects DefaultLevel.
func NewClassifier(rules LevelRules, fallback string) *Classifier {
	if fallback == "" {
		fallback = DefaultLevel
	}
	return &Classifier{
		rules:    rules,
		fallback: fallback,
		clock:    clock.New(),
	}
}

// WithClock replaces the time source used to stamp entries.
func (c *Classifier) WithClock(clk clock.Clock) *Classifier {
	c.clock = clk
	return c
}

// Classify returns the name of the first level whose pattern the line satisfies.
// Exclusions are evaluated per level, so an excluded line falls through to the
// next level in declared order.
func (c *Classifier) Classify(line string) string {
	for _, lvl := range c.rules {
		if lvl.Pattern.Match(line) {
			return lvl.Name
		}
	}
	return c.fallback
}

// Parse implements Parser.
func (c *Classifier) Parse(raw string, source string) model.LogEntry {
	return model.LogEntry{
		Timestamp: c.now(),
		Source:    source,
		Level:     c.Classify(raw),
		Message:   raw,
	}
}

// Levels returns the configured level names in order, followed by the fallback.
func (c *Classifier) Levels() []string {
	names := make([]string, 0, len(c.rules)+1)
	for _, lvl := range c.rules {
		names = append(names, lvl.Name)
	}
	return append(names, c.fallback)
}

func (c *Classifier) now() time.Time {
	return c.clock.Now()
}
