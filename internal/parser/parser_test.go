package parser

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func ttnRules() LevelRules {
	return LevelRules{
		{Name: "error", Pattern: MustPattern(
			[]string{"/error/i", "/failed/i", "/reboot/i"},
			[]string{"/report .* error/i", "/error sending probe/i"},
		)},
		{Name: "warn", Pattern: MustPattern(
			[]string{"/connected/i", "/report .* error/i", "/failed/i"},
			nil,
		)},
		{Name: "info", Pattern: MustPattern(
			[]string{"."},
			[]string{"^MON:"},
		)},
	}
}

func TestClassifierFirstMatchWins(t *testing.T) {
	c := NewClassifier(ttnRules(), "")

	// Both error and warn include "failed"; error is declared first.
	if got := c.Classify("MQTT: Connection failed"); got != "error" {
		t.Errorf("expected error, got %s", got)
	}
}

func TestClassifierExcludeFallsThrough(t *testing.T) {
	c := NewClassifier(ttnRules(), "")

	if got := c.Classify("MQTT: Report reboot error: 0110"); got != "warn" {
		t.Errorf("expected excluded error line to fall through to warn, got %s", got)
	}
	if got := c.Classify("INET: Error sending probe on Eth"); got != "info" {
		t.Errorf("expected info, got %s", got)
	}
}

func TestClassifierDefaultLevel(t *testing.T) {
	c := NewClassifier(ttnRules(), "")

	if got := c.Classify("MON: heap 1234"); got != DefaultLevel {
		t.Errorf("expected %s, got %s", DefaultLevel, got)
	}
	if got := c.Classify(""); got != DefaultLevel {
		t.Errorf("expected empty line to get %s, got %s", DefaultLevel, got)
	}

	custom := NewClassifier(nil, "trace")
	if got := custom.Classify("anything"); got != "trace" {
		t.Errorf("expected custom fallback trace, got %s", got)
	}
}

func TestClassifierPerMatcherCase(t *testing.T) {
	rules := LevelRules{
		{Name: "error", Pattern: MustPattern([]string{"/panic/i", "OOPS"}, nil)},
	}
	c := NewClassifier(rules, "")

	if got := c.Classify("Kernel PANIC"); got != "error" {
		t.Errorf("expected case-insensitive matcher to match, got %s", got)
	}
	if got := c.Classify("oops"); got != DefaultLevel {
		t.Errorf("expected case-sensitive matcher to miss, got %s", got)
	}
	if got := c.Classify("OOPS"); got != "error" {
		t.Errorf("expected exact case to match, got %s", got)
	}
}

func TestParseStampsEntry(t *testing.T) {
	mock := clock.NewMock()
	at := time.Date(2026, 2, 17, 12, 0, 0, 0, time.UTC)
	mock.Set(at)

	c := NewClassifier(ttnRules(), "").WithClock(mock)
	entry := c.Parse("MAIN: Rebooting gateway\r", "/dev/ttyAMA0")

	if entry.Level != "error" {
		t.Errorf("expected error, got %s", entry.Level)
	}
	if entry.Message != "MAIN: Rebooting gateway\r" {
		t.Errorf("expected message unchanged, got %q", entry.Message)
	}
	if entry.Source != "/dev/ttyAMA0" {
		t.Errorf("expected source /dev/ttyAMA0, got %q", entry.Source)
	}
	if !entry.Timestamp.Equal(at) {
		t.Errorf("expected timestamp %v, got %v", at, entry.Timestamp)
	}
}

func TestLevelsIncludesFallback(t *testing.T) {
	c := NewClassifier(ttnRules(), "")
	got := c.Levels()
	want := []string{"error", "warn", "info", "debug"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("level %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}
