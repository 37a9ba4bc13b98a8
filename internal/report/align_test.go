package report

import (
	"testing"
	"time"
)

func TestNextDelayAlignment(t *testing.T) {
	cest := time.FixedZone("CEST", 2*3600)
	cases := []struct {
		name     string
		now      time.Time
		interval time.Duration
		want     time.Duration
	}{
		{"hourly fires at top of hour", time.Date(2026, 10, 16, 10, 17, 23, 0, time.UTC), time.Hour, 42*time.Minute + 37*time.Second},
		{"hourly exactly on the hour", time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC), time.Hour, time.Hour},
		{"daily fires at local midnight", time.Date(2026, 10, 16, 21, 30, 0, 0, cest), 24 * time.Hour, 2*time.Hour + 30*time.Minute},
		{"two days fires at a local midnight", time.Date(2026, 10, 16, 21, 30, 0, 0, cest), 48 * time.Hour, 26*time.Hour + 30*time.Minute},
		{"ninety minutes on half hours", time.Date(2026, 10, 16, 10, 17, 23, 0, time.UTC), 90 * time.Minute, time.Hour + 12*time.Minute + 37*time.Second},
		{"seven minutes on whole minutes", time.Date(2026, 10, 16, 10, 17, 23, 0, time.UTC), 7 * time.Minute, 6*time.Minute + 37*time.Second},
		{"sub-second interval is not aligned", time.Date(2026, 10, 16, 10, 17, 23, 0, time.UTC), 7500 * time.Millisecond, 7500 * time.Millisecond},
	}
	for _, tc := range cases {
		if got := NextDelay(tc.now, tc.interval); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestNextDelaySelfCorrects(t *testing.T) {
	// A fire that runs late still lands the next one on the boundary.
	late := time.Date(2026, 10, 16, 11, 0, 0, 250*int(time.Millisecond), time.UTC)
	got := NextDelay(late, time.Hour)
	if want := time.Hour - 250*time.Millisecond; got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestAlignUnit(t *testing.T) {
	cases := map[time.Duration]time.Duration{
		24 * time.Hour:          24 * time.Hour,
		3 * time.Hour:           time.Hour,
		45 * time.Minute:        15 * time.Minute,
		20 * time.Minute:        10 * time.Minute,
		11 * time.Minute:        time.Minute,
		62 * time.Second:        time.Second,
		1500 * time.Millisecond: 0,
		0:                       0,
	}
	for interval, want := range cases {
		if got := AlignUnit(interval); got != want {
			t.Errorf("AlignUnit(%v): expected %v, got %v", interval, want, got)
		}
	}
}

func TestRearmDelaySkipsBoundaryJustAhead(t *testing.T) {
	cases := []struct {
		name     string
		now      time.Time
		interval time.Duration
		want     time.Duration
	}{
		{"wall clock 1ms behind the boundary", time.Date(2026, 10, 16, 10, 59, 59, 999*int(time.Millisecond), time.UTC), time.Hour, time.Hour + time.Millisecond},
		{"fire slightly late", time.Date(2026, 10, 16, 11, 0, 0, 250*int(time.Millisecond), time.UTC), time.Hour, time.Hour - 250*time.Millisecond},
		{"daily a second before midnight", time.Date(2026, 10, 16, 23, 59, 59, 0, time.UTC), 24 * time.Hour, 24*time.Hour + time.Second},
		{"seven minutes keeps its minute boundary", time.Date(2026, 10, 16, 10, 16, 58, 0, time.UTC), 7 * time.Minute, 6*time.Minute + 2*time.Second},
		{"unaligned interval unchanged", time.Date(2026, 10, 16, 10, 59, 59, 999*int(time.Millisecond), time.UTC), 7500 * time.Millisecond, 7500 * time.Millisecond},
	}
	for _, tc := range cases {
		if got := RearmDelay(tc.now, tc.interval); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}

	// The first arm still fires at the coming boundary.
	early := time.Date(2026, 10, 16, 10, 59, 59, 999*int(time.Millisecond), time.UTC)
	if got := NextDelay(early, time.Hour); got != time.Millisecond {
		t.Errorf("expected first arm of 1ms, got %v", got)
	}
}
