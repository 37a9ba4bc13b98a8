package report

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func TestSchedulerIndependentWindows(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(start)
	rec := newRecorder()

	s := NewScheduler([]Group{
		{
			Schedules: []Schedule{
				{Name: "Hourly gateway report", Interval: time.Hour, Level: "warn"},
				{Name: "Daily gateway report", Interval: 24 * time.Hour, Level: "error"},
			},
			Reports: gatewayReports(),
		},
		{
			Schedules: []Schedule{{Name: "Hourly UART report", Interval: time.Hour}},
			Reports:   []Report{{Name: "UART messages", Pattern: mustAll()}},
		},
	}, mock, rec.emit, quiet())

	if s.Len() != 3 {
		t.Fatalf("expected one reporter per schedule, got %d", s.Len())
	}

	s.Message("LORA: Packet dropped! Bad CRC")
	s.Message("")

	s.reporters[0].Fire()
	<-rec.events

	snaps := s.Snapshot()
	if got := snaps[0].Counts[0].Count; got != 0 {
		t.Errorf("expected fired hourly window to be reset, got %d", got)
	}
	if got := snaps[1].Counts[0].Count; got != 1 {
		t.Errorf("expected daily window to keep its count, got %d", got)
	}
	if got := snaps[2].Counts[0].Count; got != 2 {
		t.Errorf("expected empty line to be counted by catch-all report, got %d", got)
	}
	if snaps[1].Level != "error" || snaps[2].Level != DefaultLevel {
		t.Errorf("unexpected levels %s/%s", snaps[1].Level, snaps[2].Level)
	}
}
