package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"

	"github.com/atikulmunna/uartwatch/internal/config"
	"github.com/atikulmunna/uartwatch/internal/model"
)

const capture = "LORA: Accepted packet\r\nMQTT: Connection failed\r\nMON: heap 1234\r\nMQTT: Sending UPLINK OK\r\npartial"

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	path := filepath.Join(dir, "capture.log")
	if err := os.WriteFile(path, []byte(capture), 0o644); err != nil {
		t.Fatal(err)
	}
	off := false
	cfg := &config.Config{
		Source: config.SourceConfig{Type: config.SourceFile, Path: path},
		Levels: []config.LevelConfig{
			{Name: "error", Matchers: config.Matchers{Include: []string{"/failed/i"}}},
			{Name: "info", Matchers: config.Matchers{Include: []string{"."}, Exclude: []string{"^MON:"}}},
		},
		LogFiles: []config.LogFileConfig{
			{Name: "all", Level: "debug", Filename: "all-%DATE%.log", Dir: dir, Compress: &off},
		},
		Watchdogs: []config.WatchdogConfig{
			{Name: "uplink", Matchers: config.Matchers{Include: []string{"/sending uplink ok/i"}}, Timeout: "15m", Repeat: "2h"},
		},
		Output: "json",
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestMonitorReplaysCapture(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	mock := clock.NewMock()
	mock.Set(time.Date(2026, 2, 17, 12, 0, 0, 0, time.UTC))

	var out bytes.Buffer
	done := make(chan error, 1)
	go func() { done <- monitor(context.Background(), cfg, mock, &out, quietLogger()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop at the end of the capture")
	}

	var levels []string
	dec := json.NewDecoder(&out)
	for dec.More() {
		var e model.LogEntry
		if err := dec.Decode(&e); err != nil {
			t.Fatal(err)
		}
		levels = append(levels, e.Level)
		if !e.Timestamp.Equal(mock.Now()) {
			t.Errorf("expected entry stamped by the injected clock, got %v", e.Timestamp)
		}
	}
	want := []string{"info", "error", "debug", "info"}
	if strings.Join(levels, ",") != strings.Join(want, ",") {
		t.Errorf("expected levels %v, got %v", want, levels)
	}

	data, err := os.ReadFile(filepath.Join(dir, "all-20260217.log"))
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.Contains(text, "[monitor] Starting UART monitor") {
		t.Errorf("expected start-up line in log file, got:\n%s", text)
	}
	if !strings.Contains(text, "MQTT: Connection failed") {
		t.Errorf("expected console line in log file, got:\n%s", text)
	}
	if strings.Contains(text, "partial") {
		t.Error("unterminated trailing line must not be logged")
	}
}

func TestMonitorLogsDisabledComponents(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	cfg.Watchdogs = append(cfg.Watchdogs, config.WatchdogConfig{Name: "lazy"})
	cfg.Reporters = []config.ReporterConfig{{
		Schedules: []config.ScheduleConfig{{Name: "never", Level: "info"}},
		Reports:   []config.ReportConfig{{Name: "all", Matchers: config.Matchers{Include: []string{"."}}}},
	}}
	mock := clock.NewMock()
	mock.Set(time.Date(2026, 2, 17, 12, 0, 0, 0, time.UTC))

	if err := monitor(context.Background(), cfg, mock, io.Discard, quietLogger()); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "all-20260217.log"))
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{
		"[watchdog] No watchdog timeout in configuration; not enabling watchdog lazy",
		"[report] No reporting interval in configuration; not enabling reporter never",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in log file, got:\n%s", want, text)
		}
	}
	if strings.Count(text, "not enabling watchdog") != 1 {
		t.Errorf("expected the watchdog warning exactly once, got:\n%s", text)
	}
}

func TestMonitorRejectsMissingCapture(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	cfg.Source.Path = filepath.Join(t.TempDir(), "missing.log")

	err := monitor(context.Background(), cfg, clock.NewMock(), io.Discard, quietLogger())
	if err == nil {
		t.Fatal("expected error for missing capture file")
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, []string{"error", "info", "debug"}, map[string]int{"error": 2, "debug": 1})

	want := "error    2\ninfo     0\ndebug    1\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}
