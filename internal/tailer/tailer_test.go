package tailer

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/atikulmunna/uartwatch/internal/watcher"
)

func quietLogger() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	return log
}

func TestTailerEmitsChunksInOrder(t *testing.T) {
	src := iotest.OneByteReader(strings.NewReader("ab\ncd"))
	tail := New(src, "stdin", quietLogger())

	done := make(chan error, 1)
	go func() { done <- tail.Start(context.Background()) }()

	var got []byte
	for chunk := range tail.Chunks() {
		if chunk.Source != "stdin" {
			t.Errorf("expected source stdin, got %q", chunk.Source)
		}
		got = append(got, chunk.Data...)
	}
	if string(got) != "ab\ncd" {
		t.Errorf("expected 'ab\\ncd', got %q", got)
	}
	if err := <-done; err != nil {
		t.Errorf("expected clean EOF, got %v", err)
	}
}

func TestTailerReadError(t *testing.T) {
	tail := New(iotest.ErrReader(io.ErrUnexpectedEOF), "uart", quietLogger())

	go func() {
		for range tail.Chunks() {
		}
	}()
	if err := tail.Start(context.Background()); err == nil {
		t.Error("expected read error to be returned")
	}
}

func TestTailerFollowsFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "console.log")
	if err := os.WriteFile(logPath, []byte("boot\n"), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := watcher.New([]string{logPath}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(logPath)
	if err != nil {
		t.Fatal(err)
	}

	tail := New(f, logPath, quietLogger()).Follow(w)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go w.Start(ctx)
	go tail.Start(ctx)

	expect := func(want string) {
		t.Helper()
		select {
		case chunk := <-tail.Chunks():
			if string(chunk.Data) != want {
				t.Errorf("expected %q, got %q", want, chunk.Data)
			}
		case <-time.After(3 * time.Second):
			t.Fatalf("timed out waiting for %q", want)
		}
	}

	expect("boot\n")

	// Give the tailer a moment to reach EOF and wait for events.
	time.Sleep(300 * time.Millisecond)

	out, err := os.OpenFile(logPath, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = out.WriteString("MQTT: Sending UPLINK OK\n")
	out.Close()

	expect("MQTT: Sending UPLINK OK\n")

	cancel()
	time.Sleep(200 * time.Millisecond)
}
