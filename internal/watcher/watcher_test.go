package watcher

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

func TestResolvePicksFirstMatch(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"ttyUSB1", "ttyUSB0", "ttyACM0"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := Resolve(filepath.Join(dir, "ttyUSB*"))
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "ttyUSB0"); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestResolveLiteralPath(t *testing.T) {
	got, err := Resolve("/dev/ttyAMA0")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/dev/ttyAMA0" {
		t.Errorf("expected literal path back, got %s", got)
	}
}

func TestResolveNoMatch(t *testing.T) {
	if _, err := Resolve(filepath.Join(t.TempDir(), "ttyUSB*")); err == nil {
		t.Error("expected error when nothing matches")
	}
}

func TestWatcherReportsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.cap")
	if err := os.WriteFile(path, []byte("boot\n"), 0644); err != nil {
		t.Fatal(err)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	w, err := New([]string{path}, log)
	if err != nil {
		t.Fatal(err)
	}
	if len(w.Paths()) != 1 {
		t.Fatalf("expected 1 watched path, got %v", w.Paths())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := f.WriteString("MAIN: tick\n"); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-w.Events:
		if ev.Op&fsnotify.Write == 0 {
			t.Errorf("expected write event, got %v", ev.Op)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for write event")
	}
}
