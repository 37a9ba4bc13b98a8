package hub

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/atikulmunna/uartwatch/internal/model"
	"github.com/atikulmunna/uartwatch/internal/parser"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testClassifier() *parser.Classifier {
	return parser.NewClassifier(parser.LevelRules{
		{Name: "error", Pattern: parser.MustPattern([]string{"/error/i"}, nil)},
	}, "info")
}

type lineRecorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *lineRecorder) Message(line string) {
	r.mu.Lock()
	r.lines = append(r.lines, line)
	r.mu.Unlock()
}

func (r *lineRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

func TestHubBroadcast(t *testing.T) {
	input := make(chan model.Chunk, 10)
	h := New(input, testClassifier(), quietLogger())

	sub1 := h.Subscribe()
	sub2 := h.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Start(ctx)

	input <- model.Chunk{Data: []byte("MQTT error\n"), Source: "/dev/ttyUSB0"}

	for i, sub := range []<-chan model.LogEntry{sub1, sub2} {
		select {
		case e := <-sub:
			if e.Level != "error" {
				t.Errorf("sub%d: expected error, got %s", i+1, e.Level)
			}
			if e.Source != "/dev/ttyUSB0" {
				t.Errorf("sub%d: expected source /dev/ttyUSB0, got %s", i+1, e.Source)
			}
		case <-time.After(1 * time.Second):
			t.Fatalf("sub%d: timed out", i+1)
		}
	}
}

func TestHubReassemblesChunks(t *testing.T) {
	input := make(chan model.Chunk, 10)
	h := New(input, testClassifier(), quietLogger())
	rec := &lineRecorder{}
	h.OnLine(rec)

	var chunks int
	h.OnChunk(func(model.Chunk) { chunks++ })

	input <- model.Chunk{Data: []byte("LORA: rx")}
	input <- model.Chunk{Data: []byte(" ok\r\nMAIN: ")}
	input <- model.Chunk{Data: []byte("tick\n\ntrailing")}
	close(input)

	h.Start(context.Background())

	got := rec.snapshot()
	want := []string{"LORA: rx ok\r", "MAIN: tick", ""}
	if len(got) != len(want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: expected %q, got %q", i, want[i], got[i])
		}
	}
	if chunks != 3 {
		t.Errorf("expected 3 chunk callbacks, got %d", chunks)
	}
}

func TestHubDispatchOrder(t *testing.T) {
	input := make(chan model.Chunk, 1)
	h := New(input, testClassifier(), quietLogger())

	var calls []string
	h.OnChunk(func(model.Chunk) { calls = append(calls, "chunk") })
	h.AddSink(func(e model.LogEntry) { calls = append(calls, "sink:"+e.Level) })
	h.OnLine(observerFunc(func(line string) { calls = append(calls, "line:"+line) }))

	input <- model.Chunk{Data: []byte("a\nerror\n")}
	close(input)
	h.Start(context.Background())

	want := []string{"chunk", "sink:info", "line:a", "sink:error", "line:error"}
	if len(calls) != len(want) {
		t.Fatalf("expected %v, got %v", want, calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d: expected %s, got %s", i, want[i], calls[i])
		}
	}
}

type observerFunc func(string)

func (f observerFunc) Message(line string) { f(line) }

func TestHubClosesSubscribersOnExit(t *testing.T) {
	input := make(chan model.Chunk)
	h := New(input, testClassifier(), quietLogger())
	sub := h.Subscribe()
	close(input)
	h.Start(context.Background())

	if _, ok := <-sub; ok {
		t.Error("expected subscriber channel to be closed")
	}
}

func TestHubUnsubscribe(t *testing.T) {
	input := make(chan model.Chunk, 1)
	h := New(input, testClassifier(), quietLogger())
	sub := h.Subscribe()
	h.Unsubscribe(sub)

	if _, ok := <-sub; ok {
		t.Error("expected unsubscribed channel to be closed")
	}

	input <- model.Chunk{Data: []byte("line\n")}
	close(input)
	h.Start(context.Background())
	if h.Dropped() != 0 {
		t.Errorf("expected no drops after unsubscribe, got %d", h.Dropped())
	}
}

func TestHubSlowConsumer(t *testing.T) {
	input := make(chan model.Chunk, 10)
	h := New(input, testClassifier(), quietLogger())

	// Subscribe but never read.
	_ = h.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Start(ctx)

	// Fill beyond the subscriber buffer.
	for i := 0; i < subscriberBuffer+100; i++ {
		input <- model.Chunk{Data: []byte("line\n"), Source: "test"}
	}

	time.Sleep(500 * time.Millisecond)

	if h.Dropped() == 0 {
		t.Error("expected dropped entries for slow consumer, got 0")
	}
}
