package tailer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/benbjohnson/clock"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/atikulmunna/uartwatch/internal/model"
	"github.com/atikulmunna/uartwatch/internal/watcher"
)

const (
	readBufferSize = 4096
	chunkBuffer    = 512
)

// Tailer reads raw bytes from the console transport and emits them as chunks,
// in the order they were read.
type Tailer struct {
	src    io.Reader
	source string
	out    chan model.Chunk
	events <-chan watcher.Event
	clock  clock.Clock
	log    logrus.FieldLogger
}

// New creates a Tailer reading from src. If src is also an io.Closer it is
// closed when the context passed to Start is cancelled, which unblocks reads
// on serial ports.
func New(src io.Reader, source string, log logrus.FieldLogger) *Tailer {
	return &Tailer{
		src:    src,
		source: source,
		out:    make(chan model.Chunk, chunkBuffer),
		clock:  clock.New(),
		log:    log.WithFields(logrus.Fields{"component": "tailer", "source": source}),
	}
}

// Follow makes the Tailer wait for write events at EOF instead of stopping,
// like tail -f on a captured console file.
func (t *Tailer) Follow(w *watcher.Watcher) *Tailer {
	t.events = w.Events
	return t
}

// WithClock replaces the time source used to stamp chunks.
func (t *Tailer) WithClock(clk clock.Clock) *Tailer {
	t.clock = clk
	return t
}

// Chunks returns the channel where raw chunks are sent.
func (t *Tailer) Chunks() <-chan model.Chunk {
	return t.out
}

// Start reads until EOF (when not following), a read error, or context
// cancellation. The chunk channel is closed on return.
func (t *Tailer) Start(ctx context.Context) error {
	defer close(t.out)

	if c, ok := t.src.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() {
			if err := c.Close(); err != nil {
				t.log.WithError(err).Debug("close on shutdown")
			}
		})
		defer stop()
	}

	buf := make([]byte, readBufferSize)
	for {
		n, err := t.src.Read(buf)
		if n > 0 {
			chunk := model.Chunk{
				Data:   append([]byte(nil), buf[:n]...),
				Source: t.source,
				Time:   t.clock.Now(),
			}
			select {
			case t.out <- chunk:
			case <-ctx.Done():
				return nil
			}
		}
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, io.EOF) {
			if t.events == nil || !t.waitForWrite(ctx) {
				return nil
			}
			continue
		}
		return fmt.Errorf("read %s: %w", t.source, err)
	}
}

// waitForWrite blocks until the followed file grows again.
func (t *Tailer) waitForWrite(ctx context.Context) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-t.events:
			if !ok {
				return false
			}
			switch {
			case ev.Op&fsnotify.Write != 0, ev.Op&fsnotify.Create != 0:
				return true
			case ev.Op&fsnotify.Remove != 0, ev.Op&fsnotify.Rename != 0:
				t.log.Warnf("followed file %s was rotated or removed", ev.Path)
			}
		}
	}
}
