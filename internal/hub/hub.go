package hub

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/atikulmunna/uartwatch/internal/model"
	"github.com/atikulmunna/uartwatch/internal/parser"
	"github.com/atikulmunna/uartwatch/internal/tailer"
)

const subscriberBuffer = 1024

// LineObserver receives every complete line, in order. Watchdog sets and
// report schedulers implement it.
type LineObserver interface {
	Message(line string)
}

// ChunkFunc observes raw chunks before they are split into lines.
type ChunkFunc func(model.Chunk)

// SinkFunc receives every classified line, synchronously and in order.
type SinkFunc func(model.LogEntry)

// Hub is the single dispatcher between the transport and everything that
// consumes console output. It reassembles chunks into lines, classifies them,
// and hands each line to sinks, observers and subscribers in arrival order.
type Hub struct {
	parser    parser.Parser
	assembler *tailer.Assembler
	input     <-chan model.Chunk
	log       logrus.FieldLogger

	chunkFuncs []ChunkFunc
	sinks      []SinkFunc
	observers  []LineObserver

	mu          sync.RWMutex
	subscribers []chan model.LogEntry
	dropped     int64
}

// New creates a Hub that reads from the input channel and classifies with the given parser.
func New(input <-chan model.Chunk, p parser.Parser, log logrus.FieldLogger) *Hub {
	return &Hub{
		parser:    p,
		assembler: tailer.NewAssembler(),
		input:     input,
		log:       log.WithField("component", "hub"),
	}
}

// OnChunk registers functions called for every chunk, such as watchdog heartbeats.
func (h *Hub) OnChunk(fns ...ChunkFunc) {
	h.chunkFuncs = append(h.chunkFuncs, fns...)
}

// AddSink registers functions called for every classified line.
func (h *Hub) AddSink(fns ...SinkFunc) {
	h.sinks = append(h.sinks, fns...)
}

// OnLine registers observers that receive the raw text of every line.
func (h *Hub) OnLine(obs ...LineObserver) {
	h.observers = append(h.observers, obs...)
}

// Subscribe returns a buffered channel that will receive classified entries.
// Slow subscribers lose entries rather than stalling the pipeline.
func (h *Hub) Subscribe() <-chan model.LogEntry {
	ch := make(chan model.LogEntry, subscriberBuffer)
	h.mu.Lock()
	h.subscribers = append(h.subscribers, ch)
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a channel returned by Subscribe.
func (h *Hub) Unsubscribe(sub <-chan model.LogEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, ch := range h.subscribers {
		if ch == sub {
			close(ch)
			h.subscribers = append(h.subscribers[:i], h.subscribers[i+1:]...)
			return
		}
	}
}

// Dropped returns the total number of entries dropped due to slow subscribers.
func (h *Hub) Dropped() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

// Start processes chunks until the context is cancelled or the input channel
// is closed. An unterminated trailing fragment is never emitted.
func (h *Hub) Start(ctx context.Context) {
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case chunk, ok := <-h.input:
			if !ok {
				if rest := h.assembler.Pending(); rest != "" {
					h.log.Debugf("input closed with %d bytes of unterminated line", len(rest))
				}
				return
			}
			h.handle(chunk)
		}
	}
}

func (h *Hub) handle(chunk model.Chunk) {
	for _, fn := range h.chunkFuncs {
		fn(chunk)
	}
	for _, line := range h.assembler.Append(chunk.Data) {
		entry := h.parser.Parse(line, chunk.Source)
		for _, sink := range h.sinks {
			sink(entry)
		}
		for _, obs := range h.observers {
			obs.Message(line)
		}
		h.broadcast(entry)
	}
}

// broadcast sends an entry to all subscribers.
// If a subscriber's channel is full, the entry is dropped for that subscriber.
func (h *Hub) broadcast(entry model.LogEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subscribers {
		select {
		case ch <- entry:
		default:
			h.dropped++
			h.log.Debugf("dropped entry for slow consumer (total dropped: %d)", h.dropped)
		}
	}
}

// closeAll closes all subscriber channels.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subscribers {
		close(ch)
	}
	h.subscribers = nil
}
