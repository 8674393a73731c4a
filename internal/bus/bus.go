// Package bus carries user-facing progress lines from the dispatch engine
// to a single consumer (the CLI), one bounded channel instead of shared
// queues polled by display code.
package bus

import (
	"log/slog"
	"sync"
	"time"
)

const publishTimeout = 5 * time.Second

// SystemWorker identifies events coming from the coordinator rather than a
// dispatch worker.
const SystemWorker = 0

// Event is one progress line. Worker is 1 or 2 for the dispatch workers,
// SystemWorker for coordinator-level events.
type Event struct {
	Worker  int
	Message string
	Time    time.Time
}

// Bus is a bounded in-process event stream with exactly one consumer.
type Bus struct {
	events chan Event
	mu     sync.RWMutex
	closed bool
	logger *slog.Logger
}

// New creates a Bus with the given buffer size.
func New(bufferSize int, logger *slog.Logger) *Bus {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &Bus{
		events: make(chan Event, bufferSize),
		logger: logger,
	}
}

// Publish enqueues an event, blocking up to 5 seconds if the bus is full
// instead of dropping. A slow consumer costs latency, never lost lines,
// until the timeout.
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		b.logger.Warn("attempted to publish to closed bus")
		return
	}
	if evt.Time.IsZero() {
		evt.Time = time.Now()
	}

	select {
	case b.events <- evt:
	default:
		timer := time.NewTimer(publishTimeout)
		defer timer.Stop()
		select {
		case b.events <- evt:
		case <-timer.C:
			b.logger.Error("progress event dropped: bus full", "worker", evt.Worker, "message", evt.Message)
		}
	}
}

// Subscribe returns the event stream. There must be exactly one consumer.
func (b *Bus) Subscribe() <-chan Event {
	return b.events
}

// Close closes the stream. Publish after Close is a logged no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		close(b.events)
	}
}
