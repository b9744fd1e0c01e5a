package eventlogger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// drainTimeout bounds how long Shutdown spends writing queued events.
const drainTimeout = 5 * time.Second

// Worker is a Publisher that hands events to a Sink on its own goroutine,
// so audit writes never sit on the request path.
type Worker struct {
	queue   chan Event
	sink    Sink
	log     *slog.Logger
	dropped atomic.Int64
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewWorker(sink Sink, bufferSize int, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		queue:  make(chan Event, max(bufferSize, 1)),
		sink:   sink,
		log:    logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (w *Worker) Start() {
	w.wg.Go(func() {
		for {
			select {
			case <-w.ctx.Done():
				w.drain()
				return
			case event := <-w.queue:
				w.save(w.ctx, event)
			}
		}
	})
}

// Log queues event. A full queue drops it rather than block the caller.
func (w *Worker) Log(event Event) {
	select {
	case w.queue <- event:
	default:
		w.dropped.Add(1)
		w.log.Warn("event queue full, dropping event", "event_type", event.Type, "actor_id", event.Metadata["actor_id"])
	}
}

// Dropped reports how many events Log discarded.
func (w *Worker) Dropped() int64 {
	return w.dropped.Load()
}

// Shutdown stops the worker after writing whatever is still queued.
func (w *Worker) Shutdown() {
	w.cancel()
	w.wg.Wait()
	if n := w.Dropped(); n > 0 {
		w.log.Warn("events dropped while running", "count", n)
	}
}

func (w *Worker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	w.log.Info("draining events before shutdown", "remaining_events", len(w.queue))
	for {
		select {
		case event := <-w.queue:
			w.save(ctx, event)
		default:
			return
		}
	}
}

func (w *Worker) save(ctx context.Context, event Event) {
	if err := w.sink.Save(ctx, event); err != nil {
		w.log.Error("failed to save event", "error", err, "event_type", event.Type, "event_id", event.ID)
	}
}
