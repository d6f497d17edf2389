package rewards

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vapefi/puffd/internal/log"
	"github.com/vapefi/puffd/pkg/metrics"
)

// DefaultRecordTimeout bounds a single sink call.
const DefaultRecordTimeout = 10 * time.Second

// Dispatcher records puffs on a background worker so the frame loop never
// waits on the network. A full queue drops the puff with a warning.
type Dispatcher struct {
	sink    Sink
	queue   chan Puff
	timeout time.Duration

	mu      sync.RWMutex
	closed  bool
	onError func(p Puff, err error)
	wg      sync.WaitGroup

	authWarned atomic.Bool
}

// NewDispatcher starts a dispatcher with a queue of size entries.
func NewDispatcher(sink Sink, size int) *Dispatcher {
	if size <= 0 {
		size = 1
	}
	d := &Dispatcher{
		sink:    sink,
		queue:   make(chan Puff, size),
		timeout: DefaultRecordTimeout,
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Submit queues a puff without blocking.
func (d *Dispatcher) Submit(p Puff) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}

	select {
	case d.queue <- p:
		return nil
	default:
		metrics.SinkErrors.WithLabelValues("queue_full").Inc()
		log.Warn("rewards queue full, dropping puff", "id", p.ID, "wallet", p.Wallet)
		return ErrQueueFull
	}
}

// OnError sets a callback for puffs the sink rejected.
func (d *Dispatcher) OnError(fn func(p Puff, err error)) {
	d.mu.Lock()
	d.onError = fn
	d.mu.Unlock()
}

// Pending returns the number of queued puffs.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// Close stops accepting puffs and waits for the queue to drain.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	return nil
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for p := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := d.sink.Record(ctx, p)
		cancel()

		if err == nil {
			metrics.PuffsRecorded.Inc()
			continue
		}

		var apiErr *APIError
		isAPIErr := errors.As(err, &apiErr)
		if isAPIErr && apiErr.IsConflict() {
			continue
		}

		if isAPIErr && apiErr.IsUnauthorized() {
			metrics.SinkErrors.WithLabelValues("unauthorized").Inc()
			// Every later puff fails the same way until the key is fixed
			if d.authWarned.CompareAndSwap(false, true) {
				log.Error("rewards backend rejected credentials, check SUPABASE_KEY", "status", apiErr.StatusCode, "error", err)
			} else {
				log.Debug("record puff", "id", p.ID, "wallet", p.Wallet, "error", err)
			}
		} else {
			metrics.SinkErrors.WithLabelValues("record").Inc()
			log.Error("record puff", "id", p.ID, "wallet", p.Wallet, "error", err)
		}
		d.mu.RLock()
		fn := d.onError
		d.mu.RUnlock()
		if fn != nil {
			fn(p, err)
		}
	}
}
