package simulator

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const (
	// subscriberBufferSize bounds each subscriber's channel; a slow
	// subscriber drops events rather than stalling the driver.
	subscriberBufferSize = 4096
	// defaultNTasks shards MaxOrders into this many contiguous chunks when
	// Config.NTasks is left zero.
	defaultNTasks = 100
)

// broadcastHub fans generated orders out to every subscriber registered
// before Run starts. There is no native multi-producer/multi-consumer
// broadcast channel in Go; this is a small fan-out registry of per-
// subscriber buffered channels, generalizing the single-callback output
// distributor pattern used elsewhere in the example pack to N independent
// channel subscribers.
type broadcastHub struct {
	mu          sync.RWMutex
	subscribers []chan Order
}

func newBroadcastHub() *broadcastHub {
	return &broadcastHub{}
}

// subscribe registers a new buffered channel and returns it for reading.
// Must be called before Run; subscribers added afterward are not
// guaranteed to observe earlier events.
func (h *broadcastHub) subscribe() <-chan Order {
	ch := make(chan Order, subscriberBufferSize)
	h.mu.Lock()
	h.subscribers = append(h.subscribers, ch)
	h.mu.Unlock()
	return ch
}

// publish fans o out to every subscriber. A send to a full subscriber
// channel is dropped and logged rather than blocking the other
// subscribers or the publishing worker; with no subscribers at all, the
// event is dropped and logged too.
func (h *broadcastHub) publish(o Order) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.subscribers) == 0 {
		log.Warn().Uint64("sequence", o.Sequence).Msg("dropped order event: no subscribers")
		return
	}
	for _, ch := range h.subscribers {
		select {
		case ch <- o:
		default:
			log.Warn().Uint64("sequence", o.Sequence).Msg("dropped order event: subscriber buffer full")
		}
	}
}

// close closes every subscriber channel, signaling no more events will
// arrive. Called once after all workers have finished publishing.
func (h *broadcastHub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subscribers {
		close(ch)
	}
}

// Driver shards Config.MaxOrders worth of generated order flow across
// Config.NTasks goroutines managed under a single tomb.Tomb, and fans the
// resulting events out to every Subscribe-d consumer.
type Driver struct {
	cfg Config
	gen *Generator
	hub *broadcastHub

	// HonorLatency, when true, makes each worker sleep for the latency a
	// generated event carries before publishing it. Default false,
	// matching the original reference's commented-out sleep — an explicit
	// toggle instead of silently discarding the field (see DESIGN.md).
	HonorLatency bool
}

// NewDriver builds a Driver around a template Generator; each worker clones
// it independently so no RNG or trader state is shared across goroutines.
func NewDriver(cfg Config, gen *Generator) *Driver {
	return &Driver{cfg: cfg, gen: gen, hub: newBroadcastHub()}
}

// Subscribe registers a new consumer channel. Must be called before Run.
func (d *Driver) Subscribe() <-chan Order {
	return d.hub.subscribe()
}

// Run shards [0, MaxOrders) into NTasks contiguous chunks and runs one
// goroutine per chunk under a tomb.Tomb, the same managed-goroutine-pool
// primitive the teacher uses for its worker pool and TCP server. A single
// worker's error is logged and does not abort the others; Run returns the
// first error any worker reported, once every worker has finished.
func (d *Driver) Run(ctx context.Context) error {
	nTasks := d.cfg.NTasks
	if nTasks == 0 {
		nTasks = defaultNTasks
	}
	if nTasks > d.cfg.MaxOrders && d.cfg.MaxOrders > 0 {
		nTasks = d.cfg.MaxOrders
	}

	t, _ := tomb.WithContext(ctx)
	chunks := shard(d.cfg.MaxOrders, nTasks)

	var (
		errOnce  sync.Once
		firstErr error
	)
	for workerID, c := range chunks {
		workerID, c := workerID, c
		t.Go(func() error {
			if err := d.runWorker(t, int64(workerID), c); err != nil {
				log.Error().Err(err).Int("worker", workerID).Msg("simulation worker failed")
				errOnce.Do(func() { firstErr = err })
			}
			return nil
		})
	}

	err := t.Wait()
	d.hub.close()
	if firstErr != nil {
		err = firstErr
	}
	if err != nil {
		log.Error().Err(err).Msg("simulation driver finished with an error")
	}
	return err
}

type chunk struct {
	start, end uint64 // [start, end)
}

// shard splits [0, total) into at most n contiguous, roughly equal chunks.
func shard(total, n uint64) []chunk {
	if n == 0 || total == 0 {
		return nil
	}
	base := total / n
	rem := total % n
	chunks := make([]chunk, 0, n)
	var cursor uint64
	for i := uint64(0); i < n && cursor < total; i++ {
		size := base
		if i < rem {
			size++
		}
		if size == 0 {
			continue
		}
		chunks = append(chunks, chunk{start: cursor, end: cursor + size})
		cursor += size
	}
	return chunks
}

func (d *Driver) runWorker(t *tomb.Tomb, seed int64, c chunk) error {
	gen := d.gen.Clone(seed)
	for seq := c.start; seq < c.end; seq++ {
		select {
		case <-t.Dying():
			return nil
		default:
		}

		order, latency := gen.GenOrder(seq)
		if d.HonorLatency && latency > 0 {
			select {
			case <-t.Dying():
				return nil
			case <-time.After(latency):
			}
		}
		d.hub.publish(order)
	}
	return nil
}
