package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/servicedesk/service-desk/internal/core/domain"
	"github.com/servicedesk/service-desk/internal/core/ports"
	"github.com/servicedesk/service-desk/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	insertTimeout  = 5 * time.Second
)

// Dispatcher routes audit events to a fixed set of workers using consistent
// hashing on the actor, guaranteeing per-actor event ordering.
type Dispatcher struct {
	workers []chan domain.AuditEvent
	repo    ports.AuditRepository
	log     zerolog.Logger
	wg      sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.AuditRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.AuditEvent, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AuditEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. ctx scopes the inserts but does not
// stop the workers; cancelling it must not lose queued events, so only Stop
// ends them.
func (d *Dispatcher) Start(ctx context.Context) {
	base := context.WithoutCancel(ctx)
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(base, i, ch)
	}
}

// Stop closes the queues and blocks until every buffered event has been
// handed to the repository. Events recorded afterwards are dropped.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// Record enqueues an event on the worker responsible for its actor. It never
// blocks: when that worker's buffer is full, or the dispatcher is stopped,
// the event is dropped and counted.
func (d *Dispatcher) Record(event domain.AuditEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		d.dropped(event, "audit dispatcher stopped, event dropped")
		return
	}
	idx := d.shardIndex(event.Actor)
	select {
	case d.workers[idx] <- event:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		d.dropped(event, "audit queue full, event dropped")
	}
}

func (d *Dispatcher) dropped(event domain.AuditEvent, msg string) {
	metrics.AuditEventsTotal.WithLabelValues("dropped").Inc()
	d.log.Warn().Str("actor", event.Actor).Str("action", string(event.Action)).Msg(msg)
}

// shardIndex maps an actor deterministically to a worker index.
func (d *Dispatcher) shardIndex(actor string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(actor))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AuditEvent) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for event := range ch {
		metrics.AuditQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
		d.store(ctx, id, event)
	}
}

func (d *Dispatcher) store(ctx context.Context, id int, event domain.AuditEvent) {
	insertCtx, cancel := context.WithTimeout(ctx, insertTimeout)
	defer cancel()

	if err := d.repo.InsertEvent(insertCtx, &event); err != nil {
		metrics.AuditEventsTotal.WithLabelValues("failed").Inc()
		d.log.Error().Err(err).
			Str("actor", event.Actor).
			Str("action", string(event.Action)).
			Int("worker_id", id).
			Msg("audit event persistence failed")
		return
	}
	metrics.AuditEventsTotal.WithLabelValues("stored").Inc()
}
