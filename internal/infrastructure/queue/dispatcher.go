package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/moviestream/streaming-api/internal/core/domain"
	"github.com/moviestream/streaming-api/internal/core/ports"
	"github.com/moviestream/streaming-api/internal/pkg/metrics"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
	maxAttempts    = 4
	baseBackoff    = 500 * time.Millisecond
)

// ErrQueueFull is returned by Enqueue when the target worker is saturated.
var ErrQueueFull = errors.New("billing queue full")

// DeadLetterStore keeps events that still failed after every retry.
type DeadLetterStore interface {
	SaveDeadLetter(ctx context.Context, f domain.FailedBillingEvent) error
}

// Dispatcher routes billing events to a fixed set of workers using consistent
// hashing on the event's shard key, so events for one account apply in order.
type Dispatcher struct {
	workers     []chan domain.BillingEvent
	service     ports.BillingEventService
	deadLetters DeadLetterStore
	log         zerolog.Logger

	backoff func(attempt int) time.Duration
	now     func() time.Time
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used. deadLetters may be nil, in which
// case exhausted events are only logged.
func NewDispatcher(numWorkers int, service ports.BillingEventService, deadLetters DeadLetterStore, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:     make([]chan domain.BillingEvent, numWorkers),
		service:     service,
		deadLetters: deadLetters,
		log:         log,
		backoff:     exponentialBackoff,
		now:         time.Now,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.BillingEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands an event to the worker responsible for its account. It never
// blocks; a full worker channel yields ErrQueueFull so the provider retries.
func (d *Dispatcher) Enqueue(event domain.BillingEvent) error {
	idx := d.shardIndex(event.ShardKey())
	select {
	case d.workers[idx] <- event:
		metrics.BillingEventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
		return nil
	default:
		return ErrQueueFull
	}
}

// shardIndex maps a shard key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.BillingEvent) {
	depth := metrics.BillingEventsQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			d.handle(ctx, id, event)
		}
	}
}

func exponentialBackoff(attempt int) time.Duration {
	return baseBackoff << (attempt - 1)
}

// retryable reports whether another attempt could succeed. Bad payloads and
// unknown accounts fail the same way every time.
func retryable(err error) bool {
	return !errors.Is(err, domain.ErrInvalidInput) && !errors.Is(err, domain.ErrAccountNotFound)
}

// handle processes one event and writes it to the dead-letter store when
// every attempt failed.
func (d *Dispatcher) handle(ctx context.Context, workerID int, event domain.BillingEvent) {
	attempt, err := d.process(ctx, workerID, event)
	if err == nil {
		return
	}

	d.log.Error().Err(err).
		Str("event_id", event.ID).
		Str("account_id", event.AccountID).
		Int("attempts", attempt).
		Int("worker_id", workerID).
		Msg("billing event processing failed")

	if d.deadLetters == nil {
		return
	}
	metrics.BillingEventsDeadLetteredTotal.Inc()
	// Detached from ctx so shutdown does not drop the record.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if saveErr := d.deadLetters.SaveDeadLetter(saveCtx, domain.FailedBillingEvent{
		Event:    event,
		Error:    err.Error(),
		Attempts: attempt,
		FailedAt: d.now().UTC(),
	}); saveErr != nil {
		d.log.Error().Err(saveErr).Str("event_id", event.ID).Msg("failed to store dead letter")
	}
}

// process retries transient failures with exponential backoff. It returns the
// number of attempts made and the last error.
func (d *Dispatcher) process(ctx context.Context, workerID int, event domain.BillingEvent) (int, error) {
	for attempt := 1; ; attempt++ {
		err := d.service.Process(ctx, event)
		if err == nil {
			return attempt, nil
		}
		if !retryable(err) || attempt == maxAttempts {
			return attempt, err
		}
		metrics.BillingEventsRetriedTotal.Inc()
		d.log.Warn().Err(err).
			Str("event_id", event.ID).
			Int("attempt", attempt).
			Int("worker_id", workerID).
			Msg("billing event failed, retrying")

		t := time.NewTimer(d.backoff(attempt))
		select {
		case <-ctx.Done():
			t.Stop()
			return attempt, err
		case <-t.C:
		}
	}
}
