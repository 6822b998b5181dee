package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/milkmix/farm-backend/internal/api/metrics"
	"github.com/milkmix/farm-backend/internal/core/domain"
	"github.com/milkmix/farm-backend/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	sendTimeout    = 30 * time.Second
)

// Dispatcher delivers notifications in the background through a fixed set of
// workers. Messages are sharded by recipient so one inbox receives them in order.
type Dispatcher struct {
	workers []chan domain.Mail
	mailer  ports.Mailer
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, mailer ports.Mailer, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.Mail, numWorkers),
		mailer:  mailer,
		log:     log.With().Str("component", "notifier").Logger(),
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Mail, channelBuffer)
	}
	return d
}

// Run starts the workers and blocks until ctx is cancelled and every worker
// has drained its channel.
func (d *Dispatcher) Run(ctx context.Context) error {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
	d.wg.Wait()
	return nil
}

// Notify enqueues m without blocking. When the worker's channel is full the
// message is dropped and logged.
func (d *Dispatcher) Notify(m domain.Mail) {
	idx := d.shardIndex(m.To)
	select {
	case d.workers[idx] <- m:
		metrics.NotificationsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		metrics.NotificationsTotal.WithLabelValues(m.Kind, "dropped").Inc()
		d.log.Warn().Str("to", m.To).Str("kind", m.Kind).Int("worker_id", idx).Msg("notification queue full, dropped")
	}
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(recipient string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(recipient))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Mail) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch)
			return
		case m := <-ch:
			d.deliver(context.WithoutCancel(ctx), id, m)
		}
	}
}

// drain delivers what is already queued so a shutdown does not lose it.
func (d *Dispatcher) drain(id int, ch <-chan domain.Mail) {
	for {
		select {
		case m := <-ch:
			d.deliver(context.Background(), id, m)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, id int, m domain.Mail) {
	metrics.NotificationsQueueDepth.WithLabelValues(strconv.Itoa(id)).Dec()

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	start := time.Now()
	err := d.mailer.Send(ctx, m)
	metrics.NotificationDeliveryDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.NotificationsTotal.WithLabelValues(m.Kind, "failed").Inc()
		d.log.Error().Err(err).
			Str("to", m.To).
			Str("kind", m.Kind).
			Int("worker_id", id).
			Msg("notification delivery failed")
		return
	}
	metrics.NotificationsTotal.WithLabelValues(m.Kind, "sent").Inc()
}
