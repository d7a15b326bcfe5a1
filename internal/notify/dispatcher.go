package notify

import (
	"context"
	"sync"
	"time"

	"github.com/Skotchmaster/shop_payments/pkg/logging"
	"github.com/Skotchmaster/shop_payments/pkg/metrics"
)

const enqueueTimeout = time.Second

// Dispatcher hands messages to a pool of workers so request handlers never
// wait on mail or broker latency.
type Dispatcher struct {
	sender  Sender
	metrics *metrics.ServerMetrics
	jobs    chan Message
	workers int

	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(sender Sender, workers, buf int, m *metrics.ServerMetrics) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if buf <= 0 {
		buf = 256
	}
	return &Dispatcher{
		sender:  sender,
		metrics: m,
		jobs:    make(chan Message, buf),
		workers: workers,
	}
}

// Start launches the workers. ctx carries the logger; workers stop after
// Close drains the queue.
func (d *Dispatcher) Start(ctx context.Context) {
	log := logging.FromContext(ctx).With("svc", "notify.dispatcher")
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for msg := range d.jobs {
				sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
				err := d.sender.Send(sendCtx, msg)
				cancel()
				if err != nil {
					d.metrics.NotificationOutcome(string(msg.Kind), "failed")
					log.Error("notification_send_failed", "kind", msg.Kind, "order_id", msg.OrderID, "error", err)
					continue
				}
				d.metrics.NotificationOutcome(string(msg.Kind), "sent")
				log.Info("notification_sent", "kind", msg.Kind, "order_id", msg.OrderID)
			}
		}()
	}
}

func (d *Dispatcher) Notify(ctx context.Context, msg Message) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		logging.FromContext(ctx).Warn("notification_dropped", "kind", msg.Kind, "order_id", msg.OrderID, "reason", "dispatcher closed")
		return
	}

	timer := time.NewTimer(enqueueTimeout)
	defer timer.Stop()

	select {
	case d.jobs <- msg:
	case <-timer.C:
		d.metrics.NotificationOutcome(string(msg.Kind), "dropped")
		logging.FromContext(ctx).Error("notification_dropped", "kind", msg.Kind, "order_id", msg.OrderID, "reason", "queue full")
	}
}

// Close stops intake and waits for queued messages to be sent.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()
	d.wg.Wait()
}
