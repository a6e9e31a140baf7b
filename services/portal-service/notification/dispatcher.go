// Package notification turns workflow outcomes into rendered messages and
// hands them off for delivery. Delivery failures never reach the caller.
package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"grievance-portal/pkg/events"
	"grievance-portal/pkg/logger"
	"grievance-portal/pkg/mailer"

	"github.com/prometheus/client_golang/prometheus"
)

// Dispatcher delivers a notification on a best-effort basis.
type Dispatcher interface {
	Dispatch(ctx context.Context, n events.Notification)
}

type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}

// QueueDispatcher publishes notifications to the events exchange, where the
// mail and in-app workers pick them up.
type QueueDispatcher struct {
	publisher Publisher
	events    *prometheus.CounterVec
}

func NewQueueDispatcher(p Publisher, reg prometheus.Registerer) *QueueDispatcher {
	return &QueueDispatcher{publisher: p, events: eventCounter(reg)}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, n events.Notification) {
	if len(n.Recipients) == 0 && len(n.UserIDs) == 0 {
		d.events.WithLabelValues("skipped").Inc()
		return
	}
	n.TraceID = logger.TraceID(ctx)

	if err := d.publisher.Publish(context.WithoutCancel(ctx), n.Type, n); err != nil {
		d.events.WithLabelValues("failed").Inc()
		logger.Warn(ctx, "Failed to publish notification "+n.Type, err)
		return
	}
	d.events.WithLabelValues("published").Inc()
}

// DirectDispatcher mails notifications from a background goroutine. It is
// used when no broker is configured.
type DirectDispatcher struct {
	mailer  mailer.Mailer
	timeout time.Duration
	events  *prometheus.CounterVec
	wg      sync.WaitGroup
}

func NewDirectDispatcher(m mailer.Mailer, reg prometheus.Registerer) *DirectDispatcher {
	return &DirectDispatcher{mailer: m, timeout: 30 * time.Second, events: eventCounter(reg)}
}

func (d *DirectDispatcher) Dispatch(ctx context.Context, n events.Notification) {
	if len(n.Recipients) == 0 {
		d.events.WithLabelValues("skipped").Inc()
		return
	}

	bg := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		sendCtx, cancel := context.WithTimeout(bg, d.timeout)
		defer cancel()

		if err := d.mailer.Send(sendCtx, n.Recipients, n.Subject, n.HTML); err != nil {
			d.events.WithLabelValues("failed").Inc()
			logger.Warn(bg, "Failed to send notification "+n.Type, err)
			return
		}
		d.events.WithLabelValues("sent").Inc()
	}()
}

// Wait blocks until every in-flight delivery has finished.
func (d *DirectDispatcher) Wait() {
	d.wg.Wait()
}

func eventCounter(reg prometheus.Registerer) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_events_total",
		Help: "Notification hand-offs by result",
	}, []string{"result"})
	if reg == nil {
		return c
	}
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector.(*prometheus.CounterVec)
		}
	}
	return c
}
