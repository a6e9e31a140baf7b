package main

import (
	"context"
	"encoding/json"
	"fmt"

	"grievance-portal/pkg/events"
	"grievance-portal/pkg/logger"
	"grievance-portal/pkg/mailer"

	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Worker delivers notification emails taken from the events exchange.
type Worker struct {
	mailer    mailer.Mailer
	processed *prometheus.CounterVec
}

func NewWorker(m mailer.Mailer, reg prometheus.Registerer) *Worker {
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "email_deliveries_total",
		Help: "Notification emails handled by the dispatcher, by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(processed)
	return &Worker{mailer: m, processed: processed}
}

// Run handles deliveries until ctx is cancelled or the channel closes.
func (w *Worker) Run(ctx context.Context, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-msgs:
			if !ok {
				return
			}
			w.Handle(ctx, d)
		}
	}
}

// Handle sends one notification. Malformed messages are dropped, a failed
// send is requeued once and dropped on the second failure.
func (w *Worker) Handle(ctx context.Context, d amqp.Delivery) {
	var n events.Notification
	if err := json.Unmarshal(d.Body, &n); err != nil {
		logger.Warn(ctx, "dropping malformed notification", err)
		w.processed.WithLabelValues("malformed").Inc()
		_ = d.Reject(false)
		return
	}

	ctx = logger.WithTraceID(ctx, n.TraceID)
	if len(n.Recipients) == 0 {
		w.processed.WithLabelValues("skipped").Inc()
		_ = d.Ack(false)
		return
	}

	if err := w.mailer.Send(ctx, n.Recipients, n.Subject, n.HTML); err != nil {
		logger.Warn(ctx, fmt.Sprintf("failed to send %s email", n.Type), err)
		w.processed.WithLabelValues("failed").Inc()
		_ = d.Nack(false, !d.Redelivered)
		return
	}

	logger.Info(ctx, fmt.Sprintf("sent %s email to %d recipient(s)", n.Type, len(n.Recipients)))
	w.processed.WithLabelValues("sent").Inc()
	_ = d.Ack(false)
}
