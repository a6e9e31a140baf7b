package main

import (
	"context"
	"encoding/json"

	"grievance-portal/pkg/events"
	"grievance-portal/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Consume forwards notifications that address accounts to the hub until
// ctx is cancelled or msgs closes.
func Consume(ctx context.Context, msgs <-chan amqp.Delivery, hub *Hub) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-msgs:
			if !ok {
				return
			}
			handleDelivery(ctx, d, hub)
		}
	}
}

func handleDelivery(ctx context.Context, d amqp.Delivery, hub *Hub) {
	var n events.Notification
	if err := json.Unmarshal(d.Body, &n); err != nil {
		logger.Warn(ctx, "dropping malformed notification", err)
		_ = d.Reject(false)
		return
	}
	if len(n.UserIDs) > 0 && !hub.Publish(n) {
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}
