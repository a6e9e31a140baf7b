package queue

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ConsumeMessages declares a durable queue bound to exchange and starts a
// manual-ack consumer on it.
func ConsumeMessages(ch *amqp.Channel, exchange, queueName string) (<-chan amqp.Delivery, error) {
	if err := DeclareFanout(ch, exchange); err != nil {
		return nil, err
	}

	q, err := ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", exchange, false, nil); err != nil {
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register consumer: %w", err)
	}
	return msgs, nil
}
