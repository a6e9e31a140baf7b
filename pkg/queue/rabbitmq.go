package queue

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const heartbeat = 10 * time.Second

// ConnectRabbitMQ dials the broker and opens one channel. name is shown as
// the connection name in the management UI.
func ConnectRabbitMQ(uri, name string) (*amqp.Connection, *amqp.Channel, error) {
	props := amqp.NewConnectionProperties()
	props.SetClientConnectionName(name)

	conn, err := amqp.DialConfig(uri, amqp.Config{Heartbeat: heartbeat, Properties: props})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to rabbitmq as %s: %w", name, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}

	return conn, ch, nil
}

// DeclareFanout declares a durable fanout exchange.
func DeclareFanout(ch *amqp.Channel, exchange string) error {
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %q: %w", exchange, err)
	}
	return nil
}
