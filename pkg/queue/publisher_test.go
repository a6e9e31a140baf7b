package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockChannel struct {
	mock.Mock
}

func (m *mockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(exchange, key, msg)
	return args.Error(0)
}

func TestPublisherSendsPersistentJSON(t *testing.T) {
	ch := new(mockChannel)
	ch.On("PublishWithContext", "grievance_events", "grievance.created", mock.MatchedBy(func(msg amqp.Publishing) bool {
		var body map[string]string
		return json.Unmarshal(msg.Body, &body) == nil &&
			body["title"] == "Pothole" &&
			msg.DeliveryMode == amqp.Persistent &&
			msg.ContentType == "application/json"
	})).Return(nil)

	p := NewPublisher(ch, "grievance_events")
	err := p.Publish(context.Background(), "grievance.created", map[string]string{"title": "Pothole"})

	require.NoError(t, err)
	ch.AssertExpectations(t)
}

func TestPublisherWrapsError(t *testing.T) {
	ch := new(mockChannel)
	ch.On("PublishWithContext", "ex", "", mock.Anything).Return(errors.New("channel closed"))

	err := NewPublisher(ch, "ex").Publish(context.Background(), "", struct{}{})

	assert.ErrorContains(t, err, "failed to publish message")
}

func TestPublisherRejectsUnmarshalablePayload(t *testing.T) {
	ch := new(mockChannel)
	err := NewPublisher(ch, "ex").Publish(context.Background(), "", make(chan int))

	assert.ErrorContains(t, err, "failed to marshal payload")
	ch.AssertNotCalled(t, "PublishWithContext", mock.Anything, mock.Anything, mock.Anything)
}
