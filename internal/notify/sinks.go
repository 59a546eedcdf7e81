package notify

import (
	"context"
	"encoding/json"
	"errors"

	kafkax "github.com/ariefcatur/go-pos-orders/internal/kafka"
	"github.com/ariefcatur/go-pos-orders/internal/orders"
	kafkago "github.com/segmentio/kafka-go"
)

var ErrDropped = errors.New("notification dropped")

type broadcaster interface {
	Broadcast(msg []byte) bool
}

// HubSink pushes envelopes to dashboards connected to this process.
type HubSink struct {
	Hub broadcaster
}

func (HubSink) Name() string { return "hub" }

func (s HubSink) Send(_ context.Context, env orders.Envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if !s.Hub.Broadcast(b) {
		return ErrDropped
	}
	return nil
}

type messagePublisher interface {
	Publish(m kafkago.Message) bool
}

// KafkaSink hands envelopes to the buffered producer for the orders topic.
type KafkaSink struct {
	Producer messagePublisher
}

func (KafkaSink) Name() string { return "kafka" }

func (s KafkaSink) Send(_ context.Context, env orders.Envelope) error {
	m, err := kafkax.EnvelopeMessage(env)
	if err != nil {
		return err
	}
	if !s.Producer.Publish(m) {
		return ErrDropped
	}
	return nil
}

type amqpPublisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// AMQPSink publishes to the rabbitmq fanout exchange, routed by event type.
type AMQPSink struct {
	Publisher amqpPublisher
}

func (AMQPSink) Name() string { return "amqp" }

func (s AMQPSink) Send(ctx context.Context, env orders.Envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return s.Publisher.Publish(ctx, env.EventType, b)
}
