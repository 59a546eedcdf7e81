package kafka

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ariefcatur/go-pos-orders/internal/orders"
	"github.com/segmentio/kafka-go"
)

const (
	HeaderEventType    = "x-event-type"
	HeaderEventVersion = "x-event-version"
)

// EnvelopeMessage keys the message by order so one order's events stay in
// one partition.
func EnvelopeMessage(env orders.Envelope) (kafka.Message, error) {
	b, err := json.Marshal(env)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode envelope: %w", err)
	}
	return kafka.Message{
		Key:   orders.PartitionKey(env.CorrelationID),
		Value: b,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(env.EventType)},
			{Key: HeaderEventVersion, Value: []byte(strconv.Itoa(env.EventVersion))},
		},
	}, nil
}

func DecodeEnvelope(m kafka.Message) (orders.Envelope, error) {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return env, fmt.Errorf("decode envelope: %w", err)
	}
	if env.EventID == "" || env.EventType == "" {
		return env, fmt.Errorf("decode envelope: missing event_id or event_type")
	}
	return env, nil
}

// Unwrap memudahkan decode payload spesifik
func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}
