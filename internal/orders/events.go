package orders

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderCreated = "order:created"
	EventOrderPaid    = "order:paid"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`                  // Order
}

func NewEnvelope(eventType, producer string, o Order) (Envelope, error) {
	payload, err := json.Marshal(o)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: o.ID,
		Payload:       payload,
	}, nil
}
