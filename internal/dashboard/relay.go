// Package dashboard relays order events from Kafka to remote dashboards, so
// screens outside the till's network see the same stream as the local hub.
package dashboard

import (
	"context"
	"log/slog"

	kafkax "github.com/ariefcatur/go-pos-orders/internal/kafka"
	"github.com/ariefcatur/go-pos-orders/internal/orders"
	kafkago "github.com/segmentio/kafka-go"
)

type broadcaster interface {
	Broadcast(msg []byte) bool
}

type deduper interface {
	First(ctx context.Context, eventID string) (bool, error)
}

type Relay struct {
	Hub   broadcaster
	Dedup deduper // optional
	Log   *slog.Logger
}

// Handle is a kafka.Handler. Undecodable messages are logged and skipped so
// one bad record cannot wedge the partition.
func (r *Relay) Handle(ctx context.Context, m kafkago.Message) error {
	env, err := kafkax.DecodeEnvelope(m)
	if err != nil {
		r.Log.Warn("skipping undecodable message", "partition", m.Partition, "offset", m.Offset, "error", err)
		return nil
	}
	if env.EventType != orders.EventOrderCreated && env.EventType != orders.EventOrderPaid {
		return nil
	} // ignore

	// dedup via Redis (pakai event_id)
	if r.Dedup != nil {
		first, err := r.Dedup.First(ctx, env.EventID)
		if err != nil {
			r.Log.Warn("dedup unavailable, relaying anyway", "event_id", env.EventID, "error", err)
		} else if !first {
			return nil
		}
	}

	o, err := kafkax.UnwrapPayload[orders.Order](env.Payload)
	if err != nil {
		r.Log.Warn("skipping event with bad payload", "event_id", env.EventID, "error", err)
		return nil
	}
	if !r.Hub.Broadcast(m.Value) {
		r.Log.Warn("dashboard hub dropped event", "event_id", env.EventID, "order", o.Number)
		return nil
	}
	r.Log.Debug("event relayed", "event", env.EventType, "order", o.Number, "status", o.Status)
	return nil
}
