package dashboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	kafkax "github.com/ariefcatur/go-pos-orders/internal/kafka"
	"github.com/ariefcatur/go-pos-orders/internal/orders"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHub struct{ msgs [][]byte }

func (h *fakeHub) Broadcast(b []byte) bool {
	h.msgs = append(h.msgs, b)
	return true
}

type fakeDedup struct {
	seen map[string]bool
	err  error
}

func (d *fakeDedup) First(_ context.Context, id string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	if d.seen[id] {
		return false, nil
	}
	d.seen[id] = true
	return true, nil
}

func message(t *testing.T, event string) kafkago.Message {
	t.Helper()
	env, err := orders.NewEnvelope(event, "pos-api", orders.Order{ID: "o-1", Number: "ORD-20240115-1423-0001", Status: orders.StatusCompleted})
	require.NoError(t, err)
	m, err := kafkax.EnvelopeMessage(env)
	require.NoError(t, err)
	return m
}

func newRelay(d deduper) (*Relay, *fakeHub) {
	h := &fakeHub{}
	return &Relay{Hub: h, Dedup: d, Log: slog.New(slog.NewTextHandler(io.Discard, nil))}, h
}

func TestRelayBroadcastsOnce(t *testing.T) {
	r, h := newRelay(&fakeDedup{seen: map[string]bool{}})
	m := message(t, orders.EventOrderPaid)

	require.NoError(t, r.Handle(context.Background(), m))
	require.NoError(t, r.Handle(context.Background(), m))

	require.Len(t, h.msgs, 1)
	assert.Equal(t, m.Value, h.msgs[0])
}

func TestRelaySkipsGarbageAndUnknownEvents(t *testing.T) {
	r, h := newRelay(nil)

	require.NoError(t, r.Handle(context.Background(), kafkago.Message{Value: []byte("{nope")}))
	require.NoError(t, r.Handle(context.Background(), message(t, "order:voided")))
	assert.Empty(t, h.msgs)
}

func TestRelayWithoutRedisStillRelays(t *testing.T) {
	r, h := newRelay(&fakeDedup{err: errors.New("redis down")})
	require.NoError(t, r.Handle(context.Background(), message(t, orders.EventOrderCreated)))
	assert.Len(t, h.msgs, 1)
}
