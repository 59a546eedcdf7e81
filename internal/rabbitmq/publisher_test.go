package rabbitmq

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Needs a broker at AMQP_URL.
func TestPublishReachesBoundQueue(t *testing.T) {
	url := os.Getenv("AMQP_URL")
	if url == "" {
		t.Skip("AMQP_URL not set")
	}
	p, err := Connect(url, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	conn, err := amqp.Dial(url)
	require.NoError(t, err)
	defer conn.Close()
	ch, err := conn.Channel()
	require.NoError(t, err)
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, "", Exchange, false, nil))
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Publish(ctx, "order:paid", []byte(`{"event_type":"order:paid"}`)))

	select {
	case d := <-deliveries:
		assert.JSONEq(t, `{"event_type":"order:paid"}`, string(d.Body))
		assert.Equal(t, "order:paid", d.RoutingKey)
	case <-ctx.Done():
		t.Fatal("no delivery")
	}

	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Publish(ctx, "order:paid", nil), ErrClosed)
}
