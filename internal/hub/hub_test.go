package hub

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startHub(t *testing.T) (*Hub, *httptest.Server, context.CancelFunc) {
	t.Helper()
	h := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return h, srv, cancel
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestBroadcastReachesEveryDashboard(t *testing.T) {
	h, srv, _ := startHub(t)
	a := dial(t, srv)
	b := dial(t, srv)
	require.Eventually(t, func() bool { return h.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	require.True(t, h.Broadcast([]byte(`{"event_type":"order:paid"}`)))

	for _, c := range []*websocket.Conn{a, b} {
		_ = c.SetReadDeadline(time.Now().Add(time.Second))
		_, msg, err := c.ReadMessage()
		require.NoError(t, err)
		assert.JSONEq(t, `{"event_type":"order:paid"}`, string(msg))
	}
}

func TestDisconnectUnregisters(t *testing.T) {
	h, srv, _ := startHub(t)
	c := dial(t, srv)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Close())
	assert.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestShutdownClosesDashboards(t *testing.T) {
	h, srv, cancel := startHub(t)
	c := dial(t, srv)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()

	_ = c.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := c.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)

	assert.Eventually(t, func() bool { return !h.Broadcast([]byte("late")) }, time.Second, 5*time.Millisecond)
}
