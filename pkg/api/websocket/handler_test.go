package websocket_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	memevents "github.com/aescanero/studiomuse/pkg/adapters/events/memory"
	"github.com/aescanero/studiomuse/pkg/api/websocket"
	"github.com/aescanero/studiomuse/pkg/ports"
)

func newStream(t *testing.T) (*memevents.EventBus, *websocket.Handler, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bus := memevents.NewEventBus(zap.NewNop())
	handler := websocket.NewHandler(bus, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, handler.Start(ctx))

	router := gin.New()
	router.GET("/ws", handler.HandlePaletteStream)
	ts := httptest.NewServer(router)

	t.Cleanup(func() {
		ts.Close()
		cancel()
		_ = bus.Close()
	})
	return bus, handler, ts
}

func dial(t *testing.T, ts *httptest.Server, query string) *gorilla.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws" + query
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForClients(t *testing.T, h *websocket.Handler, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Clients() == n }, time.Second, 10*time.Millisecond)
}

func TestHandler_StreamsPaletteEvents(t *testing.T) {
	bus, handler, ts := newStream(t)
	first := dial(t, ts, "")
	second := dial(t, ts, "")
	waitForClients(t, handler, 2)

	event := ports.NewEvent(ports.EventTypePaletteCreated, "Test Pastel Set", map[string]interface{}{"num_colors": 3})
	require.NoError(t, bus.Publish(context.Background(), ports.TopicPalettes, event))

	for _, conn := range []*gorilla.Conn{first, second} {
		_ = conn.SetReadDeadline(time.Now().Add(time.Second))
		var got ports.Event
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, event.ID, got.ID)
		assert.Equal(t, ports.EventTypePaletteCreated, got.Type)
		assert.Equal(t, "Test Pastel Set", got.Subject)
	}
}

func TestHandler_FiltersByType(t *testing.T) {
	bus, handler, ts := newStream(t)
	conn := dial(t, ts, "?type=palette.deleted")
	waitForClients(t, handler, 1)

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, ports.TopicPalettes, ports.NewEvent(ports.EventTypePaletteCreated, "a", nil)))
	deleted := ports.NewEvent(ports.EventTypePaletteDeleted, "b", nil)
	require.NoError(t, bus.Publish(ctx, ports.TopicPalettes, deleted))

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var got ports.Event
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, deleted.ID, got.ID)
}

func TestHandler_UnregistersOnDisconnect(t *testing.T) {
	_, handler, ts := newStream(t)
	conn := dial(t, ts, "")
	waitForClients(t, handler, 1)

	require.NoError(t, conn.Close())

	waitForClients(t, handler, 0)
}
