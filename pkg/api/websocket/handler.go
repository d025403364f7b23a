package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/aescanero/studiomuse/pkg/ports"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	clientBuffer = 16
	writeTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // local plugin clients send no Origin
	},
}

type client struct {
	events    chan ports.Event
	eventType ports.EventType
}

// Handler fans palette events out to WebSocket clients. It subscribes to
// the event bus once; with a Redis consumer group every subscription would
// compete for messages instead of receiving all of them.
type Handler struct {
	eventBus ports.EventBus
	logger   *zap.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewHandler creates a new WebSocket handler
func NewHandler(eventBus ports.EventBus, logger *zap.Logger) *Handler {
	return &Handler{
		eventBus: eventBus,
		logger:   logger,
		clients:  make(map[*client]struct{}),
	}
}

// Start subscribes to palette events until ctx is cancelled
func (h *Handler) Start(ctx context.Context) error {
	return h.eventBus.Subscribe(ctx, ports.TopicPalettes, h.broadcast)
}

// Clients returns the number of connected clients
func (h *Handler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Handler) broadcast(ctx context.Context, event ports.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if c.eventType != "" && c.eventType != event.Type {
			continue
		}
		select {
		case c.events <- event:
		default:
			h.logger.Warn("client buffer full, dropping event",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)))
		}
	}
	return nil
}

func (h *Handler) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Handler) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// HandlePaletteStream upgrades the connection and streams palette events
func (h *Handler) HandlePaletteStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	sub := &client{
		events:    make(chan ports.Event, clientBuffer),
		eventType: ports.EventType(c.Query("type")),
	}
	h.register(sub)
	defer h.unregister(sub)

	h.logger.Info("WebSocket connection established",
		zap.String("client", c.ClientIP()),
		zap.String("type", string(sub.eventType)))

	// The reader only exists to notice the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-closed:
			h.logger.Debug("WebSocket client disconnected", zap.String("client", c.ClientIP()))
			return
		case event := <-sub.events:
			data, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("failed to marshal event", zap.Error(err))
				continue
			}

			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Error("failed to write message", zap.Error(err))
				return
			}
		}
	}
}
