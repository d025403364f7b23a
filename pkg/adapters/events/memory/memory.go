package memory

import (
	"context"
	"sync"

	"github.com/aescanero/studiomuse/pkg/ports"
	"go.uber.org/zap"
)

type subscription struct {
	id      uint64
	handler ports.EventHandler
}

// EventBus implements ports.EventBus with in-process handlers. Each handler
// runs in its own goroutine so a slow subscriber never blocks Publish.
type EventBus struct {
	logger      *zap.Logger
	subscribers map[string][]subscription
	nextID      uint64
	closed      bool
	mu          sync.RWMutex
	wg          sync.WaitGroup
}

// NewEventBus creates a new in-memory event bus
func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{
		logger:      logger,
		subscribers: make(map[string][]subscription),
	}
}

// Publish delivers an event to all subscribers of a topic
func (e *EventBus) Publish(ctx context.Context, topic string, event ports.Event) error {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil
	}
	subs := make([]subscription, len(e.subscribers[topic]))
	copy(subs, e.subscribers[topic])
	e.wg.Add(len(subs))
	e.mu.RUnlock()

	for _, sub := range subs {
		go func(h ports.EventHandler) {
			defer e.wg.Done()
			if err := h(ctx, event); err != nil {
				e.logger.Warn("event handler failed",
					zap.String("topic", topic),
					zap.String("event_id", event.ID),
					zap.Error(err))
			}
		}(sub.handler)
	}

	return nil
}

// Subscribe registers a handler until ctx is cancelled
func (e *EventBus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.subscribers[topic] = append(e.subscribers[topic], subscription{id: id, handler: handler})
	e.mu.Unlock()

	go func() {
		<-ctx.Done()
		e.unsubscribe(topic, id)
	}()

	return nil
}

// Unsubscribe removes all subscriptions from a topic
func (e *EventBus) Unsubscribe(ctx context.Context, topic string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.subscribers, topic)
	return nil
}

// Close drops all subscribers and waits for in-flight handlers
func (e *EventBus) Close() error {
	e.mu.Lock()
	e.closed = true
	e.subscribers = make(map[string][]subscription)
	e.mu.Unlock()

	e.wg.Wait()
	return nil
}

// Subscribers returns the number of handlers on a topic
func (e *EventBus) Subscribers(topic string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.subscribers[topic])
}

func (e *EventBus) unsubscribe(topic string, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	subs := e.subscribers[topic]
	for i, s := range subs {
		if s.id == id {
			e.subscribers[topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
}
