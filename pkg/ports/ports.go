// Package ports declares the interfaces the application layer depends on.
// Adapters under pkg/adapters implement them.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/aescanero/studiomuse/pkg/domain"
	"github.com/google/uuid"
)

// ErrPaletteNotFound is returned by PaletteStorage when a palette does not exist
var ErrPaletteNotFound = errors.New("palette not found")

// EventType identifies a palette event
type EventType string

const (
	EventTypePaletteCreated     EventType = "palette.created"
	EventTypePaletteDemystified EventType = "palette.demystified"
	EventTypePaletteDeleted     EventType = "palette.deleted"
)

// TopicPalettes is the topic all palette events are published on
const TopicPalettes = "palette.events"

// Event is published after a palette operation completes
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Subject   string                 `json:"subject"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// NewEvent creates an event with a fresh ID and the current time
func NewEvent(eventType EventType, subject string, data map[string]interface{}) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Subject:   subject,
		Data:      data,
	}
}

// EventHandler handles a single event
type EventHandler func(ctx context.Context, event Event) error

// EventBus publishes and delivers events
type EventBus interface {
	Publish(ctx context.Context, topic string, event Event) error
	Subscribe(ctx context.Context, topic string, handler EventHandler) error
	Unsubscribe(ctx context.Context, topic string) error
	Close() error
}

// PaletteStorage persists physical palettes keyed by name
type PaletteStorage interface {
	Save(ctx context.Context, palette *domain.PhysicalPalette) error
	Load(ctx context.Context, name string) (*domain.PhysicalPalette, error)
	Delete(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
	List(ctx context.Context) ([]string, error)
}

// MetricsCollector records pipeline metrics
type MetricsCollector interface {
	RecordLLMCall(provider, status string, duration time.Duration)
	RecordNormalization(shape, status string)
	RecordOperation(operation, status string, duration time.Duration)
	RecordPaletteSaved(source string)
	RecordClientInstances(count int)
	RecordCallPoolStatus(inFlight, capacity int)
}
