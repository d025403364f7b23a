package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aescanero/studiomuse/internal/application/workers"
	"github.com/aescanero/studiomuse/pkg/adapters/llm"
	"github.com/aescanero/studiomuse/pkg/ports"
	"go.uber.org/zap"
)

const (
	operationDemystify = "demystify"
	operationCreate    = "create"
)

// ErrorKind classifies a failed Outcome
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindConfiguration ErrorKind = "configuration"
	KindTransport     ErrorKind = "transport"
	KindFormat        ErrorKind = "format"
	KindNotFound      ErrorKind = "not_found"
	KindStorage       ErrorKind = "storage"
	KindInternal      ErrorKind = "internal"
)

// Options configures a Manager
type Options struct {
	DefaultProvider    string
	DefaultTemperature float64

	// Providers holds per-provider construction settings (model, api_url,
	// explicit keys). Request temperature overrides the one set here.
	Providers map[string]llm.Params
}

// Manager runs palette operations
type Manager struct {
	registry  *llm.Registry
	pool      *workers.Pool
	storage   ports.PaletteStorage
	eventBus  ports.EventBus
	metrics   ports.MetricsCollector
	validator *Validator
	logger    *zap.Logger
	options   Options
}

// NewManager creates a new orchestrator manager
func NewManager(
	registry *llm.Registry,
	pool *workers.Pool,
	storage ports.PaletteStorage,
	eventBus ports.EventBus,
	metrics ports.MetricsCollector,
	validator *Validator,
	logger *zap.Logger,
	options Options,
) *Manager {
	return &Manager{
		registry:  registry,
		pool:      pool,
		storage:   storage,
		eventBus:  eventBus,
		metrics:   metrics,
		validator: validator,
		logger:    logger,
		options:   options,
	}
}

// Storage returns the palette storage the manager persists to
func (m *Manager) Storage() ports.PaletteStorage {
	return m.storage
}

// complete resolves the client and runs one provider call in the pool
func (m *Manager) complete(ctx context.Context, provider string, temperature *float64, text string) (string, error) {
	client, err := m.registry.Get(provider, m.params(provider, temperature))
	if err != nil {
		return "", err
	}

	start := time.Now()
	raw, err := workers.Call(ctx, m.pool, func(ctx context.Context) (string, error) {
		return client.CallAPI(ctx, text)
	})

	status := "success"
	if err != nil {
		status = "error"
	}
	m.metrics.RecordLLMCall(provider, status, time.Since(start))

	if err != nil {
		m.logger.Warn("LLM call failed",
			zap.String("provider", provider),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return "", err
	}

	m.logger.Debug("LLM call completed",
		zap.String("provider", provider),
		zap.Int("response_bytes", len(raw)),
		zap.Duration("duration", time.Since(start)))

	return raw, nil
}

func (m *Manager) params(provider string, temperature *float64) llm.Params {
	params := m.options.Providers[provider]
	switch {
	case temperature != nil:
		params.Temperature = llm.Float(*temperature)
	case params.Temperature == nil:
		params.Temperature = llm.Float(m.options.DefaultTemperature)
	}
	return params
}

func (m *Manager) providerOr(name string) string {
	if name == "" {
		return m.options.DefaultProvider
	}
	return name
}

// publish sends a palette event. Failures are logged, never returned, since
// the operation itself already succeeded.
func (m *Manager) publish(ctx context.Context, eventType ports.EventType, subject string, data map[string]interface{}) {
	if m.eventBus == nil {
		return
	}

	event := ports.NewEvent(eventType, subject, data)
	if err := m.eventBus.Publish(ctx, ports.TopicPalettes, event); err != nil {
		m.logger.Error("failed to publish palette event",
			zap.String("type", string(eventType)),
			zap.String("subject", subject),
			zap.Error(err))
	}
}

// finish records the operation and turns a panic into an internal failure
func (m *Manager) finish(operation string, start time.Time, out **Outcome) {
	if r := recover(); r != nil {
		m.logger.Error("palette operation panicked",
			zap.String("operation", operation),
			zap.Any("panic", r),
			zap.Stack("stack"))
		*out = failure(KindInternal, fmt.Errorf("internal error: %v", r))
	}

	status := "success"
	if !(*out).Success {
		status = string((*out).ErrorKind)
	}
	m.metrics.RecordOperation(operation, status, time.Since(start))
}

// classify maps a call error onto the error taxonomy
func classify(err error) ErrorKind {
	var callErr *llm.ProviderCallError
	switch {
	case llm.IsConfigurationError(err):
		return KindConfiguration
	case errors.As(err, &callErr),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, workers.ErrPoolClosed):
		return KindTransport
	case errors.Is(err, ports.ErrPaletteNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}

// Shutdown releases the event bus
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("shutting down orchestrator manager")

	if m.eventBus != nil {
		if err := m.eventBus.Close(); err != nil {
			return fmt.Errorf("failed to close event bus: %w", err)
		}
	}

	m.logger.Info("orchestrator manager shut down complete")
	return nil
}
