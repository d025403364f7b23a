package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aescanero/studiomuse/pkg/ports"
	"go.uber.org/zap"
)

// ErrPoolClosed is returned by Do after Shutdown
var ErrPoolClosed = errors.New("call pool is shut down")

// Pool bounds concurrent LLM calls
type Pool struct {
	size    int
	timeout time.Duration
	metrics ports.MetricsCollector
	logger  *zap.Logger
	health  *HealthMonitor

	slots     chan struct{}
	inFlight  atomic.Int64
	completed atomic.Uint64
	failed    atomic.Uint64

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// Stats is a snapshot of pool usage
type Stats struct {
	Capacity  int    `json:"capacity"`
	InFlight  int    `json:"in_flight"`
	Completed uint64 `json:"completed"`
	Failed    uint64 `json:"failed"`
}

// NewPool creates a call pool with size slots. A zero timeout leaves calls
// bounded only by the caller's context.
func NewPool(
	size int,
	timeout time.Duration,
	metrics ports.MetricsCollector,
	logger *zap.Logger,
	healthCheckInterval time.Duration,
	instances InstanceCounter,
) *Pool {
	if size < 1 {
		size = 1
	}

	pool := &Pool{
		size:    size,
		timeout: timeout,
		metrics: metrics,
		logger:  logger,
		slots:   make(chan struct{}, size),
	}

	pool.health = NewHealthMonitor(pool, instances, healthCheckInterval, logger)

	return pool
}

// Start starts the health monitor
func (p *Pool) Start() error {
	p.logger.Info("starting call pool",
		zap.Int("size", p.size),
		zap.Duration("timeout", p.timeout))

	p.health.Start()
	return nil
}

// Health returns the pool's health monitor
func (p *Pool) Health() *HealthMonitor {
	return p.health
}

// Do runs fn once a slot is free. fn receives a context carrying the
// per-call timeout. Waiting for a slot honours ctx.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrPoolClosed
	}
	p.wg.Add(1)
	p.mu.RUnlock()
	defer p.wg.Done()

	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("waiting for call slot: %w", ctx.Err())
	}
	defer func() { <-p.slots }()

	p.inFlight.Add(1)
	defer p.inFlight.Add(-1)

	callCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	if err := fn(callCtx); err != nil {
		p.failed.Add(1)
		return err
	}
	p.completed.Add(1)
	return nil
}

// Call runs fn in the pool and returns its value
func Call[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}

// Stats returns a snapshot of pool usage
func (p *Pool) Stats() Stats {
	return Stats{
		Capacity:  p.size,
		InFlight:  int(p.inFlight.Load()),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
	}
}

// Shutdown rejects new calls and waits for in-flight ones
func (p *Pool) Shutdown(ctx context.Context) error {
	p.logger.Info("shutting down call pool")

	p.health.Stop()

	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("call pool shut down complete")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout")
	}
}
