package workers

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// InstanceCounter reports how many LLM client instances are cached
type InstanceCounter interface {
	Len() int
}

// HealthMonitor monitors call pool health
type HealthMonitor struct {
	pool      *Pool
	instances InstanceCounter
	interval  time.Duration
	logger    *zap.Logger

	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
}

// HealthStatus represents the health status of the call pool
type HealthStatus struct {
	Capacity        int       `json:"capacity"`
	InFlight        int       `json:"in_flight"`
	Completed       uint64    `json:"completed"`
	Failed          uint64    `json:"failed"`
	ClientInstances int       `json:"client_instances"`
	Healthy         bool      `json:"healthy"`
	Timestamp       time.Time `json:"timestamp"`
}

// NewHealthMonitor creates a new health monitor. instances may be nil.
func NewHealthMonitor(pool *Pool, instances InstanceCounter, interval time.Duration, logger *zap.Logger) *HealthMonitor {
	return &HealthMonitor{
		pool:      pool,
		instances: instances,
		interval:  interval,
		logger:    logger,
	}
}

// Start starts the health monitor
func (h *HealthMonitor) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running || h.interval <= 0 {
		return
	}
	h.running = true
	h.stopCh = make(chan struct{})

	go h.run(h.stopCh)
}

// Stop stops the health monitor
func (h *HealthMonitor) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return
	}
	h.running = false
	close(h.stopCh)
}

// run is the main health monitoring loop
func (h *HealthMonitor) run(stopCh <-chan struct{}) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			h.checkHealth()
		}
	}
}

// checkHealth logs pool status and records gauges
func (h *HealthMonitor) checkHealth() {
	status := h.GetStatus()

	h.logger.Info("call pool health check",
		zap.Int("capacity", status.Capacity),
		zap.Int("in_flight", status.InFlight),
		zap.Uint64("completed", status.Completed),
		zap.Uint64("failed", status.Failed),
		zap.Int("client_instances", status.ClientInstances),
		zap.Bool("healthy", status.Healthy))

	if h.pool.metrics != nil {
		h.pool.metrics.RecordCallPoolStatus(status.InFlight, status.Capacity)
		h.pool.metrics.RecordClientInstances(status.ClientInstances)
	}

	if !status.Healthy {
		h.logger.Warn("all call slots are busy - consider raising LLM_MAX_CONCURRENT_REQUESTS",
			zap.Int("capacity", status.Capacity))
	}
}

// GetStatus returns the current health status
func (h *HealthMonitor) GetStatus() *HealthStatus {
	stats := h.pool.Stats()

	h.pool.mu.RLock()
	closed := h.pool.closed
	h.pool.mu.RUnlock()

	instances := 0
	if h.instances != nil {
		instances = h.instances.Len()
	}

	return &HealthStatus{
		Capacity:        stats.Capacity,
		InFlight:        stats.InFlight,
		Completed:       stats.Completed,
		Failed:          stats.Failed,
		ClientInstances: instances,
		Healthy:         !closed && stats.InFlight < stats.Capacity,
		Timestamp:       time.Now(),
	}
}

// IsHealthy returns true if the pool accepts calls and has a free slot
func (h *HealthMonitor) IsHealthy() bool {
	return h.GetStatus().Healthy
}
