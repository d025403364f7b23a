package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aescanero/studiomuse/internal/application/orchestrator"
	"github.com/aescanero/studiomuse/internal/application/workers"
	"github.com/aescanero/studiomuse/internal/config"
	"github.com/aescanero/studiomuse/pkg/adapters/llm"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server represents the HTTP API server
type Server struct {
	router       *gin.Engine
	server       *http.Server
	orchestrator *orchestrator.Manager
	registry     *llm.Registry
	pool         *workers.Pool
	public       config.PublicConfig
	logger       *zap.Logger
	startedAt    time.Time
}

// Config holds HTTP server configuration
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	APIToken     string
	Orchestrator *orchestrator.Manager
	Registry     *llm.Registry
	Pool         *workers.Pool
	Public       config.PublicConfig

	// Gatherer backs /metrics; nil uses the default registry
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(cfg.Logger))
	router.Use(corsMiddleware())

	s := &Server{
		router:       router,
		orchestrator: cfg.Orchestrator,
		registry:     cfg.Registry,
		pool:         cfg.Pool,
		public:       cfg.Public,
		logger:       cfg.Logger,
		startedAt:    time.Now(),
	}

	s.setupRoutes(cfg)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

// setupRoutes configures API routes
func (s *Server) setupRoutes(cfg *Config) {
	s.router.GET("/", s.handleRoot)
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/config", s.handleConfig)

	metrics := promhttp.Handler()
	if cfg.Gatherer != nil {
		metrics = promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})
	}
	s.router.GET("/metrics", gin.WrapH(metrics))

	api := s.router.Group("/", AuthMiddleware(cfg.APIToken))
	{
		api.POST("/palette/demystify", s.handleDemystify)
		api.POST("/palette/create", s.handleCreate)

		api.GET("/palettes", s.handleListPalettes)
		api.GET("/palettes/:name", s.handleGetPalette)
		api.DELETE("/palettes/:name", s.handleDeletePalette)
	}
}

// SetupWebSocket adds the palette event stream to the server
func (s *Server) SetupWebSocket(handler interface {
	HandlePaletteStream(*gin.Context)
}) {
	s.router.GET("/ws", handler.HandlePaletteStream)
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("HTTP server shut down complete")
	return nil
}
