package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aescanero/studiomuse/internal/application/orchestrator"
	"github.com/aescanero/studiomuse/internal/application/workers"
	"github.com/aescanero/studiomuse/internal/config"
	memevents "github.com/aescanero/studiomuse/pkg/adapters/events/memory"
	redisevents "github.com/aescanero/studiomuse/pkg/adapters/events/redis"
	"github.com/aescanero/studiomuse/pkg/adapters/llm"
	"github.com/aescanero/studiomuse/pkg/adapters/metrics/prometheus"
	filestorage "github.com/aescanero/studiomuse/pkg/adapters/storage/file"
	memstorage "github.com/aescanero/studiomuse/pkg/adapters/storage/memory"
	redisstorage "github.com/aescanero/studiomuse/pkg/adapters/storage/redis"
	"github.com/aescanero/studiomuse/pkg/api/client"
	"github.com/aescanero/studiomuse/pkg/api/grpc"
	"github.com/aescanero/studiomuse/pkg/api/http"
	"github.com/aescanero/studiomuse/pkg/api/websocket"
	"github.com/aescanero/studiomuse/pkg/ports"

	prom "github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if len(os.Args) > 1 && os.Args[1] == "health" {
		os.Exit(probe(cfg))
	}

	// Initialize logger
	logger := initLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting StudioMuse backend",
		zap.String("version", Version),
		zap.String("build_time", BuildTime))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Redis client when a backend needs it
	var redisClient *goredis.Client
	if cfg.UsesRedis() {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// Initialize adapters
	storage, err := newStorage(cfg, redisClient, logger)
	if err != nil {
		logger.Fatal("failed to create palette storage", zap.Error(err))
	}
	eventBus := newEventBus(cfg, redisClient, logger)

	metricsCollector := prometheus.NewCollector(prom.DefaultRegisterer)
	registry := llm.NewDefaultRegistry(logger)

	// Initialize application components
	callPool := workers.NewPool(
		cfg.LLM.MaxConcurrentRequests,
		cfg.LLM.RequestTimeout,
		metricsCollector,
		logger,
		cfg.Workers.HealthCheckInterval,
		registry,
	)
	if err := callPool.Start(); err != nil {
		logger.Fatal("failed to start call pool", zap.Error(err))
	}

	orchestratorMgr := orchestrator.NewManager(
		registry,
		callPool,
		storage,
		eventBus,
		metricsCollector,
		orchestrator.NewValidator(cfg.LLM.MaxGimpColors),
		logger,
		orchestrator.Options{
			DefaultProvider:    cfg.LLM.Provider,
			DefaultTemperature: cfg.LLM.Temperature,
			Providers:          cfg.ProviderParams(),
		},
	)

	// Initialize API servers
	httpServer := http.NewServer(&http.Config{
		Addr:         cfg.GetHTTPAddr(),
		ReadTimeout:  cfg.Timeouts.HTTPRead,
		WriteTimeout: cfg.Timeouts.HTTPWrite,
		APIToken:     cfg.APIToken,
		Orchestrator: orchestratorMgr,
		Registry:     registry,
		Pool:         callPool,
		Public:       cfg.Public(),
		Logger:       logger,
	})

	// Add WebSocket handler to HTTP server
	wsHandler := websocket.NewHandler(eventBus, logger)
	if err := wsHandler.Start(ctx); err != nil {
		logger.Fatal("failed to subscribe to palette events", zap.Error(err))
	}
	httpServer.SetupWebSocket(wsHandler)

	grpcServer, err := grpc.NewServer(&grpc.Config{
		Addr:   cfg.GetGRPCAddr(),
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("failed to create gRPC server", zap.Error(err))
	}

	// Start servers
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	go func() {
		if err := grpcServer.Start(); err != nil {
			logger.Fatal("gRPC server failed", zap.Error(err))
		}
	}()

	logger.Info("StudioMuse backend started",
		zap.String("http_addr", cfg.GetHTTPAddr()),
		zap.String("grpc_addr", cfg.GetGRPCAddr()),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("storage", cfg.Storage.Backend),
		zap.String("events", cfg.Events.Backend),
		zap.Int("max_concurrent_requests", cfg.LLM.MaxConcurrentRequests))

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
	defer shutdownCancel()

	if err := grpcServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("gRPC server shutdown error", zap.Error(err))
	}

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	cancel()

	if err := callPool.Shutdown(shutdownCtx); err != nil {
		logger.Error("call pool shutdown error", zap.Error(err))
	}

	if err := orchestratorMgr.Shutdown(shutdownCtx); err != nil {
		logger.Error("orchestrator shutdown error", zap.Error(err))
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Redis close error", zap.Error(err))
		}
	}

	logger.Info("StudioMuse backend shut down complete")
}

func newStorage(cfg *config.Config, redisClient *goredis.Client, logger *zap.Logger) (ports.PaletteStorage, error) {
	switch cfg.Storage.Backend {
	case config.BackendRedis:
		return redisstorage.NewPaletteStorage(redisClient, cfg.Storage.TTL, logger), nil
	case config.BackendFile:
		return filestorage.NewPaletteStorage(cfg.Storage.PaletteDir, logger)
	default:
		return memstorage.NewPaletteStorage(), nil
	}
}

func newEventBus(cfg *config.Config, redisClient *goredis.Client, logger *zap.Logger) ports.EventBus {
	if cfg.Events.Backend == config.BackendRedis {
		return redisevents.NewStreamsEventBus(
			redisClient,
			cfg.Events.ConsumerGroup,
			cfg.Events.ConsumerName,
			cfg.Events.StreamMaxLen,
			logger,
		)
	}
	return memevents.NewEventBus(logger)
}

// probe checks a running backend, for container health checks
func probe(cfg *config.Config) int {
	c := client.New("http://"+cfg.GetHTTPAddr(), client.WithToken(cfg.APIToken))

	health, err := c.Health(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "unhealthy: %v\n", err)
		return 1
	}

	fmt.Printf("%v (uptime %v)\n", health["status"], health["uptime"])
	return 0
}

// initLogger initializes the logger based on log level
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}
