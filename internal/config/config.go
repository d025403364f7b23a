package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/aescanero/studiomuse/pkg/adapters/llm"
)

// Storage and event backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendFile   = "file"
)

// Config holds all configuration for the StudioMuse backend
type Config struct {
	// Server configuration
	APIHost  string `env:"STUDIOMUSE_API_HOST" envDefault:"127.0.0.1"`
	HTTPPort int    `env:"STUDIOMUSE_API_PORT" envDefault:"8000"`
	GRPCPort int    `env:"STUDIOMUSE_GRPC_PORT" envDefault:"9000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// APIToken, when set, is required as a Bearer token on palette endpoints
	APIToken string `env:"STUDIOMUSE_API_TOKEN"`

	// Palette storage configuration
	Storage StorageConfig

	// Event bus configuration
	Events EventsConfig

	// Redis configuration
	Redis RedisConfig

	// LLM configuration
	LLM LLMConfig

	// Call pool configuration
	Workers WorkerConfig

	// Timeouts
	Timeouts TimeoutConfig
}

// StorageConfig selects where physical palettes are kept
type StorageConfig struct {
	Backend    string        `env:"STORAGE_BACKEND" envDefault:"memory"`
	PaletteDir string        `env:"PALETTE_DIR" envDefault:"palettes"`
	TTL        time.Duration `env:"PALETTE_TTL" envDefault:"0s"`
}

// EventsConfig selects the palette event bus
type EventsConfig struct {
	Backend       string `env:"EVENTS_BACKEND" envDefault:"memory"`
	ConsumerGroup string `env:"EVENTS_CONSUMER_GROUP" envDefault:"studiomuse"`
	ConsumerName  string `env:"EVENTS_CONSUMER_NAME"`
	StreamMaxLen  int64  `env:"EVENTS_STREAM_MAXLEN" envDefault:"1000"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// LLMConfig holds LLM provider configuration. Provider API keys are read by
// each client from its own variable (GEMINI_API_KEY, PERPLEXITY_KEY,
// ANTHROPIC_KEY, OPENAI_API_KEY, LLM_API_KEY) and never stored here.
type LLMConfig struct {
	Provider    string  `env:"STUDIOMUSE_LLM_PROVIDER" envDefault:"gemini"`
	Temperature float64 `env:"STUDIOMUSE_LLM_TEMPERATURE" envDefault:"0.2"`

	// Rate limiting
	MaxConcurrentRequests int           `env:"LLM_MAX_CONCURRENT_REQUESTS" envDefault:"4"`
	RequestTimeout        time.Duration `env:"LLM_REQUEST_TIMEOUT" envDefault:"120s"`
	MaxGimpColors         int           `env:"LLM_MAX_GIMP_COLORS" envDefault:"256"`

	// Generic REST provider
	BaseURL   string `env:"LLM_API_URL"`
	BaseModel string `env:"LLM_MODEL"`

	// Per-provider model overrides
	GeminiModel     string `env:"GEMINI_MODEL"`
	PerplexityModel string `env:"PERPLEXITY_MODEL"`
	AnthropicModel  string `env:"ANTHROPIC_MODEL"`
	OpenAIModel     string `env:"OPENAI_MODEL"`
	OpenAIURL       string `env:"OPENAI_API_URL"`
}

// WorkerConfig holds call pool configuration
type WorkerConfig struct {
	HealthCheckInterval time.Duration `env:"WORKER_HEALTH_CHECK_INTERVAL" envDefault:"30s"`
}

// TimeoutConfig holds various timeout configurations
type TimeoutConfig struct {
	HTTPRead        time.Duration `env:"TIMEOUT_HTTP_READ" envDefault:"30s"`
	HTTPWrite       time.Duration `env:"TIMEOUT_HTTP_WRITE" envDefault:"180s"`
	ShutdownTimeout time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"30s"`
}

// Load applies envFile (when it exists) and reads configuration from
// environment variables
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Events.ConsumerName == "" {
		host, err := os.Hostname()
		if err != nil {
			host = "studiomuse"
		}
		cfg.Events.ConsumerName = host
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server ports
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPCPort)
	}
	if c.HTTPPort == c.GRPCPort {
		return fmt.Errorf("HTTP and gRPC ports must differ: %d", c.HTTPPort)
	}

	// Validate storage and events
	switch c.Storage.Backend {
	case BackendMemory, BackendRedis:
	case BackendFile:
		if c.Storage.PaletteDir == "" {
			return fmt.Errorf("PALETTE_DIR is required for the file storage backend")
		}
	default:
		return fmt.Errorf("unsupported storage backend: %s (must be memory, redis, or file)", c.Storage.Backend)
	}
	if c.Events.Backend != BackendMemory && c.Events.Backend != BackendRedis {
		return fmt.Errorf("unsupported events backend: %s (must be memory or redis)", c.Events.Backend)
	}
	if c.UsesRedis() && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required")
	}

	// Validate LLM config
	if !validProviders[c.LLM.Provider] {
		return fmt.Errorf("unsupported LLM provider: %s", c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 1 {
		return fmt.Errorf("LLM temperature must be within [0,1], got %g", c.LLM.Temperature)
	}
	if c.LLM.MaxConcurrentRequests < 1 {
		return fmt.Errorf("LLM max concurrent requests must be at least 1")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

var validProviders = map[string]bool{
	llm.ProviderBase:       true,
	llm.ProviderPerplexity: true,
	llm.ProviderGemini:     true,
	llm.ProviderAnthropic:  true,
	llm.ProviderOpenAI:     true,
	llm.ProviderTest:       true,
}

// UsesRedis reports whether any backend needs a Redis connection
func (c *Config) UsesRedis() bool {
	return c.Storage.Backend == BackendRedis || c.Events.Backend == BackendRedis
}

// ProviderParams returns the construction settings for each provider
// that has any configured
func (c *Config) ProviderParams() map[string]llm.Params {
	params := map[string]llm.Params{
		llm.ProviderBase:       {APIURL: c.LLM.BaseURL, Model: c.LLM.BaseModel},
		llm.ProviderGemini:     {Model: c.LLM.GeminiModel},
		llm.ProviderPerplexity: {Model: c.LLM.PerplexityModel},
		llm.ProviderAnthropic:  {Model: c.LLM.AnthropicModel},
		llm.ProviderOpenAI:     {Model: c.LLM.OpenAIModel, APIURL: c.LLM.OpenAIURL},
	}
	for name, p := range params {
		if p == (llm.Params{}) {
			delete(params, name)
		}
	}
	return params
}

// PublicConfig is the part of the configuration safe to expose over HTTP
type PublicConfig struct {
	API struct {
		Host string `json:"host"`
		Port int    `json:"port"`
	} `json:"api"`
	LLM struct {
		DefaultProvider string  `json:"default_provider"`
		Temperature     float64 `json:"temperature"`
	} `json:"llm"`
}

// Public returns the sanitized configuration
func (c *Config) Public() PublicConfig {
	var p PublicConfig
	p.API.Host = c.APIHost
	p.API.Port = c.HTTPPort
	p.LLM.DefaultProvider = c.LLM.Provider
	p.LLM.Temperature = c.LLM.Temperature
	return p
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return net.JoinHostPort(c.APIHost, strconv.Itoa(c.HTTPPort))
}

// GetGRPCAddr returns the gRPC server address
func (c *Config) GetGRPCAddr() string {
	return net.JoinHostPort(c.APIHost, strconv.Itoa(c.GRPCPort))
}
