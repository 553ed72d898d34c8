package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// WebhooksConfig lists where failed-audit notifications are delivered.
type WebhooksConfig struct {
	// Cooldown suppresses repeat notifications for the same part.
	// Defaults to 15 minutes if zero.
	Cooldown time.Duration   `yaml:"cooldown"`
	Targets  []WebhookConfig `yaml:"targets"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: teams | slack | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable that holds the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Default values for the server configuration.
const (
	DefaultGRPCPort       = 50051
	DefaultHTTPPort       = 8080
	DefaultResultTTL      = 30 * time.Minute
	DefaultProfilesPath   = "profiles.yaml"
	DefaultDSNEnv         = "CFACAL_DATABASE_DSN"
	DefaultKafkaTopic     = "cfacal.results"
	DefaultKafkaBuffer    = 1000
	DefaultRequestTimeout = 30 * time.Second
)

// Config is the top-level server configuration parsed from config.yaml.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Profiles ProfilesConfig `yaml:"profiles"`
	Database DatabaseConfig `yaml:"database"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Webhooks WebhooksConfig `yaml:"webhooks"`
}

// ServerConfig holds listener and request settings.
type ServerConfig struct {
	// GRPCPort is the port of the gRPC calculation service (default 50051).
	GRPCPort int `yaml:"grpc_port"`

	// HTTPPort is the port the REST API, WebSocket hub and /metrics listen on
	// (default 8080).
	HTTPPort int `yaml:"http_port"`

	// Auth configures how the server authenticates incoming gRPC and REST clients.
	Auth AuthConfig `yaml:"auth"`

	// ResultTTL is how long a computed result stays in the recent-results store.
	ResultTTL time.Duration `yaml:"result_ttl"`

	// RequestTimeout bounds one calculation, including telemetry reads.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// AllowedOrigins lists CORS origins for the browser UI. Empty allows all.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// AuthConfig controls client authentication on the server side.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable that holds the expected API key.
	// Used when Mode == "apikey".
	KeyEnv string `yaml:"key_env"`

	// Header is the gRPC metadata key (and HTTP header name) to read the key from.
	// Defaults to "x-api-key" if empty.
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "x-api-key"
}

// ProfilesConfig locates the calibration profile file.
type ProfilesConfig struct {
	Path string `yaml:"path"`

	// Watch reloads the file when it changes on disk.
	Watch bool `yaml:"watch"`
}

// DatabaseConfig names the environment variable holding the Postgres DSN.
type DatabaseConfig struct {
	DSNEnv string `yaml:"dsn_env"`

	// MaxOpenConns caps the connection pool (0 = driver default).
	MaxOpenConns int `yaml:"max_open_conns"`
}

// DSN returns the database DSN resolved from the environment.
func (d DatabaseConfig) DSN() string {
	if d.DSNEnv == "" {
		return ""
	}
	return os.Getenv(d.DSNEnv)
}

// KafkaConfig controls publication of computed results. Publishing is
// disabled when Brokers is empty.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`

	// BufferSize is the maximum number of results held in memory while the
	// brokers are unreachable. The oldest result is dropped when full.
	BufferSize int `yaml:"buffer_size"`
}

// Enabled reports whether any broker is configured.
func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// Load reads and parses the config file at path.
// Missing fields are filled with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("server config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("server config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			GRPCPort:       DefaultGRPCPort,
			HTTPPort:       DefaultHTTPPort,
			ResultTTL:      DefaultResultTTL,
			RequestTimeout: DefaultRequestTimeout,
		},
		Profiles: ProfilesConfig{Path: DefaultProfilesPath},
		Database: DatabaseConfig{DSNEnv: DefaultDSNEnv},
		Kafka: KafkaConfig{
			Topic:      DefaultKafkaTopic,
			BufferSize: DefaultKafkaBuffer,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.GRPCPort <= 0 || cfg.Server.GRPCPort > 65535 {
		return fmt.Errorf("server.grpc_port %d is out of range [1, 65535]", cfg.Server.GRPCPort)
	}
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.GRPCPort == cfg.Server.HTTPPort {
		return fmt.Errorf("server.grpc_port and server.http_port must differ")
	}
	switch cfg.Server.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", cfg.Server.Auth.Mode)
	}
	if cfg.Server.Auth.Mode == "apikey" && cfg.Server.Auth.KeyEnv == "" {
		return fmt.Errorf("server.auth.key_env is required when mode is apikey")
	}
	if cfg.Server.ResultTTL < 0 {
		return fmt.Errorf("server.result_ttl must not be negative")
	}
	if cfg.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be positive")
	}
	if cfg.Profiles.Path == "" {
		return fmt.Errorf("profiles.path is required")
	}
	if cfg.Kafka.Enabled() {
		if cfg.Kafka.Topic == "" {
			return fmt.Errorf("kafka.topic is required when brokers are set")
		}
		if cfg.Kafka.BufferSize <= 0 {
			return fmt.Errorf("kafka.buffer_size must be positive")
		}
	}
	for i, wh := range cfg.Webhooks.Targets {
		switch wh.Type {
		case "slack", "teams", "http":
		default:
			return fmt.Errorf("webhooks.targets[%d].type %q unknown: want slack|teams|http", i, wh.Type)
		}
	}
	return nil
}
