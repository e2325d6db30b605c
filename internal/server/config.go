// Package server provides configuration helpers that define runtime defaults,
// validation, and environment loading for the relay service.
package server

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
)

const (
	defaultPort            = 8080
	defaultIndexPath       = "web/index.html"
	defaultAllowedOrigins  = "*"
	defaultMaxMessageSize  = 64 * 1024
	defaultSendBufferSize  = 256
	defaultLogLevel        = "INFO"
	defaultShutdownTimeout = 5 * time.Second
)

var validate = validator.New()

// Config holds the server configuration settings.
type Config struct {
	Host             string        `env:"HOST"`
	Port             int           `env:"PORT,default=8080" validate:"min=1,max=65535"`
	IndexPath        string        `env:"INDEX_PATH,default=web/index.html" validate:"required"`
	AllowedOrigins   string        `env:"ALLOWED_ORIGINS,default=*"`
	MaxMessageSize   int64         `env:"MAX_MESSAGE_SIZE,default=65536" validate:"gt=0"`
	SendBufferSize   int           `env:"SEND_BUFFER_SIZE,default=256" validate:"gt=0"`
	StrictEventTypes bool          `env:"STRICT_EVENT_TYPES,default=false"`
	LogLevel         string        `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR debug info warn error"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s" validate:"gt=0"`
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	return &Config{
		Port:            defaultPort,
		IndexPath:       defaultIndexPath,
		AllowedOrigins:  defaultAllowedOrigins,
		MaxMessageSize:  defaultMaxMessageSize,
		SendBufferSize:  defaultSendBufferSize,
		LogLevel:        defaultLogLevel,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

// NewConfigFromEnv creates a Config instance from environment variables.
// Unset variables take their defaults; out-of-range numbers are reset to
// defaults before validation.
func NewConfigFromEnv() (*Config, error) {
	cfg := NewConfig()
	if _, err := env.UnmarshalFromEnviron(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	sanitizeConfig(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Origins splits AllowedOrigins into its trimmed components.
func (c *Config) Origins() []string {
	return parseOrigins(c.AllowedOrigins)
}

func sanitizeConfig(cfg *Config) {
	if cfg.Port <= 0 {
		cfg.Port = defaultPort
	}

	if strings.TrimSpace(cfg.IndexPath) == "" {
		cfg.IndexPath = defaultIndexPath
	}

	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaultMaxMessageSize
	}

	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = defaultSendBufferSize
	}

	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = defaultLogLevel
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
}

func parseOrigins(origins string) []string {
	if strings.TrimSpace(origins) == "" {
		return nil
	}
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
