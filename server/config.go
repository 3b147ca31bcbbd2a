package server

import (
	"fmt"
	"time"

	"github.com/kbukum/fluxkit/server/middleware"
	"github.com/kbukum/fluxkit/validation"
)

// Config holds HTTP server configuration.
type Config struct {
	Host string `yaml:"host" mapstructure:"host"`
	// Port 0 picks a free port; Addr reports the bound address.
	Port         int           `yaml:"port" mapstructure:"port" validate:"gte=0,lte=65535"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" validate:"gte=0"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout" validate:"gte=0"`
	// ShutdownTimeout bounds Stop when the caller's context has no deadline.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout" validate:"gte=0"`

	// DefaultBatch is the demand batch when the client sends no ?batch.
	DefaultBatch int64 `yaml:"default_batch" mapstructure:"default_batch" validate:"gte=1"`
	// MaxBatch caps ?batch; at most sse.MaxBatch.
	MaxBatch  int64         `yaml:"max_batch" mapstructure:"max_batch" validate:"gte=1,lte=4096"`
	KeepAlive time.Duration `yaml:"keep_alive" mapstructure:"keep_alive" validate:"gte=0"`
	// BindAttempts is how often Start tries to bind before giving up.
	BindAttempts int `yaml:"bind_attempts" mapstructure:"bind_attempts" validate:"gte=1,lte=20"`

	CORS middleware.CORSConfig `yaml:"cors" mapstructure:"cors"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
	if c.DefaultBatch == 0 {
		c.DefaultBatch = 10
	}
	if c.MaxBatch == 0 {
		c.MaxBatch = 1000
	}
	if c.KeepAlive == 0 {
		c.KeepAlive = 30 * time.Second
	}
	if c.BindAttempts == 0 {
		c.BindAttempts = 3
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if len(c.CORS.AllowedMethods) == 0 {
		c.CORS.AllowedMethods = []string{"GET", "OPTIONS"}
	}
	if len(c.CORS.AllowedHeaders) == 0 {
		c.CORS.AllowedHeaders = []string{"Accept", "Cache-Control", "Last-Event-ID"}
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	return validation.New().
		Custom(c.DefaultBatch <= c.MaxBatch, "default_batch", fmt.Sprintf("must not exceed max_batch (%d)", c.MaxBatch)).
		Err()
}

// Address returns the configured host:port.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
