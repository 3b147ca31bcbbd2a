package config

import (
	"time"

	"github.com/kbukum/fluxkit/resilience"
	"github.com/kbukum/fluxkit/validation"
)

// StreamConfig tunes the demo pipelines and the stream endpoints.
type StreamConfig struct {
	// BatchSize is the demand a batched subscriber requests at a time.
	BatchSize int64 `yaml:"batch_size" mapstructure:"batch_size" validate:"gte=1"`
	// LimitRate caps each upstream request; 0 leaves demand unchanged.
	LimitRate int64 `yaml:"limit_rate" mapstructure:"limit_rate" validate:"gte=0"`
	// Interval is the tick period of interval sources.
	Interval time.Duration `yaml:"interval" mapstructure:"interval" validate:"gt=0"`
	// Delay shifts elements in delayElements pipelines.
	Delay time.Duration `yaml:"delay" mapstructure:"delay" validate:"gte=0"`
	// Retries is the number of re-subscriptions after an error.
	Retries int `yaml:"retries" mapstructure:"retries" validate:"gte=0,lte=100"`
	// Backoff spaces re-subscriptions of retrying pipelines.
	Backoff resilience.Backoff `yaml:"backoff" mapstructure:"backoff"`
}

// DefaultStreamConfig returns the values the demos were written against.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		BatchSize: 2,
		Interval:  time.Second,
		Delay:     time.Second,
		Retries:   1,
		Backoff:   resilience.DefaultBackoff(),
	}
}

// ApplyDefaults fills zero fields from DefaultStreamConfig. LimitRate and
// Retries keep zero since it is meaningful for both.
func (c *StreamConfig) ApplyDefaults() {
	d := DefaultStreamConfig()
	if c.BatchSize == 0 {
		c.BatchSize = d.BatchSize
	}
	if c.Interval == 0 {
		c.Interval = d.Interval
	}
	if c.Delay == 0 {
		c.Delay = d.Delay
	}
	if c.Backoff == (resilience.Backoff{}) {
		c.Backoff = d.Backoff
	}
}

// Validate checks the struct tags.
func (c *StreamConfig) Validate() error {
	return validation.Validate(c)
}

// RetryConfig converts the retry settings for resilience and
// reactive.RetryBackoff.
func (c *StreamConfig) RetryConfig() resilience.RetryConfig {
	rc := resilience.DefaultRetryConfig()
	rc.MaxAttempts = c.Retries + 1
	rc.Backoff = c.Backoff
	return rc
}
