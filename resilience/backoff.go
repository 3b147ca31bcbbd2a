package resilience

import (
	"math"
	"math/rand/v2"
	"time"
)

// Backoff describes an exponential backoff schedule.
type Backoff struct {
	// Initial is the delay before the first retry.
	Initial time.Duration `mapstructure:"initial" yaml:"initial"`
	// Max caps every delay.
	Max time.Duration `mapstructure:"max" yaml:"max"`
	// Factor is the multiplier applied per attempt.
	Factor float64 `mapstructure:"factor" yaml:"factor"`
	// Jitter adds randomness to each delay (0.0 to 1.0).
	Jitter float64 `mapstructure:"jitter" yaml:"jitter"`
}

// DefaultBackoff returns 100ms doubling up to 10s with 10% jitter.
func DefaultBackoff() Backoff {
	return Backoff{
		Initial: 100 * time.Millisecond,
		Max:     10 * time.Second,
		Factor:  2.0,
		Jitter:  0.1,
	}
}

func (b Backoff) withDefaults() Backoff {
	if b.Initial <= 0 {
		b.Initial = 100 * time.Millisecond
	}
	if b.Max <= 0 {
		b.Max = 10 * time.Second
	}
	if b.Factor <= 0 {
		b.Factor = 2.0
	}
	return b
}

// Next returns the delay to wait after the given failed attempt (1-based).
func (b Backoff) Next(attempt int) time.Duration {
	b = b.withDefaults()
	if attempt < 1 {
		attempt = 1
	}
	d := float64(b.Initial) * math.Pow(b.Factor, float64(attempt-1))

	if b.Jitter > 0 {
		d += (rand.Float64()*2 - 1) * d * b.Jitter
	}
	if d > float64(b.Max) {
		d = float64(b.Max)
	}
	if d < 0 {
		d = float64(b.Initial)
	}
	return time.Duration(d)
}
