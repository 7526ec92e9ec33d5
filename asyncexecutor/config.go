package asyncexecutor

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config tunes the ShardPool. Zero-value fields are replaced with
// documented defaults by NewShardPool.
type Config struct {
	Shards         int           `envconfig:"AE_SHARDS" default:"4"`
	QueueSize      int           `envconfig:"AE_QUEUE_SIZE" default:"128"`
	EnqueueTimeout time.Duration `envconfig:"AE_ENQUEUE_TIMEOUT" default:"100ms"`
	MaxAttempts    int           `envconfig:"AE_MAX_ATTEMPTS" default:"8"`
	BaseBackoff    time.Duration `envconfig:"AE_BASE_BACKOFF" default:"100ms"`
	MaxInterval    time.Duration `envconfig:"AE_MAX_INTERVAL" default:"20s"`

	// ErrorHandler receives the terminal error of any job that exhausted
	// its retries or failed irrecoverably. May be nil.
	ErrorHandler func(error)
}

// LoadConfig reads pool tuning from the environment ("AE_" prefix),
// falling back to the documented defaults.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) withDefaults() Config {
	if c.Shards <= 0 {
		c.Shards = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 128
	}
	if c.EnqueueTimeout <= 0 {
		c.EnqueueTimeout = 100 * time.Millisecond
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 8
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 100 * time.Millisecond
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 20 * time.Second
	}
	return c
}
