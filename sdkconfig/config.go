// Package sdkconfig loads the configuration inputs listed in section 6 of
// the system design ("External Interfaces / Configuration inputs") using
// envconfig, the same library used for per-component config structs
// elsewhere in this module (see asyncexecutor.Config).
package sdkconfig

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config binds every documented configuration input. Each field's tag
// names its variable, and Load prepends its prefix: Load("AUTHCORE")
// reads AUTHCORE_AUTH_ENDPOINT_URI, AUTHCORE_VENDING_ENDPOINTS, etc.
type Config struct {
	AuthEndpointURI        string   `envconfig:"AUTH_ENDPOINT_URI" required:"true"`
	AuthCacheEntryLifetime int      `envconfig:"AUTH_CACHE_ENTRY_LIFETIME" default:"150"` // seconds
	VendingEndpoints       []string `envconfig:"VENDING_ENDPOINTS"`
	KMSKeyPrefixLen        int      `envconfig:"KMS_KEY_PREFIX_LEN" default:"10"`
	HTTPTimeoutSeconds     int      `envconfig:"HTTP_TIMEOUT_SECONDS" default:"60"`
}

// CacheLifetime returns AuthCacheEntryLifetime as a time.Duration.
func (c Config) CacheLifetime() time.Duration {
	return time.Duration(c.AuthCacheEntryLifetime) * time.Second
}

// HTTPTimeout returns HTTPTimeoutSeconds as a time.Duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// Load reads the configuration from the environment under the given
// prefix (e.g. "AUTHCORE").
func Load(prefix string) (Config, error) {
	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("sdkconfig: %w", err)
	}
	if cfg.KMSKeyPrefixLen != 10 {
		return Config{}, fmt.Errorf("sdkconfig: KMS_KEY_PREFIX_LEN must be fixed at 10, got %d", cfg.KMSKeyPrefixLen)
	}
	return cfg, nil
}
