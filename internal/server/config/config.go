// Package config handles configuration for the gateway component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the library gateway.
//
// Fields:
//   - EndpointAddr: bind address for the HTTP endpoint.
//   - UpstreamBaseURL: base URL of the Drupal library backend that proxied
//     requests are resolved against.
//   - RequestTimeout: per-request timeout on outbound upstream calls.
type Config struct {
	EndpointAddr    string
	UpstreamBaseURL string
	RequestTimeout  time.Duration
}

// LoadDefaults populates Config with sensible development defaults.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8080"
	c.UpstreamBaseURL = "https://lib.prayalabs.com"
	c.RequestTimeout = 30 * time.Second
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
