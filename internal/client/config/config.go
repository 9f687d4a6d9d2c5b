// Package config handles configuration for the client component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the library CLI.
//
// Fields:
//   - GatewayAddr: base URL of the gateway exposing /api/proxy.
//   - UpstreamBaseURL: upstream site root, used to absolutize relative
//     cover image URLs.
//   - DatabasePath: path of the local SQLite store for session state.
//   - SessionDuration: hard lifetime of a session since login and since
//     last activity. Both clocks must be under this value.
//   - SessionWarningTime: remaining time at which the expiry warning fires.
//   - SessionFinalWarningTime: remaining time for the last-seconds warning.
//   - ActivityCheckInterval: how often session validity is re-checked.
//   - RequestTimeout / RetryAttempts / RetryDelay: upstream call policy.
//   - PageLimit: books per catalog page.
//   - MaxBooksAllowed: client-side borrowing limit.
//   - LoanDurationDays: days from issue date to due date.
type Config struct {
	GatewayAddr             string
	UpstreamBaseURL         string
	DatabasePath            string
	SessionDuration         time.Duration
	SessionWarningTime      time.Duration
	SessionFinalWarningTime time.Duration
	ActivityCheckInterval   time.Duration
	RequestTimeout          time.Duration
	RetryAttempts           int
	RetryDelay              time.Duration
	PageLimit               int
	MaxBooksAllowed         int
	LoanDurationDays        int
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.GatewayAddr = "http://127.0.0.1:8080"
	c.UpstreamBaseURL = "https://lib.prayalabs.com"
	c.DatabasePath = "library.db"
	c.SessionDuration = 10 * time.Minute
	c.SessionWarningTime = 2 * time.Minute
	c.SessionFinalWarningTime = 5 * time.Second
	c.ActivityCheckInterval = 30 * time.Second
	c.RequestTimeout = 30 * time.Second
	c.RetryAttempts = 3
	c.RetryDelay = 1 * time.Second
	c.PageLimit = 12
	c.MaxBooksAllowed = 4
	c.LoanDurationDays = 15
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
