package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/libkeeper/internal/flagx"
	"github.com/dmitrijs2005/libkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "30s" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	GatewayAddr             string         `json:"gateway_addr"`
	UpstreamBaseURL         string         `json:"upstream_base_url"`
	DatabasePath            string         `json:"database_path"`
	SessionDuration         timex.Duration `json:"session_duration"`
	SessionWarningTime      timex.Duration `json:"session_warning_time"`
	SessionFinalWarningTime timex.Duration `json:"session_final_warning_time"`
	ActivityCheckInterval   timex.Duration `json:"activity_check_interval"`
	RequestTimeout          timex.Duration `json:"request_timeout"`
	RetryAttempts           int            `json:"retry_attempts"`
	RetryDelay              timex.Duration `json:"retry_delay"`
	PageLimit               int            `json:"page_limit"`
	MaxBooksAllowed         int            `json:"max_books_allowed"`
	LoanDurationDays        int            `json:"loan_duration_days"`
}

// parseJson overlays Config with values loaded from a JSON file whose path
// comes from the -c/-config flags. Zero values in the file leave the
// corresponding defaults untouched. Panics on read or unmarshal errors
// (caller should recover if desired).
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.GatewayAddr != "" {
		cfg.GatewayAddr = jc.GatewayAddr
	}
	if jc.UpstreamBaseURL != "" {
		cfg.UpstreamBaseURL = jc.UpstreamBaseURL
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.SessionDuration.Duration != 0 {
		cfg.SessionDuration = jc.SessionDuration.Duration
	}
	if jc.SessionWarningTime.Duration != 0 {
		cfg.SessionWarningTime = jc.SessionWarningTime.Duration
	}
	if jc.SessionFinalWarningTime.Duration != 0 {
		cfg.SessionFinalWarningTime = jc.SessionFinalWarningTime.Duration
	}
	if jc.ActivityCheckInterval.Duration != 0 {
		cfg.ActivityCheckInterval = jc.ActivityCheckInterval.Duration
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.RetryAttempts != 0 {
		cfg.RetryAttempts = jc.RetryAttempts
	}
	if jc.RetryDelay.Duration != 0 {
		cfg.RetryDelay = jc.RetryDelay.Duration
	}
	if jc.PageLimit != 0 {
		cfg.PageLimit = jc.PageLimit
	}
	if jc.MaxBooksAllowed != 0 {
		cfg.MaxBooksAllowed = jc.MaxBooksAllowed
	}
	if jc.LoanDurationDays != 0 {
		cfg.LoanDurationDays = jc.LoanDurationDays
	}
}
