package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", cfg.GatewayAddr)
	assert.Equal(t, 10*time.Minute, cfg.SessionDuration)
	assert.Equal(t, 2*time.Minute, cfg.SessionWarningTime)
	assert.Equal(t, 5*time.Second, cfg.SessionFinalWarningTime)
	assert.Equal(t, 30*time.Second, cfg.ActivityCheckInterval)
	assert.Equal(t, 12, cfg.PageLimit)
	assert.Equal(t, 4, cfg.MaxBooksAllowed)
	assert.Equal(t, 15, cfg.LoanDurationDays)
}

func TestParseJson_Overlay(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "conf.json")

	content := `{
		"gateway_addr": "http://gw:9000",
		"session_duration": "5m",
		"activity_check_interval": "10s",
		"page_limit": 20,
		"max_books_allowed": 2
	}`
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

	oldArgs := os.Args
	os.Args = []string{"test", "-c", file}
	t.Cleanup(func() { os.Args = oldArgs })

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, "http://gw:9000", cfg.GatewayAddr)
	assert.Equal(t, 5*time.Minute, cfg.SessionDuration)
	assert.Equal(t, 10*time.Second, cfg.ActivityCheckInterval)
	assert.Equal(t, 20, cfg.PageLimit)
	assert.Equal(t, 2, cfg.MaxBooksAllowed)
	// untouched defaults survive
	assert.Equal(t, 2*time.Minute, cfg.SessionWarningTime)
	assert.Equal(t, 15, cfg.LoanDurationDays)
}
