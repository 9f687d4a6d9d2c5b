package config

import (
	"encoding/json"
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

	assert.Equal(t, ":8080", cfg.EndpointAddr)
	assert.Equal(t, "https://lib.prayalabs.com", cfg.UpstreamBaseURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}

func TestParseJson_Overlay(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "conf.json")

	jc := map[string]any{
		"endpoint_addr":     ":9090",
		"upstream_base_url": "https://example.org",
		"request_timeout":   "5s",
	}
	data, err := json.Marshal(jc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(file, data, 0o600))

	oldArgs := os.Args
	os.Args = []string{"test", "-c", file}
	t.Cleanup(func() { os.Args = oldArgs })

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, ":9090", cfg.EndpointAddr)
	assert.Equal(t, "https://example.org", cfg.UpstreamBaseURL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
}

func TestParseJson_PartialOverlayKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "conf.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"endpoint_addr": ":7070"}`), 0o600))

	oldArgs := os.Args
	os.Args = []string{"test", "-config", file}
	t.Cleanup(func() { os.Args = oldArgs })

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, ":7070", cfg.EndpointAddr)
	assert.Equal(t, "https://lib.prayalabs.com", cfg.UpstreamBaseURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}
