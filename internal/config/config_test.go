package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("NOMEN_API_KEY", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	def := Defaults()
	assert.Equal(t, def.Server, cfg.Server)
	assert.Equal(t, 8*time.Second, cfg.Tour.Dwell.Std())
	assert.Equal(t, []string{"Google US English", "Samantha"}, cfg.Tour.PreferredVoice)
	assert.Equal(t, 0.9, cfg.Tour.Rate)
	assert.Equal(t, ProviderGemini, cfg.Provider.Kind)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = 9090

[provider]
kind = "proxy"
endpoint = "http://upstream:8080/api/provider"
timeout = "5s"

[tour]
dwell = "12500ms"

[session]
idle_timeout = "1h"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host, "unset keys keep defaults")
	assert.Equal(t, ProviderProxy, cfg.Provider.Kind)
	assert.Equal(t, 5*time.Second, cfg.Provider.Timeout.Std())
	assert.Equal(t, 12500*time.Millisecond, cfg.Tour.Dwell.Std())
	assert.Equal(t, time.Hour, cfg.Session.IdleTimeout.Std())
	assert.Equal(t, "localhost:9090", cfg.Server.Addr())
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[tour]\ndwell = \"eight seconds\"\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	env := map[string]string{
		"GEMINI_API_KEY":  "from-gemini",
		"NOMEN_PROVIDER":  "proxy",
		"NOMEN_PORT":      "7000",
		"NOMEN_LOG_LEVEL": "debug",
	}
	cfg := Defaults()
	require.NoError(t, cfg.applyEnv(func(k string) string { return env[k] }))

	assert.Equal(t, "from-gemini", cfg.Provider.APIKey)
	assert.Equal(t, ProviderProxy, cfg.Provider.Kind)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)

	env["NOMEN_API_KEY"] = "explicit"
	require.NoError(t, cfg.applyEnv(func(k string) string { return env[k] }))
	assert.Equal(t, "explicit", cfg.Provider.APIKey)

	env["NOMEN_PORT"] = "eighty"
	assert.Error(t, cfg.applyEnv(func(k string) string { return env[k] }))
}

func TestValidate(t *testing.T) {
	tests := map[string]func(*Config){
		"provider kind":   func(c *Config) { c.Provider.Kind = "openai" },
		"negative dwell":  func(c *Config) { c.Tour.Dwell = Duration(-time.Second) },
		"zero dwell":      func(c *Config) { c.Tour.Dwell = 0 },
		"short dwell":     func(c *Config) { c.Tour.Dwell = Duration(MinDwell - time.Millisecond) },
		"zero rate":       func(c *Config) { c.Tour.Rate = 0 },
		"port":            func(c *Config) { c.Server.Port = 70000 },
		"command missing": func(c *Config) { c.Speech.Backend = SpeechCommand },
		"speech backend":  func(c *Config) { c.Speech.Backend = "bell" },
		"log format":      func(c *Config) { c.Log.Format = "xml" },
	}

	require.NoError(t, Defaults().Validate())
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := Defaults()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
