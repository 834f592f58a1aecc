package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.True(t, cfg.IsDev())
	assert.Equal(t, "shelter-medical", cfg.AppName)
	assert.Equal(t, 1.0, cfg.TraceSampleRate)
	assert.False(t, cfg.IncludeOffShelter)
	assert.Equal(t, "en", cfg.DefaultLocale)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MEDICAL_INCLUDE_OFF_SHELTER", "true")
	t.Setenv("TRACE_SAMPLE_RATE", "0.25")
	t.Setenv("DEFAULT_LOCALE", "es")

	cfg, err := load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.IncludeOffShelter)
	assert.Equal(t, 0.25, cfg.TraceSampleRate)
	assert.Equal(t, "es", cfg.DefaultLocale)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LOG_LEVEL=debug\nAPP_NAME=medical-test\n"), 0o600))

	cfg, err := load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "medical-test", cfg.AppName)
}

func TestValidate(t *testing.T) {
	t.Setenv("ENV", "production")
	_, err := load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "DB_DSN")

	t.Setenv("DB_DSN", "postgres://localhost/medical")
	_, err = load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "AUTH_INTROSPECTION_URL")

	cfg := &Config{Port: "8080", LogFormat: "json", TraceSampleRate: 2}
	assert.ErrorContains(t, cfg.Validate(), "TRACE_SAMPLE_RATE")

	cfg = &Config{Port: "8080", LogFormat: "xml"}
	assert.ErrorContains(t, cfg.Validate(), "LOG_FORMAT")
}
