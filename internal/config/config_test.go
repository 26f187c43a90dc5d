package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "text", cfg.Format)
	assert.False(t, cfg.Quiet)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, 0, cfg.Defaults.ContextLines)
	assert.Equal(t, "300ms", cfg.Defaults.Debounce)
	assert.Equal(t, "100ms", cfg.Defaults.BatchInterval)
	assert.Equal(t, 50, cfg.Defaults.BatchMaxLines)
	assert.Equal(t, "250ms", cfg.Defaults.PollInterval)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("LOGSIEVE_FORMAT", "ndjson")
	t.Setenv("LOGSIEVE_QUIET", "true")
	t.Setenv("LOGSIEVE_VERBOSE", "1")
	t.Setenv("LOGSIEVE_PROFILES_FILE", "/tmp/profiles.json")
	t.Setenv("LOGSIEVE_PROFILE", "errors-only")

	cfg := Default()
	applyEnvOverrides(cfg)

	assert.Equal(t, "ndjson", cfg.Format)
	assert.True(t, cfg.Quiet)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "/tmp/profiles.json", cfg.Defaults.ProfilesFile)
	assert.Equal(t, "errors-only", cfg.Defaults.Profile)
}

func TestApplyEnvOverridesIgnoresBogusBools(t *testing.T) {
	t.Setenv("LOGSIEVE_QUIET", "yes")
	t.Setenv("LOGSIEVE_VERBOSE", "")

	cfg := Default()
	applyEnvOverrides(cfg)

	assert.False(t, cfg.Quiet)
	assert.False(t, cfg.Verbose)
}
