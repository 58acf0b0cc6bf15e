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
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 100, cfg.MinExamplesPerDomain)
	assert.Equal(t, 6.0, cfg.QualityFloor)
	assert.Equal(t, 2, cfg.MaxConcurrentJobs)
	assert.Equal(t, 5*time.Minute, cfg.StallTimeout())

	hp := cfg.DefaultHyperparameters()
	assert.Equal(t, 3, hp.Epochs)
	assert.Equal(t, 4, hp.BatchSize)
	assert.Equal(t, 5e-5, hp.LearningRate)
}

func TestLoadFromYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server_port: "9090"
min_examples_per_domain: 50
quality_floor: 7.5
tier_preambles:
  nutrition:
    basic: "Keep answers food-safe and simple."
`), 0o644))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 50, cfg.MinExamplesPerDomain)
	assert.Equal(t, 7.5, cfg.QualityFloor)
	assert.Equal(t, "Keep answers food-safe and simple.", cfg.TierPreambles["nutrition"]["basic"])
	// Untouched keys keep their defaults
	assert.Equal(t, 2, cfg.MaxConcurrentJobs)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_port: \"9090\"\nmax_concurrent_jobs: 4\n"), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("MAX_CONCURRENT_JOBS", "8")
	t.Setenv("DEFAULT_LEARNING_RATE", "0.0001")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.ServerPort)
	assert.Equal(t, 8, cfg.MaxConcurrentJobs)
	assert.Equal(t, 0.0001, cfg.DefaultLearningRate)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Setenv("MIN_EXAMPLES_PER_DOMAIN", "0")
	_, err := Load()
	assert.ErrorContains(t, err, "min_examples_per_domain")
}

func TestLoadRejectsMissingConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.ErrorContains(t, err, "failed to read config file")
}
