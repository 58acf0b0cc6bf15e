package config

import (
	"fmt"
	"os"
	"time"

	"llm-orchestrator/core/models"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	// Server
	ServerPort string `yaml:"server_port"`

	// Database; empty runs with in-memory stores only
	DatabaseURL string `yaml:"database_url"`

	// Checkpoint storage: local directory, or S3 when a bucket is set
	CheckpointDir      string `yaml:"checkpoint_dir"`
	CheckpointS3Bucket string `yaml:"checkpoint_s3_bucket"`
	AWSRegion          string `yaml:"aws_region"`

	// Dataset assembly
	MinExamplesPerDomain int     `yaml:"min_examples_per_domain"`
	TierRatioTolerance   float64 `yaml:"tier_ratio_tolerance"`

	// Quality scoring
	QualityFloor    float64 `yaml:"quality_floor"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`

	// Scheduler
	MaxConcurrentJobs   int `yaml:"max_concurrent_jobs"`
	ProgressEverySteps  int `yaml:"progress_every_steps"`
	StallTimeoutSeconds int `yaml:"stall_timeout_seconds"`

	// Training defaults
	DefaultEpochs       int     `yaml:"default_epochs"`
	DefaultBatchSize    int     `yaml:"default_batch_size"`
	DefaultLearningRate float64 `yaml:"default_learning_rate"`

	// Per-domain, per-tier preamble overrides
	TierPreambles map[string]map[models.Tier]string `yaml:"tier_preambles"`
}

// Load loads configuration from an optional YAML file (CONFIG_FILE) with
// environment variables taking precedence over it.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.ServerPort = getEnv("SERVER_PORT", cfg.ServerPort)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.CheckpointDir = getEnv("CHECKPOINT_DIR", cfg.CheckpointDir)
	cfg.CheckpointS3Bucket = getEnv("CHECKPOINT_S3_BUCKET", cfg.CheckpointS3Bucket)
	cfg.AWSRegion = getEnv("AWS_REGION", cfg.AWSRegion)
	cfg.MinExamplesPerDomain = getEnvInt("MIN_EXAMPLES_PER_DOMAIN", cfg.MinExamplesPerDomain)
	cfg.TierRatioTolerance = getEnvFloat("TIER_RATIO_TOLERANCE", cfg.TierRatioTolerance)
	cfg.QualityFloor = getEnvFloat("QUALITY_FLOOR", cfg.QualityFloor)
	cfg.MaxOutputTokens = getEnvInt("MAX_OUTPUT_TOKENS", cfg.MaxOutputTokens)
	cfg.MaxConcurrentJobs = getEnvInt("MAX_CONCURRENT_JOBS", cfg.MaxConcurrentJobs)
	cfg.ProgressEverySteps = getEnvInt("PROGRESS_EVERY_STEPS", cfg.ProgressEverySteps)
	cfg.StallTimeoutSeconds = getEnvInt("STALL_TIMEOUT_SECONDS", cfg.StallTimeoutSeconds)
	cfg.DefaultEpochs = getEnvInt("DEFAULT_EPOCHS", cfg.DefaultEpochs)
	cfg.DefaultBatchSize = getEnvInt("DEFAULT_BATCH_SIZE", cfg.DefaultBatchSize)
	cfg.DefaultLearningRate = getEnvFloat("DEFAULT_LEARNING_RATE", cfg.DefaultLearningRate)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultHyperparameters returns the configured training defaults
func (c *Config) DefaultHyperparameters() models.Hyperparameters {
	return models.Hyperparameters{
		Epochs:       c.DefaultEpochs,
		BatchSize:    c.DefaultBatchSize,
		LearningRate: c.DefaultLearningRate,
	}
}

// StallTimeout returns the stall timeout as a duration
func (c *Config) StallTimeout() time.Duration {
	return time.Duration(c.StallTimeoutSeconds) * time.Second
}

// validate rejects configurations the system cannot start with.
// Malformed configuration at startup is the one fatal error class.
func (c *Config) validate() error {
	if c.MinExamplesPerDomain < 1 {
		return fmt.Errorf("min_examples_per_domain must be positive, got %d", c.MinExamplesPerDomain)
	}
	if c.TierRatioTolerance <= 0 || c.TierRatioTolerance >= 1 {
		return fmt.Errorf("tier_ratio_tolerance must be in (0, 1), got %g", c.TierRatioTolerance)
	}
	if c.QualityFloor < 0 || c.QualityFloor > 10 {
		return fmt.Errorf("quality_floor must be in [0, 10], got %g", c.QualityFloor)
	}
	if c.MaxConcurrentJobs < 1 {
		return fmt.Errorf("max_concurrent_jobs must be positive, got %d", c.MaxConcurrentJobs)
	}
	if c.StallTimeoutSeconds < 1 {
		return fmt.Errorf("stall_timeout_seconds must be positive, got %d", c.StallTimeoutSeconds)
	}
	if c.DefaultEpochs < 1 || c.DefaultBatchSize < 1 || c.DefaultLearningRate <= 0 {
		return fmt.Errorf("default hyperparameters must be positive")
	}
	return nil
}

func defaults() *Config {
	return &Config{
		ServerPort:           "8080",
		CheckpointDir:        "./checkpoints",
		AWSRegion:            "us-east-1",
		MinExamplesPerDomain: 100,
		TierRatioTolerance:   0.15,
		QualityFloor:         6.0,
		MaxOutputTokens:      1000,
		MaxConcurrentJobs:    2,
		ProgressEverySteps:   10,
		StallTimeoutSeconds:  300,
		DefaultEpochs:        3,
		DefaultBatchSize:     4,
		DefaultLearningRate:  5e-5,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		return cast.ToInt(value)
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		return cast.ToFloat64(value)
	}
	return defaultValue
}
