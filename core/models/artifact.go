package models

import "time"

// Metrics holds the final evaluation numbers for a completed training run
type Metrics struct {
	TrainLoss  float64
	EvalLoss   float64
	Perplexity float64
}

// ModelArtifact represents the output of a completed training job.
// At most one artifact per domain is active at any time; activating a new
// one atomically deactivates the previous one.
type ModelArtifact struct {
	ID                 string
	DomainID           string
	Version            string // Monotonic per domain: v1, v2, ...
	SourceJobID        string
	CheckpointLocation string // Opaque handle into the checkpoint store
	Metrics            Metrics
	IsActive           bool
	CreatedAt          time.Time

	// Usage statistics, updated by the generation path
	GenerationCount int64
	LastUsedAt      *time.Time
}
