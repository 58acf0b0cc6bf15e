package training

import (
	"context"

	"llm-orchestrator/core/models"
)

// ProgressFunc receives step-level callbacks from the training loop.
// Returning a non-nil error stops training at the next safe step boundary;
// the trainer checkpoints before returning so no corrupt partial state is
// left behind.
type ProgressFunc func(step, totalSteps int, loss float64) error

// Result is the output of a completed training run
type Result struct {
	CheckpointLocation string
	Metrics            models.Metrics
}

// Trainer is the external model-training primitive. Optimizer steps,
// backpropagation and tokenization live behind this boundary; the
// orchestration engine consumes it as a black box.
type Trainer interface {
	// Train runs one fine-tuning pass over the dataset and returns the
	// resulting checkpoint with its final metrics.
	Train(ctx context.Context, ds *models.Dataset, hp models.Hyperparameters, onStep ProgressFunc) (*Result, error)

	// Generate samples text from the checkpoint identified by location
	Generate(ctx context.Context, checkpointLocation, prompt string, params models.SamplingParams) (string, error)
}
