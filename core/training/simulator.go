package training

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"llm-orchestrator/core/models"
	"llm-orchestrator/storage"

	"github.com/google/uuid"
)

// Simulator is a stand-in training primitive with a deterministic loss
// curve. It exercises the full job lifecycle (step callbacks, cooperative
// cancellation, checkpoint persistence) without a real accelerator.
type Simulator struct {
	store     storage.CheckpointStore
	stepDelay time.Duration
}

// NewSimulator creates a simulator writing checkpoints to the given store.
// stepDelay throttles the loop; zero runs as fast as possible (tests).
func NewSimulator(store storage.CheckpointStore, stepDelay time.Duration) *Simulator {
	return &Simulator{store: store, stepDelay: stepDelay}
}

// checkpointState is the opaque blob the simulator persists
type checkpointState struct {
	DomainID       string  `json:"domain_id"`
	DatasetVersion string  `json:"dataset_version"`
	Steps          int     `json:"steps"`
	FinalLoss      float64 `json:"final_loss"`
}

// Train runs the simulated loop: one step per batch per epoch, with an
// exponentially decaying loss. The checkpoint is written even when the run
// stops early, so cancellation never leaves partial state.
func (s *Simulator) Train(ctx context.Context, ds *models.Dataset, hp models.Hyperparameters, onStep ProgressFunc) (*Result, error) {
	if len(ds.TrainExamples) == 0 {
		return nil, fmt.Errorf("dataset %s/%s has no training examples", ds.DomainID, ds.Version)
	}

	stepsPerEpoch := (len(ds.TrainExamples) + hp.BatchSize - 1) / hp.BatchSize
	totalSteps := stepsPerEpoch * hp.Epochs

	loss := 4.0
	for step := 1; step <= totalSteps; step++ {
		if err := ctx.Err(); err != nil {
			s.saveCheckpoint(ctx, ds, step, loss)
			return nil, err
		}

		loss = simulatedLoss(step, totalSteps)

		if err := onStep(step, totalSteps, loss); err != nil {
			s.saveCheckpoint(context.Background(), ds, step, loss)
			return nil, err
		}

		if s.stepDelay > 0 {
			time.Sleep(s.stepDelay)
		}
	}

	location, err := s.saveCheckpoint(ctx, ds, totalSteps, loss)
	if err != nil {
		return nil, fmt.Errorf("failed to save checkpoint: %w", err)
	}

	evalLoss := loss * 1.1
	return &Result{
		CheckpointLocation: location,
		Metrics: models.Metrics{
			TrainLoss:  loss,
			EvalLoss:   evalLoss,
			Perplexity: math.Exp(evalLoss),
		},
	}, nil
}

// Generate produces deterministic placeholder text shaped by the prompt,
// capped at the requested max length.
func (s *Simulator) Generate(ctx context.Context, checkpointLocation, prompt string, params models.SamplingParams) (string, error) {
	if _, err := s.store.Load(ctx, checkpointLocation); err != nil {
		return "", fmt.Errorf("checkpoint %s unavailable: %w", checkpointLocation, err)
	}

	words := strings.Fields(prompt)
	if len(words) == 0 {
		return "", fmt.Errorf("empty prompt")
	}

	limit := params.MaxLength
	if limit > 96 {
		limit = 96
	}

	var out []string
	for len(out) < limit {
		out = append(out, words[len(out)%len(words)])
	}
	return strings.Join(out, " ") + ".", nil
}

func (s *Simulator) saveCheckpoint(ctx context.Context, ds *models.Dataset, steps int, loss float64) (string, error) {
	state := checkpointState{
		DomainID:       ds.DomainID,
		DatasetVersion: ds.Version,
		Steps:          steps,
		FinalLoss:      loss,
	}
	data, err := json.Marshal(state)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/%s/%s.ckpt", ds.DomainID, ds.Version, uuid.New().String())
	return s.store.Save(ctx, key, data)
}

// simulatedLoss decays from 4.0 toward 1.2 over the run
func simulatedLoss(step, totalSteps int) float64 {
	progress := float64(step) / float64(totalSteps)
	return 1.2 + 2.8*math.Exp(-3*progress)
}
