package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"llm-orchestrator/core/models"
	"llm-orchestrator/core/registry"
	"llm-orchestrator/core/training"
)

// Safe sampling bounds; requests outside them are clamped, never rejected
const (
	minTemperature       = 0.1
	maxTemperature       = 2.0
	minTopP              = 0.1
	maxTopP              = 1.0
	minTopK              = 1
	maxTopK              = 100
	minRepetitionPenalty = 1.0
	maxRepetitionPenalty = 2.0
	minMaxLength         = 50
	maxMaxLength         = 2048
	defaultMaxLength     = 512
)

// NoActiveModelError means the domain has no promoted artifact yet.
// A user-visible "not ready" condition, not a crash.
type NoActiveModelError struct {
	DomainID string
}

// Error implements the error interface
func (e *NoActiveModelError) Error() string {
	return fmt.Sprintf("no active model for domain %q", e.DomainID)
}

// GenerationError wraps a failure from the generation primitive.
// The response is all-or-nothing: no partial text ever accompanies it.
type GenerationError struct {
	Message string
}

// Error implements the error interface
func (e *GenerationError) Error() string {
	return "generation failed: " + e.Message
}

// Service serves tiered text generation from active model artifacts.
// It is read-only against the registry and is never blocked by an
// in-progress training job for the same domain.
type Service struct {
	registry  *registry.Registry
	trainer   training.Trainer
	preambles *Preambles
}

// NewService creates a new generation service
func NewService(reg *registry.Registry, trainer training.Trainer, preambles *Preambles) *Service {
	if preambles == nil {
		preambles = NewPreambles(nil)
	}
	return &Service{registry: reg, trainer: trainer, preambles: preambles}
}

// Generate resolves the active artifact for the domain, frames the prompt
// for the tier, and samples text with clamped parameters.
func (s *Service) Generate(ctx context.Context, domainID string, tier models.Tier, prompt string, params models.SamplingParams) (*models.GeneratedText, error) {
	if !tier.Valid() {
		return nil, fmt.Errorf("unknown tier %q", tier)
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("prompt must not be empty")
	}

	artifact, ok := s.registry.ActiveFor(domainID)
	if !ok {
		return nil, &NoActiveModelError{DomainID: domainID}
	}

	fullPrompt := s.preambles.Build(domainID, tier, prompt)
	clamped := clampSamplingParams(params)

	start := time.Now()
	text, err := s.trainer.Generate(ctx, artifact.CheckpointLocation, fullPrompt, clamped)
	if err != nil {
		return nil, &GenerationError{Message: err.Error()}
	}
	if strings.TrimSpace(text) == "" {
		return nil, &GenerationError{Message: "model returned empty text"}
	}

	s.registry.RecordUse(artifact.ID)

	return &models.GeneratedText{
		Text:         text,
		DomainID:     domainID,
		Tier:         tier,
		ModelVersion: artifact.Version,
		TokenCount:   len(strings.Fields(text)),
		LatencyMs:    time.Since(start).Milliseconds(),
	}, nil
}

// clampSamplingParams forces every sampling parameter into its safe band,
// filling zero values with defaults.
func clampSamplingParams(p models.SamplingParams) models.SamplingParams {
	if p.MaxLength == 0 {
		p.MaxLength = defaultMaxLength
	}
	if p.Temperature == 0 {
		p.Temperature = 0.8
	}
	if p.TopP == 0 {
		p.TopP = 0.9
	}
	if p.TopK == 0 {
		p.TopK = 50
	}
	if p.RepetitionPenalty == 0 {
		p.RepetitionPenalty = 1.1
	}

	p.MaxLength = clampInt(p.MaxLength, minMaxLength, maxMaxLength)
	p.Temperature = clampFloat(p.Temperature, minTemperature, maxTemperature)
	p.TopP = clampFloat(p.TopP, minTopP, maxTopP)
	p.TopK = clampInt(p.TopK, minTopK, maxTopK)
	p.RepetitionPenalty = clampFloat(p.RepetitionPenalty, minRepetitionPenalty, maxRepetitionPenalty)
	return p
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
