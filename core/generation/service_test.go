package generation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm-orchestrator/core/models"
	"llm-orchestrator/core/registry"
	"llm-orchestrator/core/repository"
	"llm-orchestrator/core/training"
)

// stubGenerator records the last Generate call and returns canned output
type stubGenerator struct {
	lastLocation string
	lastPrompt   string
	lastParams   models.SamplingParams

	text string
	err  error
}

func (s *stubGenerator) Train(ctx context.Context, ds *models.Dataset, hp models.Hyperparameters, onStep training.ProgressFunc) (*training.Result, error) {
	return nil, errors.New("not implemented")
}

func (s *stubGenerator) Generate(ctx context.Context, checkpointLocation, prompt string, params models.SamplingParams) (string, error) {
	s.lastLocation = checkpointLocation
	s.lastPrompt = prompt
	s.lastParams = params
	return s.text, s.err
}

func activeRegistry(t *testing.T, domainID string) (*registry.Registry, *models.ModelArtifact) {
	t.Helper()
	reg := registry.NewRegistry(repository.NewMemoryStore())
	artifact, err := reg.Register(domainID, "job-1", "file:///ckpt/"+domainID, models.Metrics{})
	require.NoError(t, err)
	require.NoError(t, reg.Activate(artifact.ID))
	return reg, artifact
}

func TestGenerateUsesActiveArtifact(t *testing.T) {
	reg, artifact := activeRegistry(t, "nutrition")
	stub := &stubGenerator{text: "A short answer about vitamins."}
	svc := NewService(reg, stub, nil)

	out, err := svc.Generate(context.Background(), "nutrition", models.TierBasic, "What is vitamin D?", models.SamplingParams{})
	require.NoError(t, err)

	assert.Equal(t, "A short answer about vitamins.", out.Text)
	assert.Equal(t, "nutrition", out.DomainID)
	assert.Equal(t, models.TierBasic, out.Tier)
	assert.Equal(t, artifact.Version, out.ModelVersion)
	assert.Equal(t, 5, out.TokenCount)
	assert.Equal(t, "file:///ckpt/nutrition", stub.lastLocation)

	// Usage statistics are recorded against the artifact
	got, err := reg.Get(artifact.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.GenerationCount)
}

func TestGenerateWithoutActiveModel(t *testing.T) {
	reg := registry.NewRegistry(repository.NewMemoryStore())
	svc := NewService(reg, &stubGenerator{text: "anything"}, nil)

	_, err := svc.Generate(context.Background(), "nutrition", models.TierBasic, "What is vitamin D?", models.SamplingParams{})
	var notReady *NoActiveModelError
	require.ErrorAs(t, err, &notReady)
	assert.Equal(t, "nutrition", notReady.DomainID)

	// Registered but never activated still counts as not ready
	artifact, err := reg.Register("nutrition", "job-1", "file:///ckpt/a", models.Metrics{})
	require.NoError(t, err)
	_, err = svc.Generate(context.Background(), "nutrition", models.TierBasic, "What is vitamin D?", models.SamplingParams{})
	require.ErrorAs(t, err, &notReady)
	_ = artifact
}

func TestGenerateValidatesInput(t *testing.T) {
	reg, _ := activeRegistry(t, "nutrition")
	svc := NewService(reg, &stubGenerator{text: "anything"}, nil)

	_, err := svc.Generate(context.Background(), "nutrition", "premium", "What is vitamin D?", models.SamplingParams{})
	assert.ErrorContains(t, err, "unknown tier")

	_, err = svc.Generate(context.Background(), "nutrition", models.TierBasic, "   ", models.SamplingParams{})
	assert.ErrorContains(t, err, "prompt")
}

func TestGenerateFramesPromptPerTier(t *testing.T) {
	reg, _ := activeRegistry(t, "nutrition")
	stub := &stubGenerator{text: "framed answer text"}
	svc := NewService(reg, stub, nil)

	_, err := svc.Generate(context.Background(), "nutrition", models.TierEnterprise, "Summarize supplement policy risk.", models.SamplingParams{})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(stub.lastPrompt, "\n\nSummarize supplement policy risk."))
	assert.Contains(t, stub.lastPrompt, "strategic nutrition advisor")
}

func TestGenerateHonorsPreambleOverrides(t *testing.T) {
	reg, _ := activeRegistry(t, "nutrition")
	stub := &stubGenerator{text: "framed answer text"}
	svc := NewService(reg, stub, NewPreambles(map[string]map[models.Tier]string{
		"nutrition": {models.TierBasic: "Keep answers food-safe and simple."},
	}))

	_, err := svc.Generate(context.Background(), "nutrition", models.TierBasic, "What is vitamin D?", models.SamplingParams{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stub.lastPrompt, "Keep answers food-safe and simple."))

	// Tiers without an override fall back to the defaults
	_, err = svc.Generate(context.Background(), "nutrition", models.TierProfessional, "What is vitamin D?", models.SamplingParams{})
	require.NoError(t, err)
	assert.Contains(t, stub.lastPrompt, "practitioner")
}

func TestGenerateClampsSamplingParams(t *testing.T) {
	reg, _ := activeRegistry(t, "nutrition")
	stub := &stubGenerator{text: "clamped answer text"}
	svc := NewService(reg, stub, nil)

	_, err := svc.Generate(context.Background(), "nutrition", models.TierBasic, "What is vitamin D?", models.SamplingParams{
		Temperature:       9.5,
		TopP:              0.01,
		TopK:              500,
		RepetitionPenalty: 0.2,
		MaxLength:         100000,
	})
	require.NoError(t, err)

	assert.Equal(t, 2.0, stub.lastParams.Temperature)
	assert.Equal(t, 0.1, stub.lastParams.TopP)
	assert.Equal(t, 100, stub.lastParams.TopK)
	assert.Equal(t, 1.0, stub.lastParams.RepetitionPenalty)
	assert.Equal(t, 2048, stub.lastParams.MaxLength)
}

func TestGenerateFillsDefaultSamplingParams(t *testing.T) {
	reg, _ := activeRegistry(t, "nutrition")
	stub := &stubGenerator{text: "default answer text"}
	svc := NewService(reg, stub, nil)

	_, err := svc.Generate(context.Background(), "nutrition", models.TierBasic, "What is vitamin D?", models.SamplingParams{})
	require.NoError(t, err)

	assert.Equal(t, 0.8, stub.lastParams.Temperature)
	assert.Equal(t, 0.9, stub.lastParams.TopP)
	assert.Equal(t, 50, stub.lastParams.TopK)
	assert.Equal(t, 1.1, stub.lastParams.RepetitionPenalty)
	assert.Equal(t, 512, stub.lastParams.MaxLength)
}

func TestGenerateFailuresAreAllOrNothing(t *testing.T) {
	reg, artifact := activeRegistry(t, "nutrition")

	svc := NewService(reg, &stubGenerator{err: errors.New("backend unavailable")}, nil)
	_, err := svc.Generate(context.Background(), "nutrition", models.TierBasic, "What is vitamin D?", models.SamplingParams{})
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Contains(t, genErr.Message, "backend unavailable")

	svc = NewService(reg, &stubGenerator{text: "   "}, nil)
	_, err = svc.Generate(context.Background(), "nutrition", models.TierBasic, "What is vitamin D?", models.SamplingParams{})
	require.ErrorAs(t, err, &genErr)
	assert.Contains(t, genErr.Message, "empty")

	// Failed generations never count as usage
	got, err := reg.Get(artifact.ID)
	require.NoError(t, err)
	assert.Zero(t, got.GenerationCount)
}
