package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm-orchestrator/core/models"
)

var testDefaults = models.Hyperparameters{Epochs: 3, BatchSize: 4, LearningRate: 5e-5}

func TestParseTrainingSpecWithOverrides(t *testing.T) {
	specYAML := `
training:
  domain: nutrition
  dataset_version: v2
  hyperparameters:
    epochs: 5
    batch_size: 8
    learning_rate: 0.0001
`
	sub, err := ParseTrainingSpec(specYAML, testDefaults)
	require.NoError(t, err)

	assert.Equal(t, "nutrition", sub.DomainID)
	assert.Equal(t, "v2", sub.DatasetVersion)
	assert.Equal(t, 5, sub.Hyperparameters.Epochs)
	assert.Equal(t, 8, sub.Hyperparameters.BatchSize)
	assert.Equal(t, 0.0001, sub.Hyperparameters.LearningRate)
}

func TestParseTrainingSpecFillsDefaults(t *testing.T) {
	specYAML := `
training:
  domain: nutrition
  dataset_version: v1
  hyperparameters:
    epochs: 10
`
	sub, err := ParseTrainingSpec(specYAML, testDefaults)
	require.NoError(t, err)

	assert.Equal(t, 10, sub.Hyperparameters.Epochs)
	assert.Equal(t, 4, sub.Hyperparameters.BatchSize)
	assert.Equal(t, 5e-5, sub.Hyperparameters.LearningRate)
}

func TestParseTrainingSpecRejectsMissingFields(t *testing.T) {
	_, err := ParseTrainingSpec("training:\n  dataset_version: v1\n", testDefaults)
	assert.ErrorContains(t, err, "training.domain is required")

	_, err = ParseTrainingSpec("training:\n  domain: nutrition\n", testDefaults)
	assert.ErrorContains(t, err, "training.dataset_version is required")
}

func TestParseTrainingSpecEnforcesBounds(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			"epochs too high",
			"training:\n  domain: d\n  dataset_version: v1\n  hyperparameters:\n    epochs: 101\n",
			"epochs",
		},
		{
			"batch size too high",
			"training:\n  domain: d\n  dataset_version: v1\n  hyperparameters:\n    batch_size: 64\n",
			"batch_size",
		},
		{
			"learning rate too low",
			"training:\n  domain: d\n  dataset_version: v1\n  hyperparameters:\n    learning_rate: 1e-9\n",
			"learning_rate",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseTrainingSpec(tc.yaml, testDefaults)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestParseTrainingSpecRejectsMalformedYAML(t *testing.T) {
	_, err := ParseTrainingSpec("training: [not a map", testDefaults)
	assert.ErrorContains(t, err, "failed to parse YAML")
}
