package spec

import (
	"fmt"

	"llm-orchestrator/core/models"

	"gopkg.in/yaml.v3"
)

// TrainingSpec represents the YAML training-run specification
type TrainingSpec struct {
	Training TrainingSpecRun `yaml:"training"`
}

// TrainingSpecRun represents the training section of the document
type TrainingSpecRun struct {
	Domain          string                  `yaml:"domain"`
	DatasetVersion  string                  `yaml:"dataset_version"`
	Hyperparameters TrainingSpecHyperparams `yaml:"hyperparameters"`
}

// TrainingSpecHyperparams represents optional hyperparameter overrides
type TrainingSpecHyperparams struct {
	Epochs       *int     `yaml:"epochs,omitempty"`
	BatchSize    *int     `yaml:"batch_size,omitempty"`
	LearningRate *float64 `yaml:"learning_rate,omitempty"`
}

// Submission is a parsed, validated training-run request
type Submission struct {
	DomainID        string
	DatasetVersion  string
	Hyperparameters models.Hyperparameters
}

// ParseTrainingSpec parses a YAML training-run spec, filling unset
// hyperparameters from defaults and enforcing their bounds.
func ParseTrainingSpec(specYAML string, defaults models.Hyperparameters) (*Submission, error) {
	var parsed TrainingSpec
	if err := yaml.Unmarshal([]byte(specYAML), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	run := parsed.Training
	if run.Domain == "" {
		return nil, fmt.Errorf("training.domain is required")
	}
	if run.DatasetVersion == "" {
		return nil, fmt.Errorf("training.dataset_version is required")
	}

	hp := defaults
	if run.Hyperparameters.Epochs != nil {
		hp.Epochs = *run.Hyperparameters.Epochs
	}
	if run.Hyperparameters.BatchSize != nil {
		hp.BatchSize = *run.Hyperparameters.BatchSize
	}
	if run.Hyperparameters.LearningRate != nil {
		hp.LearningRate = *run.Hyperparameters.LearningRate
	}

	if hp.Epochs < 1 || hp.Epochs > 100 {
		return nil, fmt.Errorf("epochs must be between 1 and 100, got %d", hp.Epochs)
	}
	if hp.BatchSize < 1 || hp.BatchSize > 32 {
		return nil, fmt.Errorf("batch_size must be between 1 and 32, got %d", hp.BatchSize)
	}
	if hp.LearningRate < 1e-6 || hp.LearningRate > 1e-3 {
		return nil, fmt.Errorf("learning_rate must be between 1e-6 and 1e-3, got %g", hp.LearningRate)
	}

	return &Submission{
		DomainID:        run.Domain,
		DatasetVersion:  run.DatasetVersion,
		Hyperparameters: hp,
	}, nil
}
