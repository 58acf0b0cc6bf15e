package models

import "time"

// TrainingJob represents one fine-tuning run submitted to the scheduler
type TrainingJob struct {
	ID              string
	DomainID        string
	DatasetVersion  string
	Status          JobStatus
	Hyperparameters Hyperparameters
	Progress        Progress
	CreatedAt       time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
	ErrorMessage    string
}

// JobStatus represents the current status of a training job
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Terminal reports whether the status is a final state
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// Hyperparameters configures a training run
type Hyperparameters struct {
	Epochs       int
	BatchSize    int
	LearningRate float64
}

// Progress tracks step-level training progress. Updated at a bounded rate
// so status polling never blocks on the training loop.
type Progress struct {
	CurrentStep int
	TotalSteps  int
	Loss        float64
	UpdatedAt   time.Time
}
