package repository

import "llm-orchestrator/core/models"

// ExampleStore persists validated training examples per domain
type ExampleStore interface {
	SaveExamples(domainID string, examples []*models.TrainingExample) error
	ListExamples(domainID string) ([]*models.TrainingExample, error)
	// ClearExamples is the one destructive operation on examples; it is
	// explicit and never triggered implicitly.
	ClearExamples(domainID string) error
}

// DatasetStore persists assembled dataset versions. Prior versions are
// retained for reproducibility of past training jobs.
type DatasetStore interface {
	NextDatasetVersion(domainID string) (string, error)
	SaveDataset(ds *models.Dataset) error
	GetDataset(domainID, version string) (*models.Dataset, error)
	ListDatasetVersions(domainID string) ([]string, error)
}

// JobStore persists training job records across status transitions.
// Failed jobs stay queryable; records are never deleted here. The read
// side serves job inspection after a process restart, when the
// scheduler's in-memory state is gone.
type JobStore interface {
	SaveJob(job *models.TrainingJob) error
	GetJob(id string) (*models.TrainingJob, error)
	ListJobs(domainID string, status *models.JobStatus, limit int) ([]*models.TrainingJob, error)
	RecordJobEvent(jobID string, from *models.JobStatus, to models.JobStatus, reason string) error
	ListJobEvents(jobID string) ([]models.JobEvent, error)
}

// ArtifactStore persists model artifact records. Checkpoints themselves
// live in the checkpoint store and are referenced by location only.
// ListArtifacts feeds registry restoration at startup.
type ArtifactStore interface {
	SaveArtifact(artifact *models.ModelArtifact) error
	ListArtifacts() ([]*models.ModelArtifact, error)
}
