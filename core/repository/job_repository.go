package repository

import (
	"database/sql"
	"fmt"

	"llm-orchestrator/core/models"
)

// JobRepository handles database operations for training jobs
type JobRepository struct {
	db *DB
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *DB) *JobRepository {
	return &JobRepository{db: db}
}

// SaveJob upserts a job record with its current progress
func (r *JobRepository) SaveJob(job *models.TrainingJob) error {
	query := `
		INSERT INTO training_jobs (
			id, domain_id, dataset_version, status, epochs, batch_size, learning_rate,
			current_step, total_steps, loss, error_message, created_at, started_at, completed_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW())
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			current_step = EXCLUDED.current_step,
			total_steps = EXCLUDED.total_steps,
			loss = EXCLUDED.loss,
			error_message = EXCLUDED.error_message,
			started_at = EXCLUDED.started_at,
			completed_at = EXCLUDED.completed_at,
			updated_at = NOW()
	`

	_, err := r.db.Exec(query,
		job.ID,
		job.DomainID,
		job.DatasetVersion,
		job.Status,
		job.Hyperparameters.Epochs,
		job.Hyperparameters.BatchSize,
		job.Hyperparameters.LearningRate,
		job.Progress.CurrentStep,
		job.Progress.TotalSteps,
		job.Progress.Loss,
		job.ErrorMessage,
		job.CreatedAt,
		job.StartedAt,
		job.CompletedAt,
	)
	return err
}

// GetJob retrieves a job by ID
func (r *JobRepository) GetJob(id string) (*models.TrainingJob, error) {
	query := `
		SELECT id, domain_id, dataset_version, status, epochs, batch_size, learning_rate,
			current_step, total_steps, loss, error_message, created_at, started_at, completed_at
		FROM training_jobs
		WHERE id = $1
	`

	var job models.TrainingJob
	var errorMessage sql.NullString
	var startedAt sql.NullTime
	var completedAt sql.NullTime

	err := r.db.QueryRow(query, id).Scan(
		&job.ID,
		&job.DomainID,
		&job.DatasetVersion,
		&job.Status,
		&job.Hyperparameters.Epochs,
		&job.Hyperparameters.BatchSize,
		&job.Hyperparameters.LearningRate,
		&job.Progress.CurrentStep,
		&job.Progress.TotalSteps,
		&job.Progress.Loss,
		&errorMessage,
		&job.CreatedAt,
		&startedAt,
		&completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("job %s not found", id)
	}
	if err != nil {
		return nil, err
	}

	if errorMessage.Valid {
		job.ErrorMessage = errorMessage.String
	}
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}

	return &job, nil
}

// ListJobs lists jobs, optionally filtered by domain and status
func (r *JobRepository) ListJobs(domainID string, status *models.JobStatus, limit int) ([]*models.TrainingJob, error) {
	query := `
		SELECT id, domain_id, dataset_version, status, epochs, batch_size, learning_rate,
			current_step, total_steps, loss, error_message, created_at, started_at, completed_at
		FROM training_jobs
	`
	var conditions []string
	var args []interface{}

	if domainID != "" {
		args = append(args, domainID)
		conditions = append(conditions, fmt.Sprintf("domain_id = $%d", len(args)))
	}
	if status != nil {
		args = append(args, *status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	for i, c := range conditions {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*models.TrainingJob
	for rows.Next() {
		var job models.TrainingJob
		var errorMessage sql.NullString
		var startedAt sql.NullTime
		var completedAt sql.NullTime

		err := rows.Scan(
			&job.ID,
			&job.DomainID,
			&job.DatasetVersion,
			&job.Status,
			&job.Hyperparameters.Epochs,
			&job.Hyperparameters.BatchSize,
			&job.Hyperparameters.LearningRate,
			&job.Progress.CurrentStep,
			&job.Progress.TotalSteps,
			&job.Progress.Loss,
			&errorMessage,
			&job.CreatedAt,
			&startedAt,
			&completedAt,
		)
		if err != nil {
			return nil, err
		}

		if errorMessage.Valid {
			job.ErrorMessage = errorMessage.String
		}
		if startedAt.Valid {
			job.StartedAt = &startedAt.Time
		}
		if completedAt.Valid {
			job.CompletedAt = &completedAt.Time
		}
		jobs = append(jobs, &job)
	}

	return jobs, rows.Err()
}

// RecordJobEvent appends a status transition event for a job
func (r *JobRepository) RecordJobEvent(jobID string, from *models.JobStatus, to models.JobStatus, reason string) error {
	query := `
		INSERT INTO job_events (job_id, from_status, to_status, reason)
		VALUES ($1, $2, $3, $4)
	`

	var fromStr *string
	if from != nil {
		s := string(*from)
		fromStr = &s
	}

	_, err := r.db.Exec(query, jobID, fromStr, to, reason)
	return err
}

// ListJobEvents retrieves the transition history for a job, oldest first
func (r *JobRepository) ListJobEvents(jobID string) ([]models.JobEvent, error) {
	query := `
		SELECT id, job_id, from_status, to_status, reason, at
		FROM job_events
		WHERE job_id = $1
		ORDER BY at, id
	`

	rows, err := r.db.Query(query, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.JobEvent
	for rows.Next() {
		var event models.JobEvent
		var fromStatus sql.NullString

		err := rows.Scan(&event.ID, &event.JobID, &fromStatus, &event.ToStatus, &event.Reason, &event.At)
		if err != nil {
			return nil, err
		}
		if fromStatus.Valid {
			status := models.JobStatus(fromStatus.String)
			event.FromStatus = &status
		}
		events = append(events, event)
	}

	return events, rows.Err()
}
