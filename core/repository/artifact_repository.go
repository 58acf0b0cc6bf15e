package repository

import (
	"database/sql"

	"llm-orchestrator/core/models"
)

// ArtifactRepository handles database operations for model artifacts
type ArtifactRepository struct {
	db *DB
}

// NewArtifactRepository creates a new artifact repository
func NewArtifactRepository(db *DB) *ArtifactRepository {
	return &ArtifactRepository{db: db}
}

// SaveArtifact upserts an artifact record. The checkpoint blob itself is
// referenced by location only, never embedded.
func (r *ArtifactRepository) SaveArtifact(artifact *models.ModelArtifact) error {
	query := `
		INSERT INTO model_artifacts (
			id, domain_id, version, source_job_id, checkpoint_location,
			train_loss, eval_loss, perplexity, is_active, generation_count, last_used_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			is_active = EXCLUDED.is_active,
			generation_count = EXCLUDED.generation_count,
			last_used_at = EXCLUDED.last_used_at
	`

	_, err := r.db.Exec(query,
		artifact.ID,
		artifact.DomainID,
		artifact.Version,
		artifact.SourceJobID,
		artifact.CheckpointLocation,
		artifact.Metrics.TrainLoss,
		artifact.Metrics.EvalLoss,
		artifact.Metrics.Perplexity,
		artifact.IsActive,
		artifact.GenerationCount,
		artifact.LastUsedAt,
		artifact.CreatedAt,
	)
	return err
}

// ListArtifacts retrieves every artifact record, oldest first. The
// registry restores its in-memory state from this at startup.
func (r *ArtifactRepository) ListArtifacts() ([]*models.ModelArtifact, error) {
	query := `
		SELECT id, domain_id, version, source_job_id, checkpoint_location,
			train_loss, eval_loss, perplexity, is_active, generation_count, last_used_at, created_at
		FROM model_artifacts
		ORDER BY created_at
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artifacts []*models.ModelArtifact
	for rows.Next() {
		var artifact models.ModelArtifact
		var lastUsedAt sql.NullTime

		err := rows.Scan(
			&artifact.ID,
			&artifact.DomainID,
			&artifact.Version,
			&artifact.SourceJobID,
			&artifact.CheckpointLocation,
			&artifact.Metrics.TrainLoss,
			&artifact.Metrics.EvalLoss,
			&artifact.Metrics.Perplexity,
			&artifact.IsActive,
			&artifact.GenerationCount,
			&lastUsedAt,
			&artifact.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if lastUsedAt.Valid {
			artifact.LastUsedAt = &lastUsedAt.Time
		}
		artifacts = append(artifacts, &artifact)
	}

	return artifacts, rows.Err()
}
