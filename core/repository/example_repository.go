package repository

import (
	"database/sql"
	"encoding/json"

	"llm-orchestrator/core/models"
)

// ExampleRepository handles database operations for training examples
type ExampleRepository struct {
	db *DB
}

// NewExampleRepository creates a new example repository
func NewExampleRepository(db *DB) *ExampleRepository {
	return &ExampleRepository{db: db}
}

// SaveExamples inserts a batch of validated examples in one transaction
func (r *ExampleRepository) SaveExamples(domainID string, examples []*models.TrainingExample) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO training_examples (
			id, domain_id, input, output, context, difficulty_level, tier,
			tags_json, quality_score, source, token_count, validated, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (domain_id, id) DO UPDATE SET
			quality_score = EXCLUDED.quality_score,
			validated = EXCLUDED.validated
	`

	for _, example := range examples {
		tagsJSON, err := json.Marshal(example.Tags)
		if err != nil {
			return err
		}
		_, err = tx.Exec(query,
			example.ID,
			domainID,
			example.Input,
			example.Output,
			example.Context,
			example.DifficultyLevel,
			example.Tier,
			string(tagsJSON),
			example.QualityScore,
			example.Metadata.Source,
			example.Metadata.TokenCount,
			example.Metadata.Validated,
			example.Metadata.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListExamples retrieves all examples for a domain
func (r *ExampleRepository) ListExamples(domainID string) ([]*models.TrainingExample, error) {
	query := `
		SELECT id, domain_id, input, output, context, difficulty_level, tier,
			tags_json, quality_score, source, token_count, validated, created_at
		FROM training_examples
		WHERE domain_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.Query(query, domainID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var examples []*models.TrainingExample
	for rows.Next() {
		var example models.TrainingExample
		var context sql.NullString
		var tagsJSON string

		err := rows.Scan(
			&example.ID,
			&example.DomainID,
			&example.Input,
			&example.Output,
			&context,
			&example.DifficultyLevel,
			&example.Tier,
			&tagsJSON,
			&example.QualityScore,
			&example.Metadata.Source,
			&example.Metadata.TokenCount,
			&example.Metadata.Validated,
			&example.Metadata.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		if context.Valid {
			example.Context = context.String
		}
		if err := json.Unmarshal([]byte(tagsJSON), &example.Tags); err != nil {
			example.Tags = nil
		}

		examples = append(examples, &example)
	}

	return examples, rows.Err()
}

// ClearExamples removes every example for a domain
func (r *ExampleRepository) ClearExamples(domainID string) error {
	_, err := r.db.Exec(`DELETE FROM training_examples WHERE domain_id = $1`, domainID)
	return err
}
