package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"llm-orchestrator/core/models"
)

// DatasetRepository handles database operations for assembled datasets.
// Dataset rows hold statistics plus member example ids; the examples
// themselves live in training_examples.
type DatasetRepository struct {
	db       *DB
	examples *ExampleRepository
}

// NewDatasetRepository creates a new dataset repository
func NewDatasetRepository(db *DB) *DatasetRepository {
	return &DatasetRepository{db: db, examples: NewExampleRepository(db)}
}

// NextDatasetVersion issues the next monotonic version for a domain
func (r *DatasetRepository) NextDatasetVersion(domainID string) (string, error) {
	query := `SELECT version FROM datasets WHERE domain_id = $1`
	rows, err := r.db.Query(query, domainID)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	last := 0
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return "", err
		}
		n, err := strconv.Atoi(strings.TrimPrefix(version, "v"))
		if err == nil && n > last {
			last = n
		}
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	return fmt.Sprintf("v%d", last+1), nil
}

// SaveDataset stores an assembled dataset version
func (r *DatasetRepository) SaveDataset(ds *models.Dataset) error {
	tierCountsJSON, err := json.Marshal(ds.TierCounts)
	if err != nil {
		return err
	}
	trainIDsJSON, err := json.Marshal(exampleIDs(ds.TrainExamples))
	if err != nil {
		return err
	}
	validationIDsJSON, err := json.Marshal(exampleIDs(ds.ValidationExamples))
	if err != nil {
		return err
	}

	query := `
		INSERT INTO datasets (
			domain_id, version, total_examples, tier_counts_json,
			average_quality, average_tokens, train_ids_json, validation_ids_json, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.db.Exec(query,
		ds.DomainID,
		ds.Version,
		ds.TotalExamples,
		string(tierCountsJSON),
		ds.AverageQuality,
		ds.AverageTokens,
		string(trainIDsJSON),
		string(validationIDsJSON),
		ds.CreatedAt,
	)
	return err
}

// GetDataset retrieves one dataset version with its member examples
func (r *DatasetRepository) GetDataset(domainID, version string) (*models.Dataset, error) {
	query := `
		SELECT domain_id, version, total_examples, tier_counts_json,
			average_quality, average_tokens, train_ids_json, validation_ids_json, created_at
		FROM datasets
		WHERE domain_id = $1 AND version = $2
	`

	var ds models.Dataset
	var tierCountsJSON, trainIDsJSON, validationIDsJSON string

	err := r.db.QueryRow(query, domainID, version).Scan(
		&ds.DomainID,
		&ds.Version,
		&ds.TotalExamples,
		&tierCountsJSON,
		&ds.AverageQuality,
		&ds.AverageTokens,
		&trainIDsJSON,
		&validationIDsJSON,
		&ds.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("dataset %s/%s not found", domainID, version)
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tierCountsJSON), &ds.TierCounts); err != nil {
		return nil, err
	}
	var trainIDs, validationIDs []string
	if err := json.Unmarshal([]byte(trainIDsJSON), &trainIDs); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(validationIDsJSON), &validationIDs); err != nil {
		return nil, err
	}

	all, err := r.examples.ListExamples(domainID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*models.TrainingExample, len(all))
	for _, example := range all {
		byID[example.ID] = example
	}
	for _, id := range trainIDs {
		if example, ok := byID[id]; ok {
			ds.TrainExamples = append(ds.TrainExamples, example)
		}
	}
	for _, id := range validationIDs {
		if example, ok := byID[id]; ok {
			ds.ValidationExamples = append(ds.ValidationExamples, example)
		}
	}

	return &ds, nil
}

// ListDatasetVersions lists retained versions for a domain, oldest first
func (r *DatasetRepository) ListDatasetVersions(domainID string) ([]string, error) {
	query := `SELECT version FROM datasets WHERE domain_id = $1 ORDER BY created_at`
	rows, err := r.db.Query(query, domainID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		versions = append(versions, version)
	}
	return versions, rows.Err()
}

func exampleIDs(examples []*models.TrainingExample) []string {
	ids := make([]string, len(examples))
	for i, example := range examples {
		ids[i] = example.ID
	}
	return ids
}
