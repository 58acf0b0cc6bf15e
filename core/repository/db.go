package repository

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// DB wraps the sql database handle used by all repositories
type DB struct {
	*sql.DB
}

// NewDB connects to Postgres and verifies the connection
func NewDB(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Migrate creates the tables used by the repositories if they do not exist
func (db *DB) Migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS training_examples (
			id TEXT NOT NULL,
			domain_id TEXT NOT NULL,
			input TEXT NOT NULL,
			output TEXT NOT NULL,
			context TEXT,
			difficulty_level INT NOT NULL,
			tier TEXT NOT NULL,
			tags_json TEXT NOT NULL DEFAULT '[]',
			quality_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			source TEXT NOT NULL,
			token_count INT NOT NULL DEFAULT 0,
			validated BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (domain_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS datasets (
			domain_id TEXT NOT NULL,
			version TEXT NOT NULL,
			total_examples INT NOT NULL,
			tier_counts_json TEXT NOT NULL,
			average_quality DOUBLE PRECISION NOT NULL,
			average_tokens DOUBLE PRECISION NOT NULL,
			train_ids_json TEXT NOT NULL,
			validation_ids_json TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (domain_id, version)
		)`,
		`CREATE TABLE IF NOT EXISTS training_jobs (
			id UUID PRIMARY KEY,
			domain_id TEXT NOT NULL,
			dataset_version TEXT NOT NULL,
			status TEXT NOT NULL,
			epochs INT NOT NULL,
			batch_size INT NOT NULL,
			learning_rate DOUBLE PRECISION NOT NULL,
			current_step INT NOT NULL DEFAULT 0,
			total_steps INT NOT NULL DEFAULT 0,
			loss DOUBLE PRECISION NOT NULL DEFAULT 0,
			error_message TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			started_at TIMESTAMPTZ,
			completed_at TIMESTAMPTZ,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS job_events (
			id BIGSERIAL PRIMARY KEY,
			job_id UUID NOT NULL,
			from_status TEXT,
			to_status TEXT NOT NULL,
			reason TEXT NOT NULL,
			at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS model_artifacts (
			id UUID PRIMARY KEY,
			domain_id TEXT NOT NULL,
			version TEXT NOT NULL,
			source_job_id UUID NOT NULL,
			checkpoint_location TEXT NOT NULL,
			train_loss DOUBLE PRECISION NOT NULL,
			eval_loss DOUBLE PRECISION NOT NULL,
			perplexity DOUBLE PRECISION NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			generation_count BIGINT NOT NULL DEFAULT 0,
			last_used_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
