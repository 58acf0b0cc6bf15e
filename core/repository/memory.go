package repository

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"llm-orchestrator/core/models"
)

// MemoryStore is an in-process implementation of every store interface.
// It backs tests and database-less runs; the Postgres repositories are the
// durable counterpart.
type MemoryStore struct {
	mu        sync.Mutex
	examples  map[string][]*models.TrainingExample
	datasets  map[string]map[string]*models.Dataset // domainID -> version -> dataset
	versions  map[string]int                        // domainID -> last issued dataset version
	jobs      map[string]*models.TrainingJob
	events    []models.JobEvent
	artifacts map[string]*models.ModelArtifact
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		examples:  make(map[string][]*models.TrainingExample),
		datasets:  make(map[string]map[string]*models.Dataset),
		versions:  make(map[string]int),
		jobs:      make(map[string]*models.TrainingJob),
		artifacts: make(map[string]*models.ModelArtifact),
	}
}

// SaveExamples appends validated examples for a domain
func (m *MemoryStore) SaveExamples(domainID string, examples []*models.TrainingExample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.examples[domainID] = append(m.examples[domainID], examples...)
	return nil
}

// ListExamples returns all stored examples for a domain
func (m *MemoryStore) ListExamples(domainID string) ([]*models.TrainingExample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.TrainingExample, len(m.examples[domainID]))
	copy(out, m.examples[domainID])
	return out, nil
}

// ClearExamples removes every example for a domain
func (m *MemoryStore) ClearExamples(domainID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.examples, domainID)
	return nil
}

// NextDatasetVersion issues the next monotonic version for a domain
func (m *MemoryStore) NextDatasetVersion(domainID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versions[domainID]++
	return fmt.Sprintf("v%d", m.versions[domainID]), nil
}

// SaveDataset stores an assembled dataset version
func (m *MemoryStore) SaveDataset(ds *models.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.datasets[ds.DomainID] == nil {
		m.datasets[ds.DomainID] = make(map[string]*models.Dataset)
	}
	m.datasets[ds.DomainID][ds.Version] = ds
	return nil
}

// GetDataset retrieves one dataset version
func (m *MemoryStore) GetDataset(domainID, version string) (*models.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ds, ok := m.datasets[domainID][version]
	if !ok {
		return nil, fmt.Errorf("dataset %s/%s not found", domainID, version)
	}
	return ds, nil
}

// ListDatasetVersions lists retained versions for a domain, oldest first
func (m *MemoryStore) ListDatasetVersions(domainID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	last := m.versions[domainID]
	versions := make([]string, 0, last)
	for i := 1; i <= last; i++ {
		v := fmt.Sprintf("v%d", i)
		if _, ok := m.datasets[domainID][v]; ok {
			versions = append(versions, v)
		}
	}
	return versions, nil
}

// SaveJob upserts a job record
func (m *MemoryStore) SaveJob(job *models.TrainingJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := *job
	m.jobs[job.ID] = &snapshot
	return nil
}

// GetJob retrieves one job record by id
func (m *MemoryStore) GetJob(id string) (*models.TrainingJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s not found", id)
	}
	snapshot := *job
	return &snapshot, nil
}

// ListJobs returns job records filtered by domain and status, newest first
func (m *MemoryStore) ListJobs(domainID string, status *models.JobStatus, limit int) ([]*models.TrainingJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.TrainingJob, 0, len(m.jobs))
	for _, job := range m.jobs {
		if domainID != "" && job.DomainID != domainID {
			continue
		}
		if status != nil && job.Status != *status {
			continue
		}
		snapshot := *job
		out = append(out, &snapshot)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// RecordJobEvent appends a transition event for a job
func (m *MemoryStore) RecordJobEvent(jobID string, from *models.JobStatus, to models.JobStatus, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, models.JobEvent{
		ID:         int64(len(m.events) + 1),
		JobID:      jobID,
		At:         time.Now().UTC(),
		FromStatus: from,
		ToStatus:   to,
		Reason:     reason,
	})
	return nil
}

// ListJobEvents returns all transition events for a job, oldest first
func (m *MemoryStore) ListJobEvents(jobID string) ([]models.JobEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.JobEvent
	for _, event := range m.events {
		if event.JobID == jobID {
			out = append(out, event)
		}
	}
	return out, nil
}

// SaveArtifact upserts an artifact record
func (m *MemoryStore) SaveArtifact(artifact *models.ModelArtifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := *artifact
	m.artifacts[artifact.ID] = &snapshot
	return nil
}

// ListArtifacts returns every stored artifact, oldest first
func (m *MemoryStore) ListArtifacts() ([]*models.ModelArtifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.ModelArtifact, 0, len(m.artifacts))
	for _, artifact := range m.artifacts {
		snapshot := *artifact
		out = append(out, &snapshot)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
