package registry

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"llm-orchestrator/core/models"
	"llm-orchestrator/core/repository"

	"github.com/google/uuid"
)

// ErrArtifactNotFound is returned by Activate and Get for unknown ids
var ErrArtifactNotFound = fmt.Errorf("artifact not found")

// Registry versions and tracks model artifacts per domain. Artifacts live
// in an append-only map; the active pointer is a domain->snapshot index
// swapped atomically, so readers on the generation path never take the
// mutex and never wait on store writes, and never observe zero or two
// active artifacts mid-transition.
type Registry struct {
	mu        sync.Mutex // guards mutations; the read path never takes it
	artifacts map[string]*models.ModelArtifact
	byDomain  map[string][]string // domainID -> artifact ids, registration order
	versions  map[string]int      // domainID -> last issued artifact version
	active    atomic.Value        // map[string]*models.ModelArtifact, immutable snapshots per domain

	store repository.ArtifactStore
}

// NewRegistry creates a registry persisting records through store
func NewRegistry(store repository.ArtifactStore) *Registry {
	r := &Registry{
		artifacts: make(map[string]*models.ModelArtifact),
		byDomain:  make(map[string][]string),
		versions:  make(map[string]int),
		store:     store,
	}
	r.active.Store(map[string]*models.ModelArtifact{})
	return r
}

// Restore rebuilds the in-memory registry from persisted artifact records,
// including the per-domain active pointers and version counters. Called at
// startup before the registry takes traffic.
func (r *Registry) Restore() error {
	artifacts, err := r.store.ListArtifacts()
	if err != nil {
		return fmt.Errorf("failed to load artifacts: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	active := make(map[string]*models.ModelArtifact)
	for _, artifact := range artifacts {
		copied := *artifact
		r.artifacts[copied.ID] = &copied
		r.byDomain[copied.DomainID] = append(r.byDomain[copied.DomainID], copied.ID)
		if n := versionNumber(copied.Version); n > r.versions[copied.DomainID] {
			r.versions[copied.DomainID] = n
		}
		if copied.IsActive {
			snapshot := copied
			active[copied.DomainID] = &snapshot
		}
	}
	r.active.Store(active)

	if len(artifacts) > 0 {
		log.Printf("Restored %d model artifact(s) across %d domain(s)", len(artifacts), len(r.byDomain))
	}
	return nil
}

// Register records the output of a completed job as a new, inactive
// artifact. Activation is a separate explicit call so an operator can
// review metrics before promotion.
func (r *Registry) Register(domainID, jobID, checkpointLocation string, metrics models.Metrics) (*models.ModelArtifact, error) {
	r.mu.Lock()
	r.versions[domainID]++
	artifact := &models.ModelArtifact{
		ID:                 uuid.New().String(),
		DomainID:           domainID,
		Version:            fmt.Sprintf("v%d", r.versions[domainID]),
		SourceJobID:        jobID,
		CheckpointLocation: checkpointLocation,
		Metrics:            metrics,
		CreatedAt:          time.Now().UTC(),
	}
	r.artifacts[artifact.ID] = artifact
	r.byDomain[domainID] = append(r.byDomain[domainID], artifact.ID)
	snapshot := *artifact
	r.mu.Unlock()

	if err := r.store.SaveArtifact(&snapshot); err != nil {
		return nil, fmt.Errorf("failed to persist artifact: %w", err)
	}
	return &snapshot, nil
}

// Activate makes the artifact the active one for its domain, deactivating
// the previous artifact in the same step. Activation order is caller-
// determined: an older artifact may be promoted over a newer one.
// Store writes happen after the swap, outside the mutex, so readers are
// never blocked by persistence.
func (r *Registry) Activate(artifactID string) error {
	r.mu.Lock()
	artifact, ok := r.artifacts[artifactID]
	if !ok {
		r.mu.Unlock()
		return ErrArtifactNotFound
	}

	current := r.active.Load().(map[string]*models.ModelArtifact)
	var deactivated *models.ModelArtifact
	if previous, ok := current[artifact.DomainID]; ok && previous.ID != artifactID {
		prev := r.artifacts[previous.ID]
		prev.IsActive = false
		snapshot := *prev
		deactivated = &snapshot
	}
	artifact.IsActive = true
	activated := *artifact

	// Copy-on-write swap: readers holding the old map stay consistent
	next := make(map[string]*models.ModelArtifact, len(current)+1)
	for k, v := range current {
		next[k] = v
	}
	next[artifact.DomainID] = &activated
	r.active.Store(next)
	r.mu.Unlock()

	if deactivated != nil {
		if err := r.store.SaveArtifact(deactivated); err != nil {
			return fmt.Errorf("failed to persist deactivation: %w", err)
		}
	}
	if err := r.store.SaveArtifact(&activated); err != nil {
		return fmt.Errorf("failed to persist activation: %w", err)
	}
	return nil
}

// ActiveFor returns a snapshot of the active artifact for a domain.
// A single atomic load; it takes no lock and waits on no store write.
func (r *Registry) ActiveFor(domainID string) (*models.ModelArtifact, bool) {
	current := r.active.Load().(map[string]*models.ModelArtifact)
	artifact, ok := current[domainID]
	if !ok {
		return nil, false
	}
	snapshot := *artifact
	return &snapshot, true
}

// Get returns a snapshot of one artifact by id
func (r *Registry) Get(artifactID string) (*models.ModelArtifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	artifact, ok := r.artifacts[artifactID]
	if !ok {
		return nil, ErrArtifactNotFound
	}
	snapshot := *artifact
	return &snapshot, nil
}

// List returns snapshots of all artifacts for a domain in registration order
func (r *Registry) List(domainID string) []*models.ModelArtifact {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := r.byDomain[domainID]
	out := make([]*models.ModelArtifact, 0, len(ids))
	for _, id := range ids {
		snapshot := *r.artifacts[id]
		out = append(out, &snapshot)
	}
	return out
}

// RecordUse updates usage statistics after a generation request.
// The store write happens outside the mutex; a failure is logged and the
// in-memory statistics stay authoritative.
func (r *Registry) RecordUse(artifactID string) {
	r.mu.Lock()
	artifact, ok := r.artifacts[artifactID]
	if !ok {
		r.mu.Unlock()
		return
	}
	now := time.Now().UTC()
	artifact.GenerationCount++
	artifact.LastUsedAt = &now
	snapshot := *artifact
	r.mu.Unlock()

	if err := r.store.SaveArtifact(&snapshot); err != nil {
		log.Printf("Failed to persist usage for artifact %s: %v", artifactID, err)
	}
}

// versionNumber parses the numeric part of a vN artifact version
func versionNumber(version string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(version, "v"))
	if err != nil {
		return 0
	}
	return n
}
