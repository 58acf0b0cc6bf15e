package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"llm-orchestrator/core/models"
	"llm-orchestrator/core/registry"

	"github.com/gorilla/mux"
)

// RegistryHandler handles model-artifact HTTP requests
type RegistryHandler struct {
	registry *registry.Registry
}

// NewRegistryHandler creates a new registry handler
func NewRegistryHandler(reg *registry.Registry) *RegistryHandler {
	return &RegistryHandler{registry: reg}
}

// ListArtifacts handles GET /v1/domains/{domain}/artifacts
func (h *RegistryHandler) ListArtifacts(w http.ResponseWriter, r *http.Request) {
	domainID := mux.Vars(r)["domain"]

	artifacts := h.registry.List(domainID)
	items := make([]map[string]interface{}, len(artifacts))
	for i, artifact := range artifacts {
		items[i] = artifactResponse(artifact)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"items": items})
}

// GetActiveArtifact handles GET /v1/domains/{domain}/artifacts/active
func (h *RegistryHandler) GetActiveArtifact(w http.ResponseWriter, r *http.Request) {
	domainID := mux.Vars(r)["domain"]

	active, ok := h.registry.ActiveFor(domainID)
	if !ok {
		http.Error(w, "No active artifact for domain", http.StatusNotFound)
		return
	}
	// The active snapshot is frozen at activation time; re-resolve the
	// record so usage statistics are current.
	artifact, err := h.registry.Get(active.ID)
	if err != nil {
		artifact = active
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(artifactResponse(artifact))
}

// ActivateArtifact handles POST /v1/artifacts/{id}/activate
func (h *RegistryHandler) ActivateArtifact(w http.ResponseWriter, r *http.Request) {
	artifactID := mux.Vars(r)["id"]

	err := h.registry.Activate(artifactID)
	if errors.Is(err, registry.ErrArtifactNotFound) {
		http.Error(w, "Artifact not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to activate artifact: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"artifact_id": artifactID,
		"activated":   true,
	})
}

func artifactResponse(artifact *models.ModelArtifact) map[string]interface{} {
	return map[string]interface{}{
		"artifact_id":         artifact.ID,
		"domain_id":           artifact.DomainID,
		"version":             artifact.Version,
		"source_job_id":       artifact.SourceJobID,
		"checkpoint_location": artifact.CheckpointLocation,
		"is_active":           artifact.IsActive,
		"metrics": map[string]interface{}{
			"train_loss": artifact.Metrics.TrainLoss,
			"eval_loss":  artifact.Metrics.EvalLoss,
			"perplexity": artifact.Metrics.Perplexity,
		},
		"generation_count": artifact.GenerationCount,
		"created_at":       artifact.CreatedAt,
	}
}
