package handlers

import (
	"encoding/json"
	"net/http"

	"llm-orchestrator/core/dataset"
	"llm-orchestrator/core/repository"
	"llm-orchestrator/core/scoring"
	"llm-orchestrator/core/validation"

	"github.com/gorilla/mux"
)

// ExampleHandler handles training-example ingestion and dataset assembly
type ExampleHandler struct {
	validator *validation.Validator
	scorer    *scoring.Scorer
	assembler *dataset.Assembler
	examples  repository.ExampleStore
}

// NewExampleHandler creates a new example handler
func NewExampleHandler(
	validator *validation.Validator,
	scorer *scoring.Scorer,
	assembler *dataset.Assembler,
	examples repository.ExampleStore,
) *ExampleHandler {
	return &ExampleHandler{
		validator: validator,
		scorer:    scorer,
		assembler: assembler,
		examples:  examples,
	}
}

// IngestRequest represents a batch of raw examples for one domain
type IngestRequest struct {
	Examples []validation.RawExample `json:"examples"`
}

// IngestExamples handles POST /v1/domains/{domain}/examples.
// The response is always a per-example report, never a single batch verdict.
func (h *ExampleHandler) IngestExamples(w http.ResponseWriter, r *http.Request) {
	domainID := mux.Vars(r)["domain"]

	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	reports, accepted := h.validator.ValidateBatch(domainID, req.Examples)

	for _, example := range accepted {
		h.scorer.ScoreAndMark(example)
	}

	if len(accepted) > 0 {
		if err := h.examples.SaveExamples(domainID, accepted); err != nil {
			http.Error(w, "Failed to store examples: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}

	acceptedCount := 0
	for _, report := range reports {
		if report.Accepted {
			acceptedCount++
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"domain":   domainID,
		"accepted": acceptedCount,
		"rejected": len(reports) - acceptedCount,
		"reports":  reports,
	})
}

// ClearExamples handles DELETE /v1/domains/{domain}/examples.
// This is the explicit dataset-clear operation; nothing else destroys
// examples.
func (h *ExampleHandler) ClearExamples(w http.ResponseWriter, r *http.Request) {
	domainID := mux.Vars(r)["domain"]

	if err := h.examples.ClearExamples(domainID); err != nil {
		http.Error(w, "Failed to clear examples: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"domain":  domainID,
		"cleared": true,
	})
}

// AssembleDataset handles POST /v1/domains/{domain}/datasets
func (h *ExampleHandler) AssembleDataset(w http.ResponseWriter, r *http.Request) {
	domainID := mux.Vars(r)["domain"]

	examples, err := h.examples.ListExamples(domainID)
	if err != nil {
		http.Error(w, "Failed to load examples: "+err.Error(), http.StatusInternalServerError)
		return
	}

	ds, warnings, err := h.assembler.Assemble(domainID, examples)
	if err != nil {
		if _, ok := err.(*dataset.InsufficientCoverageError); ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": err.Error(),
			})
			return
		}
		http.Error(w, "Failed to assemble dataset: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"domain":          ds.DomainID,
		"version":         ds.Version,
		"total_examples":  ds.TotalExamples,
		"tier_counts":     ds.TierCounts,
		"average_quality": ds.AverageQuality,
		"train_size":      len(ds.TrainExamples),
		"validation_size": len(ds.ValidationExamples),
		"warnings":        warnings,
	})
}
