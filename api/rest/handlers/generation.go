package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"llm-orchestrator/core/generation"
	"llm-orchestrator/core/models"
)

// GenerationHandler handles text-generation HTTP requests
type GenerationHandler struct {
	service *generation.Service
}

// NewGenerationHandler creates a new generation handler
func NewGenerationHandler(service *generation.Service) *GenerationHandler {
	return &GenerationHandler{service: service}
}

// GenerateRequest represents a generation request
type GenerateRequest struct {
	DomainID          string  `json:"domain_id"`
	Tier              string  `json:"tier"`
	Prompt            string  `json:"prompt"`
	MaxLength         int     `json:"max_length,omitempty"`
	Temperature       float64 `json:"temperature,omitempty"`
	TopP              float64 `json:"top_p,omitempty"`
	TopK              int     `json:"top_k,omitempty"`
	RepetitionPenalty float64 `json:"repetition_penalty,omitempty"`
}

// Generate handles POST /v1/generate
func (h *GenerationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.Generate(r.Context(), req.DomainID, models.Tier(req.Tier), req.Prompt, models.SamplingParams{
		MaxLength:         req.MaxLength,
		Temperature:       req.Temperature,
		TopP:              req.TopP,
		TopK:              req.TopK,
		RepetitionPenalty: req.RepetitionPenalty,
	})
	if err != nil {
		var noModel *generation.NoActiveModelError
		var genErr *generation.GenerationError
		switch {
		case errors.As(err, &noModel):
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": err.Error(),
				"code":  "no_active_model",
			})
		case errors.As(err, &genErr):
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": err.Error(),
				"code":  "generation_error",
			})
		default:
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"text":          result.Text,
		"domain_id":     result.DomainID,
		"tier":          result.Tier,
		"model_version": result.ModelVersion,
		"token_count":   result.TokenCount,
		"latency_ms":    result.LatencyMs,
	})
}
