package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"llm-orchestrator/core/models"
	"llm-orchestrator/core/repository"
	"llm-orchestrator/core/scheduler"
	"llm-orchestrator/core/spec"

	"github.com/gorilla/mux"
)

// JobHandler handles training-job HTTP requests. Live jobs are served
// from scheduler memory; the job store covers jobs from before the last
// process restart.
type JobHandler struct {
	scheduler *scheduler.Scheduler
	jobs      repository.JobStore
	defaults  models.Hyperparameters
}

// NewJobHandler creates a new job handler
func NewJobHandler(sched *scheduler.Scheduler, jobs repository.JobStore, defaults models.Hyperparameters) *JobHandler {
	return &JobHandler{scheduler: sched, jobs: jobs, defaults: defaults}
}

const maxJobsPerPage = 200

// SubmitJobRequest represents the request to submit a training job.
// Either the JSON fields or a YAML spec may be used.
type SubmitJobRequest struct {
	DomainID       string   `json:"domain_id,omitempty"`
	DatasetVersion string   `json:"dataset_version,omitempty"`
	Epochs         *int     `json:"epochs,omitempty"`
	BatchSize      *int     `json:"batch_size,omitempty"`
	LearningRate   *float64 `json:"learning_rate,omitempty"`
	SpecYAML       string   `json:"spec_yaml,omitempty"`
}

// SubmitJob handles POST /v1/jobs
func (h *JobHandler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req SubmitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	domainID := req.DomainID
	datasetVersion := req.DatasetVersion
	hp := h.defaults

	if req.SpecYAML != "" {
		submission, err := spec.ParseTrainingSpec(req.SpecYAML, h.defaults)
		if err != nil {
			http.Error(w, "Invalid training spec: "+err.Error(), http.StatusBadRequest)
			return
		}
		domainID = submission.DomainID
		datasetVersion = submission.DatasetVersion
		hp = submission.Hyperparameters
	} else {
		if req.Epochs != nil {
			hp.Epochs = *req.Epochs
		}
		if req.BatchSize != nil {
			hp.BatchSize = *req.BatchSize
		}
		if req.LearningRate != nil {
			hp.LearningRate = *req.LearningRate
		}
	}

	if domainID == "" || datasetVersion == "" {
		http.Error(w, "domain_id and dataset_version are required", http.StatusBadRequest)
		return
	}

	job, err := h.scheduler.Submit(domainID, datasetVersion, hp)
	if err != nil {
		http.Error(w, "Failed to submit job: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"job_id":     job.ID,
		"status":     job.Status,
		"created_at": job.CreatedAt,
	})
}

// GetJob handles GET /v1/jobs/{id}
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	job, err := h.scheduler.Status(jobID)
	if err != nil {
		// Not in scheduler memory: fall back to the persisted record,
		// which survives process restarts.
		job, err = h.jobs.GetJob(jobID)
		if err != nil {
			http.Error(w, "Job not found", http.StatusNotFound)
			return
		}
	}

	response := map[string]interface{}{
		"job_id":          job.ID,
		"domain_id":       job.DomainID,
		"dataset_version": job.DatasetVersion,
		"status":          job.Status,
		"progress": map[string]interface{}{
			"step":        job.Progress.CurrentStep,
			"total_steps": job.Progress.TotalSteps,
			"loss":        job.Progress.Loss,
		},
		"hyperparameters": map[string]interface{}{
			"epochs":        job.Hyperparameters.Epochs,
			"batch_size":    job.Hyperparameters.BatchSize,
			"learning_rate": job.Hyperparameters.LearningRate,
		},
		"timestamps": map[string]interface{}{
			"created_at":   job.CreatedAt,
			"started_at":   job.StartedAt,
			"completed_at": job.CompletedAt,
		},
	}
	if job.ErrorMessage != "" {
		response["error_message"] = job.ErrorMessage
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// ListJobs handles GET /v1/jobs
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	domainID := r.URL.Query().Get("domain")

	jobs, err := h.jobs.ListJobs(domainID, nil, maxJobsPerPage)
	if err != nil {
		http.Error(w, "Failed to list jobs", http.StatusInternalServerError)
		return
	}
	// Overlay live state: the store's status for a running job may lag
	// behind scheduler memory by up to one progress interval.
	for i, job := range jobs {
		if live, err := h.scheduler.Status(job.ID); err == nil {
			jobs[i] = live
		}
	}

	items := make([]map[string]interface{}, len(jobs))
	for i, job := range jobs {
		items[i] = map[string]interface{}{
			"job_id":          job.ID,
			"domain_id":       job.DomainID,
			"dataset_version": job.DatasetVersion,
			"status":          job.Status,
			"created_at":      job.CreatedAt,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"items": items})
}

// ListJobEvents handles GET /v1/jobs/{id}/events
func (h *JobHandler) ListJobEvents(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	if _, err := h.scheduler.Status(jobID); err != nil {
		if _, err := h.jobs.GetJob(jobID); err != nil {
			http.Error(w, "Job not found", http.StatusNotFound)
			return
		}
	}

	events, err := h.jobs.ListJobEvents(jobID)
	if err != nil {
		http.Error(w, "Failed to list job events", http.StatusInternalServerError)
		return
	}

	items := make([]map[string]interface{}, len(events))
	for i, event := range events {
		item := map[string]interface{}{
			"to_status": event.ToStatus,
			"reason":    event.Reason,
			"at":        event.At,
		}
		if event.FromStatus != nil {
			item["from_status"] = *event.FromStatus
		}
		items[i] = item
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"job_id": jobID,
		"items":  items,
	})
}

// CancelJob handles POST /v1/jobs/{id}/cancel
func (h *JobHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	err := h.scheduler.Cancel(jobID)
	switch {
	case errors.Is(err, scheduler.ErrJobNotFound):
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	case errors.Is(err, scheduler.ErrAlreadyTerminal):
		http.Error(w, "Job already in a terminal state", http.StatusConflict)
		return
	case err != nil:
		http.Error(w, "Failed to cancel job: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"job_id":           jobID,
		"cancel_requested": true,
	})
}
