package routes

import (
	"llm-orchestrator/api/rest/handlers"

	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(
	r *mux.Router,
	exampleHandler *handlers.ExampleHandler,
	jobHandler *handlers.JobHandler,
	registryHandler *handlers.RegistryHandler,
	generationHandler *handlers.GenerationHandler,
) {
	api := r.PathPrefix("/v1").Subrouter()

	// Ingestion and dataset endpoints
	api.HandleFunc("/domains/{domain}/examples", exampleHandler.IngestExamples).Methods("POST")
	api.HandleFunc("/domains/{domain}/examples", exampleHandler.ClearExamples).Methods("DELETE")
	api.HandleFunc("/domains/{domain}/datasets", exampleHandler.AssembleDataset).Methods("POST")

	// Job endpoints
	api.HandleFunc("/jobs", jobHandler.SubmitJob).Methods("POST")
	api.HandleFunc("/jobs", jobHandler.ListJobs).Methods("GET")
	api.HandleFunc("/jobs/{id}", jobHandler.GetJob).Methods("GET")
	api.HandleFunc("/jobs/{id}/events", jobHandler.ListJobEvents).Methods("GET")
	api.HandleFunc("/jobs/{id}/cancel", jobHandler.CancelJob).Methods("POST")

	// Registry endpoints
	api.HandleFunc("/domains/{domain}/artifacts", registryHandler.ListArtifacts).Methods("GET")
	api.HandleFunc("/domains/{domain}/artifacts/active", registryHandler.GetActiveArtifact).Methods("GET")
	api.HandleFunc("/artifacts/{id}/activate", registryHandler.ActivateArtifact).Methods("POST")

	// Generation endpoint
	api.HandleFunc("/generate", generationHandler.Generate).Methods("POST")
}
