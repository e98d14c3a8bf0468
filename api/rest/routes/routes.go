package routes

import (
	"ml-gateway/api/rest/handlers"
	"ml-gateway/core/gateway"

	"github.com/gorilla/mux"
)

// SetupRoutes configures the gateway's API routes
func SetupRoutes(r *mux.Router, gw *gateway.Gateway) {
	commandHandler := handlers.NewCommandHandler(gw)
	jobHandler := handlers.NewJobHandler(gw.Tracker())
	statusHandler := handlers.NewStatusHandler(gw)

	api := r.PathPrefix("/v1").Subrouter()

	// Command endpoints
	api.HandleFunc("/commands", commandHandler.Dispatch).Methods("POST")
	api.HandleFunc("/commands", commandHandler.ListCommands).Methods("GET")

	// Job endpoints
	api.HandleFunc("/jobs", jobHandler.ListJobs).Methods("GET")
	api.HandleFunc("/jobs/{id}", jobHandler.GetJob).Methods("GET")

	// Status endpoint
	api.HandleFunc("/status", statusHandler.GetStatus).Methods("GET")
}
