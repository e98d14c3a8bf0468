package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"ml-gateway/core/gateway"
	"ml-gateway/core/models"
	"ml-gateway/pkg/api"
)

// CommandHandler handles command requests from the front-end
type CommandHandler struct {
	gw *gateway.Gateway
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(gw *gateway.Gateway) *CommandHandler {
	return &CommandHandler{gw: gw}
}

// Dispatch handles POST /v1/commands
func (h *CommandHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	var req models.CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.gw.Dispatch(r.Context(), req)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListCommands handles GET /v1/commands
func (h *CommandHandler) ListCommands(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"commands": models.CommandNames(),
	})
}

// statusForError maps the gateway error taxonomy onto HTTP statuses
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidCommand):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrWorkerRejected),
		errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrInvalidArtifact):
		return http.StatusConflict
	case errors.Is(err, models.ErrWorkerUnreachable),
		errors.Is(err, models.ErrRegistryUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, api.ErrorResponse{Error: msg})
}
