package handlers

import (
	"net/http"

	"ml-gateway/core/gateway"
	"ml-gateway/core/models"
)

// StatusHandler reports the gateway's view of its own state: the active
// deployment slot and the in-flight job counts
type StatusHandler struct {
	gw *gateway.Gateway
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(gw *gateway.Gateway) *StatusHandler {
	return &StatusHandler{gw: gw}
}

// GetStatus handles GET /v1/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, _ *http.Request) {
	jobs := h.gw.Tracker().Jobs()
	slot := h.gw.CurrentSlot()

	response := map[string]interface{}{
		"jobs": map[string]interface{}{
			"submitted": countByStatus(jobs, models.JobStatusSubmitted),
			"running":   countByStatus(jobs, models.JobStatusRunning),
			"completed": countByStatus(jobs, models.JobStatusCompleted),
			"failed":    countByStatus(jobs, models.JobStatusFailed),
		},
	}

	if slot.Entry != nil {
		response["deployment_slot"] = map[string]interface{}{
			"model":     slot.Entry.Ref(),
			"loaded_at": slot.LoadedAt,
		}
	}

	writeJSON(w, http.StatusOK, response)
}
