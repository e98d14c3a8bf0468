package handlers

import (
	"net/http"

	"ml-gateway/core/models"
	"ml-gateway/core/tracker"

	"github.com/gorilla/mux"
)

// JobHandler handles job status queries
type JobHandler struct {
	tracker *tracker.Tracker
}

// NewJobHandler creates a new job handler
func NewJobHandler(t *tracker.Tracker) *JobHandler {
	return &JobHandler{tracker: t}
}

// GetJob handles GET /v1/jobs/{id}
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	job, ok := h.tracker.Get(jobID)
	if !ok {
		writeError(w, http.StatusNotFound, "job not found or already evicted")
		return
	}

	response := map[string]interface{}{
		"id":           job.ID,
		"status":       job.Status,
		"submitted_at": job.SubmittedAt,
	}
	if job.CompletedAt != nil {
		response["completed_at"] = *job.CompletedAt
	}
	if job.Result != nil {
		response["result"] = job.Result
	}
	if job.FailureReason != "" {
		response["failure_reason"] = job.FailureReason
	}

	writeJSON(w, http.StatusOK, response)
}

// ListJobs handles GET /v1/jobs
func (h *JobHandler) ListJobs(w http.ResponseWriter, _ *http.Request) {
	jobs := h.tracker.Jobs()

	items := make([]map[string]interface{}, len(jobs))
	for i, job := range jobs {
		items[i] = map[string]interface{}{
			"id":           job.ID,
			"status":       job.Status,
			"submitted_at": job.SubmittedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func countByStatus(jobs []models.Job, status models.JobStatus) int {
	n := 0
	for _, job := range jobs {
		if job.Status == status {
			n++
		}
	}
	return n
}
