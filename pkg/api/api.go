// Package api defines the wire types shared between the gateway's worker
// connection clients and the worker servers.
package api

import "ml-gateway/core/models"

// SubmitRunRequest starts a training run on the training worker
type SubmitRunRequest struct {
	RequestID string `json:"request_id"`
	Config    string `json:"config"`
}

// SubmitRunResponse acknowledges an accepted training run
type SubmitRunResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// RunStatusResponse reports worker-side truth about one run
type RunStatusResponse struct {
	RunID  string            `json:"run_id"`
	Status string            `json:"status"` // running | completed | failed
	Result *models.RunResult `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// Run statuses reported by the training worker
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// LoadModelRequest loads a registry entry into the deployment worker's
// serving slot
type LoadModelRequest struct {
	Model       string `json:"model"`
	Version     int    `json:"version"`
	ArtifactURI string `json:"artifact_uri"`
}

// InferRequest carries an opaque image or sample-id payload
type InferRequest struct {
	Input string `json:"input"`
}

// InferResponse is the raw prediction result
type InferResponse struct {
	Model      string    `json:"model"`
	Prediction int       `json:"prediction"`
	Logits     []float64 `json:"logits"`
}

// LogsResponse returns a worker's accumulated log buffer
type LogsResponse struct {
	Logs string `json:"logs"`
}

// ErrorResponse is the error body returned by workers and the gateway
type ErrorResponse struct {
	Error string `json:"error"`
}
