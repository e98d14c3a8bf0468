package workers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"ml-gateway/core/models"
	"ml-gateway/pkg/api"
)

// TrainingClient talks to the training worker. Submit returns as soon as the
// worker acknowledges receipt; completion is observed later via Poll.
type TrainingClient struct {
	client
}

// NewTrainingClient creates a client for the training worker at baseURL
func NewTrainingClient(baseURL string, timeout time.Duration) *TrainingClient {
	return &TrainingClient{client: newClient(baseURL, timeout)}
}

// Submit asks the worker to start a training run. A full pool or malformed
// config comes back as ErrWorkerRejected; the gateway surfaces it to the
// caller instead of queueing.
func (c *TrainingClient) Submit(ctx context.Context, requestID, config string) (string, error) {
	req := api.SubmitRunRequest{RequestID: requestID, Config: config}
	var resp api.SubmitRunResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/runs", req, &resp); err != nil {
		return "", err
	}
	if resp.RunID == "" {
		return "", fmt.Errorf("%w: worker acknowledged without a run id", models.ErrWorkerUnreachable)
	}
	return resp.RunID, nil
}

// Poll is an idempotent status query for one run. ErrUnknownJob means the
// worker has no record, e.g. it restarted since submission.
func (c *TrainingClient) Poll(ctx context.Context, runID string) (*api.RunStatusResponse, error) {
	var resp api.RunStatusResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/runs/"+runID, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchLogs returns the worker's accumulated log buffer, best-effort
func (c *TrainingClient) FetchLogs(ctx context.Context) string {
	return c.fetchLogs(ctx, "training")
}
