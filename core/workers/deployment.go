package workers

import (
	"context"
	"net/http"
	"time"

	"ml-gateway/pkg/api"
)

// DeploymentClient talks to the deployment worker holding the serving slot
type DeploymentClient struct {
	client
}

// NewDeploymentClient creates a client for the deployment worker at baseURL
func NewDeploymentClient(baseURL string, timeout time.Duration) *DeploymentClient {
	return &DeploymentClient{client: newClient(baseURL, timeout)}
}

// Load asks the worker to load the given model version into its serving
// slot, superseding whatever was loaded before
func (c *DeploymentClient) Load(ctx context.Context, model string, version int, artifactURI string) error {
	req := api.LoadModelRequest{Model: model, Version: version, ArtifactURI: artifactURI}
	return c.doJSON(ctx, http.MethodPost, "/v1/load", req, nil)
}

// Infer runs inference against the currently loaded model
func (c *DeploymentClient) Infer(ctx context.Context, input string) (*api.InferResponse, error) {
	req := api.InferRequest{Input: input}
	var resp api.InferResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/infer", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchLogs returns the worker's accumulated log buffer, best-effort
func (c *DeploymentClient) FetchLogs(ctx context.Context) string {
	return c.fetchLogs(ctx, "deployment")
}
