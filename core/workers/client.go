// Package workers provides the thin HTTP connection clients the gateway
// uses to talk to the training and deployment workers.
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ml-gateway/core/models"
	"ml-gateway/pkg/api"

	"github.com/sirupsen/logrus"
)

// client is the shared request/response plumbing for both worker variants
type client struct {
	baseURL    string
	httpClient *http.Client
}

func newClient(baseURL string, timeout time.Duration) client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// doJSON issues one request and decodes the response into out (if non-nil).
// Transport failures map to ErrWorkerUnreachable; 4xx responses map to
// ErrWorkerRejected (or ErrUnknownJob for 404) with the worker's reason.
func (c client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode request: %v", models.ErrWorkerRejected, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrWorkerUnreachable, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrWorkerUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		reason := readErrorReason(resp.Body)
		switch {
		case resp.StatusCode == http.StatusNotFound:
			return fmt.Errorf("%w: %s", models.ErrUnknownJob, reason)
		case resp.StatusCode < 500:
			return fmt.Errorf("%w: %s", models.ErrWorkerRejected, reason)
		default:
			return fmt.Errorf("%w: %s returned %d: %s", models.ErrWorkerUnreachable, path, resp.StatusCode, reason)
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", models.ErrWorkerUnreachable, err)
	}
	return nil
}

// fetchLogs is best-effort: unreachable workers yield empty text plus a
// recorded warning, never an error
func (c client) fetchLogs(ctx context.Context, role string) string {
	var resp api.LogsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/logs", nil, &resp); err != nil {
		logrus.Warnf("Failed to fetch %s worker logs: %v", role, err)
		return ""
	}
	return resp.Logs
}

func readErrorReason(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return "no reason given"
	}
	var errResp api.ErrorResponse
	if json.Unmarshal(raw, &errResp) == nil && errResp.Error != "" {
		return errResp.Error
	}
	return strings.TrimSpace(string(raw))
}
