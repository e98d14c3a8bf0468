// Package notify delivers asynchronous job outcomes back to the front-end.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ml-gateway/core/models"

	"github.com/sirupsen/logrus"
)

// HTTPNotifier posts terminal job outcomes to the callback URL carried in
// the correlation context. Retry policy lives in the tracker; a single call
// here is one delivery attempt.
type HTTPNotifier struct {
	httpClient *http.Client
}

// NewHTTPNotifier creates a notifier with the given per-attempt timeout
func NewHTTPNotifier(timeout time.Duration) *HTTPNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPNotifier{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Notify delivers one outcome. An empty callback URL is treated as delivered
// so correlation contexts without a callback never wedge eviction.
func (n *HTTPNotifier) Notify(ctx context.Context, outcome models.JobOutcome) error {
	if outcome.Correlation.CallbackURL == "" {
		logrus.Warnf("Job %s has no callback URL, dropping notification", outcome.JobID)
		return nil
	}

	payload, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("encode outcome for job %s: %w", outcome.JobID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, outcome.Correlation.CallbackURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build notification for job %s: %w", outcome.JobID, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("deliver notification for job %s: %w", outcome.JobID, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("deliver notification for job %s: front-end returned %d", outcome.JobID, resp.StatusCode)
	}
	return nil
}
