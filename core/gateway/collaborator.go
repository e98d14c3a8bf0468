package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Collaborator is the external reasoning service chat and debug commands are
// delegated to. The gateway never interprets the exchanged text.
type Collaborator interface {
	Chat(ctx context.Context, text string) (string, error)
	Debug(ctx context.Context, text, logs string) (string, error)
}

// StaticCollaborator is the fallback when no collaborator is configured
type StaticCollaborator struct{}

func (StaticCollaborator) Chat(context.Context, string) (string, error) {
	return "Sorry, I don't know how to chat yet.", nil
}

func (StaticCollaborator) Debug(context.Context, string, string) (string, error) {
	return "Sorry, no debugging collaborator is configured.", nil
}

// HTTPCollaborator forwards chat and debug requests to a configured endpoint
type HTTPCollaborator struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPCollaborator creates a collaborator client for the given endpoint
func NewHTTPCollaborator(baseURL string, timeout time.Duration) *HTTPCollaborator {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPCollaborator{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type collaboratorRequest struct {
	Text string `json:"text"`
	Logs string `json:"logs,omitempty"`
}

type collaboratorResponse struct {
	Text string `json:"text"`
}

func (c *HTTPCollaborator) Chat(ctx context.Context, text string) (string, error) {
	return c.post(ctx, "/chat", collaboratorRequest{Text: text})
}

func (c *HTTPCollaborator) Debug(ctx context.Context, text, logs string) (string, error) {
	return c.post(ctx, "/debug", collaboratorRequest{Text: text, Logs: logs})
}

func (c *HTTPCollaborator) post(ctx context.Context, path string, body collaboratorRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("collaborator call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("collaborator returned %d", resp.StatusCode)
	}

	var out collaboratorResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode collaborator response: %w", err)
	}
	return out.Text, nil
}
