package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ml-gateway/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outcome(callbackURL string) models.JobOutcome {
	return models.JobOutcome{
		Correlation: models.Correlation{RequestID: "req-1", User: "alice", Channel: "general", CallbackURL: callbackURL},
		JobID:       "job-1",
		Status:      models.JobStatusCompleted,
		Entry:       &models.RegistryEntry{Name: "cnn", Version: 2},
	}
}

func TestNotifyPostsOutcome(t *testing.T) {
	var got models.JobOutcome
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	n := NewHTTPNotifier(time.Second)
	require.NoError(t, n.Notify(context.Background(), outcome(ts.URL)))
	assert.Equal(t, "job-1", got.JobID)
	assert.Equal(t, models.JobStatusCompleted, got.Status)
	require.NotNil(t, got.Entry)
	assert.Equal(t, "cnn/2", got.Entry.Ref())
}

func TestNotifyRejectionIsAnError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	n := NewHTTPNotifier(time.Second)
	err := n.Notify(context.Background(), outcome(ts.URL))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestNotifyUnreachableFrontEnd(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close()

	n := NewHTTPNotifier(time.Second)
	assert.Error(t, n.Notify(context.Background(), outcome(ts.URL)))
}

func TestNotifyWithoutCallbackIsDelivered(t *testing.T) {
	n := NewHTTPNotifier(time.Second)
	assert.NoError(t, n.Notify(context.Background(), outcome("")))
}
