package tracker

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"testing"

	"ml-gateway/core/models"
	"ml-gateway/pkg/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePoller replays a scripted sequence of poll responses per run id
type fakePoller struct {
	mu        sync.Mutex
	responses map[string][]pollStep
	gate      chan struct{} // when set, Poll blocks until the gate opens
}

type pollStep struct {
	resp *api.RunStatusResponse
	err  error
}

func newFakePoller() *fakePoller {
	return &fakePoller{responses: make(map[string][]pollStep)}
}

func (p *fakePoller) script(runID string, steps ...pollStep) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responses[runID] = append(p.responses[runID], steps...)
}

func (p *fakePoller) Poll(_ context.Context, runID string) (*api.RunStatusResponse, error) {
	if p.gate != nil {
		<-p.gate
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	steps := p.responses[runID]
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: unscripted poll for %s", models.ErrUnknownJob, runID)
	}
	step := steps[0]
	if len(steps) > 1 {
		p.responses[runID] = steps[1:]
	}
	return step.resp, step.err
}

func running() pollStep {
	return pollStep{resp: &api.RunStatusResponse{Status: api.RunStatusRunning}}
}

func completed(result *models.RunResult) pollStep {
	return pollStep{resp: &api.RunStatusResponse{Status: api.RunStatusCompleted, Result: result}}
}

func failed(reason string) pollStep {
	return pollStep{resp: &api.RunStatusResponse{Status: api.RunStatusFailed, Error: reason}}
}

// fakeNotifier records outcomes and can fail the first n attempts
type fakeNotifier struct {
	mu        sync.Mutex
	failures  int
	delivered []models.JobOutcome
	attempts  int
}

func (n *fakeNotifier) Notify(_ context.Context, outcome models.JobOutcome) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.attempts++
	if n.attempts <= n.failures {
		return fmt.Errorf("front-end unavailable")
	}
	n.delivered = append(n.delivered, outcome)
	return nil
}

func (n *fakeNotifier) outcomes() []models.JobOutcome {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]models.JobOutcome, len(n.delivered))
	copy(out, n.delivered)
	return out
}

func testCorrelation() models.Correlation {
	return models.Correlation{RequestID: "req-1", User: "alice", Channel: "general", CallbackURL: "http://frontend/cb"}
}

func TestReconcileDrivesJobToCompletion(t *testing.T) {
	ctx := context.Background()
	poller := newFakePoller()
	notifier := &fakeNotifier{}

	hook := func(_ context.Context, job models.Job, result *models.RunResult) (*models.RegistryEntry, error) {
		require.NotNil(t, result)
		return &models.RegistryEntry{Name: result.Model, Version: 4}, nil
	}
	tr := New(poller, notifier, hook, Config{})

	job := tr.Register("j1", testCorrelation(), "model: cnn")
	assert.Equal(t, models.JobStatusSubmitted, job.Status)

	result := &models.RunResult{Model: "cnn", ArtifactURI: "file:///a"}
	poller.script("j1", running(), completed(result))

	tr.Reconcile(ctx)
	got, ok := tr.Get("j1")
	require.True(t, ok)
	assert.Equal(t, models.JobStatusRunning, got.Status)

	tr.Reconcile(ctx)

	// Terminal, notified once with the new registry entry, then evicted
	_, ok = tr.Get("j1")
	assert.False(t, ok)
	delivered := notifier.outcomes()
	require.Len(t, delivered, 1)
	assert.Equal(t, "j1", delivered[0].JobID)
	assert.Equal(t, models.JobStatusCompleted, delivered[0].Status)
	require.NotNil(t, delivered[0].Entry)
	assert.Equal(t, "cnn/4", delivered[0].Entry.Ref())

	// Further passes are no-ops; the notification stays one-time
	tr.Reconcile(ctx)
	assert.Len(t, notifier.outcomes(), 1)
}

func TestFailedRunCarriesReason(t *testing.T) {
	ctx := context.Background()
	poller := newFakePoller()
	notifier := &fakeNotifier{}
	tr := New(poller, notifier, nil, Config{})

	tr.Register("j1", testCorrelation(), "model: cnn")
	poller.script("j1", running(), failed("loss diverged"))

	tr.Reconcile(ctx)
	tr.Reconcile(ctx)

	delivered := notifier.outcomes()
	require.Len(t, delivered, 1)
	assert.Equal(t, models.JobStatusFailed, delivered[0].Status)
	assert.Equal(t, "loss diverged", delivered[0].Reason)
	assert.Nil(t, delivered[0].Entry)
}

func TestUnknownJobMarksLost(t *testing.T) {
	ctx := context.Background()
	poller := newFakePoller()
	notifier := &fakeNotifier{}
	tr := New(poller, notifier, nil, Config{})

	tr.Register("j1", testCorrelation(), "model: cnn")
	poller.script("j1", pollStep{err: fmt.Errorf("%w: worker restarted", models.ErrUnknownJob)})

	tr.Reconcile(ctx)

	delivered := notifier.outcomes()
	require.Len(t, delivered, 1)
	assert.Equal(t, models.JobStatusFailed, delivered[0].Status)
	assert.Equal(t, models.ErrJobLost.Error(), delivered[0].Reason)
}

func TestPollFailureBudgetExhaustion(t *testing.T) {
	ctx := context.Background()
	poller := newFakePoller()
	notifier := &fakeNotifier{}
	tr := New(poller, notifier, nil, Config{PollFailureBudget: 3})

	tr.Register("j1", testCorrelation(), "model: cnn")
	unreachable := pollStep{err: fmt.Errorf("%w: connection refused", models.ErrWorkerUnreachable)}
	poller.script("j1", unreachable, unreachable, unreachable, unreachable)

	// The first two failures stay within budget
	tr.Reconcile(ctx)
	tr.Reconcile(ctx)
	got, ok := tr.Get("j1")
	require.True(t, ok)
	assert.False(t, got.Status.Terminal())
	assert.Empty(t, notifier.outcomes())

	// The third exhausts the budget: failed as lost, exactly one notification
	tr.Reconcile(ctx)
	delivered := notifier.outcomes()
	require.Len(t, delivered, 1)
	assert.Equal(t, models.JobStatusFailed, delivered[0].Status)
	assert.Equal(t, models.ErrJobLost.Error(), delivered[0].Reason)

	tr.Reconcile(ctx)
	assert.Len(t, notifier.outcomes(), 1)
}

func TestSuccessfulPollResetsFailureBudget(t *testing.T) {
	ctx := context.Background()
	poller := newFakePoller()
	notifier := &fakeNotifier{}
	tr := New(poller, notifier, nil, Config{PollFailureBudget: 2})

	tr.Register("j1", testCorrelation(), "model: cnn")
	unreachable := pollStep{err: fmt.Errorf("%w: timeout", models.ErrWorkerUnreachable)}
	poller.script("j1", unreachable, running(), unreachable, running())

	for i := 0; i < 4; i++ {
		tr.Reconcile(ctx)
	}

	got, ok := tr.Get("j1")
	require.True(t, ok)
	assert.Equal(t, models.JobStatusRunning, got.Status)
	assert.Empty(t, notifier.outcomes())
}

func TestNotificationRetryThenDelivery(t *testing.T) {
	ctx := context.Background()
	poller := newFakePoller()
	notifier := &fakeNotifier{failures: 2}
	tr := New(poller, notifier, nil, Config{NotifyAttempts: 5})

	tr.Register("j1", testCorrelation(), "model: cnn")
	poller.script("j1", failed("oom"))

	tr.Reconcile(ctx) // attempt 1 fails
	tr.Reconcile(ctx) // attempt 2 fails
	assert.Empty(t, notifier.outcomes())
	_, ok := tr.Get("j1")
	assert.True(t, ok, "job retained while delivery is pending")

	tr.Reconcile(ctx) // attempt 3 succeeds
	require.Len(t, notifier.outcomes(), 1)
	_, ok = tr.Get("j1")
	assert.False(t, ok, "job evicted after delivery")
}

func TestNotificationDiscardedAfterAttemptBudget(t *testing.T) {
	ctx := context.Background()
	poller := newFakePoller()
	notifier := &fakeNotifier{failures: 100}
	tr := New(poller, notifier, nil, Config{NotifyAttempts: 2})

	tr.Register("j1", testCorrelation(), "model: cnn")
	poller.script("j1", failed("oom"))

	tr.Reconcile(ctx)
	tr.Reconcile(ctx)
	_, ok := tr.Get("j1")
	assert.False(t, ok, "job evicted once delivery attempts ran out")

	tr.Reconcile(ctx)
	notifier.mu.Lock()
	attempts := notifier.attempts
	notifier.mu.Unlock()
	assert.Equal(t, 2, attempts)
}

func TestOverlappingReconcilePassesAreSerialized(t *testing.T) {
	ctx := context.Background()
	poller := newFakePoller()
	poller.gate = make(chan struct{})
	notifier := &fakeNotifier{}
	tr := New(poller, notifier, nil, Config{})

	tr.Register("j1", testCorrelation(), "model: cnn")
	poller.script("j1", completed(&models.RunResult{Model: "cnn", ArtifactURI: "file:///a"}))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		tr.Reconcile(ctx)
	}()

	// Wait for the background pass to claim the reconcile slot and block
	// inside Poll before issuing the overlapping pass.
	for !tr.reconciling.Load() {
		runtime.Gosched()
	}

	// The second pass must return immediately while the first is blocked
	// inside Poll, so the terminal notification cannot be emitted twice.
	tr.Reconcile(ctx)
	assert.Empty(t, notifier.outcomes())

	close(poller.gate)
	wg.Wait()
	assert.Len(t, notifier.outcomes(), 1)
}
