// Package tracker owns the in-memory job table and the reconciliation loop
// that drives every job from submission to its terminal outcome.
package tracker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"ml-gateway/core/models"
	"ml-gateway/pkg/api"

	"github.com/sirupsen/logrus"
)

// Poller is the worker-side status query the reconciliation loop depends on
type Poller interface {
	Poll(ctx context.Context, runID string) (*api.RunStatusResponse, error)
}

// Notifier delivers a terminal outcome back to the front-end
type Notifier interface {
	Notify(ctx context.Context, outcome models.JobOutcome) error
}

// CompletionHook runs once when a run completes successfully, before the
// notification goes out. The gateway uses it to register the resulting
// artifact; the returned entry rides along in the notification.
type CompletionHook func(ctx context.Context, job models.Job, result *models.RunResult) (*models.RegistryEntry, error)

// Config tunes the reconciliation loop
type Config struct {
	PollInterval      time.Duration // fixed reconciliation period
	PollFailureBudget int           // consecutive poll failures before a job is declared lost
	NotifyAttempts    int           // delivery attempts before a notification is discarded
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 15 * time.Second
	}
	if c.PollFailureBudget <= 0 {
		c.PollFailureBudget = 5
	}
	if c.NotifyAttempts <= 0 {
		c.NotifyAttempts = 3
	}
	return c
}

// record is one entry in the job arena. Mutated only by the submission path
// and the reconciliation pass, always under the tracker lock.
type record struct {
	job            models.Job
	pollFailures   int
	notifyAttempts int
	notified       bool
}

// Tracker is the job-tracking state machine. A single coarse lock guards the
// job table; jobs transition Submitted -> Running -> {Completed, Failed} and
// never leave a terminal state.
type Tracker struct {
	poller     Poller
	notifier   Notifier
	onComplete CompletionHook
	cfg        Config

	mu   sync.Mutex
	jobs map[string]*record

	reconciling atomic.Bool
	stopChan    chan struct{}
	stopOnce    sync.Once
}

// New creates a tracker. The completion hook may be nil.
func New(poller Poller, notifier Notifier, onComplete CompletionHook, cfg Config) *Tracker {
	return &Tracker{
		poller:     poller,
		notifier:   notifier,
		onComplete: onComplete,
		cfg:        cfg.withDefaults(),
		jobs:       make(map[string]*record),
		stopChan:   make(chan struct{}),
	}
}

// Register records a freshly submitted job with its correlation context
func (t *Tracker) Register(jobID string, corr models.Correlation, config string) models.Job {
	job := models.Job{
		ID:          jobID,
		Correlation: corr,
		Config:      config,
		Status:      models.JobStatusSubmitted,
		SubmittedAt: time.Now().UTC(),
	}

	t.mu.Lock()
	t.jobs[jobID] = &record{job: job}
	t.mu.Unlock()

	logrus.Infof("Tracking job %s for %s", jobID, corr.User)
	return job
}

// Get returns a snapshot of one job
func (t *Tracker) Get(jobID string) (models.Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.jobs[jobID]
	if !ok {
		return models.Job{}, false
	}
	return rec.job, true
}

// Jobs returns a snapshot of all tracked jobs
func (t *Tracker) Jobs() []models.Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.Job, 0, len(t.jobs))
	for _, rec := range t.jobs {
		out = append(out, rec.job)
	}
	return out
}

// Start runs the reconciliation loop until the context is cancelled or Stop
// is called
func (t *Tracker) Start(ctx context.Context) {
	ticker := time.NewTicker(t.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stopChan:
			return
		case <-ticker.C:
			t.Reconcile(ctx)
		}
	}
}

// Stop stops the reconciliation loop
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() { close(t.stopChan) })
}

// Reconcile runs one reconciliation pass: poll every non-terminal job,
// apply transitions, and deliver pending notifications. At most one pass
// runs at a time; overlapping calls return immediately, which keeps
// terminal notifications from being emitted twice.
func (t *Tracker) Reconcile(ctx context.Context) {
	if !t.reconciling.CompareAndSwap(false, true) {
		return
	}
	defer t.reconciling.Store(false)

	for _, jobID := range t.pendingIDs() {
		t.reconcileJob(ctx, jobID)
	}
	t.deliverPending(ctx)
}

// pendingIDs snapshots the ids of jobs that still need polling
func (t *Tracker) pendingIDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]string, 0, len(t.jobs))
	for id, rec := range t.jobs {
		if !rec.job.Status.Terminal() {
			ids = append(ids, id)
		}
	}
	return ids
}

// reconcileJob polls one job and applies the resulting transition. The
// worker call happens outside the lock.
func (t *Tracker) reconcileJob(ctx context.Context, jobID string) {
	t.mu.Lock()
	rec, ok := t.jobs[jobID]
	if !ok || rec.job.Status.Terminal() {
		t.mu.Unlock()
		return
	}
	job := rec.job
	t.mu.Unlock()

	status, err := t.poller.Poll(ctx, jobID)
	if err != nil {
		t.handlePollError(jobID, err)
		return
	}

	switch status.Status {
	case api.RunStatusRunning:
		t.transition(jobID, models.JobStatusRunning, nil, "")
	case api.RunStatusCompleted:
		entry, hookErr := t.runCompletionHook(ctx, job, status.Result)
		if hookErr != nil {
			// Registration failed; leave the job non-terminal and retry on
			// the next tick, against the same failure budget.
			logrus.Errorf("Completion hook failed for job %s: %v", jobID, hookErr)
			t.handleReconcileFailure(jobID, hookErr.Error())
			return
		}
		t.transition(jobID, models.JobStatusCompleted, entry, "")
	case api.RunStatusFailed:
		reason := status.Error
		if reason == "" {
			reason = "training run failed"
		}
		t.transition(jobID, models.JobStatusFailed, nil, reason)
	default:
		logrus.Warnf("Job %s reported unknown status %q, ignoring", jobID, status.Status)
	}
}

func (t *Tracker) runCompletionHook(ctx context.Context, job models.Job, result *models.RunResult) (*models.RegistryEntry, error) {
	if t.onComplete == nil {
		return nil, nil
	}
	return t.onComplete(ctx, job, result)
}

// handlePollError distinguishes a lost job (the worker restarted and has no
// record) from a transient worker failure retried against the budget
func (t *Tracker) handlePollError(jobID string, err error) {
	if errors.Is(err, models.ErrUnknownJob) {
		logrus.Warnf("Worker has no record of job %s, marking lost", jobID)
		t.transition(jobID, models.JobStatusFailed, nil, models.ErrJobLost.Error())
		return
	}
	logrus.Warnf("Failed to poll job %s: %v", jobID, err)
	t.handleReconcileFailure(jobID, models.ErrJobLost.Error())
}

// handleReconcileFailure counts one consecutive failure; exhausting the
// budget fails the job with the given reason so a notification still goes
// out. A notification is never silently dropped.
func (t *Tracker) handleReconcileFailure(jobID, reason string) {
	t.mu.Lock()
	rec, ok := t.jobs[jobID]
	if !ok || rec.job.Status.Terminal() {
		t.mu.Unlock()
		return
	}
	rec.pollFailures++
	exhausted := rec.pollFailures >= t.cfg.PollFailureBudget
	t.mu.Unlock()

	if exhausted {
		logrus.Errorf("Job %s exhausted its failure budget (%d), marking failed: %s", jobID, t.cfg.PollFailureBudget, reason)
		t.transition(jobID, models.JobStatusFailed, nil, reason)
	}
}

// transition applies a status change, enforcing monotonic order. Transitions
// out of a terminal state are refused.
func (t *Tracker) transition(jobID string, to models.JobStatus, entry *models.RegistryEntry, reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.jobs[jobID]
	if !ok {
		return
	}
	from := rec.job.Status
	if from.Terminal() {
		return
	}
	rec.pollFailures = 0
	if from == to {
		return
	}

	rec.job.Status = to
	if to.Terminal() {
		now := time.Now().UTC()
		rec.job.CompletedAt = &now
		rec.job.Result = entry
		rec.job.FailureReason = reason
	}
	logrus.Infof("Job %s transitioned %s -> %s", jobID, from, to)
}

// deliverPending pushes the one-time notification for every terminal job
// and evicts jobs whose delivery succeeded or whose attempts ran out
func (t *Tracker) deliverPending(ctx context.Context) {
	t.mu.Lock()
	due := make([]models.JobOutcome, 0)
	for _, rec := range t.jobs {
		if rec.job.Status.Terminal() && !rec.notified {
			due = append(due, models.JobOutcome{
				Correlation: rec.job.Correlation,
				JobID:       rec.job.ID,
				Status:      rec.job.Status,
				Entry:       rec.job.Result,
				Reason:      rec.job.FailureReason,
			})
		}
	}
	t.mu.Unlock()

	for _, outcome := range due {
		err := t.notifier.Notify(ctx, outcome)

		t.mu.Lock()
		rec, ok := t.jobs[outcome.JobID]
		if !ok {
			t.mu.Unlock()
			continue
		}
		if err == nil {
			rec.notified = true
			delete(t.jobs, outcome.JobID)
			t.mu.Unlock()
			logrus.Infof("Delivered notification for job %s (%s)", outcome.JobID, outcome.Status)
			continue
		}
		rec.notifyAttempts++
		discard := rec.notifyAttempts >= t.cfg.NotifyAttempts
		if discard {
			delete(t.jobs, outcome.JobID)
		}
		t.mu.Unlock()

		if discard {
			logrus.Errorf("Discarding notification for job %s after %d attempts: %v", outcome.JobID, t.cfg.NotifyAttempts, err)
		} else {
			logrus.Warnf("Failed to deliver notification for job %s, will retry: %v", outcome.JobID, err)
		}
	}
}
