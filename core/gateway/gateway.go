// Package gateway is the orchestration core: it validates incoming commands,
// routes them to the registry and the worker connections, and tracks
// asynchronous training jobs to their terminal outcome.
package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ml-gateway/core/models"
	"ml-gateway/core/registry"
	"ml-gateway/core/tracker"
	"ml-gateway/pkg/api"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// TrainingWorker is the connection contract to the training worker
type TrainingWorker interface {
	Submit(ctx context.Context, requestID, config string) (string, error)
	Poll(ctx context.Context, runID string) (*api.RunStatusResponse, error)
	FetchLogs(ctx context.Context) string
}

// DeploymentWorker is the connection contract to the deployment worker
type DeploymentWorker interface {
	Load(ctx context.Context, model string, version int, artifactURI string) error
	Infer(ctx context.Context, input string) (*api.InferResponse, error)
	FetchLogs(ctx context.Context) string
}

// Slot is the gateway's view of the model currently serving inference
type Slot struct {
	Entry    *models.RegistryEntry `json:"entry"`
	LoadedAt time.Time             `json:"loaded_at"`
}

// Gateway is the single entry point for command requests. One instance per
// process; running several against the same workers is unsupported.
type Gateway struct {
	registry     registry.Registry
	training     TrainingWorker
	deployment   DeploymentWorker
	tracker      *tracker.Tracker
	collaborator Collaborator

	// slotMu serializes model loads and guards the slot view, so
	// back-to-back loads settle on exactly one final state
	slotMu sync.Mutex
	slot   Slot
}

// New wires a gateway together with its own job tracker. The tracker's
// completion hook registers finished artifacts before notifications go out.
func New(reg registry.Registry, training TrainingWorker, deployment DeploymentWorker, notifier tracker.Notifier, collaborator Collaborator, trackerCfg tracker.Config) *Gateway {
	g := &Gateway{
		registry:     reg,
		training:     training,
		deployment:   deployment,
		collaborator: collaborator,
	}
	if g.collaborator == nil {
		g.collaborator = StaticCollaborator{}
	}
	g.tracker = tracker.New(training, notifier, g.registerResult, trackerCfg)
	return g
}

// Tracker exposes the job tracker for the reconciliation loop and handlers
func (g *Gateway) Tracker() *tracker.Tracker {
	return g.tracker
}

// Dispatch validates and routes one command request. Validation failures and
// submission failures surface synchronously; only post-submission training
// progress is asynchronous.
func (g *Gateway) Dispatch(ctx context.Context, req models.CommandRequest) (*models.CommandResponse, error) {
	cmd, err := models.ParseCommand(req.Command, req.Args)
	if err != nil {
		return nil, err
	}

	logrus.Infof("Dispatching %s command for %s", cmd.CommandName(), req.Correlation.User)

	switch c := cmd.(type) {
	case models.TrainCommand:
		return g.train(ctx, req.Correlation, c)
	case models.LoadModelCommand:
		return g.loadModel(ctx, c)
	case models.ClassifyCommand:
		return g.classify(ctx, c)
	case models.RegistrySummaryCommand:
		return g.registrySummary(ctx)
	case models.LogsCommand:
		return g.logs(ctx)
	case models.ChatCommand:
		return g.chat(ctx, c.Text)
	case models.DebugCommand:
		return g.debug(ctx, c.Text)
	}
	return nil, fmt.Errorf("%w: unhandled command %q", models.ErrInvalidCommand, req.Command)
}

// train submits a training run and registers it with the tracker. The
// immediate acknowledgment and the later completion notification are
// deliberately separate messages.
func (g *Gateway) train(ctx context.Context, corr models.Correlation, cmd models.TrainCommand) (*models.CommandResponse, error) {
	if err := validateTrainConfig(cmd.Config); err != nil {
		return nil, err
	}

	jobID, err := g.training.Submit(ctx, corr.RequestID, cmd.Config)
	if err != nil {
		return nil, err
	}

	job := g.tracker.Register(jobID, corr, cmd.Config)
	return &models.CommandResponse{
		Message: fmt.Sprintf("Training job %s submitted. You will be notified when it finishes.", jobID),
		Data:    map[string]interface{}{"job_id": job.ID, "status": job.Status},
	}, nil
}

// validateTrainConfig checks the payload is well-formed YAML before it
// reaches the worker. Its contents stay opaque to the gateway.
func validateTrainConfig(config string) error {
	var parsed map[string]interface{}
	if err := yaml.Unmarshal([]byte(config), &parsed); err != nil {
		return fmt.Errorf("%w: train config is not valid YAML: %v", models.ErrInvalidCommand, err)
	}
	if len(parsed) == 0 {
		return fmt.Errorf("%w: train config is empty", models.ErrInvalidCommand)
	}
	return nil
}

// loadModel resolves the registry entry, then asks the deployment worker to
// swap it into the serving slot
func (g *Gateway) loadModel(ctx context.Context, cmd models.LoadModelCommand) (*models.CommandResponse, error) {
	entry, err := g.registry.Get(ctx, cmd.Model, cmd.Version)
	if err != nil {
		return nil, err
	}

	g.slotMu.Lock()
	defer g.slotMu.Unlock()

	if err := g.deployment.Load(ctx, entry.Name, entry.Version, entry.ArtifactURI); err != nil {
		return nil, err
	}
	g.slot = Slot{Entry: entry, LoadedAt: time.Now().UTC()}

	logrus.Infof("Loaded %s into the deployment slot", entry.Ref())
	return &models.CommandResponse{
		Message: fmt.Sprintf("Model %s is loaded and ready for use.", entry.Ref()),
		Data:    entry,
	}, nil
}

// CurrentSlot returns the gateway's view of the active deployment slot
func (g *Gateway) CurrentSlot() Slot {
	g.slotMu.Lock()
	defer g.slotMu.Unlock()
	return g.slot
}

// classify forwards the inference payload to the deployment worker
func (g *Gateway) classify(ctx context.Context, cmd models.ClassifyCommand) (*models.CommandResponse, error) {
	result, err := g.deployment.Infer(ctx, cmd.Input)
	if err != nil {
		return nil, err
	}
	return &models.CommandResponse{
		Message: fmt.Sprintf("Prediction: %d (model %s)", result.Prediction, result.Model),
		Data:    result,
	}, nil
}

// registrySummary produces the formatted registry report
func (g *Gateway) registrySummary(ctx context.Context) (*models.CommandResponse, error) {
	entries, err := g.registry.ListSummary(ctx)
	if err != nil {
		return nil, err
	}
	best, err := g.registry.BestForMetric(ctx, "test_acc")
	if err != nil {
		return nil, err
	}
	return &models.CommandResponse{
		Message: FormatSummary(entries, best),
		Data:    entries,
	}, nil
}

// logs aggregates the log buffers of every worker, best-effort
func (g *Gateway) logs(ctx context.Context) (*models.CommandResponse, error) {
	text := "=== training worker ===\n" + g.training.FetchLogs(ctx) +
		"\n=== deployment worker ===\n" + g.deployment.FetchLogs(ctx)
	return &models.CommandResponse{Message: text}, nil
}

func (g *Gateway) chat(ctx context.Context, text string) (*models.CommandResponse, error) {
	reply, err := g.collaborator.Chat(ctx, text)
	if err != nil {
		return nil, err
	}
	return &models.CommandResponse{Message: reply}, nil
}

func (g *Gateway) debug(ctx context.Context, text string) (*models.CommandResponse, error) {
	if text == "" {
		text = "Please help me debug the most recent command I ran."
	}
	logsResp, _ := g.logs(ctx)
	reply, err := g.collaborator.Debug(ctx, text, logsResp.Message)
	if err != nil {
		return nil, err
	}
	return &models.CommandResponse{Message: reply}, nil
}

// registerResult is the tracker's completion hook: a finished run becomes a
// new registry entry, whose reference rides along in the notification
func (g *Gateway) registerResult(ctx context.Context, job models.Job, result *models.RunResult) (*models.RegistryEntry, error) {
	if result == nil {
		return nil, fmt.Errorf("job %s completed without a run result", job.ID)
	}
	entry, err := g.registry.Register(ctx, *result)
	if err != nil {
		return nil, fmt.Errorf("register result for job %s: %w", job.ID, err)
	}
	logrus.Infof("Registered %s from job %s", entry.Ref(), job.ID)
	return entry, nil
}
