package registry

import (
	"context"

	"ml-gateway/core/models"
)

// Registry provides unified access to the versioned model store. The gateway
// depends only on this contract; the backing storage engine is swappable.
type Registry interface {
	// Register creates a new entry for the given run result with
	// version = max existing version for that model name + 1.
	Register(ctx context.Context, result models.RunResult) (*models.RegistryEntry, error)

	// Get retrieves a single entry by (name, version)
	Get(ctx context.Context, name string, version int) (*models.RegistryEntry, error)

	// ListSummary lists all entries ordered by name, then version descending.
	// Ordering is stable within a single call; no pagination is guaranteed.
	ListSummary(ctx context.Context) ([]models.RegistryEntry, error)

	// TransitionStage moves an entry to a new lifecycle stage. Moving from
	// Archived directly to Production fails; it must pass through Staging.
	TransitionStage(ctx context.Context, name string, version int, stage models.Stage) (*models.RegistryEntry, error)

	// BestForMetric returns the entry with the highest value for the given
	// metric, or nil if no entry reports it
	BestForMetric(ctx context.Context, metric string) (*models.RegistryEntry, error)
}

// validateResult checks the artifact payload before it touches the store
func validateResult(result models.RunResult) error {
	if result.Model == "" || result.ArtifactURI == "" {
		return models.ErrInvalidArtifact
	}
	return nil
}

// allowedTransition enforces promotion order: an archived model cannot jump
// straight back to production
func allowedTransition(from, to models.Stage) bool {
	if from == models.StageArchived && to == models.StageProduction {
		return false
	}
	return true
}
