package registry

import (
	"context"
	"testing"

	"ml-gateway/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResult(model string) models.RunResult {
	return models.RunResult{
		Model:       model,
		Dataset:     "mnist",
		RunID:       "run-" + model,
		ArtifactURI: "file:///tmp/" + model + ".bin",
		Metrics:     map[string]float64{"test_acc": 0.9},
	}
}

func TestRegisterAssignsIncreasingVersions(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry()

	first, err := reg.Register(ctx, testResult("cnn"))
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)
	assert.Equal(t, models.StageNone, first.Stage)

	// Registering the same logical artifact again still yields a strictly
	// increasing version, never a silent overwrite.
	second, err := reg.Register(ctx, testResult("cnn"))
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)

	other, err := reg.Register(ctx, testResult("mlp"))
	require.NoError(t, err)
	assert.Equal(t, 1, other.Version)
}

func TestRegisterRejectsMalformedArtifact(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry()

	_, err := reg.Register(ctx, models.RunResult{Model: "", ArtifactURI: "file:///x"})
	assert.ErrorIs(t, err, models.ErrInvalidArtifact)

	_, err = reg.Register(ctx, models.RunResult{Model: "cnn", ArtifactURI: ""})
	assert.ErrorIs(t, err, models.ErrInvalidArtifact)
}

func TestGetNotFound(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry()

	_, err := reg.Get(ctx, "cnn", 1)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = reg.Register(ctx, testResult("cnn"))
	require.NoError(t, err)

	entry, err := reg.Get(ctx, "cnn", 1)
	require.NoError(t, err)
	assert.Equal(t, "cnn", entry.Name)

	_, err = reg.Get(ctx, "cnn", 7)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListSummaryOrdering(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry()

	for _, model := range []string{"mlp", "cnn", "cnn", "mlp", "cnn"} {
		_, err := reg.Register(ctx, testResult(model))
		require.NoError(t, err)
	}

	entries, err := reg.ListSummary(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 5)

	// Ordered by name, then version descending
	refs := make([]string, len(entries))
	for i, e := range entries {
		refs[i] = e.Ref()
	}
	assert.Equal(t, []string{"cnn/3", "cnn/2", "cnn/1", "mlp/2", "mlp/1"}, refs)
}

func TestTransitionStage(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry()
	_, err := reg.Register(ctx, testResult("cnn"))
	require.NoError(t, err)

	entry, err := reg.TransitionStage(ctx, "cnn", 1, models.StageProduction)
	require.NoError(t, err)
	assert.Equal(t, models.StageProduction, entry.Stage)

	_, err = reg.TransitionStage(ctx, "cnn", 1, models.StageArchived)
	require.NoError(t, err)

	// Archived entries must pass through Staging before Production
	_, err = reg.TransitionStage(ctx, "cnn", 1, models.StageProduction)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	_, err = reg.TransitionStage(ctx, "cnn", 1, models.StageStaging)
	require.NoError(t, err)
	entry, err = reg.TransitionStage(ctx, "cnn", 1, models.StageProduction)
	require.NoError(t, err)
	assert.Equal(t, models.StageProduction, entry.Stage)
}

func TestTransitionStageErrors(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry()

	_, err := reg.TransitionStage(ctx, "ghost", 1, models.StageStaging)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = reg.Register(ctx, testResult("cnn"))
	require.NoError(t, err)
	_, err = reg.TransitionStage(ctx, "cnn", 1, models.Stage("Limbo"))
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestBestForMetric(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry()

	best, err := reg.BestForMetric(ctx, "test_acc")
	require.NoError(t, err)
	assert.Nil(t, best)

	low := testResult("mlp")
	low.Metrics = map[string]float64{"test_acc": 0.81}
	_, err = reg.Register(ctx, low)
	require.NoError(t, err)

	high := testResult("cnn")
	high.Metrics = map[string]float64{"test_acc": 0.97}
	_, err = reg.Register(ctx, high)
	require.NoError(t, err)

	best, err = reg.BestForMetric(ctx, "test_acc")
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, "cnn/1", best.Ref())
}
