package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ml-gateway/core/models"
)

// MemoryRegistry is an in-process registry store. It backs tests and the
// registry-less dev mode; semantics match the Postgres store.
type MemoryRegistry struct {
	mu      sync.Mutex
	entries []models.RegistryEntry
}

// NewMemoryRegistry creates an empty in-memory registry
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{}
}

// Register creates a new entry with the next version for the model name
func (m *MemoryRegistry) Register(_ context.Context, result models.RunResult) (*models.RegistryEntry, error) {
	if err := validateResult(result); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	maxVersion := 0
	for _, e := range m.entries {
		if e.Name == result.Model && e.Version > maxVersion {
			maxVersion = e.Version
		}
	}

	entry := models.RegistryEntry{
		Name:        result.Model,
		Version:     maxVersion + 1,
		Dataset:     result.Dataset,
		RunID:       result.RunID,
		ArtifactURI: result.ArtifactURI,
		Metrics:     copyMetrics(result.Metrics),
		Stage:       models.StageNone,
		CreatedAt:   time.Now().UTC(),
	}
	m.entries = append(m.entries, entry)

	out := entry
	return &out, nil
}

// Get retrieves an entry by (name, version)
func (m *MemoryRegistry) Get(_ context.Context, name string, version int) (*models.RegistryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.entries {
		if m.entries[i].Name == name && m.entries[i].Version == version {
			out := m.entries[i]
			out.Metrics = copyMetrics(out.Metrics)
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%w: model %s version %d", models.ErrNotFound, name, version)
}

// ListSummary lists all entries ordered by name, then version descending
func (m *MemoryRegistry) ListSummary(_ context.Context) ([]models.RegistryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.RegistryEntry, len(m.entries))
	copy(out, m.entries)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Version > out[j].Version
	})
	return out, nil
}

// TransitionStage moves an entry to a new lifecycle stage
func (m *MemoryRegistry) TransitionStage(_ context.Context, name string, version int, stage models.Stage) (*models.RegistryEntry, error) {
	if !models.ValidStage(stage) {
		return nil, fmt.Errorf("%w: unknown stage %q", models.ErrInvalidTransition, stage)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.entries {
		if m.entries[i].Name != name || m.entries[i].Version != version {
			continue
		}
		if !allowedTransition(m.entries[i].Stage, stage) {
			return nil, fmt.Errorf("%w: %s -> %s for %s/%d", models.ErrInvalidTransition, m.entries[i].Stage, stage, name, version)
		}
		m.entries[i].Stage = stage
		out := m.entries[i]
		out.Metrics = copyMetrics(out.Metrics)
		return &out, nil
	}
	return nil, fmt.Errorf("%w: model %s version %d", models.ErrNotFound, name, version)
}

// BestForMetric returns the entry with the highest value for the metric
func (m *MemoryRegistry) BestForMetric(_ context.Context, metric string) (*models.RegistryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var best *models.RegistryEntry
	for i := range m.entries {
		v, ok := m.entries[i].Metrics[metric]
		if !ok {
			continue
		}
		if best == nil || v > best.Metrics[metric] {
			best = &m.entries[i]
		}
	}
	if best == nil {
		return nil, nil
	}
	out := *best
	out.Metrics = copyMetrics(out.Metrics)
	return &out, nil
}

func copyMetrics(in map[string]float64) map[string]float64 {
	if in == nil {
		return nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
