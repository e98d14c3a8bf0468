package models

import (
	"fmt"
	"time"
)

// Stage is the registry lifecycle label governing promotion order
type Stage string

const (
	StageNone       Stage = "None"
	StageStaging    Stage = "Staging"
	StageProduction Stage = "Production"
	StageArchived   Stage = "Archived"
)

// ValidStage reports whether s is a known lifecycle stage
func ValidStage(s Stage) bool {
	switch s {
	case StageNone, StageStaging, StageProduction, StageArchived:
		return true
	}
	return false
}

// RegistryEntry represents one versioned model in the registry.
// The (Name, Version) pair is immutable once created; only Stage may change.
type RegistryEntry struct {
	Name        string             `json:"name"`
	Version     int                `json:"version"`
	Dataset     string             `json:"dataset"`
	RunID       string             `json:"run_id"`
	ArtifactURI string             `json:"artifact_uri"`
	Metrics     map[string]float64 `json:"metrics"`
	Stage       Stage              `json:"stage"`
	CreatedAt   time.Time          `json:"created_at"`
}

// Ref returns the "name/version" reference used in logs and notifications
func (e *RegistryEntry) Ref() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s/%d", e.Name, e.Version)
}

// RunResult is the artifact a completed training run hands to the registry
type RunResult struct {
	Model       string             `json:"model"`
	Dataset     string             `json:"dataset"`
	RunID       string             `json:"run_id"`
	ArtifactURI string             `json:"artifact_uri"`
	Metrics     map[string]float64 `json:"metrics"`
}
