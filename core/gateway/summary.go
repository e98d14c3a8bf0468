package gateway

import (
	"fmt"
	"strings"

	"ml-gateway/core/models"
)

// FormatSummary renders the registry report the front-end shows for the
// registry_summary command: one fixed-width row per entry, newest version
// first within each model, plus the best model by test accuracy.
func FormatSummary(entries []models.RegistryEntry, best *models.RegistryEntry) string {
	if len(entries) == 0 {
		return "The registry is empty."
	}

	var b strings.Builder
	b.WriteString("All models in the registry:\n")
	fmt.Fprintf(&b, "%-12s %-8s %-12s %-12s %-14s %s\n", "Model", "Version", "Dataset", "Stage", "Test Accuracy", "Run ID")
	for _, e := range entries {
		fmt.Fprintf(&b, "%-12s %-8d %-12s %-12s %-14.4f %s\n",
			e.Name, e.Version, e.Dataset, e.Stage, e.Metrics["test_acc"], e.RunID)
	}

	if best != nil {
		fmt.Fprintf(&b, "\nBest model by test accuracy: %s (%.4f)\n", best.Ref(), best.Metrics["test_acc"])
	}
	return b.String()
}
