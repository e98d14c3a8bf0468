package training

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"time"

	"ml-gateway/core/models"

	"gopkg.in/yaml.v3"
)

// RunConfig is the training worker's view of the config payload the gateway
// passes through untouched
type RunConfig struct {
	Model     string  `yaml:"model"`
	Dataset   string  `yaml:"dataset"`
	Epochs    int     `yaml:"epochs"`
	BatchSize int     `yaml:"batch_size"`
	LR        float64 `yaml:"lr"`
}

// ParseRunConfig parses and validates a training config payload
func ParseRunConfig(payload string) (RunConfig, error) {
	var cfg RunConfig
	if err := yaml.Unmarshal([]byte(payload), &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Model == "" {
		return cfg, fmt.Errorf("config missing model")
	}
	if cfg.Dataset == "" {
		return cfg, fmt.Errorf("config missing dataset")
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = 3
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	if cfg.LR <= 0 {
		cfg.LR = 1e-3
	}
	return cfg, nil
}

// execute simulates one training run: it iterates the configured epochs,
// fabricates converging metrics, and writes the resulting artifact. Stands
// in for the real training loop, which is outside this system.
func (s *Server) execute(runID string, cfg RunConfig) {
	start := time.Now()
	metrics := simulateMetrics(cfg)

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		time.Sleep(s.epochDuration)
		s.logger.Infof("Run %s epoch %d/%d", runID, epoch, cfg.Epochs)
	}

	artifact, err := buildArtifact(runID, cfg, metrics)
	if err != nil {
		s.logger.Errorf("Run %s failed to build artifact: %v", runID, err)
		s.finish(runID, nil, err.Error())
		return
	}

	uri, err := s.store.SaveModel(cfg.Model, runID, artifact)
	if err != nil {
		s.logger.Errorf("Run %s failed to save artifact: %v", runID, err)
		s.finish(runID, nil, err.Error())
		return
	}

	s.logger.Infof("Run %s finished in %s, artifact at %s", runID, time.Since(start).Round(time.Millisecond), uri)
	s.finish(runID, &models.RunResult{
		Model:       cfg.Model,
		Dataset:     cfg.Dataset,
		RunID:       runID,
		ArtifactURI: uri,
		Metrics:     metrics,
	}, "")
}

// simulateMetrics fabricates a plausible accuracy triple, deterministic for
// a given config so tests can assert on it
func simulateMetrics(cfg RunConfig) map[string]float64 {
	h := fnv.New32a()
	h.Write([]byte(cfg.Model + "/" + cfg.Dataset))
	jitter := float64(h.Sum32()%500) / 10000.0 // 0.00 - 0.05

	base := 0.90 + jitter
	if epochBonus := float64(cfg.Epochs) * 0.002; epochBonus < 0.03 {
		base += epochBonus
	} else {
		base += 0.03
	}

	return map[string]float64{
		"train_acc": min(base+0.02, 0.999),
		"val_acc":   min(base, 0.999),
		"test_acc":  min(base-0.005, 0.999),
	}
}

func buildArtifact(runID string, cfg RunConfig, metrics map[string]float64) ([]byte, error) {
	return json.MarshalIndent(map[string]interface{}{
		"run_id":  runID,
		"model":   cfg.Model,
		"dataset": cfg.Dataset,
		"epochs":  cfg.Epochs,
		"metrics": metrics,
	}, "", "  ")
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
