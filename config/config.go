package config

import (
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration. It is read once at startup
// and never hot-reloaded.
type Config struct {
	// Gateway
	ServerPort string `yaml:"server_port"`

	// Registry. An empty DatabaseURL selects the in-memory registry.
	DatabaseURL string `yaml:"database_url"`

	// Workers
	TrainingWorkerURL   string        `yaml:"training_worker_url"`
	DeploymentWorkerURL string        `yaml:"deployment_worker_url"`
	WorkerTimeout       time.Duration `yaml:"worker_timeout"`

	// Reasoning collaborator (chat/debug); empty disables it
	CollaboratorURL string `yaml:"collaborator_url"`

	// Storage root for artifacts and logs
	StorageRoot string `yaml:"storage_root"`

	// Job tracking
	PollInterval      time.Duration `yaml:"poll_interval"`
	PollFailureBudget int           `yaml:"poll_failure_budget"`
	NotifyAttempts    int           `yaml:"notify_attempts"`

	// Worker processes
	TrainingPort     string        `yaml:"training_port"`
	DeploymentPort   string        `yaml:"deployment_port"`
	TrainingPoolSize int           `yaml:"training_pool_size"`
	EpochDuration    time.Duration `yaml:"epoch_duration"`
}

func defaults() *Config {
	return &Config{
		ServerPort:          "8080",
		DatabaseURL:         "",
		TrainingWorkerURL:   "http://localhost:8081",
		DeploymentWorkerURL: "http://localhost:8082",
		WorkerTimeout:       30 * time.Second,
		CollaboratorURL:     "",
		StorageRoot:         "./data",
		PollInterval:        15 * time.Second,
		PollFailureBudget:   5,
		NotifyAttempts:      3,
		TrainingPort:        "8081",
		DeploymentPort:      "8082",
		TrainingPoolSize:    4,
		EpochDuration:       2 * time.Second,
	}
}

// Load loads configuration: defaults, then an optional YAML file pointed to
// by CONFIG_FILE, then environment variable overrides.
func Load() *Config {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			logrus.Fatalf("Failed to read config file %s: %v", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			logrus.Fatalf("Failed to parse config file %s: %v", path, err)
		}
	}

	cfg.ServerPort = getEnv("SERVER_PORT", cfg.ServerPort)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.TrainingWorkerURL = getEnv("TRAINING_WORKER_URL", cfg.TrainingWorkerURL)
	cfg.DeploymentWorkerURL = getEnv("DEPLOYMENT_WORKER_URL", cfg.DeploymentWorkerURL)
	cfg.WorkerTimeout = getEnvDuration("WORKER_TIMEOUT", cfg.WorkerTimeout)
	cfg.CollaboratorURL = getEnv("COLLABORATOR_URL", cfg.CollaboratorURL)
	cfg.StorageRoot = getEnv("STORAGE_ROOT", cfg.StorageRoot)
	cfg.PollInterval = getEnvDuration("POLL_INTERVAL", cfg.PollInterval)
	cfg.PollFailureBudget = getEnvInt("POLL_FAILURE_BUDGET", cfg.PollFailureBudget)
	cfg.NotifyAttempts = getEnvInt("NOTIFY_ATTEMPTS", cfg.NotifyAttempts)
	cfg.TrainingPort = getEnv("TRAINING_PORT", cfg.TrainingPort)
	cfg.DeploymentPort = getEnv("DEPLOYMENT_PORT", cfg.DeploymentPort)
	cfg.TrainingPoolSize = getEnvInt("TRAINING_POOL_SIZE", cfg.TrainingPoolSize)
	cfg.EpochDuration = getEnvDuration("EPOCH_DURATION", cfg.EpochDuration)

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		logrus.Warnf("Ignoring invalid integer for %s: %q", key, value)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		logrus.Warnf("Ignoring invalid duration for %s: %q", key, value)
	}
	return defaultValue
}
