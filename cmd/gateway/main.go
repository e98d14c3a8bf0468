package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"ml-gateway/api/rest/routes"
	"ml-gateway/config"
	"ml-gateway/core/gateway"
	"ml-gateway/core/notify"
	"ml-gateway/core/registry"
	"ml-gateway/core/tracker"
	"ml-gateway/core/workers"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()

	// Initialize the registry
	var reg registry.Registry
	if cfg.DatabaseURL != "" {
		pg, err := registry.NewPostgresRegistry(cfg.DatabaseURL)
		if err != nil {
			logrus.Fatalf("Failed to connect to registry database: %v", err)
		}
		defer pg.Close()
		reg = pg
		logrus.Info("Registry database connected")
	} else {
		reg = registry.NewMemoryRegistry()
		logrus.Warn("No DATABASE_URL configured, using the in-memory registry")
	}

	// Initialize worker connections
	trainingClient := workers.NewTrainingClient(cfg.TrainingWorkerURL, cfg.WorkerTimeout)
	deploymentClient := workers.NewDeploymentClient(cfg.DeploymentWorkerURL, cfg.WorkerTimeout)

	// Initialize the reasoning collaborator, if configured
	var collaborator gateway.Collaborator
	if cfg.CollaboratorURL != "" {
		collaborator = gateway.NewHTTPCollaborator(cfg.CollaboratorURL, 0)
	}

	// Initialize the gateway with its job tracker
	notifier := notify.NewHTTPNotifier(0)
	gw := gateway.New(reg, trainingClient, deploymentClient, notifier, collaborator, tracker.Config{
		PollInterval:      cfg.PollInterval,
		PollFailureBudget: cfg.PollFailureBudget,
		NotifyAttempts:    cfg.NotifyAttempts,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go gw.Tracker().Start(ctx)
	defer gw.Tracker().Stop()

	// Setup routes
	r := mux.NewRouter()
	routes.SetupRoutes(r, gw)

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Start server
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// Graceful shutdown
	go func() {
		logrus.Infof("Starting gateway on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Gateway failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down gateway...")
	if err := server.Shutdown(context.Background()); err != nil {
		logrus.Fatalf("Gateway forced to shutdown: %v", err)
	}
	logrus.Info("Gateway exited")
}
