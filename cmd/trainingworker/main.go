package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"ml-gateway/config"
	"ml-gateway/storage"
	"ml-gateway/workers/training"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()

	store, err := storage.NewArtifactStore(cfg.StorageRoot)
	if err != nil {
		logrus.Fatalf("Failed to open artifact store: %v", err)
	}

	srv := training.NewServer(training.Config{
		PoolSize:      cfg.TrainingPoolSize,
		EpochDuration: cfg.EpochDuration,
	}, store)

	r := mux.NewRouter()
	srv.Routes(r)

	server := &http.Server{
		Addr:    ":" + cfg.TrainingPort,
		Handler: r,
	}

	go func() {
		logrus.Infof("Starting training worker on port %s (pool size %d)", cfg.TrainingPort, cfg.TrainingPoolSize)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Training worker failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down training worker...")
	if err := server.Shutdown(context.Background()); err != nil {
		logrus.Fatalf("Training worker forced to shutdown: %v", err)
	}
	logrus.Info("Training worker exited")
}
