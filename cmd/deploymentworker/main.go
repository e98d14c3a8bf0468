package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"ml-gateway/config"
	"ml-gateway/storage"
	"ml-gateway/workers/deployment"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()

	store, err := storage.NewArtifactStore(cfg.StorageRoot)
	if err != nil {
		logrus.Fatalf("Failed to open artifact store: %v", err)
	}

	srv := deployment.NewServer(store)

	r := mux.NewRouter()
	srv.Routes(r)

	server := &http.Server{
		Addr:    ":" + cfg.DeploymentPort,
		Handler: r,
	}

	go func() {
		logrus.Infof("Starting deployment worker on port %s", cfg.DeploymentPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Deployment worker failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down deployment worker...")
	if err := server.Shutdown(context.Background()); err != nil {
		logrus.Fatalf("Deployment worker forced to shutdown: %v", err)
	}
	logrus.Info("Deployment worker exited")
}
