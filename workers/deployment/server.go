// Package deployment implements the deployment worker: it holds zero or one
// loaded model in its serving slot and answers inference requests against it.
package deployment

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/http"
	"sync"
	"time"

	"ml-gateway/pkg/api"
	"ml-gateway/storage"
	"ml-gateway/workers/logbuf"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// loadedModel is the model currently serving inference
type loadedModel struct {
	name     string
	version  int
	payload  []byte
	loadedAt time.Time
}

// Server is the deployment worker. Loads are single-writer; inference reads
// block during a swap and are never served against a half-loaded model.
type Server struct {
	store  *storage.ArtifactStore
	logger *logrus.Logger
	buf    *logbuf.Buffer

	mu     sync.RWMutex
	loaded *loadedModel
}

// NewServer creates a deployment worker reading artifacts through store
func NewServer(store *storage.ArtifactStore) *Server {
	buf := logbuf.New(0)
	logger := logrus.New()
	logger.AddHook(buf)

	return &Server{
		store:  store,
		logger: logger,
		buf:    buf,
	}
}

// Routes registers the worker's HTTP endpoints
func (s *Server) Routes(r *mux.Router) {
	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/load", s.handleLoad).Methods("POST")
	v1.HandleFunc("/infer", s.handleInfer).Methods("POST")
	v1.HandleFunc("/logs", s.handleLogs).Methods("GET")

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")
}

// handleLoad swaps a new model into the serving slot, superseding the
// previous one
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req api.LoadModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Model == "" || req.Version < 1 || req.ArtifactURI == "" {
		writeError(w, http.StatusBadRequest, "load requires model, version and artifact_uri")
		return
	}

	payload, err := s.store.Read(req.ArtifactURI)
	if err != nil {
		s.logger.Errorf("Failed to read artifact for %s/%d: %v", req.Model, req.Version, err)
		writeError(w, http.StatusBadRequest, fmt.Sprintf("artifact not readable: %v", err))
		return
	}

	s.mu.Lock()
	s.loaded = &loadedModel{
		name:     req.Model,
		version:  req.Version,
		payload:  payload,
		loadedAt: time.Now().UTC(),
	}
	s.mu.Unlock()

	s.logger.Infof("Loaded %s/%d (%d bytes) into the serving slot", req.Model, req.Version, len(payload))
	w.WriteHeader(http.StatusOK)
}

// handleInfer answers an inference request against the loaded model
func (s *Server) handleInfer(w http.ResponseWriter, r *http.Request) {
	var req api.InferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Input == "" {
		writeError(w, http.StatusBadRequest, "infer requires input")
		return
	}

	s.mu.RLock()
	model := s.loaded
	s.mu.RUnlock()

	if model == nil {
		writeError(w, http.StatusConflict, "no model loaded")
		return
	}

	resp := predict(model, req.Input)
	s.logger.Infof("Classified input with %s/%d: %d", model.name, model.version, resp.Prediction)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLogs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, api.LogsResponse{Logs: s.buf.String()})
}

// predict stands in for real model inference: it derives a deterministic
// class and logits from the input and the loaded artifact
func predict(model *loadedModel, input string) api.InferResponse {
	h := fnv.New32a()
	h.Write([]byte(input))
	h.Write(model.payload)
	seed := h.Sum32()

	prediction := int(seed % 10)
	logits := make([]float64, 10)
	for i := range logits {
		logits[i] = float64((seed>>uint(i))%97) / 100.0
	}
	logits[prediction] = 0.99

	return api.InferResponse{
		Model:      fmt.Sprintf("%s/%d", model.name, model.version),
		Prediction: prediction,
		Logits:     logits,
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, api.ErrorResponse{Error: msg})
}
