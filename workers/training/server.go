// Package training implements the training worker: a bounded pool of
// simulated training runs reachable over HTTP.
package training

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"ml-gateway/core/models"
	"ml-gateway/pkg/api"
	"ml-gateway/storage"
	"ml-gateway/workers/logbuf"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Config tunes the training worker
type Config struct {
	PoolSize      int           // simultaneous runs; submissions beyond this are rejected
	EpochDuration time.Duration // wall time simulated per epoch
}

func (c Config) withDefaults() Config {
	if c.PoolSize <= 0 {
		c.PoolSize = 4
	}
	if c.EpochDuration <= 0 {
		c.EpochDuration = 2 * time.Second
	}
	return c
}

// run is one training run held in the worker's in-memory table. The table
// does not survive a restart; polls on forgotten ids return 404.
type run struct {
	id     string
	status string
	result *models.RunResult
	errMsg string
}

// Server is the training worker
type Server struct {
	cfg           Config
	epochDuration time.Duration
	store         *storage.ArtifactStore
	logger        *logrus.Logger
	buf           *logbuf.Buffer

	mu   sync.Mutex
	runs map[string]*run
	sem  chan struct{}
}

// NewServer creates a training worker writing artifacts through store
func NewServer(cfg Config, store *storage.ArtifactStore) *Server {
	cfg = cfg.withDefaults()

	buf := logbuf.New(0)
	logger := logrus.New()
	logger.AddHook(buf)

	return &Server{
		cfg:           cfg,
		epochDuration: cfg.EpochDuration,
		store:         store,
		logger:        logger,
		buf:           buf,
		runs:          make(map[string]*run),
		sem:           make(chan struct{}, cfg.PoolSize),
	}
}

// Routes registers the worker's HTTP endpoints
func (s *Server) Routes(r *mux.Router) {
	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/runs", s.handleSubmit).Methods("POST")
	v1.HandleFunc("/runs/{id}", s.handlePoll).Methods("GET")
	v1.HandleFunc("/logs", s.handleLogs).Methods("GET")

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")
}

// handleSubmit accepts a run if the pool has a free slot and the config
// parses, then acknowledges immediately; the run proceeds in the background
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req api.SubmitRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg, err := ParseRunConfig(req.Config)
	if err != nil {
		s.logger.Warnf("Rejecting run with malformed config: %v", err)
		writeError(w, http.StatusBadRequest, "malformed config: "+err.Error())
		return
	}

	// Admission: take a pool slot or reject. No internal queue, so
	// backpressure stays visible at the boundary.
	select {
	case s.sem <- struct{}{}:
	default:
		s.logger.Warnf("Rejecting run for request %s: pool exhausted (%d running)", req.RequestID, s.cfg.PoolSize)
		writeError(w, http.StatusConflict, "pool_exhausted")
		return
	}

	rn := &run{id: uuid.New().String(), status: api.RunStatusRunning}
	s.mu.Lock()
	s.runs[rn.id] = rn
	s.mu.Unlock()

	s.logger.Infof("Accepted run %s (model=%s dataset=%s epochs=%d)", rn.id, cfg.Model, cfg.Dataset, cfg.Epochs)
	go s.execute(rn.id, cfg)

	writeJSON(w, http.StatusAccepted, api.SubmitRunResponse{RunID: rn.id, Status: rn.status})
}

// handlePoll reports worker-side truth about one run
func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	s.mu.Lock()
	rn, ok := s.runs[runID]
	var resp api.RunStatusResponse
	if ok {
		resp = api.RunStatusResponse{RunID: rn.id, Status: rn.status, Result: rn.result, Error: rn.errMsg}
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "no such run")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLogs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, api.LogsResponse{Logs: s.buf.String()})
}

// finish records the terminal state and releases the pool slot
func (s *Server) finish(runID string, result *models.RunResult, errMsg string) {
	s.mu.Lock()
	if rn, ok := s.runs[runID]; ok {
		if errMsg != "" {
			rn.status = api.RunStatusFailed
			rn.errMsg = errMsg
		} else {
			rn.status = api.RunStatusCompleted
			rn.result = result
		}
	}
	s.mu.Unlock()
	<-s.sem
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, api.ErrorResponse{Error: msg})
}
