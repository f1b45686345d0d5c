package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/cloudprompt/aws-devops-agent/internal/config"
	"github.com/cloudprompt/aws-devops-agent/internal/logging"
	"github.com/cloudprompt/aws-devops-agent/pkg/agents"
	"github.com/cloudprompt/aws-devops-agent/pkg/types"
)

// Server exposes the agent over HTTP. Envelopes awaiting confirmation are
// held in memory for the duration of the request/confirm/execute cycle;
// nothing persists between runs.
type Server struct {
	router *mux.Router
	agent  *agents.DevOpsAgent
	config *config.Config
	logger *logging.Logger

	pending      map[string]*types.OperationEnvelope
	pendingMutex sync.RWMutex
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

type executeRequest struct {
	ID        string `json:"id"`
	Confirmed bool   `json:"confirmed"`
}

// NewServer creates an HTTP server around a DevOps agent
func NewServer(cfg *config.Config, agent *agents.DevOpsAgent, logger *logging.Logger) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		agent:   agent,
		config:  cfg,
		logger:  logger,
		pending: make(map[string]*types.OperationEnvelope),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/prompt", s.handlePrompt).Methods("POST")
	api.HandleFunc("/execute", s.handleExecute).Methods("POST")
	api.HandleFunc("/analyze", s.handleAnalyze).Methods("POST")
}

// Start runs the HTTP server until the context is cancelled
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	s.logger.WithField("addr", addr).Info("HTTP server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// Handler returns the underlying HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prompt == "" {
		s.writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	envelope := s.agent.ProcessPrompt(r.Context(), req.Prompt)

	if envelope.RequiresConfirmation {
		s.pendingMutex.Lock()
		s.pending[envelope.ID] = envelope
		s.pendingMutex.Unlock()
	}

	s.writeJSON(w, http.StatusOK, envelope)
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		s.writeError(w, http.StatusBadRequest, "envelope id is required")
		return
	}

	s.pendingMutex.RLock()
	envelope, ok := s.pending[req.ID]
	s.pendingMutex.RUnlock()

	if !ok {
		s.writeError(w, http.StatusNotFound, "no pending operation with id "+req.ID)
		return
	}

	result := s.agent.ExecuteOperation(r.Context(), envelope, req.Confirmed)

	// The cycle ends with execution; confirmation requests keep the
	// envelope pending
	if result.Status != types.StatusConfirmationRequired {
		s.pendingMutex.Lock()
		delete(s.pending, req.ID)
		s.pendingMutex.Unlock()
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prompt == "" {
		s.writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	specifications, err := s.agent.AnalyzeRequirements(r.Context(), req.Prompt)
	if err != nil {
		s.writeJSON(w, http.StatusOK, types.NewErrorEnvelope("Failed to translate business requirements", err))
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         types.StatusSuccess,
		"specifications": specifications,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"status":  types.StatusError,
		"message": message,
	})
}
