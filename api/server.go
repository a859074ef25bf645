package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tokengraph/core/engine"
	"tokengraph/internal/errors"
	"tokengraph/internal/logging"
)

// userHeader carries the authenticated requester's email. Token
// verification itself happens upstream of this service.
const userHeader = "X-User-Email"

// Server is the API server
type Server struct {
	engine  *engine.Engine
	mux     *http.ServeMux
	version string
}

// NewServer creates an API server over the given engine
func NewServer(e *engine.Engine, version string) *Server {
	s := &Server{
		engine:  e,
		mux:     http.NewServeMux(),
		version: version,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	// Core endpoints
	s.mux.HandleFunc("POST /models", s.handleCreateModel)
	s.mux.HandleFunc("POST /models/execute", s.handleExecute)
	s.mux.HandleFunc("POST /models/update", s.handleSubmitUpdate)
	s.mux.HandleFunc("POST /update-requests/{id}/approve", s.handleApprove)
	s.mux.HandleFunc("POST /update-requests/{id}/reject", s.handleReject)

	// Supporting endpoints
	s.mux.HandleFunc("GET /models/pending", s.handlePending)
	s.mux.HandleFunc("GET /models/{ref}/updates", s.handleHistory)
	s.mux.HandleFunc("POST /refill", s.handleRefill)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /version", s.handleVersion)
}

// requester extracts the authenticated user's email from the request
func requester(r *http.Request) (string, error) {
	email := r.Header.Get(userHeader)
	if email == "" {
		return "", errors.InvalidInput("missing " + userHeader + " header")
	}
	return email, nil
}

// handleCreateModel handles POST /models
func (s *Server) handleCreateModel(w http.ResponseWriter, r *http.Request) {
	email, err := requester(r)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	var req CreateModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "INVALID_JSON", err.Error(), http.StatusBadRequest)
		return
	}

	model, creationCost, err := s.engine.CreateModel(r.Context(), engine.CreateModelInput{
		Name:       req.Name,
		OwnerEmail: email,
		NodeCount:  req.Nodes,
		Edges:      req.Edges,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	logging.Info("model created",
		zap.String("model", model.ID),
		zap.String("owner", email),
		zap.String("cost", creationCost.String()))

	s.writeJSON(w, map[string]interface{}{
		"model": model,
		"cost":  creationCost,
	}, http.StatusCreated)
}

// handleExecute handles POST /models/execute
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	email, err := requester(r)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "INVALID_JSON", err.Error(), http.StatusBadRequest)
		return
	}

	result, err := s.engine.ExecuteModel(r.Context(), req.Model, req.Start, req.Goal, email)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, result, http.StatusOK)
}

// handleSubmitUpdate handles POST /models/update
func (s *Server) handleSubmitUpdate(w http.ResponseWriter, r *http.Request) {
	email, err := requester(r)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	var req UpdateRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "INVALID_JSON", err.Error(), http.StatusBadRequest)
		return
	}

	update, model, err := s.engine.SubmitUpdate(r.Context(), req.Model, email, req.Edges)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, map[string]interface{}{
		"request": update,
		"model":   model,
	}, http.StatusOK)
}

// handleApprove handles POST /update-requests/{id}/approve
func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	model, err := s.engine.ApproveUpdate(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{"model": model}, http.StatusOK)
}

// handleReject handles POST /update-requests/{id}/reject
func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	model, err := s.engine.RejectUpdate(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{"model": model}, http.StatusOK)
}

// handlePending handles GET /models/pending
func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	pending, err := s.engine.PendingModels(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, pending, http.StatusOK)
}

// handleHistory handles GET /models/{ref}/updates
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	updates, err := s.engine.UpdateHistory(r.Context(), r.PathValue("ref"),
		q.Get("after"), q.Get("before"), q.Get("status"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{
		"updates": updates,
		"count":   len(updates),
	}, http.StatusOK)
}

// handleRefill handles POST /refill
func (s *Server) handleRefill(w http.ResponseWriter, r *http.Request) {
	email, err := requester(r)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	var req RefillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "INVALID_JSON", err.Error(), http.StatusBadRequest)
		return
	}
	balance, err := decimal.NewFromString(req.Balance)
	if err != nil {
		s.writeError(w, "INVALID_INPUT", "balance must be a decimal number", http.StatusBadRequest)
		return
	}

	if err := s.engine.Refill(r.Context(), email, req.Owner, balance); err != nil {
		s.writeDomainError(w, err)
		return
	}

	logging.Info("balance refilled",
		zap.String("admin", email),
		zap.String("owner", req.Owner),
		zap.String("balance", balance.String()))

	s.writeJSON(w, map[string]string{"message": "token balance refilled"}, http.StatusOK)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"status":  "healthy",
		"version": s.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// handleVersion handles GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"version": s.version,
		"engine":  "tokengraph",
	}, http.StatusOK)
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, code, message string, status int) {
	s.writeJSON(w, ErrorResponse{Error: ErrorBody{Code: code, Message: message}}, status)
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	logging.Warn("request failed", zap.String("kind", string(errors.TypeOf(err))), zap.Error(err))
	s.writeError(w, string(errors.TypeOf(err)), err.Error(), httpStatus(err))
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the server
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
