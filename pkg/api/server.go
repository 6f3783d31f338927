// Package api is the thin HTTP surface over the verification engine.
// It adds no semantics of its own: requests are schema-validated, handed to
// the engine, and the engine's well-formed results are returned verbatim.
package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/acgs-labs/charter/pkg/contracts"
	"github.com/acgs-labs/charter/pkg/engine"
)

// Server exposes the engine over HTTP.
type Server struct {
	engine  *engine.Engine
	limiter *RateLimiter
	logger  *slog.Logger
}

// NewServer builds the HTTP surface. limiter may be nil to disable
// rate limiting.
func NewServer(eng *engine.Engine, limiter *RateLimiter) *Server {
	return &Server{
		engine:  eng,
		limiter: limiter,
		logger:  slog.Default().With("component", "api"),
	}
}

// Routes returns the handler tree.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/verify", s.handleVerify)
	mux.HandleFunc("POST /v1/verify/batch", s.handleBatchVerify)
	mux.HandleFunc("GET /v1/stats", s.handleStats)
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	var h http.Handler = mux
	if s.limiter != nil {
		h = s.limiter.Middleware(h)
	}
	return h
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	req, err := contracts.DecodeRequest(body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := s.engine.VerifyPolicy(r.Context(), req)
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleBatchVerify(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 8<<20))
	if err != nil {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		s.writeError(w, http.StatusBadRequest, "batch body must be a JSON array of requests")
		return
	}
	reqs := make([]*contracts.VerificationRequest, 0, len(raw))
	for i, item := range raw {
		req, err := contracts.DecodeRequest(item)
		if err != nil {
			s.writeError(w, http.StatusBadRequest,
				"request "+strconv.Itoa(i)+": "+err.Error())
			return
		}
		reqs = append(reqs, req)
	}

	results := s.engine.BatchVerify(r.Context(), reqs)
	s.writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Statistics(r.Context())
	if err != nil {
		s.logger.Error("statistics query failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "statistics unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
