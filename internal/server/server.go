// Package server exposes the advisor over HTTP. Transport only: request
// decoding, error mapping and response shaping live here, the engine
// logic stays in internal/service.
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"profitgen/internal/domain"
	"profitgen/internal/index"
	"profitgen/internal/rerank"
	"profitgen/internal/service"
)

// Server handles the HTTP API.
type Server struct {
	advisor *service.Advisor
	logger  zerolog.Logger
	router  chi.Router
}

// New creates the HTTP server around an advisor.
func New(advisor *service.Advisor, logger zerolog.Logger) *Server {
	s := &Server{advisor: advisor, logger: logger}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Get("/healthz", s.handleHealth)
	r.Post("/search", s.handleSearch)
	r.Post("/recommend", s.handleRecommend)
	s.router = r
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

type searchRequest struct {
	Query       string `json:"query"`
	UserPersona string `json:"user_persona"`
}

type recommendRequest struct {
	ASIN    string `json:"asin"`
	Persona string `json:"persona"`
}

type itemResponse struct {
	ASIN       string  `json:"asin"`
	Title      string  `json:"title"`
	Price      float64 `json:"price"`
	FinalScore float64 `json:"final_score"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		s.writeError(w, http.StatusBadRequest, "query cannot be empty")
		return
	}
	if req.UserPersona == "" {
		req.UserPersona = domain.PersonaStandard
	}
	ranked, err := s.advisor.Search(r.Context(), req.Query, req.UserPersona)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   req.Query,
		"results": toItems(ranked),
	})
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ASIN == "" {
		s.writeError(w, http.StatusBadRequest, "asin cannot be empty")
		return
	}
	if req.Persona == "" {
		req.Persona = domain.PersonaStandard
	}
	rec, err := s.advisor.RecommendForItem(r.Context(), req.ASIN, req.Persona)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"context_product": map[string]any{
			"asin":  rec.Context.ASIN,
			"title": rec.Context.Title,
			"price": rec.Context.Price,
		},
		"sales_pitch":     rec.Pitch,
		"recommendations": toItems(rec.Items),
	})
}

// writeEngineError maps engine errors onto client-visible status codes.
// Failures are surfaced, never silently converted into empty successes.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, index.ErrItemNotFound):
		s.writeError(w, http.StatusNotFound, "product ASIN not found")
	case errors.Is(err, index.ErrEmptyIndex):
		s.writeError(w, http.StatusServiceUnavailable, "system not ready yet")
	case errors.Is(err, rerank.ErrNoPersonaRules):
		s.writeError(w, http.StatusInternalServerError, "persona rules unavailable")
	default:
		s.logger.Error().Err(err).Msg("request failed")
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func toItems(ranked []domain.ScoredCandidate) []itemResponse {
	items := make([]itemResponse, 0, len(ranked))
	for _, r := range ranked {
		items = append(items, itemResponse{
			ASIN:       r.Product.ASIN,
			Title:      r.Product.Title,
			Price:      r.Product.Price,
			FinalScore: r.FinalScore,
		})
	}
	return items
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}
