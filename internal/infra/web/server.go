package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"chatbot-feedback/internal/domain/ports/repository"
)

// Server is the optional admin endpoint: liveness and Prometheus metrics only.
// It never exposes conversation content.
type Server struct {
	store  repository.ConversationRepository
	driver string
	log    *zerolog.Logger
	srv    *http.Server
}

func NewServer(store repository.ConversationRepository, driver string, logger *zerolog.Logger) *Server {
	return &Server{store: store, driver: driver, log: logger}
}

// Router builds the chi router; exported for tests.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

type healthResponse struct {
	Status        string `json:"status"`
	Driver        string `json:"driver"`
	Conversations int    `json:"conversations"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Driver: s.driver}
	code := http.StatusOK
	convs, err := s.store.List(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("health check: list conversations failed")
		resp.Status = "degraded"
		code = http.StatusServiceUnavailable
	} else {
		resp.Conversations = len(convs)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

// Start listens on port until Shutdown is called.
func (s *Server) Start(port int) error {
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info().Int("port", port).Msg("admin endpoint listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
