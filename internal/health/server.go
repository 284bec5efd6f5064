package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/john/chatview/internal/logging"
)

// RowCounter reports how many rows are on display.
type RowCounter interface {
	Len() int
}

// Server provides HTTP health check endpoints
type Server struct {
	server *http.Server
	logger zerolog.Logger
}

// New creates a new health check server
func New(addr string, rows RowCounter) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("/rows", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]int{"rows": rows.Len()})
	})

	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		logger: logging.Component("health"),
	}
}

// Handler exposes the server's routes.
func (s *Server) Handler() http.Handler { return s.server.Handler }

// Start begins serving HTTP requests
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("health check server listening")
	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down health check server")
	return s.server.Shutdown(ctx)
}
