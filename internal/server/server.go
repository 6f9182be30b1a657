// Package server implements C7's HTTP surface: artist search, stats,
// health, and an ambient log-streaming websocket, following the teacher's
// stdlib net/http.ServeMux + manual-dispatch pattern rather than a router
// framework.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/davedean/lidmeta/internal/common"
	"github.com/davedean/lidmeta/internal/interfaces"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// Server wraps the C7 HTTP listener around a search service.
type Server struct {
	search interfaces.SearchService
	logger arbor.ILogger
	ws     *WebSocketHandler
	config *common.Config

	router *http.ServeMux
	server *http.Server
}

func New(cfg *common.Config, search interfaces.SearchService, logger arbor.ILogger) *Server {
	s := &Server{
		search: search,
		logger: logger,
		ws:     NewWebSocketHandler(logger),
		config: cfg,
	}
	s.router = s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      withRequestID(withLogging(s.router, logger)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/search/artists", s.handleSearchArtists)
	mux.HandleFunc("/api/v1/search", s.handleAPISearch)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ws/logs", s.ws.HandleWebSocket)
	return mux
}

func (s *Server) Start() error {
	s.logger.Info().Str("address", s.server.Addr).Msg("search server starting")
	s.ws.StartLogStreamer()
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down search server")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func withLogging(next http.Handler, logger arbor.ILogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug().
			Str("request_id", requestIDFrom(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// withRequestID extracts an inbound X-Request-ID or mints a fresh one,
// echoes it on the response, and stores it in the request context so
// downstream logging (and handlers, via requestIDFrom) can correlate a
// single request across log lines.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
