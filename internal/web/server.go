package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server wraps the HTTP server.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer creates a new HTTP server.
func NewServer(handlers *Handlers, port string, logger *zap.Logger) *Server {
	mux := NewRouter(handlers)

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      loggingMiddleware(mux, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("HTTP server configured", zap.String("port", port))

	return &Server{
		httpServer: httpServer,
		logger:     logger,
	}
}

// NewRouter registers every route on a fresh mux.
func NewRouter(handlers *Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handlers.HealthHandler)
	mux.HandleFunc("GET /{$}", handlers.DashboardHandler)
	mux.HandleFunc("GET /api/login-url", handlers.LoginURLHandler)
	mux.HandleFunc("GET /api/config", handlers.ConfigHandler)
	mux.HandleFunc("GET /callback", handlers.CallbackHandler)

	mux.HandleFunc("POST /api/decorations/{id}/toggle", handlers.ToggleOwnershipHandler)
	mux.HandleFunc("POST /api/decorations/{id}/visibility", handlers.ToggleVisibilityHandler)
	mux.HandleFunc("POST /api/appearance", handlers.AppearanceHandler)
	mux.HandleFunc("POST /api/save", handlers.SaveHandler)
	mux.HandleFunc("POST /api/cancel", handlers.CancelHandler)

	mux.HandleFunc("POST /api/media/{kind}", handlers.UploadMediaHandler)
	mux.HandleFunc("DELETE /api/media/{kind}", handlers.RemoveMediaHandler)

	mux.HandleFunc("POST /api/profile/view", handlers.ViewProfileHandler)
	mux.HandleFunc("GET /p/{id}", handlers.ServeDocumentHandler)
	mux.HandleFunc("DELETE /p/{id}", handlers.ReleaseDocumentHandler)
	mux.HandleFunc("GET /api/presence", handlers.PresenceHandler)
	mux.HandleFunc("POST /api/logout", handlers.LogoutHandler)

	return mux
}

// Serve starts the HTTP server.
func (s *Server) Serve() error {
	s.logger.Info("starting HTTP server", zap.String("address", s.httpServer.Addr))

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to serve HTTP: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	return nil
}

// loggingMiddleware logs all HTTP requests.
func loggingMiddleware(next http.Handler, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrappedWriter := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrappedWriter, r)

		logger.Info("HTTP request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", wrappedWriter.statusCode),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
