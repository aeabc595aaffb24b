package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
)

// ServerConfig holds the listener settings for the HTTP API.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	MaxArrivals     int           `mapstructure:"max_arrivals"`
	StoredRuns      int           `mapstructure:"stored_runs"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Address:         ":8080",
		MaxArrivals:     1_000_000,
		StoredRuns:      64,
		ShutdownTimeout: 5 * time.Second,
	}
}

type Server struct {
	config ServerConfig
	api    *SimAPI
}

func NewServer(config ServerConfig) *Server {
	return &Server{
		config: config,
		api:    NewSimAPI(NewRunStore(config.StoredRuns), config.MaxArrivals),
	}
}

// Handler is the API router wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return logRequests(s.api.Handler())
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", m.Code,
			"bytes", m.Written,
			"duration", m.Duration)
	})
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		slog.Info("http api listening", "address", s.config.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	select {
	case err := <-srvErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	slog.Info("shutting down http api")
	return srv.Shutdown(shutdownCtx)
}
