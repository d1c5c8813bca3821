// Package server assembles the HTTP handler tree and runs it until the
// context is cancelled.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/response"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/storage"
)

const (
	shutdownTimeout = 10 * time.Second
	limiterIdle     = 10 * time.Minute
)

// Server serves the API, health check and metrics.
type Server struct {
	cfg     config.Config
	store   storage.Store
	limiter *middleware.RateLimiter
	http    *http.Server
}

// New wires the handler tree over store.
func New(cfg config.Config, store storage.Store) *Server {
	s := &Server{
		cfg:     cfg,
		store:   store,
		limiter: middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
	}

	// Wrap with h2c for HTTP/2 without TLS
	s.http = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h2c.NewHandler(s.Handler(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the root router.
func (s *Server) Handler() http.Handler {
	api := service.API(service.Deps{
		Store:         s.store,
		Authenticator: auth.NewPasswordAuthenticator(s.store),
		JWT:           auth.NewJWTManager(s.cfg.JWT.Secret, s.cfg.JWT.TTL),
		Limiter:       s.limiter,
		Options: service.Options{
			BaseURL:      s.cfg.BaseURL,
			DefaultImage: s.cfg.DefaultImage,
		},
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger, middleware.Metrics)
	r.Get("/health", s.health)
	r.Method(http.MethodGet, "/metrics", middleware.MetricsHandler())
	r.Mount("/api", api)
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		slog.Error("Health check failed", "error", err)
		response.Fail(w, http.StatusServiceUnavailable, "Database unavailable.")
		return
	}
	response.Success(w, "", map[string]string{"database": "ok"})
}

// Run listens until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	go s.sweepLimiter(ctx)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "address", s.http.Addr, "env", s.cfg.Env)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// sweepLimiter drops per-client limiters that have gone idle.
func (s *Server) sweepLimiter(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.limiter.Cleanup(limiterIdle)
		}
	}
}
