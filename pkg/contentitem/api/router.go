package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/tendant/content-parts/pkg/contentitem"
)

// RouterConfig holds the settings NewRouter needs besides the service
type RouterConfig struct {
	SnapshotBackend string
	RequestTimeout  time.Duration
	MaxBodyBytes    int64
	Logger          *slog.Logger
}

// NewRouter mounts the item and snapshot routes with the standard middleware
// stack and a /health endpoint.
func NewRouter(service contentitem.Service, cfg RouterConfig) chi.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = 10 << 20
	}

	stack := []Middleware{
		RequestIDMiddleware,
		middleware.RealIP,
		LoggingMiddleware(logger),
		RecoveryMiddleware(logger),
		RequestSizeLimitMiddleware(cfg.MaxBodyBytes),
		middleware.Timeout(cfg.RequestTimeout),
	}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return Chain(next, stack...)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})

	handler := NewItemHandler(service, cfg.SnapshotBackend, logger)
	r.Mount("/items", handler.Routes())
	r.Mount("/snapshots", handler.SnapshotRoutes())

	return r
}
