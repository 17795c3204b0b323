package httpapi

import (
	"net/http"
	"strings"

	"proxitrack/internal/config"
	"proxitrack/internal/tracker"
	"proxitrack/pkg/logger"
)

// Router mounts the tracker HTTP surface under basePath, except the debug
// dump, which stays at /debug/dump, and applies the standard middleware
// chain to every route.
type Router struct {
	handler     *Handler
	mux         *http.ServeMux
	basePath    string
	middlewares []Middleware
}

// NewRouter builds a Router bound to dt/cfg.
func NewRouter(dt *tracker.DeviceTracker, cfg *config.Config, basePath string) *Router {
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	if basePath != "" && strings.HasSuffix(basePath, "/") {
		basePath = basePath[:len(basePath)-1]
	}

	return &Router{
		handler:  NewHandler(dt, cfg),
		mux:      http.NewServeMux(),
		basePath: basePath,
		middlewares: []Middleware{
			LoggingMiddleware,
			RecoveryMiddleware,
			CorsMiddleware,
		},
	}
}

// Setup registers every route on the underlying mux.
func (r *Router) Setup() {
	r.mux.HandleFunc(r.path("/status"), r.handler.GetStatus)
	r.mux.HandleFunc(r.path("/entities"), r.handler.GetEntities)
	r.mux.HandleFunc(r.path("/entities/watch"), r.handler.PostEntityWatch)
	r.mux.HandleFunc(r.path("/watchlist"), r.handler.GetWatchlist)
	r.mux.HandleFunc(r.path("/watchlist/save"), r.handler.PostWatchlistSave)
	r.mux.HandleFunc(r.path("/watchlist/load"), r.handler.PostWatchlistLoad)
	r.mux.HandleFunc("/debug/dump", r.handler.GetDebugDump)

	logger.Infof("http api configured with base path %q", r.basePath)
}

// Handler returns the final http.Handler with middleware applied.
func (r *Router) Handler() http.Handler {
	return Chain(r.middlewares...)(r.mux)
}

func (r *Router) path(route string) string {
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return r.basePath + route
}
