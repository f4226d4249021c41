package server

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"tabletrack/internal/handlers"
	applog "tabletrack/internal/log"
	"tabletrack/internal/metrics"
)

func newRouter(metricsEnabled bool) http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")
	mux.HandleFunc("/health", handlers.Health)
	applog.Debug(context.Background(), "route registered", "path", "/health")
	mux.HandleFunc("/api/skus", handlers.SkuResource)
	mux.HandleFunc("/api/skus/", handlers.SkuResource)
	applog.Debug(context.Background(), "route registered", "path", "/api/skus")
	mux.HandleFunc("/api/batches", handlers.BatchResource)
	mux.HandleFunc("/api/batches/", handlers.BatchResource)
	applog.Debug(context.Background(), "route registered", "path", "/api/batches")
	mux.HandleFunc("/api/press", handlers.PressResource)
	mux.HandleFunc("/api/press/", handlers.PressResource)
	applog.Debug(context.Background(), "route registered", "path", "/api/press")
	if metricsEnabled {
		mux.Handle("/metrics", metrics.Handler())
		applog.Debug(context.Background(), "route registered", "path", "/metrics")
	}
	mux.HandleFunc("/", handlers.NotFound)
	return mux
}

// routeSuffixes lists the sub-resources accepted after an id for each prefix.
var routeSuffixes = map[string][]string{
	"/api/skus":    {"recipes"},
	"/api/batches": {"status", "items"},
	"/api/press":   {"complete"},
}

// routeLabel collapses a request path onto its route so metric cardinality
// stays bounded. Paths outside the known routes map to "unmatched".
func routeLabel(path string) string {
	switch path {
	case "/health", "/metrics":
		return path
	}
	for route, suffixes := range routeSuffixes {
		if path != route && !strings.HasPrefix(path, route+"/") {
			continue
		}
		rest := strings.Trim(strings.TrimPrefix(path, route), "/")
		if rest == "" {
			return route
		}
		segments := strings.Split(rest, "/")
		switch {
		case len(segments) == 1:
			return route + "/:id"
		case len(segments) == 2 && slices.Contains(suffixes, segments[1]):
			return route + "/:id/" + segments[1]
		}
		return "unmatched"
	}
	return "unmatched"
}

// methodLabel keeps the method label to the verbs the api serves.
func methodLabel(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPatch, http.MethodOptions:
		return method
	}
	return "OTHER"
}
