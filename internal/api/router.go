package api

import (
	"net/http"
	"route-optimizer-service/internal/api/handlers"
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const calculateRoutePath = "/api/v1/calculate-route"

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Handlers stay unaware of concrete adapters.
func NewRouter(optimizer handlers.RouteOptimizer, ranking domain.PriorityRanking) http.Handler {
	metrics.RegisterDefault()

	mux := http.NewServeMux()

	routeHandler := handlers.NewRouteHandler(optimizer, ranking)

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc(calculateRoutePath, routeHandler.CalculateRoute)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	routes := map[string]bool{"/health": true, calculateRoutePath: true, "/metrics": true}
	return requestIDMiddleware(loggingMiddleware(routes, mux))
}
