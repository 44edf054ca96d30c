package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the service
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path"},
	)
	// HTTPInFlight is the number of requests being served
	HTTPInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "http_requests_in_flight", Help: "HTTP requests currently being served."},
	)

	// Optimizations counts optimization runs by status (ok, no_solution, error)
	Optimizations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "route_optimizations_total", Help: "Route optimization runs by status."},
		[]string{"status"},
	)
	// SolverDuration tracks wall-clock time spent in the route solver
	SolverDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "route_solver_duration_seconds", Help: "Route solver duration in seconds.", Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 15}},
	)
	// SkippedNodes counts nodes left unvisited by the solver, by node kind
	SkippedNodes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "route_skipped_nodes_total", Help: "Nodes skipped by the solver."},
		[]string{"kind"},
	)
	// WarehouseReturns counts refused-delivery returns by outcome (returned, unresolved)
	WarehouseReturns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "warehouse_returns_total", Help: "Refused delivery returns by outcome."},
		[]string{"outcome"},
	)
	// InventoryAnomalies counts accounting anomalies by kind
	InventoryAnomalies = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "inventory_anomalies_total", Help: "Inventory accounting anomalies."},
		[]string{"kind"},
	)
	// ProviderRequests counts distance provider calls by result (ok, cache_hit, error)
	ProviderRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "distance_provider_requests_total", Help: "Distance matrix lookups by result."},
		[]string{"result"},
	)
)

// RegisterDefault registers collectors to the service registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(HTTPInFlight)
		Registry.MustRegister(Optimizations)
		Registry.MustRegister(SolverDuration)
		Registry.MustRegister(SkippedNodes)
		Registry.MustRegister(WarehouseReturns)
		Registry.MustRegister(InventoryAnomalies)
		Registry.MustRegister(ProviderRequests)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
