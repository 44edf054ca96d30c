package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/metrics"
	"route-optimizer-service/internal/platform/obs"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type stubOptimizer struct {
	reqID string
}

func (s *stubOptimizer) Optimize(ctx context.Context, _ domain.RouteRequest) (*domain.RouteResult, error) {
	s.reqID = obs.RequestID(ctx)
	return &domain.RouteResult{RouteOrder: []string{"D1"}, Message: "OK"}, nil
}

func TestRouterHealthSetsRequestID(t *testing.T) {
	h := NewRouter(&stubOptimizer{}, domain.DefaultPriorityRanking())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotEmpty(t, rr.Header().Get(requestIDHeader))
}

func TestRouterPropagatesIncomingRequestID(t *testing.T) {
	opt := &stubOptimizer{}
	h := NewRouter(opt, domain.DefaultPriorityRanking())

	body := `{"depot_coord": [1, 2],
		"deliveries": [{"id": "D1", "coord": [1, 2], "demand": 1, "origin_warehouse": "W1", "service_time": 5}],
		"warehouses": [{"id": "W1", "coord": [1, 2]}]}`
	req := httptest.NewRequest(http.MethodPost, calculateRoutePath, strings.NewReader(body))
	req.Header.Set(requestIDHeader, "abc-123")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "abc-123", rr.Header().Get(requestIDHeader))
	require.Equal(t, "abc-123", opt.reqID)
}

func TestRouterRecordsMetrics(t *testing.T) {
	h := NewRouter(&stubOptimizer{}, domain.DefaultPriorityRanking())

	before := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues(http.MethodGet, "other", "404"))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/no/such/path", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)

	after := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues(http.MethodGet, "other", "404"))
	require.Equal(t, before+1, after)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "http_requests_total")
}

func TestStatusWriterDefaultsTo200(t *testing.T) {
	rr := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rr}

	n, err := sw.Write([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, http.StatusOK, sw.status)
	require.Equal(t, 5, sw.bytes)
}
