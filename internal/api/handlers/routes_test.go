package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"route-optimizer-service/internal/api/dto"
	"route-optimizer-service/internal/domain"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeOptimizer struct {
	res *domain.RouteResult
	err error

	got   domain.RouteRequest
	calls int
}

func (f *fakeOptimizer) Optimize(_ context.Context, req domain.RouteRequest) (*domain.RouteResult, error) {
	f.calls++
	f.got = req
	return f.res, f.err
}

const validBody = `{
	"depot_coord": [55.75, 37.61],
	"deliveries": [
		{"id": "D1", "coord": [55.76, 37.62], "priority": "urgent", "demand": 2,
		 "items": [{"guid": "sku-1", "count": 2}], "origin_warehouse": "W1",
		 "time_window": [480, 720], "service_time": 10},
		{"id": "D2", "coord": [55.77, 37.60], "demand": 1, "refused": true,
		 "origin_warehouse": "W1", "service_time": 5}
	],
	"warehouses": [
		{"id": "W1", "coord": [55.74, 37.59], "stock": {"sku-1": 10}, "usage": 4}
	]
}`

func postRoute(t *testing.T, h *RouteHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/calculate-route", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.CalculateRoute(rr, req)
	return rr
}

func TestCalculateRouteOK(t *testing.T) {
	opt := &fakeOptimizer{res: &domain.RouteResult{
		RouteOrder: []string{"D1"},
		MapLink:    "https://yandex.ru/maps/?rtext=55.75,37.61~55.76,37.62&mode=routes",
		Message:    "OK",
	}}
	h := NewRouteHandler(opt, domain.DefaultPriorityRanking())

	rr := postRoute(t, h, validBody)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp dto.RouteResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, []string{"D1"}, resp.RouteOrder)
	require.Equal(t, "OK", resp.Message)
	require.Contains(t, resp.OsmURL, "rtext=")
	require.NotContains(t, rr.Body.String(), "unresolved_returns")
	require.Equal(t, 1, opt.calls)
}

func TestCalculateRouteAppliesDefaults(t *testing.T) {
	opt := &fakeOptimizer{res: &domain.RouteResult{}}
	h := NewRouteHandler(opt, domain.DefaultPriorityRanking())

	rr := postRoute(t, h, validBody)
	require.Equal(t, http.StatusOK, rr.Code)

	got := opt.got
	require.Equal(t, domain.Coordinates{Lat: 55.75, Lon: 37.61}, got.Depot)
	require.Equal(t, defaultVehicleCapacity, got.VehicleCapacity)
	require.Len(t, got.Deliveries, 2)

	d1 := got.Deliveries[0]
	require.Equal(t, "urgent", d1.Priority)
	require.Equal(t, domain.TimeWindow{Start: 480, End: 720}, d1.Window)
	require.Equal(t, []domain.Item{{ItemID: "sku-1", Count: 2}}, d1.Items)
	require.Equal(t, 10, d1.ServiceMinutes)

	d2 := got.Deliveries[1]
	require.Equal(t, domain.PriorityMedium, d2.Priority)
	require.Equal(t, domain.FullDay(), d2.Window)
	require.True(t, d2.Refused)

	require.Len(t, got.Warehouses, 1)
	require.Equal(t, defaultWarehouseCapacity, got.Warehouses[0].Capacity)
	require.Equal(t, 4, got.Warehouses[0].Usage)
	require.Equal(t, map[string]int{"sku-1": 10}, got.Warehouses[0].Stock)

	// empty route order is rendered as [] rather than null
	require.Contains(t, rr.Body.String(), `"route_order":[]`)
}

func TestCalculateRouteUnresolvedReturns(t *testing.T) {
	opt := &fakeOptimizer{res: &domain.RouteResult{
		RouteOrder:        []string{},
		UnresolvedReturns: []string{"D2"},
	}}
	h := NewRouteHandler(opt, domain.DefaultPriorityRanking())

	rr := postRoute(t, h, validBody)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp dto.RouteResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, []string{"D2"}, resp.UnresolvedReturns)
}

func TestCalculateRouteMethodNotAllowed(t *testing.T) {
	opt := &fakeOptimizer{}
	h := NewRouteHandler(opt, domain.DefaultPriorityRanking())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/calculate-route", nil)
	rr := httptest.NewRecorder()
	h.CalculateRoute(rr, req)

	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	require.Equal(t, http.MethodPost, rr.Header().Get("Allow"))
	require.Zero(t, opt.calls)
}

func TestCalculateRouteBadJSON(t *testing.T) {
	cases := map[string]string{
		"malformed":     `{"depot_coord": [`,
		"unknown field": `{"depot": [1, 2]}`,
		"trailing":      validBody + `{}`,
		"wrong type":    `{"depot_coord": "here"}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			opt := &fakeOptimizer{}
			h := NewRouteHandler(opt, domain.DefaultPriorityRanking())

			rr := postRoute(t, h, body)
			require.Equal(t, http.StatusBadRequest, rr.Code)
			require.Zero(t, opt.calls)
		})
	}
}

func TestCalculateRouteValidation(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		field string
	}{
		{
			name:  "missing deliveries",
			body:  `{"depot_coord": [1, 2], "warehouses": [{"id": "W1", "coord": [1, 2]}]}`,
			field: "deliveries: required",
		},
		{
			name: "duplicate delivery ids",
			body: `{"depot_coord": [1, 2],
				"deliveries": [
					{"id": "D1", "coord": [1, 2], "demand": 1, "origin_warehouse": "W1", "service_time": 5},
					{"id": "D1", "coord": [1, 3], "demand": 1, "origin_warehouse": "W1", "service_time": 5}],
				"warehouses": [{"id": "W1", "coord": [1, 2]}]}`,
			field: "deliveries: unique=ID",
		},
		{
			name: "latitude out of range",
			body: `{"depot_coord": [91, 2],
				"deliveries": [{"id": "D1", "coord": [1, 2], "demand": 1, "origin_warehouse": "W1", "service_time": 5}],
				"warehouses": [{"id": "W1", "coord": [1, 2]}]}`,
			field: "depot_coord: coord",
		},
		{
			name: "unknown priority",
			body: `{"depot_coord": [1, 2],
				"deliveries": [{"id": "D1", "coord": [1, 2], "priority": "asap", "demand": 1, "origin_warehouse": "W1", "service_time": 5}],
				"warehouses": [{"id": "W1", "coord": [1, 2]}]}`,
			field: "deliveries[0].priority: priority",
		},
		{
			name: "inverted time window",
			body: `{"depot_coord": [1, 2],
				"deliveries": [{"id": "D1", "coord": [1, 2], "demand": 1, "origin_warehouse": "W1", "service_time": 5, "time_window": [600, 300]}],
				"warehouses": [{"id": "W1", "coord": [1, 2]}]}`,
			field: "deliveries[0].time_window: timewindow",
		},
		{
			name: "non-positive demand",
			body: `{"depot_coord": [1, 2],
				"deliveries": [{"id": "D1", "coord": [1, 2], "demand": 0, "origin_warehouse": "W1", "service_time": 5}],
				"warehouses": [{"id": "W1", "coord": [1, 2]}]}`,
			field: "deliveries[0].demand: gt=0",
		},
		{
			name: "usage above capacity",
			body: `{"depot_coord": [1, 2],
				"deliveries": [{"id": "D1", "coord": [1, 2], "demand": 1, "origin_warehouse": "W1", "service_time": 5}],
				"warehouses": [{"id": "W1", "coord": [1, 2], "capacity": 10, "usage": 11}]}`,
			field: "warehouses[0].usage: usagecapacity",
		},
		{
			name: "usage above default capacity",
			body: `{"depot_coord": [1, 2],
				"deliveries": [{"id": "D1", "coord": [1, 2], "demand": 1, "origin_warehouse": "W1", "service_time": 5}],
				"warehouses": [{"id": "W1", "coord": [1, 2], "usage": 101}]}`,
			field: "warehouses[0].usage: usagecapacity",
		},
		{
			name: "negative stock",
			body: `{"depot_coord": [1, 2],
				"deliveries": [{"id": "D1", "coord": [1, 2], "demand": 1, "origin_warehouse": "W1", "service_time": 5}],
				"warehouses": [{"id": "W1", "coord": [1, 2], "stock": {"sku": -1}}]}`,
			field: "warehouses[0].stock[sku]: gte=0",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opt := &fakeOptimizer{}
			h := NewRouteHandler(opt, domain.DefaultPriorityRanking())

			rr := postRoute(t, h, tc.body)
			require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

			var resp dto.ValidationErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			require.Equal(t, "validation failed", resp.Error)
			require.Contains(t, resp.Fields, tc.field)
			require.Zero(t, opt.calls)
		})
	}
}

func TestCalculateRouteCustomRanking(t *testing.T) {
	ranking, err := domain.NewPriorityRanking([]domain.PriorityLevel{{Name: "asap", Rank: 9}, {Name: "whenever", Rank: 1}})
	require.NoError(t, err)

	opt := &fakeOptimizer{res: &domain.RouteResult{}}
	h := NewRouteHandler(opt, ranking)

	body := `{"depot_coord": [1, 2],
		"deliveries": [{"id": "D1", "coord": [1, 2], "priority": "ASAP", "demand": 1, "origin_warehouse": "W1", "service_time": 5}],
		"warehouses": [{"id": "W1", "coord": [1, 2]}]}`
	rr := postRoute(t, h, body)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ASAP", opt.got.Deliveries[0].Priority)
}

func TestCalculateRouteOptimizerError(t *testing.T) {
	opt := &fakeOptimizer{err: errors.New("matrix: provider unreachable")}
	h := NewRouteHandler(opt, domain.DefaultPriorityRanking())

	rr := postRoute(t, h, validBody)
	require.Equal(t, http.StatusInternalServerError, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "internal server error", resp["error"])
}

func TestHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	Health(rr, httptest.NewRequest(http.MethodPost, "/health", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestNewValidatorRegistersTags(t *testing.T) {
	v := newValidator(domain.DefaultPriorityRanking())

	full := 10
	require.NoError(t, v.Struct(dto.WarehouseRequest{ID: "W1", Coord: []float64{1, 2}, Capacity: &full, Usage: &full}))
	require.NoError(t, v.Var([]int{0, 1440}, "timewindow"))
	require.Error(t, v.Var([]float64{1}, "coord"))
	require.Error(t, v.Var("someday", "priority"))
}
