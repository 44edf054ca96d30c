package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"route-optimizer-service/internal/api/dto"
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/platform/obs"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

const (
	defaultVehicleCapacity   = 20
	defaultWarehouseCapacity = 100
	maxRequestBytes          = 1 << 20
)

// RouteOptimizer computes a route for a validated request.
type RouteOptimizer interface {
	Optimize(ctx context.Context, req domain.RouteRequest) (*domain.RouteResult, error)
}

type RouteHandler struct {
	Optimizer RouteOptimizer

	validate *validator.Validate
}

// NewRouteHandler accepts priorities known to ranking.
func NewRouteHandler(optimizer RouteOptimizer, ranking domain.PriorityRanking) *RouteHandler {
	return &RouteHandler{
		Optimizer: optimizer,
		validate:  newValidator(ranking),
	}
}

// CalculateRoute decodes and validates a route request, runs the optimizer and
// renders the route order, map link and message.
func (h *RouteHandler) CalculateRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.RouteRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, r, http.StatusUnprocessableEntity, dto.ValidationErrorResponse{
			Error:  "validation failed",
			Fields: fieldErrors(err),
		})
		return
	}

	res, err := h.Optimizer.Optimize(r.Context(), toDomain(req))
	if err != nil {
		log.Error().Str("req_id", obs.RequestID(r.Context())).Err(err).Msg("calculate route failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	order := res.RouteOrder
	if order == nil {
		order = []string{}
	}
	writeJSON(w, r, http.StatusOK, dto.RouteResponse{
		RouteOrder:        order,
		OsmURL:            res.MapLink,
		Message:           res.Message,
		UnresolvedReturns: res.UnresolvedReturns,
	})
}

// toDomain applies request defaults and converts a validated request.
func toDomain(req dto.RouteRequest) domain.RouteRequest {
	out := domain.RouteRequest{
		Depot:           coordOf(req.DepotCoord),
		VehicleCapacity: defaultVehicleCapacity,
		Deliveries:      make([]domain.Delivery, 0, len(req.Deliveries)),
		Warehouses:      make([]domain.Warehouse, 0, len(req.Warehouses)),
	}
	if req.VehicleCapacity != nil {
		out.VehicleCapacity = *req.VehicleCapacity
	}

	for _, d := range req.Deliveries {
		priority := d.Priority
		if priority == "" {
			priority = domain.PriorityMedium
		}
		window := domain.FullDay()
		if len(d.TimeWindow) == 2 {
			window = domain.TimeWindow{Start: d.TimeWindow[0], End: d.TimeWindow[1]}
		}
		items := make([]domain.Item, 0, len(d.Items))
		for _, it := range d.Items {
			items = append(items, domain.Item{ItemID: it.GUID, Count: it.Count})
		}

		out.Deliveries = append(out.Deliveries, domain.Delivery{
			ID:              d.ID,
			Coord:           coordOf(d.Coord),
			Priority:        priority,
			Demand:          d.Demand,
			Items:           items,
			Refused:         d.Refused,
			OriginWarehouse: d.OriginWarehouse,
			Window:          window,
			ServiceMinutes:  d.ServiceTime,
		})
	}

	for _, wh := range req.Warehouses {
		capacity := defaultWarehouseCapacity
		if wh.Capacity != nil {
			capacity = *wh.Capacity
		}
		usage := 0
		if wh.Usage != nil {
			usage = *wh.Usage
		}
		stock := make(map[string]int, len(wh.Stock))
		for k, v := range wh.Stock {
			stock[k] = v
		}

		out.Warehouses = append(out.Warehouses, domain.Warehouse{
			ID:       wh.ID,
			Coord:    coordOf(wh.Coord),
			Stock:    stock,
			Capacity: capacity,
			Usage:    usage,
		})
	}

	return out
}

func coordOf(c []float64) domain.Coordinates {
	if len(c) != 2 {
		return domain.Coordinates{}
	}
	return domain.Coordinates{Lat: c[0], Lon: c[1]}
}
