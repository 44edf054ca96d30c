package services

import (
	"context"
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/metrics"
	"route-optimizer-service/internal/platform/obs"

	"github.com/rs/zerolog/log"
)

// Anomaly kinds reported by the inventory.
const (
	AnomalyNegativeUsage     = "negative_usage"
	AnomalyInsufficientStock = "insufficient_stock"
	AnomalyUnknownWarehouse  = "unknown_warehouse"
	AnomalyOverCapacity      = "usage_over_capacity"
)

// Inventory is a request-scoped snapshot of warehouse stock and usage.
// It owns deep copies of the caller's warehouses.
type Inventory struct {
	warehouses []domain.Warehouse
	index      map[string]int
	anomalies  int
}

// NewInventory copies warehouses. A warehouse already above capacity is kept
// as given and recorded as an anomaly.
func NewInventory(ctx context.Context, warehouses []domain.Warehouse) *Inventory {
	inv := &Inventory{
		warehouses: make([]domain.Warehouse, len(warehouses)),
		index:      make(map[string]int, len(warehouses)),
	}
	for i, w := range warehouses {
		inv.warehouses[i] = copyWarehouse(w)
		inv.index[w.ID] = i

		if w.Usage > w.Capacity {
			inv.anomaly(AnomalyOverCapacity)
			log.Warn().Str("req_id", obs.RequestID(ctx)).Str("warehouse_id", w.ID).
				Int("usage", w.Usage).Int("capacity", w.Capacity).
				Msg("warehouse usage exceeds capacity")
		}
	}
	return inv
}

// Debit records a served delivery against its origin warehouse: usage drops by
// the delivery's item count and stock drops per item. Anomalies are logged and
// counted; an item with insufficient stock is left unchanged.
func (inv *Inventory) Debit(ctx context.Context, d domain.Delivery) {
	reqID := obs.RequestID(ctx)

	i, ok := inv.index[d.OriginWarehouse]
	if !ok {
		inv.anomaly(AnomalyUnknownWarehouse)
		log.Warn().Str("req_id", reqID).Str("delivery_id", d.ID).Str("warehouse_id", d.OriginWarehouse).
			Msg("delivery has unknown origin warehouse")
		return
	}
	w := &inv.warehouses[i]

	w.Usage -= d.TotalItems()
	if w.Usage < 0 {
		inv.anomaly(AnomalyNegativeUsage)
		log.Error().Str("req_id", reqID).Str("warehouse_id", w.ID).Int("usage", w.Usage).
			Msg("warehouse usage went negative")
	}

	for _, it := range d.Items {
		have := w.Stock[it.ItemID]
		if have < it.Count {
			inv.anomaly(AnomalyInsufficientStock)
			log.Error().Str("req_id", reqID).Str("warehouse_id", w.ID).Str("item_id", it.ItemID).
				Int("required", it.Count).Int("available", have).
				Msg("insufficient stock")
			continue
		}
		w.Stock[it.ItemID] = have - it.Count
	}
}

// NearestWithRoom returns the index of the warehouse closest to coord (haversine)
// whose usage plus items stays within capacity. Ties keep input order.
func (inv *Inventory) NearestWithRoom(coord domain.Coordinates, items int) (int, bool) {
	best, bestKm := -1, 0.0
	for i, w := range inv.warehouses {
		if w.Usage+items > w.Capacity {
			continue
		}
		km := domain.HaversineKm(coord, w.Coord)
		if best < 0 || km < bestKm {
			best, bestKm = i, km
		}
	}
	return best, best >= 0
}

// Credit returns a refused delivery's items to warehouse i.
func (inv *Inventory) Credit(i int, d domain.Delivery) {
	w := &inv.warehouses[i]
	for _, it := range d.Items {
		w.Stock[it.ItemID] += it.Count
	}
	w.Usage += d.TotalItems()
}

// Warehouse returns a copy of warehouse i.
func (inv *Inventory) Warehouse(i int) domain.Warehouse {
	return copyWarehouse(inv.warehouses[i])
}

// Anomalies reports how many accounting anomalies were recorded.
func (inv *Inventory) Anomalies() int { return inv.anomalies }

// Snapshot returns deep copies of every warehouse in input order.
func (inv *Inventory) Snapshot() []domain.Warehouse {
	out := make([]domain.Warehouse, len(inv.warehouses))
	for i, w := range inv.warehouses {
		out[i] = copyWarehouse(w)
	}
	return out
}

// LogSnapshot logs usage and stock of every warehouse.
func (inv *Inventory) LogSnapshot(ctx context.Context) {
	reqID := obs.RequestID(ctx)
	for _, w := range inv.warehouses {
		log.Info().Str("req_id", reqID).Str("warehouse_id", w.ID).
			Int("usage", w.Usage).Int("capacity", w.Capacity).
			Interface("stock", w.Stock).
			Msg("warehouse snapshot")
	}
}

func (inv *Inventory) anomaly(kind string) {
	inv.anomalies++
	metrics.InventoryAnomalies.WithLabelValues(kind).Inc()
}

func copyWarehouse(w domain.Warehouse) domain.Warehouse {
	stock := make(map[string]int, len(w.Stock))
	for k, v := range w.Stock {
		stock[k] = v
	}
	w.Stock = stock
	return w
}
