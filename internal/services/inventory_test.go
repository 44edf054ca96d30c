package services

import (
	"context"
	"route-optimizer-service/internal/domain"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInventory_Debit(t *testing.T) {
	src := []domain.Warehouse{{ID: "W1", Capacity: 100, Usage: 5, Stock: map[string]int{"a": 3, "b": 10}}}
	inv := NewInventory(context.Background(), src)

	inv.Debit(context.Background(), domain.Delivery{
		ID: "D1", OriginWarehouse: "W1",
		Items: []domain.Item{{ItemID: "a", Count: 2}, {ItemID: "b", Count: 1}},
	})
	w := inv.Warehouse(0)
	require.Equal(t, 2, w.Usage)
	require.Equal(t, map[string]int{"a": 1, "b": 9}, w.Stock)
	require.Zero(t, inv.Anomalies())

	// insufficient stock leaves the item unchanged; usage goes negative
	inv.Debit(context.Background(), domain.Delivery{
		ID: "D2", OriginWarehouse: "W1",
		Items: []domain.Item{{ItemID: "a", Count: 5}},
	})
	w = inv.Warehouse(0)
	require.Equal(t, -3, w.Usage)
	require.Equal(t, 1, w.Stock["a"])
	require.Equal(t, 2, inv.Anomalies())

	inv.Debit(context.Background(), domain.Delivery{ID: "D3", OriginWarehouse: "W9"})
	require.Equal(t, 3, inv.Anomalies())

	// the source is never aliased
	require.Equal(t, 5, src[0].Usage)
	require.Equal(t, 3, src[0].Stock["a"])
}

func TestInventory_NearestWithRoom(t *testing.T) {
	inv := NewInventory(context.Background(), []domain.Warehouse{
		{ID: "FAR", Coord: domain.Coordinates{Lat: 10, Lon: 10}, Capacity: 100},
		{ID: "FULL", Coord: domain.Coordinates{Lat: 0, Lon: 0.1}, Capacity: 10, Usage: 8},
		{ID: "NEAR", Coord: domain.Coordinates{Lat: 0, Lon: 0.5}, Capacity: 10},
		{ID: "NEAR_TWIN", Coord: domain.Coordinates{Lat: 0, Lon: 0.5}, Capacity: 10},
	})

	i, ok := inv.NearestWithRoom(domain.Coordinates{}, 3)
	require.True(t, ok)
	require.Equal(t, "NEAR", inv.Warehouse(i).ID)

	i, ok = inv.NearestWithRoom(domain.Coordinates{}, 2)
	require.True(t, ok)
	require.Equal(t, "FULL", inv.Warehouse(i).ID)

	_, ok = inv.NearestWithRoom(domain.Coordinates{}, 101)
	require.False(t, ok)
}

func TestInventory_Credit(t *testing.T) {
	inv := NewInventory(context.Background(), []domain.Warehouse{{ID: "W1", Capacity: 10, Usage: 2}})
	inv.Credit(0, domain.Delivery{Items: []domain.Item{{ItemID: "a", Count: 3}, {ItemID: "a", Count: 1}}})

	w := inv.Warehouse(0)
	require.Equal(t, 6, w.Usage)
	require.Equal(t, 4, w.Stock["a"])
}

func TestInventory_OverCapacitySnapshotIsAnomaly(t *testing.T) {
	inv := NewInventory(context.Background(), []domain.Warehouse{
		{ID: "W1", Capacity: 10, Usage: 4},
		{ID: "W2", Capacity: 10, Usage: 12},
	})

	require.Equal(t, 1, inv.Anomalies())
	require.Equal(t, 12, inv.Warehouse(1).Usage)

	// a full warehouse never takes returns
	_, ok := inv.NearestWithRoom(domain.Coordinates{}, 0)
	require.True(t, ok)
	i, _ := inv.NearestWithRoom(domain.Coordinates{}, 7)
	require.Equal(t, -1, i)
}
