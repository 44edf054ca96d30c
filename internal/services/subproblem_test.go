package services

import (
	"context"
	"route-optimizer-service/internal/adapters/distance"
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/ports"
	"route-optimizer-service/internal/solver"
	"testing"

	"github.com/stretchr/testify/require"
)

func threeNodeMatrix() *ports.TravelMatrix {
	return &ports.TravelMatrix{
		Distances: [][]float64{{0, 100, 200}, {100, 0, 150}, {200, 150, 0}},
		Durations: [][]float64{{0, 61, 120}, {59, 0, 0.5}, {120, 600, 0}},
	}
}

func TestBuildSubproblem(t *testing.T) {
	wh := []domain.Warehouse{{ID: "W1", Coord: domain.Coordinates{Lat: 1, Lon: 1}, Capacity: 10}}
	dl := []domain.Delivery{{
		ID: "D1", Coord: domain.Coordinates{Lat: 2, Lon: 2}, Priority: "high", Demand: 4,
		Window: domain.TimeWindow{Start: 480, End: 600}, ServiceMinutes: 12,
		Items: []domain.Item{{ItemID: "x", Count: 2}},
	}}

	sp, err := BuildSubproblem(context.Background(), domain.Coordinates{}, wh, dl, distance.NewMockDistanceProvider(threeNodeMatrix()))
	require.NoError(t, err)

	require.Len(t, sp.Nodes, 3)
	require.Equal(t, domain.Node{Kind: domain.NodeDepot, Window: domain.FullDay()}, sp.Nodes[0])
	require.Equal(t, domain.NodeWarehouse, sp.Nodes[1].Kind)
	require.Equal(t, 5, sp.Nodes[1].ServiceMinutes)
	require.Zero(t, sp.Nodes[1].Demand)
	require.Equal(t, domain.NodeDelivery, sp.Nodes[2].Kind)
	require.Equal(t, domain.TimeWindow{Start: 480, End: 600}, sp.Nodes[2].Window)
	require.Equal(t, 12, sp.Nodes[2].ServiceMinutes)
	require.Equal(t, 4, sp.Nodes[2].Demand)

	require.Equal(t, [][]int{{0, 2, 2}, {1, 0, 1}, {2, 10, 0}}, sp.Time)
	require.Equal(t, domain.NodeWarehouse, sp.Nodes[1].Kind)
	require.Equal(t, "W1", sp.Nodes[1].RefID)

	d, ok := sp.Delivery(2)
	require.True(t, ok)
	require.Equal(t, "D1", d.ID)
	_, ok = sp.Delivery(1)
	require.False(t, ok)

	// the subproblem owns its copy of the items
	dl[0].Items[0].Count = 99
	d, _ = sp.Delivery(2)
	require.Equal(t, 2, d.Items[0].Count)
}

func TestBuildSubproblem_MalformedMatrix(t *testing.T) {
	wh := []domain.Warehouse{{ID: "W1"}}
	dl := []domain.Delivery{{ID: "D1"}, {ID: "D2"}}

	testCases := []struct {
		name   string
		matrix *ports.TravelMatrix
	}{
		{name: "WrongSize", matrix: threeNodeMatrix()},
		{name: "MissingDurations", matrix: &ports.TravelMatrix{Distances: make([][]float64, 4)}},
		{name: "MissingDistances", matrix: &ports.TravelMatrix{Durations: make([][]float64, 4)}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildSubproblem(context.Background(), domain.Coordinates{}, wh, dl, distance.NewMockDistanceProvider(tc.matrix))
			require.ErrorIs(t, err, ports.ErrMalformedMatrix)
		})
	}
}

func TestBuildSubproblem_ProviderTimeout(t *testing.T) {
	_, err := BuildSubproblem(
		context.Background(),
		domain.Coordinates{},
		[]domain.Warehouse{{ID: "W1"}},
		[]domain.Delivery{{ID: "D1"}},
		distance.NewFailingDistanceProvider(ports.ErrProviderTimeout),
	)
	require.ErrorIs(t, err, ports.ErrProviderTimeout)
}

func TestSolverProblem(t *testing.T) {
	n := 5
	m := &ports.TravelMatrix{Distances: make([][]float64, n), Durations: make([][]float64, n)}
	for i := range m.Distances {
		m.Distances[i] = make([]float64, n)
		m.Durations[i] = make([]float64, n)
	}
	dl := []domain.Delivery{
		{ID: "LOW", Priority: "low", Demand: 1, Window: domain.FullDay(), ServiceMinutes: 1},
		{ID: "CRIT", Priority: "CRITICAL", Demand: 2, Window: domain.FullDay(), ServiceMinutes: 1},
		{ID: "LOW2", Priority: "low", Demand: 3, Window: domain.FullDay(), ServiceMinutes: 1},
	}

	sp, err := BuildSubproblem(context.Background(), domain.Coordinates{}, []domain.Warehouse{{ID: "W1"}}, dl, distance.NewMockDistanceProvider(m))
	require.NoError(t, err)

	p := sp.SolverProblem(domain.DefaultPriorityRanking(), 20)
	require.Equal(t, 20, p.Capacity)
	require.Equal(t, []int{0, 100000, 20000, 100000, 20000}, p.Penalty)
	require.Equal(t, []int{0, 0, 1, 2, 3}, p.Demand)
	require.ElementsMatch(t, []solver.Precedence{{Before: 3, After: 2}, {Before: 3, After: 4}}, p.Precedence)
}
