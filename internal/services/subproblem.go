package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/platform/obs"
	"route-optimizer-service/internal/ports"
	"route-optimizer-service/internal/solver"
)

const (
	warehouseServiceMinutes = 5

	// Skip penalties: a delivery costs rank × deliveryPenaltyPerRank to skip,
	// a warehouse costs warehouseSkipPenalty.
	deliveryPenaltyPerRank = 20000
	warehouseSkipPenalty   = 100000
)

// Subproblem is the routing instance assembled for one run.
// Nodes are ordered depot, warehouses (input order), deliveries (input order);
// Time and Distances follow the same order.
type Subproblem struct {
	Nodes []domain.Node
	// Time[i][j] is ceil(duration seconds / 60).
	Time      [][]int
	Distances [][]float64

	// copies of the input deliveries keyed by id
	deliveries map[string]domain.Delivery
}

// Build the routing subproblem and fetch its travel matrices from provider.
//
// Fails with no partial result when the provider fails or returns a matrix
// whose shape does not match the node count.
func BuildSubproblem(
	ctx context.Context,
	depot domain.Coordinates,
	warehouses []domain.Warehouse,
	deliveries []domain.Delivery,
	provider ports.DistanceMatrixProvider,
) (_ *Subproblem, err error) {
	defer obs.Time(ctx, "subproblem.Build")(&err)

	if provider == nil {
		return nil, errors.New("build subproblem: provider is nil")
	}

	nodes := make([]domain.Node, 0, 1+len(warehouses)+len(deliveries))
	nodes = append(nodes, domain.Node{
		Kind:   domain.NodeDepot,
		Coord:  depot,
		Window: domain.FullDay(),
	})

	sp := &Subproblem{
		deliveries: make(map[string]domain.Delivery, len(deliveries)),
	}

	for _, w := range warehouses {
		nodes = append(nodes, domain.Node{
			Kind:           domain.NodeWarehouse,
			RefID:          w.ID,
			Coord:          w.Coord,
			Window:         domain.FullDay(),
			ServiceMinutes: warehouseServiceMinutes,
		})
	}

	for _, d := range deliveries {
		nodes = append(nodes, domain.Node{
			Kind:           domain.NodeDelivery,
			RefID:          d.ID,
			Coord:          d.Coord,
			Window:         d.Window,
			ServiceMinutes: d.ServiceMinutes,
			Demand:         d.Demand,
		})
		sp.deliveries[d.ID] = copyDelivery(d)
	}

	coords := make([]domain.Coordinates, len(nodes))
	for i, n := range nodes {
		coords[i] = n.Coord
	}

	m, err := provider.GetMatrix(ctx, coords)
	if err != nil {
		return nil, fmt.Errorf("build subproblem: get matrix for %d nodes: %w", len(nodes), err)
	}
	if m == nil || m.Distances == nil || m.Durations == nil {
		return nil, fmt.Errorf("build subproblem: %w: distances or durations missing", ports.ErrMalformedMatrix)
	}
	if m.Size() != len(nodes) {
		return nil, fmt.Errorf("build subproblem: %w: want %d×%d", ports.ErrMalformedMatrix, len(nodes), len(nodes))
	}

	sp.Nodes = nodes
	sp.Distances = m.Distances
	sp.Time = make([][]int, len(nodes))
	for i, row := range m.Durations {
		sp.Time[i] = make([]int, len(row))
		for j, sec := range row {
			if sec < 0 || math.IsNaN(sec) || math.IsInf(sec, 0) {
				return nil, fmt.Errorf("build subproblem: %w: duration[%d][%d]=%v", ports.ErrMalformedMatrix, i, j, sec)
			}
			sp.Time[i][j] = int(math.Ceil(sec / 60))
		}
	}

	return sp, nil
}

// Delivery returns the delivery behind a delivery node.
func (sp *Subproblem) Delivery(node int) (domain.Delivery, bool) {
	if node < 0 || node >= len(sp.Nodes) || sp.Nodes[node].Kind != domain.NodeDelivery {
		return domain.Delivery{}, false
	}
	d, ok := sp.deliveries[sp.Nodes[node].RefID]
	return d, ok
}

// SolverProblem translates the subproblem into a solver instance.
//
// Precedence pairs are generated over every ordered pair of deliveries with
// distinct ranks, O(n²) in the number of deliveries. Single-vehicle instances
// stay in the tens of nodes.
func (sp *Subproblem) SolverProblem(ranking domain.PriorityRanking, vehicleCapacity int) solver.Problem {
	n := len(sp.Nodes)
	p := solver.Problem{
		Time:     sp.Time,
		Service:  make([]int, n),
		Windows:  make([]solver.Window, n),
		Demand:   make([]int, n),
		Penalty:  make([]int, n),
		Capacity: vehicleCapacity,
		Horizon:  domain.DayMinutes,
	}

	ranks := make([]int, n)
	deliveryNodes := make([]int, 0, n)
	for i, node := range sp.Nodes {
		p.Service[i] = node.ServiceMinutes
		p.Windows[i] = solver.Window{Start: node.Window.Start, End: node.Window.End}
		p.Demand[i] = node.Demand

		switch node.Kind {
		case domain.NodeWarehouse:
			p.Penalty[i] = warehouseSkipPenalty
		case domain.NodeDelivery:
			d := sp.deliveries[node.RefID]
			rank, _ := ranking.Rank(d.Priority)
			ranks[i] = rank
			p.Penalty[i] = rank * deliveryPenaltyPerRank
			deliveryNodes = append(deliveryNodes, i)
		}
	}

	for _, i := range deliveryNodes {
		for _, j := range deliveryNodes {
			if ranks[i] > ranks[j] {
				p.Precedence = append(p.Precedence, solver.Precedence{Before: i, After: j})
			}
		}
	}

	return p
}

func copyDelivery(d domain.Delivery) domain.Delivery {
	d.Items = append([]domain.Item(nil), d.Items...)
	return d
}
