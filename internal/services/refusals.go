package services

import (
	"context"
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/metrics"
	"route-optimizer-service/internal/platform/obs"
	"route-optimizer-service/internal/solver"

	"github.com/rs/zerolog/log"
)

// Return outcomes for refused deliveries.
const (
	ReturnCompleted  = "returned"
	ReturnUnresolved = "unresolved"
)

// Reconciliation is the route after refusals and inventory have been settled.
type Reconciliation struct {
	Steps []domain.RouteStep
	// Skipped lists delivery ids the solver left out, in input order.
	Skipped []string
	// Unresolved lists refused delivery ids no warehouse could take back.
	Unresolved []string
}

// Reconcile turns a solution into route steps, debits served deliveries,
// returns refused ones to the nearest warehouse with room, and logs the
// resulting inventory.
//
// Skipped deliveries are marked refused but produce no step: the vehicle never
// carried them, so nothing is debited or returned.
func Reconcile(ctx context.Context, sp *Subproblem, sol *solver.Solution, inv *Inventory) *Reconciliation {
	rec := &Reconciliation{}

	for _, node := range sol.Skipped {
		kind := sp.Nodes[node].Kind
		metrics.SkippedNodes.WithLabelValues(kind.String()).Inc()
		if kind == domain.NodeDelivery {
			rec.Skipped = append(rec.Skipped, sp.Nodes[node].RefID)
		}
	}
	if len(rec.Skipped) > 0 {
		log.Info().Str("req_id", obs.RequestID(ctx)).Strs("delivery_ids", rec.Skipped).
			Msg("deliveries skipped by solver, marked refused")
	}

	steps := routeSteps(sp, sol)

	for _, st := range steps {
		if st.Kind != domain.StepDeliveryVisit || st.Refused {
			continue
		}
		d, _ := sp.Delivery(st.Node)
		inv.Debit(ctx, d)
	}

	rec.Steps, rec.Unresolved = handleRefusals(ctx, sp, steps, inv)

	inv.LogSnapshot(ctx)
	return rec
}

func routeSteps(sp *Subproblem, sol *solver.Solution) []domain.RouteStep {
	steps := make([]domain.RouteStep, 0, len(sol.Route))
	for k, node := range sol.Route {
		arrive := sol.Arrivals[k]
		n := sp.Nodes[node]
		st := domain.RouteStep{Node: node, RefID: n.RefID, ArriveAt: &arrive}

		switch n.Kind {
		case domain.NodeDepot:
			st.Kind = domain.StepDepot
		case domain.NodeWarehouse:
			st.Kind = domain.StepWarehouseVisit
		case domain.NodeDelivery:
			st.Kind = domain.StepDeliveryVisit
			d, _ := sp.Delivery(node)
			st.Refused = d.Refused
		}
		steps = append(steps, st)
	}
	return steps
}

// handleRefusals inserts a WarehouseReturn step after every refused delivery
// step. A refusal no warehouse can absorb is logged and reported as unresolved.
func handleRefusals(
	ctx context.Context,
	sp *Subproblem,
	steps []domain.RouteStep,
	inv *Inventory,
) ([]domain.RouteStep, []string) {
	reqID := obs.RequestID(ctx)

	out := make([]domain.RouteStep, 0, len(steps))
	var unresolved []string

	for _, st := range steps {
		if st.Kind != domain.StepDeliveryVisit || !st.Refused {
			out = append(out, st)
			continue
		}

		d, _ := sp.Delivery(st.Node)
		st.RefusalTag = "REFUSED_" + d.ID
		out = append(out, st)
		log.Info().Str("req_id", reqID).Str("delivery_id", d.ID).Str("tag", st.RefusalTag).
			Msg("delivery refused")

		items := d.TotalItems()
		i, ok := inv.NearestWithRoom(d.Coord, items)
		if !ok {
			unresolved = append(unresolved, d.ID)
			metrics.WarehouseReturns.WithLabelValues(ReturnUnresolved).Inc()
			log.Error().Str("req_id", reqID).Str("delivery_id", d.ID).Int("items", items).
				Msg("all warehouses full, cannot return refused delivery")
			continue
		}

		inv.Credit(i, d)
		w := inv.Warehouse(i)
		metrics.WarehouseReturns.WithLabelValues(ReturnCompleted).Inc()
		log.Info().Str("req_id", reqID).Str("delivery_id", d.ID).Str("warehouse_id", w.ID).
			Int("usage", w.Usage).Int("capacity", w.Capacity).
			Msg("refused delivery returned to warehouse")

		// Return steps have no location of their own; the warehouse is in RefID.
		out = append(out, domain.RouteStep{
			Node:     -1,
			Kind:     domain.StepWarehouseReturn,
			RefID:    w.ID,
			ReturnOf: d.ID,
			Note:     "return of refused delivery " + d.ID,
		})
	}

	return out, unresolved
}
