package services

import (
	"context"
	"errors"
	"fmt"
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/metrics"
	"route-optimizer-service/internal/platform/obs"
	"route-optimizer-service/internal/ports"
	"route-optimizer-service/internal/solver"
	"time"

	"github.com/rs/zerolog/log"
)

// RouteOptimizer runs the full pipeline: build the subproblem, solve it,
// reconcile refusals and inventory, then present the result.
//
// It holds no per-run state and is safe for concurrent use.
type RouteOptimizer struct {
	Provider ports.DistanceMatrixProvider
	MapLinks ports.MapLinkBuilder
	Ranking  domain.PriorityRanking
	Solver   solver.Options
}

// Optimize computes a route for req. Only distance provider failures are
// returned as errors; an infeasible instance yields the no-solution result.
func (o *RouteOptimizer) Optimize(ctx context.Context, req domain.RouteRequest) (_ *domain.RouteResult, err error) {
	defer obs.Time(ctx, "optimizer.Optimize")(&err)
	defer func() {
		if err != nil {
			metrics.Optimizations.WithLabelValues("error").Inc()
		}
	}()

	reqID := obs.RequestID(ctx)
	deliveries := make([]domain.Delivery, len(req.Deliveries))
	for i, d := range req.Deliveries {
		deliveries[i] = copyDelivery(d)
		log.Debug().Str("req_id", reqID).Str("delivery_id", d.ID).Str("priority", d.Priority).
			Float64("lat", d.Coord.Lat).Float64("lon", d.Coord.Lon).
			Msg("delivery received")
	}
	inv := NewInventory(ctx, req.Warehouses)

	sp, err := BuildSubproblem(ctx, req.Depot, inv.Snapshot(), deliveries, o.Provider)
	if err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}

	sol, err := o.solve(ctx, sp, req.VehicleCapacity)
	if errors.Is(err, solver.ErrInfeasible) {
		log.Warn().Str("req_id", reqID).Msg("no feasible route")
		metrics.Optimizations.WithLabelValues("no_solution").Inc()
		return &domain.RouteResult{
			RouteOrder: []string{},
			Message:    MessageNoSolution,
			Warehouses: inv.Snapshot(),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}

	rec := Reconcile(ctx, sp, sol, inv)
	view := Present(ctx, sp, rec.Steps, o.MapLinks)

	log.Info().Str("req_id", reqID).
		Strs("actual_order", view.RouteOrder).
		Strs("expected_order", expectedOrder(deliveries, rec.Skipped, o.ranking())).
		Msg("delivery order")

	status := "ok"
	if view.Message != MessageOK {
		status = "no_solution"
	}
	metrics.Optimizations.WithLabelValues(status).Inc()

	return &domain.RouteResult{
		RouteOrder:        view.RouteOrder,
		MapLink:           view.MapLink,
		Message:           view.Message,
		Steps:             rec.Steps,
		Skipped:           rec.Skipped,
		UnresolvedReturns: rec.Unresolved,
		Warehouses:        inv.Snapshot(),
	}, nil
}

func (o *RouteOptimizer) solve(ctx context.Context, sp *Subproblem, capacity int) (_ *solver.Solution, err error) {
	defer obs.Time(ctx, "solver.Solve")(&err)

	start := time.Now()
	sol, err := solver.Solve(ctx, sp.SolverProblem(o.ranking(), capacity), o.Solver)
	metrics.SolverDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	log.Debug().Str("req_id", obs.RequestID(ctx)).
		Ints("route", sol.Route).Ints("arrivals", sol.Arrivals).Ints("skipped", sol.Skipped).
		Int("objective", sol.Objective).Int("iterations", sol.Iterations).
		Msg("solver finished")
	return sol, nil
}

func (o *RouteOptimizer) ranking() domain.PriorityRanking {
	if len(o.Ranking.Names()) == 0 {
		return domain.DefaultPriorityRanking()
	}
	return o.Ranking
}
