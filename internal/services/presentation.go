package services

import (
	"context"
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/platform/obs"
	"route-optimizer-service/internal/ports"
	"sort"

	"github.com/rs/zerolog/log"
)

const (
	MessageOK         = "OK"
	MessageNoSolution = "No solution found (all deliveries skipped)"
)

// Presentation is the externally visible view of a reconciled route.
type Presentation struct {
	RouteOrder []string
	MapLink    string
	Message    string
}

// Present derives the delivery order, map link and message from route steps.
//
// The order lists served (non-refused) delivery ids in visiting order, each at
// most once. When it is empty the message reports no solution and the link is
// blank. Steps without a node, such as warehouse returns, stay out of the link.
func Present(
	ctx context.Context,
	sp *Subproblem,
	steps []domain.RouteStep,
	links ports.MapLinkBuilder,
) Presentation {
	reqID := obs.RequestID(ctx)

	order := make([]string, 0, len(steps))
	seen := make(map[string]struct{}, len(steps))
	for _, st := range steps {
		if st.Kind != domain.StepDeliveryVisit || st.Refused || st.RefID == "" {
			continue
		}
		if _, dup := seen[st.RefID]; dup {
			continue
		}
		seen[st.RefID] = struct{}{}
		order = append(order, st.RefID)
	}

	if len(order) == 0 {
		log.Warn().Str("req_id", reqID).Msg("no solution found (all deliveries skipped)")
		return Presentation{RouteOrder: order, Message: MessageNoSolution}
	}

	coords := make([]domain.Coordinates, 0, len(steps))
	for _, st := range steps {
		if st.Node < 0 {
			continue
		}
		if st.Node >= len(sp.Nodes) {
			log.Warn().Str("req_id", reqID).Int("node", st.Node).Msg("invalid node index in route step, skipping")
			continue
		}
		coords = append(coords, sp.Nodes[st.Node].Coord)
	}

	link := ""
	if len(coords) > 0 && links != nil {
		link = links.BuildLink(coords)
	}
	log.Debug().Str("req_id", reqID).Str("map_link", link).Msg("map link built")

	return Presentation{RouteOrder: order, MapLink: link, Message: MessageOK}
}

// expectedOrder returns the non-refused delivery ids sorted by descending rank,
// input order breaking ties. Logged next to the actual order for debugging.
func expectedOrder(deliveries []domain.Delivery, skipped []string, ranking domain.PriorityRanking) []string {
	out := make(map[string]struct{}, len(skipped))
	for _, id := range skipped {
		out[id] = struct{}{}
	}

	ids := make([]string, 0, len(deliveries))
	ranks := make(map[string]int, len(deliveries))
	for _, d := range deliveries {
		if _, gone := out[d.ID]; gone || d.Refused {
			continue
		}
		rank, _ := ranking.Rank(d.Priority)
		ranks[d.ID] = rank
		ids = append(ids, d.ID)
	}
	sort.SliceStable(ids, func(i, j int) bool { return ranks[ids[i]] > ranks[ids[j]] })
	return ids
}
