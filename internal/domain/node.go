package domain

// NodeKind tags a routing node. Kinds are resolved from this tag only.
type NodeKind int

const (
	NodeDepot NodeKind = iota
	NodeWarehouse
	NodeDelivery
)

func (k NodeKind) String() string {
	switch k {
	case NodeDepot:
		return "depot"
	case NodeWarehouse:
		return "warehouse"
	case NodeDelivery:
		return "delivery"
	default:
		return "unknown"
	}
}

// Node is one stop of the routing subproblem.
// RefID is the warehouse or delivery id and is empty for the depot.
type Node struct {
	Kind           NodeKind
	RefID          string
	Coord          Coordinates
	Window         TimeWindow
	ServiceMinutes int
	Demand         int
}
