package domain

// StepKind classifies a RouteStep.
type StepKind string

const (
	StepDepot           StepKind = "depot"
	StepWarehouseVisit  StepKind = "warehouse"
	StepDeliveryVisit   StepKind = "delivery"
	StepWarehouseReturn StepKind = "warehouse_return"
)

// Represents a single step of an optimized route.
// Node indexes the subproblem node list; a negative Node means the step has
// no location. ArriveAt is nil for synthetic steps.
type RouteStep struct {
	Node       int
	Kind       StepKind
	RefID      string
	ArriveAt   *int
	Refused    bool
	RefusalTag string
	ReturnOf   string
	Note       string
}

// RouteRequest is the input of one optimization run.
type RouteRequest struct {
	Depot           Coordinates
	VehicleCapacity int
	Deliveries      []Delivery
	Warehouses      []Warehouse
}

// RouteResult is the externally visible outcome of one optimization run.
// Steps and Warehouses expose the reconciled route and inventory snapshot.
type RouteResult struct {
	RouteOrder        []string
	MapLink           string
	Message           string
	Steps             []RouteStep
	Skipped           []string
	UnresolvedReturns []string
	Warehouses        []Warehouse
}
