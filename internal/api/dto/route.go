package dto

// ItemRequest is one line of a delivery's contents.
type ItemRequest struct {
	GUID  string `json:"guid" validate:"required"`
	Count int    `json:"count" validate:"gt=0"`
}

// DeliveryRequest describes one delivery order.
// Coord is [lat, lon]; TimeWindow is [start, end] in minutes from midnight.
type DeliveryRequest struct {
	ID              string        `json:"id" validate:"required"`
	Coord           []float64     `json:"coord" validate:"required,coord"`
	Priority        string        `json:"priority" validate:"omitempty,priority"`
	Demand          int           `json:"demand" validate:"gt=0"`
	Items           []ItemRequest `json:"items" validate:"dive"`
	Refused         bool          `json:"refused"`
	OriginWarehouse string        `json:"origin_warehouse" validate:"required"`
	TimeWindow      []int         `json:"time_window" validate:"omitempty,timewindow"`
	ServiceTime     int           `json:"service_time" validate:"gt=0"`
}

// WarehouseRequest describes one warehouse and its current inventory.
type WarehouseRequest struct {
	ID       string         `json:"id" validate:"required"`
	Coord    []float64      `json:"coord" validate:"required,coord"`
	Stock    map[string]int `json:"stock" validate:"dive,keys,required,endkeys,gte=0"`
	Capacity *int           `json:"capacity" validate:"omitempty,gt=0"`
	Usage    *int           `json:"usage" validate:"omitempty,gte=0"`
}

type RouteRequest struct {
	DepotCoord      []float64          `json:"depot_coord" validate:"required,coord"`
	VehicleCapacity *int               `json:"vehicle_capacity" validate:"omitempty,gt=0"`
	Deliveries      []DeliveryRequest  `json:"deliveries" validate:"required,min=1,unique=ID,dive"`
	Warehouses      []WarehouseRequest `json:"warehouses" validate:"required,min=1,unique=ID,dive"`
}

type RouteResponse struct {
	RouteOrder        []string `json:"route_order"`
	OsmURL            string   `json:"osm_url"`
	Message           string   `json:"message"`
	UnresolvedReturns []string `json:"unresolved_returns,omitempty"`
}

type ValidationErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}
