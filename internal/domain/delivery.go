package domain

// Minutes in a day; the default time window is [0, DayMinutes].
const DayMinutes = 1440

// TimeWindow is a closed interval in minutes from midnight.
type TimeWindow struct {
	Start int
	End   int
}

// FullDay returns the [0, 1440] window.
func FullDay() TimeWindow { return TimeWindow{Start: 0, End: DayMinutes} }

// Item is a quantity of one stock keeping unit carried by a delivery.
type Item struct {
	ItemID string
	Count  int
}

// Represents a single delivery order handled by the route optimizer.
type Delivery struct {
	ID              string
	Coord           Coordinates
	Priority        string
	Demand          int
	Items           []Item
	Refused         bool
	OriginWarehouse string
	Window          TimeWindow
	ServiceMinutes  int
}

// TotalItems returns the sum of item counts, the unit used for warehouse usage.
func (d Delivery) TotalItems() int {
	total := 0
	for _, it := range d.Items {
		total += it.Count
	}
	return total
}

// Warehouse as supplied by the caller. Stock maps item id to quantity.
type Warehouse struct {
	ID       string
	Coord    Coordinates
	Stock    map[string]int
	Capacity int
	Usage    int
}
