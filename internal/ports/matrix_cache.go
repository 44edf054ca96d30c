package ports

import "context"

// LegKey identifies a directed leg by rounded coordinate keys (see domain.Coordinates.Key).
type LegKey struct {
	From string
	To   string
}

// Leg holds cached travel metrics for one directed leg.
type Leg struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// Port: a boundary for caching directed travel legs between requests.
type MatrixCache interface {
	// Return the cached legs among keys; misses are simply absent.
	GetLegs(ctx context.Context, keys []LegKey) (map[LegKey]Leg, error)
	// Store legs, replacing existing entries.
	PutLegs(ctx context.Context, legs map[LegKey]Leg) error
}
