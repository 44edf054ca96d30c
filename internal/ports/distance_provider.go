package ports

import (
	"context"
	"errors"
	"route-optimizer-service/internal/domain"
)

// Error kinds a DistanceMatrixProvider reports. Adapters wrap them with %w.
var (
	ErrProviderUnreachable = errors.New("distance provider unreachable")
	ErrProviderTimeout     = errors.New("distance provider timed out")
	ErrMalformedMatrix     = errors.New("distance provider returned a malformed matrix")
)

// Pairwise travel metrics aligned to the order of the requested coordinates.
// Distances are meters and Durations are seconds; both are N×N.
type TravelMatrix struct {
	Distances [][]float64
	Durations [][]float64
}

// Size returns N when both matrices are N×N, or -1 otherwise.
func (m *TravelMatrix) Size() int {
	if m == nil {
		return -1
	}
	n := len(m.Distances)
	if len(m.Durations) != n {
		return -1
	}
	for i := 0; i < n; i++ {
		if len(m.Distances[i]) != n || len(m.Durations[i]) != n {
			return -1
		}
	}
	return n
}

// Contract for retrieving travel distance and duration between many locations.
type DistanceMatrixProvider interface {
	// Return N×N distance and duration matrices for the ordered coordinates.
	GetMatrix(ctx context.Context, coords []domain.Coordinates) (*TravelMatrix, error)
}
