package distance

import (
	"context"
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/ports"
	"sync/atomic"
)

// MockDistanceProvider returns a fixed matrix (or error) regardless of input.
type MockDistanceProvider struct {
	matrix *ports.TravelMatrix
	err    error
	calls  atomic.Int64
}

func NewMockDistanceProvider(m *ports.TravelMatrix) *MockDistanceProvider {
	return &MockDistanceProvider{matrix: m}
}

// NewFailingDistanceProvider returns a provider whose every call fails with err.
func NewFailingDistanceProvider(err error) *MockDistanceProvider {
	return &MockDistanceProvider{err: err}
}

func (p *MockDistanceProvider) GetMatrix(ctx context.Context, coords []domain.Coordinates) (*ports.TravelMatrix, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return cloneMatrix(p.matrix), nil
}

// Calls reports how many times GetMatrix was invoked.
func (p *MockDistanceProvider) Calls() int { return int(p.calls.Load()) }

// HaversineDistanceProvider derives travel metrics from great-circle distance
// at a constant speed. Useful for offline runs and tests.
type HaversineDistanceProvider struct {
	SpeedKmh float64
}

func (p HaversineDistanceProvider) GetMatrix(ctx context.Context, coords []domain.Coordinates) (*ports.TravelMatrix, error) {
	speed := p.SpeedKmh
	if speed <= 0 {
		speed = 30
	}

	n := len(coords)
	m := &ports.TravelMatrix{
		Distances: make([][]float64, n),
		Durations: make([][]float64, n),
	}
	for i := 0; i < n; i++ {
		m.Distances[i] = make([]float64, n)
		m.Durations[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			km := domain.HaversineKm(coords[i], coords[j])
			m.Distances[i][j] = km * 1000
			m.Durations[i][j] = km / speed * 3600
		}
	}
	return m, nil
}

func cloneMatrix(m *ports.TravelMatrix) *ports.TravelMatrix {
	if m == nil {
		return &ports.TravelMatrix{}
	}
	out := &ports.TravelMatrix{}
	if m.Distances != nil {
		out.Distances = make([][]float64, len(m.Distances))
		for i, row := range m.Distances {
			out.Distances[i] = append([]float64(nil), row...)
		}
	}
	if m.Durations != nil {
		out.Durations = make([][]float64, len(m.Durations))
		for i, row := range m.Durations {
			out.Durations[i] = append([]float64(nil), row...)
		}
	}
	return out
}
