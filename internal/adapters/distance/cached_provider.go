package distance

import (
	"context"
	"fmt"
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/metrics"
	"route-optimizer-service/internal/platform/obs"
	"route-optimizer-service/internal/ports"

	"github.com/rs/zerolog/log"
)

// CachedDistanceProvider decorates a DistanceMatrixProvider with a leg cache.
// A full cache hit skips the wrapped provider; otherwise the whole matrix is
// fetched once and every leg is written back.
type CachedDistanceProvider struct {
	next  ports.DistanceMatrixProvider
	cache ports.MatrixCache
}

func NewCachedDistanceProvider(next ports.DistanceMatrixProvider, cache ports.MatrixCache) *CachedDistanceProvider {
	return &CachedDistanceProvider{next: next, cache: cache}
}

func (c *CachedDistanceProvider) GetMatrix(
	ctx context.Context,
	coords []domain.Coordinates,
) (_ *ports.TravelMatrix, err error) {
	defer obs.Time(ctx, "cache.GetMatrix")(&err)

	n := len(coords)
	keys := make([]string, n)
	for i, coord := range coords {
		keys[i] = coord.Key()
	}

	legKeys := make([]ports.LegKey, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if keys[i] == keys[j] {
				continue
			}
			legKeys = append(legKeys, ports.LegKey{From: keys[i], To: keys[j]})
		}
	}

	if c.cache != nil && len(legKeys) > 0 {
		hits, err := c.cache.GetLegs(ctx, legKeys)
		if err != nil {
			log.Warn().Str("req_id", obs.RequestID(ctx)).Err(err).Msg("matrix cache read failed, falling back to provider")
		} else if len(hits) == len(legKeys) {
			metrics.ProviderRequests.WithLabelValues("cache_hit").Inc()
			return assembleMatrix(keys, hits), nil
		}
	}

	m, err := c.next.GetMatrix(ctx, coords)
	if err != nil {
		return nil, fmt.Errorf("cached get matrix: %w", err)
	}
	if m.Size() != n {
		return nil, fmt.Errorf("cached get matrix: size %d for %d coordinates: %w", m.Size(), n, ports.ErrMalformedMatrix)
	}

	if c.cache != nil && len(legKeys) > 0 {
		legs := make(map[ports.LegKey]ports.Leg, len(legKeys))
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if keys[i] == keys[j] {
					continue
				}
				legs[ports.LegKey{From: keys[i], To: keys[j]}] = ports.Leg{
					DistanceMeters:  m.Distances[i][j],
					DurationSeconds: m.Durations[i][j],
				}
			}
		}
		if err := c.cache.PutLegs(ctx, legs); err != nil {
			log.Warn().Str("req_id", obs.RequestID(ctx)).Err(err).Msg("matrix cache write failed")
		}
	}

	return m, nil
}

// assembleMatrix builds the matrix from cached legs. Coincident points are zero.
func assembleMatrix(keys []string, legs map[ports.LegKey]ports.Leg) *ports.TravelMatrix {
	n := len(keys)
	m := &ports.TravelMatrix{
		Distances: make([][]float64, n),
		Durations: make([][]float64, n),
	}
	for i := 0; i < n; i++ {
		m.Distances[i] = make([]float64, n)
		m.Durations[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			if keys[i] == keys[j] {
				continue
			}
			leg := legs[ports.LegKey{From: keys[i], To: keys[j]}]
			m.Distances[i][j] = leg.DistanceMeters
			m.Durations[i][j] = leg.DurationSeconds
		}
	}
	return m
}
