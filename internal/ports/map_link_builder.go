package ports

import "route-optimizer-service/internal/domain"

// Builds an external map URL that draws the ordered coordinates as a route.
type MapLinkBuilder interface {
	// Return an opaque URL; empty input yields an empty string.
	BuildLink(coords []domain.Coordinates) string
}
