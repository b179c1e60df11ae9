package ports

import (
	"context"

	"github.com/samirrijal/terraview/internal/core/domain"
)

// ElevationStore persists provider-backed elevation readings.
type ElevationStore interface {
	// Get returns the stored reading for p, or (nil, nil) when none exists.
	Get(ctx context.Context, p domain.GeoPoint) (*domain.ElevationReading, error)
	Put(ctx context.Context, p domain.GeoPoint, r domain.ElevationReading) error
	// PutBatch stores readings[i] for points[i].
	PutBatch(ctx context.Context, points []domain.GeoPoint, readings []domain.ElevationReading) error
}
