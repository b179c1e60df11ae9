package ports

import (
	"context"

	"github.com/samirrijal/terraview/internal/core/domain"
)

// ElevationProvider looks up raw terrain data at a point.
type ElevationProvider interface {
	// LookupElevation returns the ground elevation in meters.
	LookupElevation(ctx context.Context, p domain.GeoPoint) (float64, error)
	// LookupObstruction returns the height of objects standing on the ground, in meters.
	LookupObstruction(ctx context.Context, p domain.GeoPoint) (float64, error)
}

// EventPublisher publishes analysis events to a message broker.
type EventPublisher interface {
	PublishAnalysis(ctx context.Context, event *domain.AnalysisEvent) error
}

// EventSubscriber consumes survey requests from a message broker.
type EventSubscriber interface {
	SubscribeSurveyRequests(ctx context.Context, handler func(ctx context.Context, req *domain.SurveyRequest) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// SurveyStarter launches asynchronous radial surveys.
type SurveyStarter interface {
	// StartSurvey returns the identifier of the started survey.
	StartSurvey(ctx context.Context, req domain.SurveyRequest) (string, error)
}
