package usecases

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/terraview/internal/core/domain"
	"github.com/samirrijal/terraview/internal/core/ports"
	"github.com/samirrijal/terraview/internal/pkg/geospatial"
	"github.com/samirrijal/terraview/internal/pkg/logging"
	"github.com/samirrijal/terraview/internal/pkg/metrics"
)

// Radial scan geometry.
const (
	RayCount          = 16
	SamplesPerRay     = 5
	ObstructionBuffer = 15.0 // meters added to each sample before comparing with the observer
	DefaultRadius     = 1000.0
	MaxRadius         = domain.MaxScanRadius
)

// RayStep is the angular spacing between rays, in degrees.
const RayStep = 360.0 / RayCount

// RadialService performs coarse 360° visibility scans.
type RadialService struct {
	elevation *ElevationService
	events    ports.EventPublisher
}

// NewRadialService creates a new RadialService. events may be nil.
func NewRadialService(elevation *ElevationService, events ports.EventPublisher) *RadialService {
	return &RadialService{elevation: elevation, events: events}
}

// Scan casts RayCount rays from the observer and classifies SamplesPerRay
// equally spaced samples on each. A ray is blocked from its first sample
// whose elevation plus ObstructionBuffer exceeds the observer elevation.
func (s *RadialService) Scan(ctx context.Context, req domain.RadialScanRequest) (*domain.VisibilityMap, error) {
	ctx, span := tracer.Start(ctx, "radial.scan")
	defer span.End()
	defer metrics.ObserveAnalysis("scan", time.Now())

	if err := req.Observer.Validate(); err != nil {
		return nil, fmt.Errorf("observer: %w", err)
	}
	radius := req.Radius
	if radius == 0 {
		radius = DefaultRadius
	}
	if math.IsNaN(radius) || radius < 0 || radius > MaxRadius {
		return nil, fmt.Errorf("%w: radius must be in (0, %.0f], got %v", domain.ErrInvalidInput, MaxRadius, req.Radius)
	}
	observerHeight, err := resolveHeight("observer_height", req.ObserverHeight, DefaultObserverHeight)
	if err != nil {
		return nil, err
	}

	// Observer first, then each ray near to far.
	points := make([]domain.GeoPoint, 0, 1+RayCount*SamplesPerRay)
	points = append(points, req.Observer)
	for r := 0; r < RayCount; r++ {
		bearing := float64(r) * RayStep
		for k := 1; k <= SamplesPerRay; k++ {
			points = append(points, geospatial.Destination(req.Observer, bearing, sampleDistance(radius, k)))
		}
	}

	readings, err := s.elevation.Readings(ctx, points)
	if err != nil {
		return nil, err
	}

	observerElev := readings[0].Total() + observerHeight
	vm := &domain.VisibilityMap{
		Observer:          req.Observer,
		ObserverElevation: observerElev,
		Radius:            radius,
		Rays:              make([]domain.Ray, RayCount),
	}

	visible := 0
	for r := 0; r < RayCount; r++ {
		bearing := float64(r) * RayStep
		ray := domain.Ray{Bearing: bearing, Points: make([]domain.RayPoint, SamplesPerRay)}
		blocked := false
		for k := 1; k <= SamplesPerRay; k++ {
			idx := 1 + r*SamplesPerRay + (k - 1)
			elev := readings[idx].Total()
			dist := sampleDistance(radius, k)
			if !blocked && elev+ObstructionBuffer > observerElev {
				blocked = true
				d := dist
				ray.FirstObstructionDistance = &d
			}
			if !blocked {
				visible++
			}
			ray.Points[k-1] = domain.RayPoint{
				Point:     points[idx],
				Distance:  dist,
				Bearing:   bearing,
				Elevation: elev,
				Visible:   !blocked,
			}
		}
		vm.Rays[r] = ray
	}
	vm.VisibleFraction = float64(visible) / float64(RayCount*SamplesPerRay)
	span.SetAttributes(attribute.Float64("visible_fraction", vm.VisibleFraction))

	if s.events != nil {
		fraction := vm.VisibleFraction
		ev := &domain.AnalysisEvent{
			Kind:            "scan",
			Observer:        req.Observer,
			VisibleFraction: &fraction,
			Radius:          radius,
			At:              time.Now().UTC(),
		}
		if err := s.events.PublishAnalysis(ctx, ev); err != nil {
			logging.FromContext(ctx).Warn("publish analysis event failed", "kind", ev.Kind, "error", err)
		}
	}
	return vm, nil
}

func sampleDistance(radius float64, k int) float64 {
	return radius * float64(k) / SamplesPerRay
}
