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

// Request limits shared by every analysis entry point.
const (
	DefaultSamples        = 100
	MaxSamples            = 1000
	DefaultObserverHeight = 2.0
	DefaultTargetHeight   = 0.0
	MaxHeight             = domain.MaxAntennaHeight
)

// ProfileService builds terrain profiles and evaluates sight lines.
type ProfileService struct {
	elevation *ElevationService
	events    ports.EventPublisher
}

// NewProfileService creates a new ProfileService. events may be nil.
func NewProfileService(elevation *ElevationService, events ports.EventPublisher) *ProfileService {
	return &ProfileService{elevation: elevation, events: events}
}

// BuildProfile resamples the path into samples points and attaches the
// elevation and cumulative distance of each.
func (s *ProfileService) BuildProfile(ctx context.Context, points []domain.GeoPoint, samples int) ([]domain.ElevationSample, error) {
	for i, p := range points {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
	}
	samples, err := resolveSamples(samples)
	if err != nil {
		return nil, err
	}

	resampled, err := geospatial.Interpolate(points, samples)
	if err != nil {
		return nil, err
	}

	readings, err := s.elevation.Readings(ctx, resampled)
	if err != nil {
		return nil, err
	}

	profile := make([]domain.ElevationSample, len(resampled))
	var distance float64
	for i, p := range resampled {
		if i > 0 {
			distance += geospatial.Distance(resampled[i-1], p)
		}
		profile[i] = domain.ElevationSample{
			Point:     p,
			Elevation: readings[i].Total(),
			Distance:  distance,
			Fallback:  readings[i].Fallback,
		}
	}
	return profile, nil
}

// ElevationProfile builds a profile and summarises it.
func (s *ProfileService) ElevationProfile(ctx context.Context, points []domain.GeoPoint, samples int) (*domain.ElevationProfile, error) {
	ctx, span := tracer.Start(ctx, "profile.elevation")
	defer span.End()
	defer metrics.ObserveAnalysis("profile", time.Now())

	profile, err := s.BuildProfile(ctx, points, samples)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("samples", len(profile)))
	return Summarize(profile), nil
}

// Summarize computes distance and elevation statistics for a profile.
// Min and max are nil when the profile is empty.
func Summarize(profile []domain.ElevationSample) *domain.ElevationProfile {
	out := &domain.ElevationProfile{Profile: profile}
	if len(profile) == 0 {
		out.Profile = []domain.ElevationSample{}
		return out
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for i, smp := range profile {
		lo = math.Min(lo, smp.Elevation)
		hi = math.Max(hi, smp.Elevation)
		if smp.Fallback {
			out.FallbackSamples++
		}
		if i == 0 {
			continue
		}
		if d := smp.Elevation - profile[i-1].Elevation; d > 0 {
			out.ElevationGain += d
		} else {
			out.ElevationLoss -= d
		}
	}
	out.TotalDistance = profile[len(profile)-1].Distance
	out.MinElevation = &lo
	out.MaxElevation = &hi
	return out
}

// LineOfSight decides whether the target is visible from the observer.
// The first interior sample rising strictly above the straight sight line
// is reported as the obstruction.
func (s *ProfileService) LineOfSight(ctx context.Context, req domain.SightLineRequest) (*domain.SightLineResult, error) {
	ctx, span := tracer.Start(ctx, "profile.line_of_sight")
	defer span.End()
	defer metrics.ObserveAnalysis("sightline", time.Now())

	if err := req.Observer.Validate(); err != nil {
		return nil, fmt.Errorf("observer: %w", err)
	}
	if err := req.Target.Validate(); err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}
	observerHeight, err := resolveHeight("observer_height", req.ObserverHeight, DefaultObserverHeight)
	if err != nil {
		return nil, err
	}
	targetHeight, err := resolveHeight("target_height", req.TargetHeight, DefaultTargetHeight)
	if err != nil {
		return nil, err
	}

	profile, err := s.BuildProfile(ctx, []domain.GeoPoint{req.Observer, req.Target}, req.Samples)
	if err != nil {
		return nil, err
	}

	result := evaluateSightLine(profile, observerHeight, targetHeight)
	span.SetAttributes(attribute.Bool("visible", result.Visible))

	target := req.Target
	visible := result.Visible
	s.publish(ctx, &domain.AnalysisEvent{
		Kind:     "sightline",
		Observer: req.Observer,
		Target:   &target,
		Visible:  &visible,
		At:       time.Now().UTC(),
	})
	return result, nil
}

func evaluateSightLine(profile []domain.ElevationSample, observerHeight, targetHeight float64) *domain.SightLineResult {
	first, last := profile[0], profile[len(profile)-1]
	res := &domain.SightLineResult{
		Visible:           true,
		Profile:           profile,
		ObserverElevation: first.Elevation + observerHeight,
		TargetElevation:   last.Elevation + targetHeight,
		TotalDistance:     last.Distance,
	}

	for _, smp := range profile[1 : len(profile)-1] {
		ratio := 0.0
		if res.TotalDistance > 0 {
			ratio = smp.Distance / res.TotalDistance
		}
		expected := res.ObserverElevation + (res.TargetElevation-res.ObserverElevation)*ratio
		if smp.Elevation > expected {
			res.Visible = false
			res.Obstruction = &domain.Obstruction{
				Point:          smp.Point,
				Distance:       smp.Distance,
				Elevation:      smp.Elevation,
				ExpectedHeight: expected,
			}
			break
		}
	}
	return res
}

func (s *ProfileService) publish(ctx context.Context, ev *domain.AnalysisEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishAnalysis(ctx, ev); err != nil {
		logging.FromContext(ctx).Warn("publish analysis event failed", "kind", ev.Kind, "error", err)
	}
}

func resolveSamples(samples int) (int, error) {
	if samples == 0 {
		return DefaultSamples, nil
	}
	if samples < 2 || samples > MaxSamples {
		return 0, fmt.Errorf("%w: samples must be between 2 and %d, got %d", domain.ErrInvalidInput, MaxSamples, samples)
	}
	return samples, nil
}

func resolveHeight(name string, h *float64, def float64) (float64, error) {
	if h == nil {
		return def, nil
	}
	if math.IsNaN(*h) || *h < 0 || *h > MaxHeight {
		return 0, fmt.Errorf("%w: %s must be between 0 and %.0f", domain.ErrInvalidInput, name, MaxHeight)
	}
	return *h, nil
}
