package domain

import (
	"fmt"
	"math"
	"time"
)

// ElevationReading is the tagged result of one elevation lookup.
// Fallback is set when the ground value came from the synthetic terrain model.
// ObstructionFallback is set when the obstruction layer gave no usable value
// and 0 was assumed.
type ElevationReading struct {
	Ground              float64 `json:"ground"`
	Obstruction         float64 `json:"obstruction"`
	Fallback            bool    `json:"fallback"`
	ObstructionFallback bool    `json:"obstruction_fallback,omitempty"`
}

// Degraded reports whether any part of the reading was substituted.
// Degraded readings are never cached or stored.
func (r ElevationReading) Degraded() bool {
	return r.Fallback || r.ObstructionFallback
}

// Total is ground plus any obstruction layered on top of it.
func (r ElevationReading) Total() float64 {
	return r.Ground + r.Obstruction
}

// ElevationSample is one point of a terrain profile.
type ElevationSample struct {
	Point     GeoPoint `json:"point"`
	Elevation float64  `json:"elevation"`
	Distance  float64  `json:"distance"` // cumulative meters from path start
	Fallback  bool     `json:"fallback,omitempty"`
}

// ElevationProfile is the response of an elevation-profile request.
type ElevationProfile struct {
	Profile         []ElevationSample `json:"profile"`
	TotalDistance   float64           `json:"total_distance"`
	MinElevation    *float64          `json:"min_elevation"` // nil when no samples
	MaxElevation    *float64          `json:"max_elevation"`
	ElevationGain   float64           `json:"elevation_gain"`
	ElevationLoss   float64           `json:"elevation_loss"`
	FallbackSamples int               `json:"fallback_samples"`
}

// SightLineRequest holds the inputs of a line-of-sight evaluation.
type SightLineRequest struct {
	Observer       GeoPoint `json:"observer"`
	Target         GeoPoint `json:"target"`
	ObserverHeight *float64 `json:"observer_height,omitempty"`
	TargetHeight   *float64 `json:"target_height,omitempty"`
	Samples        int      `json:"samples,omitempty"`
}

// Obstruction is the first profile sample rising above the sight line.
type Obstruction struct {
	Point          GeoPoint `json:"point"`
	Distance       float64  `json:"distance"`
	Elevation      float64  `json:"elevation"`
	ExpectedHeight float64  `json:"expected_height"`
}

// SightLineResult is the outcome of a line-of-sight evaluation.
type SightLineResult struct {
	Visible           bool              `json:"visible"`
	Obstruction       *Obstruction      `json:"obstruction"`
	Profile           []ElevationSample `json:"profile"`
	ObserverElevation float64           `json:"observer_elevation"`
	TargetElevation   float64           `json:"target_elevation"`
	TotalDistance     float64           `json:"total_distance"`
}

// RadialScanRequest holds the inputs of a radial visibility scan.
type RadialScanRequest struct {
	Observer       GeoPoint `json:"observer"`
	Radius         float64  `json:"radius,omitempty"`
	ObserverHeight *float64 `json:"observer_height,omitempty"`
}

// RayPoint is one sample along a radial ray.
type RayPoint struct {
	Point     GeoPoint `json:"point"`
	Distance  float64  `json:"distance"`
	Bearing   float64  `json:"bearing"`
	Elevation float64  `json:"elevation"`
	Visible   bool     `json:"visible"`
}

// Ray holds the samples cast along one bearing, near to far.
type Ray struct {
	Bearing                  float64    `json:"bearing"`
	Points                   []RayPoint `json:"points"`
	FirstObstructionDistance *float64   `json:"first_obstruction_distance"`
}

// VisibilityMap is the result of a radial scan. Rays are ordered by bearing.
type VisibilityMap struct {
	Observer          GeoPoint `json:"observer"`
	ObserverElevation float64  `json:"observer_elevation"`
	Radius            float64  `json:"radius"`
	Rays              []Ray    `json:"rays"`
	VisibleFraction   float64  `json:"visible_fraction"`
}

// AnalysisEvent is broadcast after a terrain analysis completes.
type AnalysisEvent struct {
	Kind            string    `json:"kind"` // "scan" | "sightline" | "survey"
	Observer        GeoPoint  `json:"observer"`
	Target          *GeoPoint `json:"target,omitempty"`
	Visible         *bool     `json:"visible,omitempty"`
	VisibleFraction *float64  `json:"visible_fraction,omitempty"`
	Radius          float64   `json:"radius,omitempty"`
	SurveyID        string    `json:"survey_id,omitempty"`
	At              time.Time `json:"at"`
}

// SurveyPost is one observation post of a radial survey.
type SurveyPost struct {
	Name     string   `json:"name"`
	Location GeoPoint `json:"location"`
}

// SurveySummary condenses the radial scan of one survey post.
type SurveySummary struct {
	Name              string    `json:"name"`
	Location          GeoPoint  `json:"location"`
	ObserverElevation float64   `json:"observer_elevation"`
	VisibleFraction   float64   `json:"visible_fraction"`
	BlockedBearings   []float64 `json:"blocked_bearings"`
}

// SurveyRequest asks for a radial scan from every post.
type SurveyRequest struct {
	ID             string       `json:"id,omitempty"` // assigned when queued
	Posts          []SurveyPost `json:"posts"`
	Radius         float64      `json:"radius,omitempty"`
	ObserverHeight *float64     `json:"observer_height,omitempty"`
}

// Validate checks the posts and scan parameters of the request.
func (r SurveyRequest) Validate() error {
	if len(r.Posts) == 0 {
		return fmt.Errorf("%w: survey needs at least one post", ErrInvalidInput)
	}
	if len(r.Posts) > MaxSurveyPosts {
		return fmt.Errorf("%w: survey accepts at most %d posts, got %d", ErrInvalidInput, MaxSurveyPosts, len(r.Posts))
	}
	for i, p := range r.Posts {
		if err := p.Location.Validate(); err != nil {
			return fmt.Errorf("post %d: %w", i, err)
		}
	}
	// 0 selects the default radius.
	if math.IsNaN(r.Radius) || r.Radius < 0 || r.Radius > MaxScanRadius {
		return fmt.Errorf("%w: radius must be in (0, %.0f], got %v", ErrInvalidInput, MaxScanRadius, r.Radius)
	}
	if h := r.ObserverHeight; h != nil && (math.IsNaN(*h) || *h < 0 || *h > MaxAntennaHeight) {
		return fmt.Errorf("%w: observer_height must be between 0 and %.0f", ErrInvalidInput, MaxAntennaHeight)
	}
	return nil
}

// Analysis limits.
const (
	MaxSurveyPosts   = 100     // fan-out of a single survey
	MaxScanRadius    = 50000.0 // meters
	MaxAntennaHeight = 1000.0  // meters above ground, observer or target
)
