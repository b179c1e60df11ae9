package domain

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput marks a request the engine refuses to evaluate.
var ErrInvalidInput = errors.New("invalid input")

// GeoPoint represents a geographic coordinate (WGS 84), in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate rejects out-of-range or non-finite coordinates.
func (p GeoPoint) Validate() error {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) {
		return fmt.Errorf("%w: coordinates must be finite", ErrInvalidInput)
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude %.6f outside [-90, 90]", ErrInvalidInput, p.Lat)
	}
	if p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("%w: longitude %.6f outside [-180, 180]", ErrInvalidInput, p.Lng)
	}
	return nil
}

// PathSegment is one leg of a polyline with its precomputed geodesic length.
type PathSegment struct {
	From   GeoPoint `json:"from"`
	To     GeoPoint `json:"to"`
	Length float64  `json:"length"`
}

// Bounds is a lat/lng box, as used for WMS BBOX parameters.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}
