package geospatial

import (
	"fmt"

	"github.com/twpayne/go-polyline"

	"github.com/samirrijal/terraview/internal/core/domain"
)

// Segments splits a polyline into consecutive legs with their lengths.
func Segments(points []domain.GeoPoint) []domain.PathSegment {
	if len(points) < 2 {
		return nil
	}
	segs := make([]domain.PathSegment, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		segs = append(segs, domain.PathSegment{
			From:   points[i-1],
			To:     points[i],
			Length: Distance(points[i-1], points[i]),
		})
	}
	return segs
}

// PathLength returns the total geodesic length of a polyline in meters.
func PathLength(points []domain.GeoPoint) float64 {
	var total float64
	for _, s := range Segments(points) {
		total += s.Length
	}
	return total
}

// Interpolate resamples a polyline into n points evenly spaced by arc length.
// The first and last points are the input endpoints. A path of zero total
// length is returned unchanged.
func Interpolate(points []domain.GeoPoint, n int) ([]domain.GeoPoint, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("%w: path needs at least 2 points, got %d", domain.ErrInvalidInput, len(points))
	}
	if n < 2 {
		return nil, fmt.Errorf("%w: samples must be at least 2, got %d", domain.ErrInvalidInput, n)
	}

	segs := Segments(points)
	var total float64
	for _, s := range segs {
		total += s.Length
	}
	if total == 0 {
		out := make([]domain.GeoPoint, len(points))
		copy(out, points)
		return out, nil
	}

	last := points[len(points)-1]
	out := make([]domain.GeoPoint, n)
	out[0] = points[0]
	out[n-1] = last

	seg := 0
	walked := 0.0
	for i := 1; i < n-1; i++ {
		target := total * float64(i) / float64(n-1)
		for seg < len(segs) && walked+segs[seg].Length < target {
			walked += segs[seg].Length
			seg++
		}
		if seg >= len(segs) {
			out[i] = last
			continue
		}

		s := segs[seg]
		ratio := 0.0
		if s.Length > 0 {
			ratio = (target - walked) / s.Length
		}
		out[i] = domain.GeoPoint{
			Lat: s.From.Lat + (s.To.Lat-s.From.Lat)*ratio,
			Lng: s.From.Lng + (s.To.Lng-s.From.Lng)*ratio,
		}
	}
	return out, nil
}

// DecodePolyline decodes a Google encoded polyline into points.
func DecodePolyline(encoded string) ([]domain.GeoPoint, error) {
	coords, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: polyline: %v", domain.ErrInvalidInput, err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: polyline has %d trailing bytes", domain.ErrInvalidInput, len(rest))
	}
	points := make([]domain.GeoPoint, 0, len(coords))
	for _, c := range coords {
		p := domain.GeoPoint{Lat: c[0], Lng: c[1]}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}

// EncodePolyline encodes points as a Google encoded polyline.
func EncodePolyline(points []domain.GeoPoint) string {
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Lat, p.Lng}
	}
	return string(polyline.EncodeCoords(coords))
}
