package http

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/terraview/internal/core/domain"
	"github.com/samirrijal/terraview/internal/pkg/geospatial"
)

type profileRequest struct {
	Points   []domain.GeoPoint `json:"points"`
	Polyline string            `json:"polyline"`
	Samples  int               `json:"samples"`
}

// ProfileHandler answers POST /v1/elevation/profile.
// The path is given as points or as an encoded polyline.
func ProfileHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req profileRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		points := req.Points
		if len(points) == 0 && req.Polyline != "" {
			decoded, err := geospatial.DecodePolyline(req.Polyline)
			if err != nil {
				return handleError(c, err)
			}
			points = decoded
		}

		out, err := deps.Profiles.ElevationProfile(c.UserContext(), points, req.Samples)
		if err != nil {
			return handleError(c, err)
		}
		return c.JSON(out)
	}
}

// ProfileQueryHandler answers GET /v1/elevation/profile?path=<polyline>&samples=N.
func ProfileQueryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Query("path")
		if path == "" {
			return errBadRequest(c, "path (encoded polyline) is required")
		}
		samples, err := queryInt(c, "samples")
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		points, err := geospatial.DecodePolyline(path)
		if err != nil {
			return handleError(c, err)
		}

		out, err := deps.Profiles.ElevationProfile(c.UserContext(), points, samples)
		if err != nil {
			return handleError(c, err)
		}
		return c.JSON(out)
	}
}

// LineOfSightHandler answers POST /v1/elevation/line-of-sight.
func LineOfSightHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.SightLineRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		return lineOfSight(c, deps, req)
	}
}

// LineOfSightQueryHandler answers GET /v1/elevation/line-of-sight with flat query parameters.
func LineOfSightQueryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.SightLineRequest
		var err error

		if req.Observer, err = queryPoint(c, "observer_lat", "observer_lng"); err != nil {
			return errBadRequest(c, err.Error())
		}
		if req.Target, err = queryPoint(c, "target_lat", "target_lng"); err != nil {
			return errBadRequest(c, err.Error())
		}
		if req.ObserverHeight, err = queryFloat(c, "observer_height"); err != nil {
			return errBadRequest(c, err.Error())
		}
		if req.TargetHeight, err = queryFloat(c, "target_height"); err != nil {
			return errBadRequest(c, err.Error())
		}
		if req.Samples, err = queryInt(c, "samples"); err != nil {
			return errBadRequest(c, err.Error())
		}
		return lineOfSight(c, deps, req)
	}
}

func lineOfSight(c *fiber.Ctx, deps *Dependencies, req domain.SightLineRequest) error {
	out, err := deps.Profiles.LineOfSight(c.UserContext(), req)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(out)
}

// RadialHandler answers POST /v1/elevation/radial.
func RadialHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.RadialScanRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		return radialScan(c, deps, req)
	}
}

// RadialQueryHandler answers GET /v1/elevation/radial?lat=&lng=&radius=&observer_height=.
func RadialQueryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.RadialScanRequest
		var err error

		if req.Observer, err = queryPoint(c, "lat", "lng"); err != nil {
			return errBadRequest(c, err.Error())
		}
		radius, err := queryFloat(c, "radius")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		if radius != nil {
			if *radius <= 0 {
				return errBadRequest(c, "radius must be positive")
			}
			req.Radius = *radius
		}
		if req.ObserverHeight, err = queryFloat(c, "observer_height"); err != nil {
			return errBadRequest(c, err.Error())
		}
		return radialScan(c, deps, req)
	}
}

func radialScan(c *fiber.Ctx, deps *Dependencies, req domain.RadialScanRequest) error {
	out, err := deps.Radial.Scan(c.UserContext(), req)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(out)
}

// StartSurveyHandler answers POST /v1/surveys by starting an asynchronous radial survey.
func StartSurveyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Surveys == nil {
			return errUnavailable(c, "survey workflows are not enabled")
		}

		var req domain.SurveyRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := req.Validate(); err != nil {
			return handleError(c, err)
		}

		id, err := deps.Surveys.StartSurvey(c.UserContext(), req)
		if err != nil {
			return handleError(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"survey_id": id,
			"posts":     len(req.Posts),
		})
	}
}

func queryPoint(c *fiber.Ctx, latKey, lngKey string) (domain.GeoPoint, error) {
	lat, err := requiredFloat(c, latKey)
	if err != nil {
		return domain.GeoPoint{}, err
	}
	lng, err := requiredFloat(c, lngKey)
	if err != nil {
		return domain.GeoPoint{}, err
	}
	return domain.GeoPoint{Lat: lat, Lng: lng}, nil
}

func requiredFloat(c *fiber.Ctx, key string) (float64, error) {
	v, err := queryFloat(c, key)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, fmt.Errorf("%s is required", key)
	}
	return *v, nil
}

func queryFloat(c *fiber.Ctx, key string) (*float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", key)
	}
	return &v, nil
}

func queryInt(c *fiber.Ctx, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return v, nil
}
