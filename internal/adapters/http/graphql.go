package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/terraview/internal/core/domain"
	"github.com/samirrijal/terraview/internal/pkg/geospatial"
)

// buildSchema creates the GraphQL schema wired to the terrain services.
// Object fields resolve through the domain types' json tags.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	pointInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "PointInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"lat": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"lng": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
		},
	})

	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	sampleType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ElevationSample",
		Fields: graphql.Fields{
			"point":     &graphql.Field{Type: geoPointType},
			"elevation": &graphql.Field{Type: graphql.Float},
			"distance":  &graphql.Field{Type: graphql.Float},
			"fallback":  &graphql.Field{Type: graphql.Boolean},
		},
	})

	profileType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ElevationProfile",
		Fields: graphql.Fields{
			"profile":          &graphql.Field{Type: graphql.NewList(sampleType)},
			"total_distance":   &graphql.Field{Type: graphql.Float},
			"min_elevation":    &graphql.Field{Type: graphql.Float},
			"max_elevation":    &graphql.Field{Type: graphql.Float},
			"elevation_gain":   &graphql.Field{Type: graphql.Float},
			"elevation_loss":   &graphql.Field{Type: graphql.Float},
			"fallback_samples": &graphql.Field{Type: graphql.Int},
		},
	})

	obstructionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Obstruction",
		Fields: graphql.Fields{
			"point":           &graphql.Field{Type: geoPointType},
			"distance":        &graphql.Field{Type: graphql.Float},
			"elevation":       &graphql.Field{Type: graphql.Float},
			"expected_height": &graphql.Field{Type: graphql.Float},
		},
	})

	sightLineType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SightLine",
		Fields: graphql.Fields{
			"visible":            &graphql.Field{Type: graphql.Boolean},
			"obstruction":        &graphql.Field{Type: obstructionType},
			"profile":            &graphql.Field{Type: graphql.NewList(sampleType)},
			"observer_elevation": &graphql.Field{Type: graphql.Float},
			"target_elevation":   &graphql.Field{Type: graphql.Float},
			"total_distance":     &graphql.Field{Type: graphql.Float},
		},
	})

	rayPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RayPoint",
		Fields: graphql.Fields{
			"point":     &graphql.Field{Type: geoPointType},
			"distance":  &graphql.Field{Type: graphql.Float},
			"bearing":   &graphql.Field{Type: graphql.Float},
			"elevation": &graphql.Field{Type: graphql.Float},
			"visible":   &graphql.Field{Type: graphql.Boolean},
		},
	})

	rayType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Ray",
		Fields: graphql.Fields{
			"bearing":                    &graphql.Field{Type: graphql.Float},
			"points":                     &graphql.Field{Type: graphql.NewList(rayPointType)},
			"first_obstruction_distance": &graphql.Field{Type: graphql.Float},
		},
	})

	visibilityMapType := graphql.NewObject(graphql.ObjectConfig{
		Name: "VisibilityMap",
		Fields: graphql.Fields{
			"observer":           &graphql.Field{Type: geoPointType},
			"observer_elevation": &graphql.Field{Type: graphql.Float},
			"radius":             &graphql.Field{Type: graphql.Float},
			"rays":               &graphql.Field{Type: graphql.NewList(rayType)},
			"visible_fraction":   &graphql.Field{Type: graphql.Float},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"elevationProfile": &graphql.Field{
				Type:        profileType,
				Description: "Sample terrain elevation along a path",
				Args: graphql.FieldConfigArgument{
					"points":   &graphql.ArgumentConfig{Type: graphql.NewList(graphql.NewNonNull(pointInput))},
					"polyline": &graphql.ArgumentConfig{Type: graphql.String},
					"samples":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					var points []domain.GeoPoint
					if raw, ok := p.Args["points"].([]interface{}); ok {
						for _, item := range raw {
							pt, err := pointArg(item)
							if err != nil {
								return nil, err
							}
							points = append(points, pt)
						}
					}
					if len(points) == 0 {
						if enc, ok := p.Args["polyline"].(string); ok && enc != "" {
							decoded, err := geospatial.DecodePolyline(enc)
							if err != nil {
								return nil, err
							}
							points = decoded
						}
					}
					samples, _ := p.Args["samples"].(int)
					return deps.Profiles.ElevationProfile(p.Context, points, samples)
				},
			},
			"lineOfSight": &graphql.Field{
				Type:        sightLineType,
				Description: "Check whether terrain blocks the line between two points",
				Args: graphql.FieldConfigArgument{
					"observer":        &graphql.ArgumentConfig{Type: graphql.NewNonNull(pointInput)},
					"target":          &graphql.ArgumentConfig{Type: graphql.NewNonNull(pointInput)},
					"observer_height": &graphql.ArgumentConfig{Type: graphql.Float},
					"target_height":   &graphql.ArgumentConfig{Type: graphql.Float},
					"samples":         &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					observer, err := pointArg(p.Args["observer"])
					if err != nil {
						return nil, err
					}
					target, err := pointArg(p.Args["target"])
					if err != nil {
						return nil, err
					}
					samples, _ := p.Args["samples"].(int)
					return deps.Profiles.LineOfSight(p.Context, domain.SightLineRequest{
						Observer:       observer,
						Target:         target,
						ObserverHeight: floatArg(p.Args, "observer_height"),
						TargetHeight:   floatArg(p.Args, "target_height"),
						Samples:        samples,
					})
				},
			},
			"radialScan": &graphql.Field{
				Type:        visibilityMapType,
				Description: "Approximate viewshed around an observer",
				Args: graphql.FieldConfigArgument{
					"observer":        &graphql.ArgumentConfig{Type: graphql.NewNonNull(pointInput)},
					"radius":          &graphql.ArgumentConfig{Type: graphql.Float},
					"observer_height": &graphql.ArgumentConfig{Type: graphql.Float},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					observer, err := pointArg(p.Args["observer"])
					if err != nil {
						return nil, err
					}
					req := domain.RadialScanRequest{
						Observer:       observer,
						ObserverHeight: floatArg(p.Args, "observer_height"),
					}
					if r := floatArg(p.Args, "radius"); r != nil {
						req.Radius = *r
					}
					return deps.Radial.Scan(p.Context, req)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

func pointArg(v interface{}) (domain.GeoPoint, error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return domain.GeoPoint{}, fmt.Errorf("%w: point must be an object with lat and lng", domain.ErrInvalidInput)
	}
	lat, latOK := toFloat(m["lat"])
	lng, lngOK := toFloat(m["lng"])
	if !latOK || !lngOK {
		return domain.GeoPoint{}, fmt.Errorf("%w: point must be an object with lat and lng", domain.ErrInvalidInput)
	}
	return domain.GeoPoint{Lat: lat, Lng: lng}, nil
}

func floatArg(args map[string]interface{}, key string) *float64 {
	v, ok := toFloat(args[key])
	if !ok {
		return nil
	}
	return &v
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
