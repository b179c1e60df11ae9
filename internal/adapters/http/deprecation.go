package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// DeprecatedRoute marks an endpoint as deprecated with sunset date.
type DeprecatedRoute struct {
	Path        string
	SunsetDate  time.Time
	Alternative string // successor endpoint, optional
}

var legacySunset = time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC)

// legacyRoutes are the endpoints served under /api before /v1 existed.
var legacyRoutes = []DeprecatedRoute{
	{Path: "/api/elevation/profile", SunsetDate: legacySunset, Alternative: "/v1/elevation/profile"},
	{Path: "/api/elevation/line-of-sight", SunsetDate: legacySunset, Alternative: "/v1/elevation/line-of-sight"},
}

// DeprecationMiddleware adds Deprecation, Sunset, and Link headers to deprecated endpoints.
func DeprecationMiddleware(deprecated []DeprecatedRoute) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if len(path) > 1 {
			path = strings.TrimSuffix(path, "/")
		}
		for _, d := range deprecated {
			if path != d.Path {
				continue
			}
			// RFC 8594
			c.Set("Deprecation", "true")
			c.Set("Sunset", d.SunsetDate.UTC().Format(time.RFC1123))
			if d.Alternative != "" {
				c.Set("Link", fmt.Sprintf(`<%s>; rel="successor-version"`, d.Alternative))
			}
			break
		}
		return c.Next()
	}
}
