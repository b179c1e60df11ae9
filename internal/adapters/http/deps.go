package http

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/terraview/internal/core/ports"
	"github.com/samirrijal/terraview/internal/core/usecases"
)

// Pinger is a backing service that can report its health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Profiles *usecases.ProfileService
	Radial   *usecases.RadialService
	Surveys  ports.SurveyStarter // nil when Temporal is disabled
	NATS     *nats.Conn          // WebSocket relay source

	// Readiness checks, keyed by component name. Nil entries read "not configured".
	DB       Pinger
	Cache    Pinger
	Events   Pinger
	Temporal Pinger

	RequestTimeout time.Duration // default 15s
	RateLimit      int           // requests per minute per IP, default 120
	AllowOrigins   string        // CORS origins, comma separated, default *
}
