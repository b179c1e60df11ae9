package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/terraview/internal/core/domain"
	"github.com/samirrijal/terraview/internal/core/ports"
	"github.com/samirrijal/terraview/internal/pkg/logging"
	"github.com/samirrijal/terraview/internal/pkg/metrics"
)

var tracer = otel.Tracer("github.com/samirrijal/terraview/usecases")

// Plausible ground band, exclusive. Provider values outside it are treated as noise.
const (
	minPlausibleGround = -50.0
	maxPlausibleGround = 1000.0
)

// ElevationOptions tunes provider lookups.
type ElevationOptions struct {
	Timeout            time.Duration // ground lookup
	ObstructionTimeout time.Duration
	Concurrency        int
	CacheTTL           time.Duration
}

// DefaultElevationOptions mirrors the config defaults.
func DefaultElevationOptions() ElevationOptions {
	return ElevationOptions{
		Timeout:            5 * time.Second,
		ObstructionTimeout: 15 * time.Second,
		Concurrency:        8,
		CacheTTL:           24 * time.Hour,
	}
}

// SyntheticElevation is the deterministic terrain model used when the provider
// cannot answer. Always finite and non-negative.
func SyntheticElevation(p domain.GeoPoint) float64 {
	lat := p.Lat * math.Pi / 180
	lng := p.Lng * math.Pi / 180
	h := 50 +
		30*math.Sin(lat*100)*math.Cos(lng*80) +
		20*math.Sin(lat*200+lng*150) +
		10*math.Cos(lat*50-lng*100)
	return math.Max(0, h)
}

// ElevationService resolves elevation readings through cache, store and provider.
type ElevationService struct {
	provider ports.ElevationProvider
	cache    ports.CacheService
	store    ports.ElevationStore
	opts     ElevationOptions
}

// NewElevationService creates a new ElevationService. provider, cache and store may be nil.
func NewElevationService(provider ports.ElevationProvider, cache ports.CacheService, store ports.ElevationStore, opts ElevationOptions) *ElevationService {
	def := DefaultElevationOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.ObstructionTimeout <= 0 {
		opts.ObstructionTimeout = def.ObstructionTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = def.Concurrency
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = def.CacheTTL
	}
	return &ElevationService{provider: provider, cache: cache, store: store, opts: opts}
}

// ElevationAt returns the total elevation (ground plus obstruction) at p in meters.
func (s *ElevationService) ElevationAt(ctx context.Context, p domain.GeoPoint) float64 {
	return s.Reading(ctx, p).Total()
}

// Reading returns the tagged elevation reading at p. It never fails: an
// unusable ground value is replaced by SyntheticElevation and flagged.
func (s *ElevationService) Reading(ctx context.Context, p domain.GeoPoint) domain.ElevationReading {
	r, fresh := s.resolve(ctx, p)
	if fresh && s.store != nil {
		if err := s.store.Put(ctx, p, r); err != nil {
			logging.FromContext(ctx).Debug("elevation store put failed", "error", err)
		}
	}
	return r
}

// Readings resolves readings for all points in parallel. The result is in
// input order. Fresh provider readings are persisted in one batch. It only
// fails when ctx is cancelled.
func (s *ElevationService) Readings(ctx context.Context, points []domain.GeoPoint) ([]domain.ElevationReading, error) {
	ctx, span := tracer.Start(ctx, "elevation.readings")
	defer span.End()
	span.SetAttributes(attribute.Int("points", len(points)))

	out := make([]domain.ElevationReading, len(points))
	fresh := make([]bool, len(points))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, p := range points {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i], fresh[i] = s.resolve(gctx, p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("elevation readings: %w", err)
	}

	if s.store != nil {
		var batchPoints []domain.GeoPoint
		var batchReadings []domain.ElevationReading
		for i, ok := range fresh {
			if ok {
				batchPoints = append(batchPoints, points[i])
				batchReadings = append(batchReadings, out[i])
			}
		}
		if len(batchPoints) > 0 {
			if err := s.store.PutBatch(ctx, batchPoints, batchReadings); err != nil {
				logging.FromContext(ctx).Debug("elevation store batch put failed", "points", len(batchPoints), "error", err)
			}
		}
	}
	return out, nil
}

// resolve walks cache, store and provider. fresh reports a provider-backed
// reading that is not yet in the store.
func (s *ElevationService) resolve(ctx context.Context, p domain.GeoPoint) (domain.ElevationReading, bool) {
	key := readingKey(p)

	if r, ok := s.fromCache(ctx, key); ok {
		metrics.ElevationLookups.WithLabelValues(metrics.SourceCache).Inc()
		return r, false
	}
	if r, ok := s.fromStore(ctx, p); ok {
		metrics.ElevationLookups.WithLabelValues(metrics.SourceStore).Inc()
		s.toCache(ctx, key, r)
		return r, false
	}

	r := s.lookup(ctx, p)
	if r.Degraded() {
		metrics.ElevationLookups.WithLabelValues(metrics.SourceFallback).Inc()
		return r, false
	}

	metrics.ElevationLookups.WithLabelValues(metrics.SourceProvider).Inc()
	s.toCache(ctx, key, r)
	return r, true
}

func (s *ElevationService) lookup(ctx context.Context, p domain.GeoPoint) domain.ElevationReading {
	log := logging.FromContext(ctx)
	r := domain.ElevationReading{Ground: SyntheticElevation(p), Fallback: true}
	if s.provider == nil {
		return r
	}

	gctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	ground, err := s.provider.LookupElevation(gctx, p)
	cancel()
	switch {
	case err != nil:
		metrics.ProviderErrors.WithLabelValues("ground").Inc()
		log.Debug("ground lookup failed, using synthetic terrain", "lat", p.Lat, "lng", p.Lng, "error", err)
	case !plausibleGround(ground):
		metrics.ProviderErrors.WithLabelValues("ground").Inc()
		log.Debug("ground value rejected, using synthetic terrain", "lat", p.Lat, "lng", p.Lng, "value", ground)
	default:
		r.Ground = ground
		r.Fallback = false
	}

	octx, cancel := context.WithTimeout(ctx, s.opts.ObstructionTimeout)
	obstruction, err := s.provider.LookupObstruction(octx, p)
	cancel()
	switch {
	case err != nil:
		metrics.ProviderErrors.WithLabelValues("obstruction").Inc()
		log.Debug("obstruction lookup failed", "lat", p.Lat, "lng", p.Lng, "error", err)
		r.ObstructionFallback = true
	case math.IsNaN(obstruction) || math.IsInf(obstruction, 0) || obstruction < 0:
		metrics.ProviderErrors.WithLabelValues("obstruction").Inc()
		log.Debug("obstruction value rejected", "lat", p.Lat, "lng", p.Lng, "value", obstruction)
		r.ObstructionFallback = true
	default:
		r.Obstruction = obstruction
	}
	return r
}

func plausibleGround(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v > minPlausibleGround && v < maxPlausibleGround
}

func readingKey(p domain.GeoPoint) string {
	return fmt.Sprintf("elev:%.7f:%.7f", p.Lat, p.Lng)
}

func (s *ElevationService) fromCache(ctx context.Context, key string) (domain.ElevationReading, bool) {
	var r domain.ElevationReading
	if s.cache == nil {
		return r, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil || data == nil {
		return r, false
	}
	if err := json.Unmarshal(data, &r); err != nil || r.Degraded() {
		return domain.ElevationReading{}, false
	}
	return r, true
}

func (s *ElevationService) toCache(ctx context.Context, key string, r domain.ElevationReading) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(r)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, int(s.opts.CacheTTL.Seconds())); err != nil {
		logging.FromContext(ctx).Debug("elevation cache set failed", "key", key, "error", err)
	}
}

func (s *ElevationService) fromStore(ctx context.Context, p domain.GeoPoint) (domain.ElevationReading, bool) {
	if s.store == nil {
		return domain.ElevationReading{}, false
	}
	r, err := s.store.Get(ctx, p)
	if err != nil {
		logging.FromContext(ctx).Debug("elevation store get failed", "error", err)
		return domain.ElevationReading{}, false
	}
	if r == nil || r.Degraded() {
		return domain.ElevationReading{}, false
	}
	return *r, true
}
