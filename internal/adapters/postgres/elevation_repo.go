package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/terraview/internal/core/domain"
)

// ElevationRepo implements ports.ElevationStore with pgx.
type ElevationRepo struct {
	db     *DB
	maxAge time.Duration
}

// NewElevationRepo creates a new ElevationRepo. Rows fetched more than maxAge
// ago are treated as missing; maxAge <= 0 keeps them forever.
func NewElevationRepo(db *DB, maxAge time.Duration) *ElevationRepo {
	return &ElevationRepo{db: db, maxAge: maxAge}
}

// Get returns the stored reading at p, or nil when the point was never sampled
// or the row has expired.
func (r *ElevationRepo) Get(ctx context.Context, p domain.GeoPoint) (*domain.ElevationReading, error) {
	lat, lng := coordKey(p)

	var reading domain.ElevationReading
	err := r.db.Pool.QueryRow(ctx, `
		SELECT ground, obstruction
		FROM elevation_samples
		WHERE lat = $1::numeric AND lng = $2::numeric
		  AND ($3::double precision <= 0 OR fetched_at > now() - make_interval(secs => $3::double precision))
	`, lat, lng, maxAgeSeconds(r.maxAge)).Scan(&reading.Ground, &reading.Obstruction)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get elevation sample: %w", err)
	}
	return &reading, nil
}

// Put upserts a provider-backed reading.
func (r *ElevationRepo) Put(ctx context.Context, p domain.GeoPoint, reading domain.ElevationReading) error {
	if reading.Degraded() {
		return nil
	}
	lat, lng := coordKey(p)

	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO elevation_samples (lat, lng, ground, obstruction, fetched_at)
		VALUES ($1::numeric, $2::numeric, $3, $4, now())
		ON CONFLICT (lat, lng) DO UPDATE
		SET ground = EXCLUDED.ground,
		    obstruction = EXCLUDED.obstruction,
		    fetched_at = EXCLUDED.fetched_at
	`, lat, lng, reading.Ground, reading.Obstruction)
	if err != nil {
		return fmt.Errorf("put elevation sample: %w", err)
	}
	return nil
}

// PutBatch upserts many readings using pgx.Batch.
func (r *ElevationRepo) PutBatch(ctx context.Context, points []domain.GeoPoint, readings []domain.ElevationReading) error {
	if len(points) != len(readings) {
		return fmt.Errorf("put batch: %d points, %d readings", len(points), len(readings))
	}

	batch := &pgx.Batch{}
	for i, p := range points {
		if readings[i].Degraded() {
			continue
		}
		lat, lng := coordKey(p)
		batch.Queue(`
			INSERT INTO elevation_samples (lat, lng, ground, obstruction, fetched_at)
			VALUES ($1::numeric, $2::numeric, $3, $4, now())
			ON CONFLICT (lat, lng) DO UPDATE
			SET ground = EXCLUDED.ground, obstruction = EXCLUDED.obstruction, fetched_at = EXCLUDED.fetched_at
		`, lat, lng, readings[i].Ground, readings[i].Obstruction)
	}
	if batch.Len() == 0 {
		return nil
	}

	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

func maxAgeSeconds(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return d.Seconds()
}

// coordKey renders the point at the table's numeric(10,7) precision.
func coordKey(p domain.GeoPoint) (lat, lng string) {
	return fmt.Sprintf("%.7f", p.Lat), fmt.Sprintf("%.7f", p.Lng)
}
