package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"route-optimizer-service/internal/platform/obs"
	"route-optimizer-service/internal/ports"
	"time"
)

// SQLMatrixCache is a Postgres-backed cache of directed travel legs.
// Entries older than TTL are ignored; a zero TTL never expires.
type SQLMatrixCache struct {
	DB  *sql.DB
	TTL time.Duration
}

func NewSQLMatrixCache(db *sql.DB, ttl time.Duration) *SQLMatrixCache {
	return &SQLMatrixCache{DB: db, TTL: ttl}
}

// Fetch cached legs for many keys, one query per origin.
func (s *SQLMatrixCache) GetLegs(
	ctx context.Context,
	keys []ports.LegKey,
) (_ map[ports.LegKey]ports.Leg, err error) {
	defer obs.Time(ctx, "matrix.cache.postgres.GetLegs")(&err)

	if s.DB == nil {
		return nil, errors.New("matrix cache: db is nil")
	}

	origins, byOrigin := groupByOrigin(keys)
	out := make(map[ports.LegKey]ports.Leg, len(keys))
	if len(origins) == 0 {
		return out, nil
	}

	cutoff := time.Unix(0, 0).UTC()
	if s.TTL > 0 {
		cutoff = time.Now().UTC().Add(-s.TTL)
	}

	q := `
	SELECT destination, distance_meters, duration_seconds
    FROM travel_legs
    WHERE origin = $1
        AND destination = ANY($2::text[])
        AND updated_at >= $3;
	`

	for _, origin := range origins {
		if err := s.scanOrigin(ctx, q, origin, byOrigin[origin], cutoff, out); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (s *SQLMatrixCache) scanOrigin(
	ctx context.Context,
	q string,
	origin string,
	destinations []string,
	cutoff time.Time,
	out map[ports.LegKey]ports.Leg,
) error {
	rows, err := s.DB.QueryContext(ctx, q, origin, destinations, cutoff)
	if err != nil {
		return fmt.Errorf("get matrix cache: query travel_legs table: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dest string
		var leg ports.Leg
		if err := rows.Scan(&dest, &leg.DistanceMeters, &leg.DurationSeconds); err != nil {
			return fmt.Errorf("get matrix cache: scan rows: %w", err)
		}
		out[ports.LegKey{From: origin, To: dest}] = leg
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("get matrix cache: row iteration: %w", err)
	}
	return nil
}

// Store legs, replacing existing entries.
func (s *SQLMatrixCache) PutLegs(ctx context.Context, legs map[ports.LegKey]ports.Leg) (err error) {
	defer obs.Time(ctx, "matrix.cache.postgres.PutLegs")(&err)

	if s.DB == nil {
		return errors.New("matrix cache: db is nil")
	}

	if len(legs) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert matrix cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO travel_legs (origin, destination, distance_meters, duration_seconds, updated_at)
    VALUES ($1, $2, $3, $4, now())
	ON CONFLICT (origin, destination) DO UPDATE
	SET distance_meters = EXCLUDED.distance_meters,
		duration_seconds = EXCLUDED.duration_seconds,
		updated_at = EXCLUDED.updated_at;
	`)
	if err != nil {
		return fmt.Errorf("insert matrix cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for k, leg := range legs {
		if k.From == "" || k.To == "" {
			return fmt.Errorf("insert matrix cache: empty leg key")
		}

		if _, err := stmt.ExecContext(ctx, k.From, k.To, leg.DistanceMeters, leg.DurationSeconds); err != nil {
			return fmt.Errorf("insert matrix cache %q->%q: %w", k.From, k.To, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert matrix cache commit: %w", err)
	}

	return nil
}
