package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"route-optimizer-service/internal/platform/obs"
	"route-optimizer-service/internal/ports"
	"strings"
	"time"
)

// SQLite backed cache of directed travel legs for local runs.
// Entries older than TTL are ignored; a zero TTL never expires.
type SqliteMatrixCache struct {
	DB  *sql.DB
	TTL time.Duration

	now func() time.Time
}

func NewSqliteMatrixCache(db *sql.DB, ttl time.Duration) *SqliteMatrixCache {
	return &SqliteMatrixCache{DB: db, TTL: ttl, now: time.Now}
}

// Fetch cached legs for many keys, one query per origin.
func (s *SqliteMatrixCache) GetLegs(
	ctx context.Context,
	keys []ports.LegKey,
) (_ map[ports.LegKey]ports.Leg, err error) {
	defer obs.Time(ctx, "matrix.cache.sqlite.GetLegs")(&err)

	if s.DB == nil {
		return nil, errors.New("matrix cache: db is nil")
	}

	origins, byOrigin := groupByOrigin(keys)
	out := make(map[ports.LegKey]ports.Leg, len(keys))

	var cutoff int64
	if s.TTL > 0 {
		cutoff = s.clock().Add(-s.TTL).Unix()
	}

	for _, origin := range origins {
		destinations := byOrigin[origin]

		ph := make([]string, len(destinations))
		args := make([]any, 0, 2+len(destinations))
		args = append(args, origin, cutoff)
		for i, d := range destinations {
			ph[i] = "?"
			args = append(args, d)
		}

		// SQLite does not support binding slices directly in an IN (...) clause.
		// Only the placeholder structure is interpolated; all values remain parameterized.
		q := fmt.Sprintf(`
	SELECT
        destination,
        distance_meters,
        duration_seconds
    FROM travel_legs
    WHERE origin = ?
        AND updated_at >= ?
        AND destination IN (%s);
	`, strings.Join(ph, ","))

		if err := s.scan(ctx, q, origin, args, out); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (s *SqliteMatrixCache) scan(ctx context.Context, q, origin string, args []any, out map[ports.LegKey]ports.Leg) error {
	rows, err := s.DB.QueryContext(ctx, q, args...)
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
func (s *SqliteMatrixCache) PutLegs(ctx context.Context, legs map[ports.LegKey]ports.Leg) (err error) {
	defer obs.Time(ctx, "matrix.cache.sqlite.PutLegs")(&err)

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
	INSERT OR REPLACE INTO travel_legs (
        origin,
        destination,
        distance_meters,
        duration_seconds,
        updated_at
    )
    VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("insert matrix cache: db prepare: %w", err)
	}
	defer stmt.Close()

	stamp := s.clock().Unix()
	for k, leg := range legs {
		if k.From == "" || k.To == "" {
			return fmt.Errorf("insert matrix cache: empty leg key")
		}

		if _, err := stmt.ExecContext(ctx, k.From, k.To, leg.DistanceMeters, leg.DurationSeconds, stamp); err != nil {
			return fmt.Errorf("insert matrix cache %q->%q: %w", k.From, k.To, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert matrix cache commit: %w", err)
	}

	return nil
}

func (s *SqliteMatrixCache) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}
