package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"route-optimizer-service/internal/ports"
)

// InitPostgresSchema creates the travel_legs table used by SQLMatrixCache.
func InitPostgresSchema(db *sql.DB) error {
	return initSchema(db, []string{
		`
	CREATE TABLE IF NOT EXISTS travel_legs (
        origin TEXT NOT NULL,
        destination TEXT NOT NULL,
        distance_meters DOUBLE PRECISION NOT NULL,
        duration_seconds DOUBLE PRECISION NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        PRIMARY KEY (origin, destination)
    );
	`,
		`
	CREATE INDEX IF NOT EXISTS idx_travel_legs_updated_at
    ON travel_legs(updated_at);
	`,
	})
}

// InitSqliteSchema creates the travel_legs table used by SqliteMatrixCache.
// updated_at holds unix seconds.
func InitSqliteSchema(db *sql.DB) error {
	return initSchema(db, []string{
		`
	CREATE TABLE IF NOT EXISTS travel_legs (
        origin TEXT NOT NULL,
        destination TEXT NOT NULL,
        distance_meters REAL NOT NULL,
        duration_seconds REAL NOT NULL,
        updated_at INTEGER NOT NULL,
        PRIMARY KEY (origin, destination)
    );
	`,
	})
}

func initSchema(db *sql.DB, statements []string) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// groupByOrigin splits keys by origin, dropping empty and duplicate keys.
// Origins keep first-seen order.
func groupByOrigin(keys []ports.LegKey) ([]string, map[string][]string) {
	seen := make(map[ports.LegKey]struct{}, len(keys))
	order := make([]string, 0)
	byOrigin := make(map[string][]string)
	for _, k := range keys {
		if k.From == "" || k.To == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		if _, ok := byOrigin[k.From]; !ok {
			order = append(order, k.From)
		}
		byOrigin[k.From] = append(byOrigin[k.From], k.To)
	}
	return order, byOrigin
}
