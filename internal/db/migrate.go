package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
)

// Execer is the subset of pgxpool.Pool needed to apply migrations
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// migrations are applied in order; every statement is idempotent
var migrations = []struct {
	name string
	sql  string
}{
	{
		name: "travel_record",
		sql: `CREATE TABLE IF NOT EXISTS travel_record (
	id                    UUID PRIMARY KEY,
	user_id               TEXT NOT NULL,
	source                TEXT NOT NULL,
	destination           TEXT NOT NULL,
	distance_km           DOUBLE PRECISION NOT NULL,
	passenger_count       INTEGER NOT NULL DEFAULT 1 CHECK (passenger_count BETWEEN 1 AND 20),
	selected_travel_type  TEXT NOT NULL DEFAULT '',
	recommended_transport TEXT NOT NULL,
	co2_estimated_kg      DOUBLE PRECISION NOT NULL,
	co2_saved_kg          DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at            TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	},
	{
		name: "travel_record_user_idx",
		sql:  `CREATE INDEX IF NOT EXISTS travel_record_user_created_idx ON travel_record (user_id, created_at DESC)`,
	},
	{
		name: "destination",
		sql: `CREATE TABLE IF NOT EXISTS destination (
	id           BIGSERIAL PRIMARY KEY,
	name         TEXT NOT NULL UNIQUE,
	country      TEXT NOT NULL DEFAULT '',
	description  TEXT NOT NULL DEFAULT '',
	carbon_score INTEGER NOT NULL,
	transports   TEXT[] NOT NULL DEFAULT '{}',
	tags         TEXT[] NOT NULL DEFAULT '{}'
)`,
	},
}

// Migrate creates the tables used by the history store and destination catalog
func Migrate(ctx context.Context, db Execer) error {
	for _, m := range migrations {
		if _, err := db.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("migration %s failed: %w", m.name, err)
		}
		log.Debug().Str("migration", m.name).Msg("migration applied")
	}
	log.Info().Int("count", len(migrations)).Msg("database migrations applied")
	return nil
}
