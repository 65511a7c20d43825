package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Status describes a connected database: where it is, which schema version it
// carries, and how much data it holds.
type Status struct {
	Database      string
	ServerVersion string
	SchemaVersion int64
	Dirty         bool
	Medicines     int
	Users         int
	Orders        int
}

// Inspect reports the status of the database behind pool. Row counts are
// left at zero until migrations have run.
func Inspect(ctx context.Context, pool *pgxpool.Pool) (*Status, error) {
	st := &Status{SchemaVersion: -1}

	err := pool.QueryRow(ctx, "SELECT current_database(), current_setting('server_version')").
		Scan(&st.Database, &st.ServerVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to query server: %w", err)
	}

	var migrated bool
	err = pool.QueryRow(ctx, "SELECT to_regclass('schema_migrations') IS NOT NULL").Scan(&migrated)
	if err != nil {
		return nil, fmt.Errorf("failed to look up migrations table: %w", err)
	}
	if !migrated {
		return st, nil
	}

	err = pool.QueryRow(ctx, "SELECT version, dirty FROM schema_migrations LIMIT 1").
		Scan(&st.SchemaVersion, &st.Dirty)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to read schema version: %w", err)
	}

	err = pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM medicines),
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM orders)`).
		Scan(&st.Medicines, &st.Users, &st.Orders)
	if err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}

	return st, nil
}
