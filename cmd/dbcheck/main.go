// Command dbcheck verifies that the configured database is reachable and
// reports its schema version and row counts. It can optionally apply
// migrations and load the seed catalogue.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"medistore/internal/config"
	"medistore/internal/database"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	migrate := flag.Bool("migrate", false, "apply pending migrations")
	seed := flag.Bool("seed", false, "load the seed users and catalogue (implies -migrate)")
	timeout := flag.Duration("timeout", 10*time.Second, "connection timeout")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}

	logger := config.NewLogger(config.LoggerConfig{Level: "warn", Format: "console"})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *migrate || *seed {
		if err := database.Migrate(cfg.ConnectionString(), logger); err != nil {
			return err
		}
	}

	pool, err := database.NewPool(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	if *seed {
		if err := database.Seed(ctx, pool, logger); err != nil {
			return err
		}
	}

	st, err := database.Inspect(ctx, pool)
	if err != nil {
		return err
	}

	fmt.Printf("Connected to database %q (PostgreSQL %s)\n", st.Database, st.ServerVersion)
	if st.SchemaVersion < 0 {
		fmt.Println("Schema: not migrated (run with -migrate)")
		return nil
	}
	fmt.Printf("Schema version: %d (dirty: %t)\n", st.SchemaVersion, st.Dirty)
	fmt.Printf("Medicines: %d  Users: %d  Orders: %d\n", st.Medicines, st.Users, st.Orders)
	return nil
}
