package repository

import (
	"context"
	"testing"
	"time"

	"medistore/internal/database"
	"medistore/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL testcontainer with the application schema
// and returns a connection pool.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if testing.Short() {
		t.Skip("skipping container test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, database.Migrate(connStr, zerolog.Nop()))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// seedMedicines inserts test medicines into the database.
func seedMedicines(t *testing.T, pool *pgxpool.Pool, medicines []model.Medicine) {
	ctx := context.Background()

	query := `
		INSERT INTO medicines (id, name, category, price, stock, requires_prescription)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, m := range medicines {
		_, err := pool.Exec(ctx, query, m.ID, m.Name, m.Category, m.Price, m.Stock, m.RequiresPrescription)
		require.NoError(t, err)
	}
}

func testMedicine(id string, price int64, stock int, rx bool) model.Medicine {
	return model.Medicine{
		ID:                   id,
		Name:                 "Medicine " + id,
		Category:             "Tablets & Capsules",
		Price:                decimal.NewFromInt(price),
		Stock:                stock,
		RequiresPrescription: rx,
	}
}
