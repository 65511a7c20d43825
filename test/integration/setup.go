package integration

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"medistore/internal/auth"
	"medistore/internal/cache"
	"medistore/internal/database"
	"medistore/internal/handler"
	"medistore/internal/payment"
	"medistore/internal/prescription"
	"medistore/internal/repository"
	"medistore/internal/router"
	"medistore/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	tokenSecret = "integration-secret"
	upiID       = "swamimedical@okaxis"
	payeeName   = "Swami Medical Store"
)

var deliveryFee = decimal.NewFromInt(50)

// TestDB represents a migrated and seeded test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container, applies the migrations and
// loads the seed catalogue.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()
	logger := zerolog.Nop()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	if err := database.Migrate(connStr, logger); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	if err := database.Seed(ctx, pool, logger); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// StartServer wires the full API stack against db and serves it over HTTP.
func StartServer(t *testing.T, db *TestDB) *httptest.Server {
	t.Helper()

	logger := zerolog.Nop()

	prescriptions, err := prescription.NewFileStore(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("failed to create prescription store: %v", err)
	}

	tokens, err := auth.NewTokenMaker(tokenSecret, time.Hour)
	if err != nil {
		t.Fatalf("failed to create token maker: %v", err)
	}

	medicineRepo := repository.NewMedicineRepository(db.Pool, logger)
	orderRepo := repository.NewOrderRepository(db.Pool, logger)
	userRepo := repository.NewUserRepository(db.Pool, logger)

	catalog := cache.NewNop()
	orderService := service.NewOrderService(orderRepo, medicineRepo, prescriptions, catalog, service.OrderConfig{
		DeliveryFee: deliveryFee,
		UPI:         payment.UPI{ID: upiID, PayeeName: payeeName},
	}, logger)

	mux := router.New(router.Handlers{
		Auth:     handler.NewAuthHandler(service.NewAuthService(userRepo, tokens, logger), logger),
		Medicine: handler.NewMedicineHandler(service.NewMedicineService(medicineRepo, catalog, logger), logger),
		Order:    handler.NewOrderHandler(orderService, logger),
	}, tokens, logger)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}
