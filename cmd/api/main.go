package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medistore/internal/auth"
	"medistore/internal/cache"
	"medistore/internal/config"
	"medistore/internal/database"
	"medistore/internal/handler"
	"medistore/internal/payment"
	"medistore/internal/prescription"
	"medistore/internal/repository"
	"medistore/internal/router"
	"medistore/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting medistore API server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := database.Migrate(cfg.Database.ConnectionString(), logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.Seed {
		if err := database.Seed(ctx, pool, logger); err != nil {
			return fmt.Errorf("failed to seed database: %w", err)
		}
	}

	prescriptions, err := newPrescriptionStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	catalog := cache.NewNop()
	if cfg.Cache.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Cache.Addr).Msg("redis unreachable, catalogue reads go to the database")
		} else {
			catalog = cache.NewRedisCatalog(rdb, cfg.Cache.Expiration(), logger)
			logger.Info().Str("addr", cfg.Cache.Addr).Msg("catalogue cache enabled")
		}
	}

	tokens, err := auth.NewTokenMaker(cfg.Auth.TokenSecret, cfg.Auth.TokenLifetime())
	if err != nil {
		return fmt.Errorf("failed to initialize token maker: %w", err)
	}

	// Initialize repositories
	medicineRepo := repository.NewMedicineRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)

	// Initialize services
	authService := service.NewAuthService(userRepo, tokens, logger)
	medicineService := service.NewMedicineService(medicineRepo, catalog, logger)
	orderService := service.NewOrderService(orderRepo, medicineRepo, prescriptions, catalog, service.OrderConfig{
		DeliveryFee: cfg.Store.DeliveryFee,
		UPI:         payment.UPI{ID: cfg.Store.UPIID, PayeeName: cfg.Store.PayeeName},
	}, logger)

	mux := router.New(router.Handlers{
		Auth:     handler.NewAuthHandler(authService, logger),
		Medicine: handler.NewMedicineHandler(medicineService, logger),
		Order:    handler.NewOrderHandler(orderService, logger),
	}, tokens, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newPrescriptionStore keeps images on local disk, preferring S3 when enabled.
// S3 failures at startup degrade to disk only.
func newPrescriptionStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (prescription.Store, error) {
	files, err := prescription.NewFileStore(cfg.Storage.PrescriptionDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prescription directory: %w", err)
	}

	if !cfg.S3.Enabled {
		logger.Info().Str("dir", cfg.Storage.PrescriptionDir).Msg("storing prescriptions on local disk (S3 disabled)")
		return files, nil
	}

	client, err := prescription.NewS3Client(ctx, cfg.S3.Region)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to initialise S3 client, falling back to local file system only")
		return files, nil
	}

	s3Store := prescription.NewS3Store(client, cfg.S3.Bucket, cfg.S3.Prefix, logger)
	return prescription.NewFallbackStore(s3Store, files, logger), nil
}
