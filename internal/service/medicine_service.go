package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"medistore/internal/cache"
	"medistore/internal/model"
	"medistore/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const placeholderImageURL = "https://via.placeholder.com/400x400/e0e7ff/6366f1?text="

// medicineService implements MedicineService.
type medicineService struct {
	medicineRepo repository.MedicineRepository
	catalog      cache.Catalog
	logger       zerolog.Logger
}

// NewMedicineService creates a new medicine service.
func NewMedicineService(medicineRepo repository.MedicineRepository, catalog cache.Catalog, logger zerolog.Logger) MedicineService {
	if catalog == nil {
		catalog = cache.NewNop()
	}
	return &medicineService{
		medicineRepo: medicineRepo,
		catalog:      catalog,
		logger:       logger.With().Str("service", "medicine").Logger(),
	}
}

// List returns the full catalogue, served from the cache when possible.
func (s *medicineService) List(ctx context.Context) ([]model.Medicine, error) {
	cached, gen, ok, cacheErr := s.catalog.Get(ctx)
	if cacheErr == nil && ok {
		return cached, nil
	}

	medicines, err := s.medicineRepo.GetAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list medicines")
		return nil, fmt.Errorf("failed to list medicines: %w", err)
	}

	// Without a generation the write could resurrect a stale catalogue.
	if cacheErr != nil {
		return medicines, nil
	}
	if err := s.catalog.Set(ctx, gen, medicines); err != nil {
		s.logger.Warn().Err(err).Msg("failed to populate catalogue cache")
	}

	return medicines, nil
}

// Get returns one medicine or model.ErrMedicineNotFound.
func (s *medicineService) Get(ctx context.Context, id string) (*model.Medicine, error) {
	medicine, err := s.medicineRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("medicine_id", id).Msg("failed to get medicine")
		return nil, fmt.Errorf("failed to get medicine: %w", err)
	}
	if medicine == nil {
		return nil, model.ErrMedicineNotFound
	}
	return medicine, nil
}

// Create adds a medicine to the catalogue.
func (s *medicineService) Create(ctx context.Context, actor model.Actor, req *model.MedicineRequest) (*model.Medicine, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateMedicineRequest(req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	medicine := &model.Medicine{
		ID:                   "med-" + uuid.Must(uuid.NewV7()).String(),
		Name:                 strings.TrimSpace(req.Name),
		Category:             strings.TrimSpace(req.Category),
		Condition:            req.Condition,
		IsWellness:           req.IsWellness,
		Price:                *req.Price,
		Stock:                *req.Stock,
		RequiresPrescription: req.RequiresPrescription,
		Description:          req.Description,
		Usage:                req.Usage,
		SideEffects:          req.SideEffects,
		ImageURL:             req.ImageURL,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.medicineRepo.Create(ctx, medicine); err != nil {
		return nil, fmt.Errorf("failed to create medicine: %w", err)
	}

	s.invalidate(ctx)

	s.logger.Info().
		Str("medicine_id", medicine.ID).
		Str("admin_id", actor.UserID).
		Msg("medicine created")

	return medicine, nil
}

// Update applies a partial update.
func (s *medicineService) Update(ctx context.Context, actor model.Actor, id string, update *model.MedicineUpdate) (*model.Medicine, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if update == nil {
		return nil, model.NewValidationError("Update body is required")
	}
	if err := validateMedicineUpdate(update); err != nil {
		return nil, err
	}

	medicine, err := s.medicineRepo.Update(ctx, id, *update)
	if err != nil {
		return nil, fmt.Errorf("failed to update medicine: %w", err)
	}
	if medicine == nil {
		return nil, model.ErrMedicineNotFound
	}

	s.invalidate(ctx)

	return medicine, nil
}

// Delete removes a medicine. Past orders keep their own snapshot of it.
func (s *medicineService) Delete(ctx context.Context, actor model.Actor, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	deleted, err := s.medicineRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete medicine: %w", err)
	}
	if !deleted {
		return model.ErrMedicineNotFound
	}

	s.invalidate(ctx)

	s.logger.Info().
		Str("medicine_id", id).
		Str("admin_id", actor.UserID).
		Msg("medicine deleted")

	return nil
}

// Restock atomically adds units to a medicine.
func (s *medicineService) Restock(ctx context.Context, actor model.Actor, id string, amount int) (*model.Medicine, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, model.ErrInvalidQuantity
	}

	medicine, err := s.medicineRepo.Restock(ctx, id, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to restock medicine: %w", err)
	}
	if medicine == nil {
		return nil, model.ErrMedicineNotFound
	}

	s.invalidate(ctx)

	s.logger.Info().
		Str("medicine_id", id).
		Int("amount", amount).
		Int("stock", medicine.Stock).
		Msg("medicine restocked")

	return medicine, nil
}

// ImageURL returns the medicine image or a generated placeholder.
func (s *medicineService) ImageURL(ctx context.Context, id string) (string, error) {
	medicine, err := s.medicineRepo.GetByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to get medicine: %w", err)
	}
	if medicine != nil && medicine.ImageURL != "" {
		return medicine.ImageURL, nil
	}

	text := id
	if r := []rune(text); len(r) > 10 {
		text = string(r[:10])
	}
	return placeholderImageURL + strings.ReplaceAll(url.QueryEscape(text), "+", "%20"), nil
}

func (s *medicineService) invalidate(ctx context.Context) {
	if err := s.catalog.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate catalogue cache")
	}
}

func validateMedicineRequest(req *model.MedicineRequest) error {
	if req == nil {
		return model.NewValidationError("Missing required fields")
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Category) == "" || req.Price == nil || req.Stock == nil {
		return model.NewValidationError("Missing required fields")
	}
	if req.Price.IsNegative() {
		return model.NewValidationError("Price cannot be negative")
	}
	if !model.HasPriceScale(*req.Price) {
		return model.NewValidationError("Price cannot have more than 2 decimal places")
	}
	if *req.Stock < 0 {
		return model.NewValidationError("Stock cannot be negative")
	}
	return nil
}

func validateMedicineUpdate(u *model.MedicineUpdate) error {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return model.NewValidationError("Name cannot be empty")
	}
	if u.Category != nil && strings.TrimSpace(*u.Category) == "" {
		return model.NewValidationError("Category cannot be empty")
	}
	if u.Price != nil && u.Price.IsNegative() {
		return model.NewValidationError("Price cannot be negative")
	}
	if u.Price != nil && !model.HasPriceScale(*u.Price) {
		return model.NewValidationError("Price cannot have more than 2 decimal places")
	}
	if u.Stock != nil && *u.Stock < 0 {
		return model.NewValidationError("Stock cannot be negative")
	}
	return nil
}
