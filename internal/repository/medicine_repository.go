package repository

import (
	"context"
	"errors"
	"fmt"

	"medistore/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const medicineColumns = `id, name, category, condition, is_wellness, price, stock,
	requires_prescription, description, usage, side_effects, image_url, created_at, updated_at`

// medicineRepository implements the MedicineRepository interface using PostgreSQL.
type medicineRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewMedicineRepository creates a new PostgreSQL-backed medicine repository.
func NewMedicineRepository(pool *pgxpool.Pool, logger zerolog.Logger) MedicineRepository {
	return &medicineRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "medicine").Logger(),
	}
}

func scanMedicine(row pgx.Row) (*model.Medicine, error) {
	var m model.Medicine
	err := row.Scan(
		&m.ID, &m.Name, &m.Category, &m.Condition, &m.IsWellness, &m.Price, &m.Stock,
		&m.RequiresPrescription, &m.Description, &m.Usage, &m.SideEffects, &m.ImageURL,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *medicineRepository) queryMedicines(ctx context.Context, query string, args ...any) ([]model.Medicine, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query medicines")
		return nil, fmt.Errorf("failed to query medicines: %w", err)
	}
	defer rows.Close()

	medicines := []model.Medicine{}
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan medicine row")
			return nil, fmt.Errorf("failed to scan medicine: %w", err)
		}
		medicines = append(medicines, *m)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating medicine rows")
		return nil, fmt.Errorf("error iterating medicines: %w", err)
	}

	return medicines, nil
}

// GetAll retrieves the whole catalogue ordered by id.
func (r *medicineRepository) GetAll(ctx context.Context) ([]model.Medicine, error) {
	return r.queryMedicines(ctx, `SELECT `+medicineColumns+` FROM medicines ORDER BY id`)
}

// GetByID retrieves a single medicine by its ID.
func (r *medicineRepository) GetByID(ctx context.Context, id string) (*model.Medicine, error) {
	query := `SELECT ` + medicineColumns + ` FROM medicines WHERE id = $1`

	m, err := scanMedicine(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("medicine_id", id).Msg("medicine not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("medicine_id", id).Msg("failed to query medicine")
		return nil, fmt.Errorf("failed to query medicine: %w", err)
	}

	return m, nil
}

// GetByIDs retrieves multiple medicines by their IDs.
func (r *medicineRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Medicine, error) {
	if len(ids) == 0 {
		return []model.Medicine{}, nil
	}

	return r.queryMedicines(ctx, `SELECT `+medicineColumns+` FROM medicines WHERE id = ANY($1) ORDER BY id`, ids)
}

// Create inserts a new medicine.
func (r *medicineRepository) Create(ctx context.Context, m *model.Medicine) error {
	query := `
		INSERT INTO medicines (id, name, category, condition, is_wellness, price, stock,
			requires_prescription, description, usage, side_effects, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.pool.Exec(ctx, query,
		m.ID, m.Name, m.Category, m.Condition, m.IsWellness, m.Price, m.Stock,
		m.RequiresPrescription, m.Description, m.Usage, m.SideEffects, m.ImageURL,
		m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("medicine_id", m.ID).Msg("failed to create medicine")
		return fmt.Errorf("failed to create medicine: %w", err)
	}

	r.logger.Debug().Str("medicine_id", m.ID).Msg("medicine created successfully")

	return nil
}

// Update applies a partial update and returns the updated medicine.
func (r *medicineRepository) Update(ctx context.Context, id string, u model.MedicineUpdate) (*model.Medicine, error) {
	query := `
		UPDATE medicines SET
			name = COALESCE($2, name),
			category = COALESCE($3, category),
			condition = COALESCE($4, condition),
			is_wellness = COALESCE($5, is_wellness),
			price = COALESCE($6, price),
			stock = COALESCE($7, stock),
			requires_prescription = COALESCE($8, requires_prescription),
			description = COALESCE($9, description),
			usage = COALESCE($10, usage),
			side_effects = COALESCE($11, side_effects),
			image_url = COALESCE($12, image_url),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + medicineColumns

	m, err := scanMedicine(r.pool.QueryRow(ctx, query,
		id, u.Name, u.Category, u.Condition, u.IsWellness, u.Price, u.Stock,
		u.RequiresPrescription, u.Description, u.Usage, u.SideEffects, u.ImageURL,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("medicine_id", id).Msg("medicine not found for update")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("medicine_id", id).Msg("failed to update medicine")
		return nil, fmt.Errorf("failed to update medicine: %w", err)
	}

	return m, nil
}

// Delete removes a medicine. It reports whether a row was deleted.
func (r *medicineRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM medicines WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("medicine_id", id).Msg("failed to delete medicine")
		return false, fmt.Errorf("failed to delete medicine: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Restock atomically adds amount units to the medicine's stock.
func (r *medicineRepository) Restock(ctx context.Context, id string, amount int) (*model.Medicine, error) {
	query := `
		UPDATE medicines SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + medicineColumns

	m, err := scanMedicine(r.pool.QueryRow(ctx, query, id, amount))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("medicine_id", id).Msg("medicine not found for restock")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("medicine_id", id).Msg("failed to restock medicine")
		return nil, fmt.Errorf("failed to restock medicine: %w", err)
	}

	return m, nil
}

// DecrementStock subtracts quantity within tx only if enough stock remains.
// The row lock taken by the UPDATE makes concurrent decrements re-evaluate the
// predicate against the committed stock.
func (r *medicineRepository) DecrementStock(ctx context.Context, tx pgx.Tx, id string, quantity int) error {
	tag, err := tx.Exec(ctx, `
		UPDATE medicines SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2`,
		id, quantity,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("medicine_id", id).Msg("failed to decrement stock")
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM medicines WHERE id = $1)`, id).Scan(&exists); err != nil {
		r.logger.Error().Err(err).Str("medicine_id", id).Msg("failed to check medicine existence")
		return fmt.Errorf("failed to check medicine existence: %w", err)
	}
	if !exists {
		return model.ErrMedicineNotFound
	}

	r.logger.Warn().
		Str("medicine_id", id).
		Int("quantity", quantity).
		Msg("insufficient stock")
	return model.ErrInsufficientStock
}

// Inventory returns the number of medicines and the total units in stock.
func (r *medicineRepository) Inventory(ctx context.Context) (int, int, error) {
	var count, units int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*), COALESCE(SUM(stock), 0) FROM medicines`).Scan(&count, &units)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to summarise inventory")
		return 0, 0, fmt.Errorf("failed to summarise inventory: %w", err)
	}
	return count, units, nil
}
