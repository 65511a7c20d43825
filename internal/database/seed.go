package database

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"

	"medistore/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

//go:embed seed/*.json
var seedFiles embed.FS

type seedUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"isAdmin"`
}

// Seed inserts the default admin account and the starter catalogue.
// Existing rows are left untouched, so it is safe to run on every start.
func Seed(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) error {
	var users []seedUser
	if err := readSeed("seed/users.json", &users); err != nil {
		return err
	}

	var medicines []model.Medicine
	if err := readSeed("seed/medicines.json", &medicines); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, u := range users {
		batch.Queue(`
			INSERT INTO users (id, username, email, password, is_admin)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT DO NOTHING`,
			u.ID, u.Username, u.Email, u.Password, u.IsAdmin,
		)
	}
	for _, m := range medicines {
		batch.Queue(`
			INSERT INTO medicines (id, name, category, condition, is_wellness, price, stock,
				requires_prescription, description, usage, side_effects, image_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (id) DO NOTHING`,
			m.ID, m.Name, m.Category, m.Condition, m.IsWellness, m.Price, m.Stock,
			m.RequiresPrescription, m.Description, m.Usage, m.SideEffects, m.ImageURL,
		)
	}

	results := pool.SendBatch(ctx, batch)
	defer results.Close()

	inserted := int64(0)
	for i := 0; i < batch.Len(); i++ {
		tag, err := results.Exec()
		if err != nil {
			return fmt.Errorf("failed to seed database: %w", err)
		}
		inserted += tag.RowsAffected()
	}

	logger.Info().
		Int("users", len(users)).
		Int("medicines", len(medicines)).
		Int64("inserted", inserted).
		Msg("database seed complete")

	return nil
}

func readSeed(name string, dst any) error {
	data, err := seedFiles.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}
