package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceScale is the number of decimal places a stored price keeps.
const PriceScale = 2

// HasPriceScale reports whether p survives storage without rounding.
func HasPriceScale(p decimal.Decimal) bool {
	return p.Equal(p.Round(PriceScale))
}

// Medicine represents a catalogue entry and its authoritative stock level.
type Medicine struct {
	ID                   string          `json:"id" db:"id"`
	Name                 string          `json:"name" db:"name"`
	Category             string          `json:"category" db:"category"`
	Condition            string          `json:"condition,omitempty" db:"condition"`
	IsWellness           bool            `json:"isWellness,omitempty" db:"is_wellness"`
	Price                decimal.Decimal `json:"price" db:"price"`
	Stock                int             `json:"stock" db:"stock"`
	RequiresPrescription bool            `json:"requiresPrescription" db:"requires_prescription"`
	Description          string          `json:"description" db:"description"`
	Usage                string          `json:"usage" db:"usage"`
	SideEffects          string          `json:"sideEffects" db:"side_effects"`
	ImageURL             string          `json:"imageUrl,omitempty" db:"image_url"`
	CreatedAt            time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time       `json:"updatedAt" db:"updated_at"`
}

// MedicineRequest represents the payload for creating a medicine.
// Pointer fields distinguish "absent" from zero values.
type MedicineRequest struct {
	Name                 string           `json:"name"`
	Category             string           `json:"category"`
	Condition            string           `json:"condition,omitempty"`
	IsWellness           bool             `json:"isWellness,omitempty"`
	Price                *decimal.Decimal `json:"price"`
	Stock                *int             `json:"stock"`
	RequiresPrescription bool             `json:"requiresPrescription,omitempty"`
	Description          string           `json:"description,omitempty"`
	Usage                string           `json:"usage,omitempty"`
	SideEffects          string           `json:"sideEffects,omitempty"`
	ImageURL             string           `json:"imageUrl,omitempty"`
}

// MedicineUpdate is a partial update; nil fields are left unchanged.
type MedicineUpdate struct {
	Name                 *string          `json:"name,omitempty"`
	Category             *string          `json:"category,omitempty"`
	Condition            *string          `json:"condition,omitempty"`
	IsWellness           *bool            `json:"isWellness,omitempty"`
	Price                *decimal.Decimal `json:"price,omitempty"`
	Stock                *int             `json:"stock,omitempty"`
	RequiresPrescription *bool            `json:"requiresPrescription,omitempty"`
	Description          *string          `json:"description,omitempty"`
	Usage                *string          `json:"usage,omitempty"`
	SideEffects          *string          `json:"sideEffects,omitempty"`
	ImageURL             *string          `json:"imageUrl,omitempty"`
}

// RestockRequest is the payload for adding units to a medicine.
type RestockRequest struct {
	Amount int `json:"amount"`
}
