// Package cart holds the client-side cart and reconciles it against the last
// known inventory. The server remains authoritative for stock; the cart only
// prevents a session from requesting more than it has seen available.
package cart

import (
	"medistore/internal/model"

	"github.com/shopspring/decimal"
)

// Result reports what an add operation did.
type Result int

const (
	// Unchanged means the cart was not modified.
	Unchanged Result = iota
	// Added means a unit was added to the cart.
	Added
	// PrescriptionRequired means the prescription gate was opened and the
	// cart is waiting for an image before adding the medicine.
	PrescriptionRequired
)

func (r Result) String() string {
	switch r {
	case Added:
		return "added"
	case PrescriptionRequired:
		return "prescription required"
	default:
		return "unchanged"
	}
}

// Inventory is a lookup of the last fetched catalogue by medicine id.
type Inventory map[string]model.Medicine

// NewInventory indexes medicines by id.
func NewInventory(medicines []model.Medicine) Inventory {
	inv := make(Inventory, len(medicines))
	for _, m := range medicines {
		inv[m.ID] = m
	}
	return inv
}

// Line is one cart entry. Prices are resolved against the inventory on read.
type Line struct {
	MedicineID   string
	Quantity     int
	Prescription string
}

// Cart is a single session's cart. It is not safe for concurrent use.
type Cart struct {
	lines            []Line
	gate             Gate
	lastPrescription string
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Add puts one unit of a medicine in the cart. Medicines that need a
// prescription and are not yet in the cart open the gate instead.
func (c *Cart) Add(inv Inventory, medicineID string) (Result, error) {
	med, ok := inv[medicineID]
	if !ok || c.Available(inv, medicineID) <= 0 {
		return Unchanged, nil
	}

	i := c.index(medicineID)
	if med.RequiresPrescription && i < 0 {
		if err := c.gate.open(med); err != nil {
			return Unchanged, err
		}
		return PrescriptionRequired, nil
	}

	c.increment(medicineID, "")
	return Added, nil
}

// UpdateQuantity changes a line by delta. Increases are refused when nothing
// is left to buy and are clamped to known stock; the line is removed when
// its quantity reaches zero. It reports whether the cart changed.
func (c *Cart) UpdateQuantity(inv Inventory, medicineID string, delta int) bool {
	i := c.index(medicineID)
	if i < 0 || delta == 0 {
		return false
	}

	if delta > 0 {
		available := c.Available(inv, medicineID)
		if available <= 0 {
			return false
		}
		delta = min(delta, available)
	}

	qty := max(0, c.lines[i].Quantity+delta)
	if qty == 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
		return true
	}
	c.lines[i].Quantity = qty
	return true
}

// Available returns how many more units of a medicine this cart may take.
func (c *Cart) Available(inv Inventory, medicineID string) int {
	med, ok := inv[medicineID]
	if !ok {
		return 0
	}
	return max(0, med.Stock-c.Quantity(medicineID))
}

// EffectiveCatalog returns a copy of medicines with stock reduced by what is
// already in the cart, never below zero.
func (c *Cart) EffectiveCatalog(medicines []model.Medicine) []model.Medicine {
	out := make([]model.Medicine, len(medicines))
	for i, m := range medicines {
		m.Stock = max(0, m.Stock-c.Quantity(m.ID))
		out[i] = m
	}
	return out
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Quantity returns the quantity of a medicine in the cart.
func (c *Cart) Quantity(medicineID string) int {
	if i := c.index(medicineID); i >= 0 {
		return c.lines[i].Quantity
	}
	return 0
}

// Count returns the total number of units in the cart.
func (c *Cart) Count() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}

// Subtotal prices the cart at current inventory prices. Lines whose medicine
// is no longer listed contribute nothing.
func (c *Cart) Subtotal(inv Inventory) decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		if med, ok := inv[l.MedicineID]; ok {
			total = total.Add(med.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
		}
	}
	return total
}

// Prescription returns the most recently attached prescription image.
func (c *Cart) Prescription() string {
	return c.lastPrescription
}

// OrderItems converts the cart into order request lines.
func (c *Cart) OrderItems() []model.OrderItemRequest {
	items := make([]model.OrderItemRequest, 0, len(c.lines))
	for _, l := range c.lines {
		items = append(items, model.OrderItemRequest{MedicineID: l.MedicineID, Quantity: l.Quantity})
	}
	return items
}

// Clear empties the cart, closes the gate and forgets the last prescription.
func (c *Cart) Clear() {
	c.lines = nil
	c.gate.close()
	c.lastPrescription = ""
}

func (c *Cart) index(medicineID string) int {
	for i, l := range c.lines {
		if l.MedicineID == medicineID {
			return i
		}
	}
	return -1
}

func (c *Cart) increment(medicineID, prescription string) {
	if i := c.index(medicineID); i >= 0 {
		c.lines[i].Quantity++
		if prescription != "" {
			c.lines[i].Prescription = prescription
		}
		return
	}
	c.lines = append(c.lines, Line{MedicineID: medicineID, Quantity: 1, Prescription: prescription})
}
