package cart

import (
	"errors"
	"strings"

	"medistore/internal/model"
)

var (
	// ErrPrescriptionPending is returned when a second medicine would open
	// the gate while another is still waiting for an image.
	ErrPrescriptionPending = errors.New("another prescription is already pending")

	// ErrNoPendingPrescription is returned when approving with the gate closed.
	ErrNoPendingPrescription = errors.New("no prescription is pending")

	// ErrEmptyPrescription is returned when approving without an image.
	ErrEmptyPrescription = errors.New("prescription image is required")
)

// GateState is the state of the prescription gate.
type GateState int

const (
	GateIdle GateState = iota
	GatePending
)

// Gate holds at most one medicine waiting for a prescription image.
type Gate struct {
	state   GateState
	pending model.Medicine
}

func (g *Gate) open(med model.Medicine) error {
	if g.state == GatePending {
		return ErrPrescriptionPending
	}
	g.state = GatePending
	g.pending = med
	return nil
}

func (g *Gate) close() {
	g.state = GateIdle
	g.pending = model.Medicine{}
}

// Gate returns the gate state and the pending medicine, if any.
func (c *Cart) Gate() (GateState, model.Medicine) {
	return c.gate.state, c.gate.pending
}

// ApprovePrescription attaches image to the pending medicine and performs the
// deferred add. The gate closes even when stock ran out in the meantime, in
// which case the cart is left unchanged.
func (c *Cart) ApprovePrescription(inv Inventory, image string) (Result, error) {
	if c.gate.state != GatePending {
		return Unchanged, ErrNoPendingPrescription
	}
	if strings.TrimSpace(image) == "" {
		return Unchanged, ErrEmptyPrescription
	}

	id := c.gate.pending.ID
	c.gate.close()

	if c.Available(inv, id) <= 0 {
		return Unchanged, nil
	}

	c.increment(id, image)
	c.lastPrescription = image
	return Added, nil
}

// CancelPrescription closes the gate without touching the cart.
func (c *Cart) CancelPrescription() {
	c.gate.close()
}
