package cart

import (
	"testing"

	"medistore/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_ApproveAddsLineWithPrescription(t *testing.T) {
	inv := NewInventory(testCatalogue())
	c := New()

	res, err := c.Add(inv, "med-b")
	require.NoError(t, err)
	assert.Equal(t, PrescriptionRequired, res)
	assert.True(t, c.Empty())

	state, pending := c.Gate()
	assert.Equal(t, GatePending, state)
	assert.Equal(t, "med-b", pending.ID)

	res, err = c.ApprovePrescription(inv, "data:image/png;base64,AAAA")
	require.NoError(t, err)
	assert.Equal(t, Added, res)

	state, _ = c.Gate()
	assert.Equal(t, GateIdle, state)
	require.Len(t, c.Lines(), 1)
	assert.Equal(t, "data:image/png;base64,AAAA", c.Lines()[0].Prescription)
	assert.Equal(t, "data:image/png;base64,AAAA", c.Prescription())
}

func TestGate_CancelLeavesCartUntouched(t *testing.T) {
	inv := NewInventory(testCatalogue())
	c := New()
	c.Add(inv, "med-a")
	c.Add(inv, "med-b")

	c.CancelPrescription()

	state, _ := c.Gate()
	assert.Equal(t, GateIdle, state)
	assert.Equal(t, []Line{{MedicineID: "med-a", Quantity: 1}}, c.Lines())
	assert.Empty(t, c.Prescription())
}

func TestGate_OnlyOnePending(t *testing.T) {
	catalogue := append(testCatalogue(), model.Medicine{
		ID: "med-e", Price: decimal.NewFromInt(40), Stock: 4, RequiresPrescription: true,
	})
	inv := NewInventory(catalogue)
	c := New()

	_, err := c.Add(inv, "med-b")
	require.NoError(t, err)

	res, err := c.Add(inv, "med-e")
	assert.ErrorIs(t, err, ErrPrescriptionPending)
	assert.Equal(t, Unchanged, res)

	_, pending := c.Gate()
	assert.Equal(t, "med-b", pending.ID, "first pending medicine stays in place")

	res, err = c.Add(inv, "med-a")
	require.NoError(t, err)
	assert.Equal(t, Added, res, "unrestricted medicines are unaffected by the gate")
}

func TestGate_ApproveErrors(t *testing.T) {
	inv := NewInventory(testCatalogue())
	c := New()

	_, err := c.ApprovePrescription(inv, "img")
	assert.ErrorIs(t, err, ErrNoPendingPrescription)

	c.Add(inv, "med-b")
	_, err = c.ApprovePrescription(inv, "  ")
	assert.ErrorIs(t, err, ErrEmptyPrescription)

	state, _ := c.Gate()
	assert.Equal(t, GatePending, state, "an empty image keeps the gate open")
}

func TestGate_StockGoneBeforeApproval(t *testing.T) {
	c := New()
	_, err := c.Add(NewInventory(testCatalogue()), "med-b")
	require.NoError(t, err)

	soldOut := testCatalogue()
	soldOut[1].Stock = 0

	res, err := c.ApprovePrescription(NewInventory(soldOut), "img")
	require.NoError(t, err)
	assert.Equal(t, Unchanged, res)
	assert.True(t, c.Empty())
	assert.Empty(t, c.Prescription())

	state, _ := c.Gate()
	assert.Equal(t, GateIdle, state)
}

func TestGate_ClearResets(t *testing.T) {
	inv := NewInventory(testCatalogue())
	c := New()
	c.Add(inv, "med-b")
	c.ApprovePrescription(inv, "img")
	c.Add(inv, "med-a")

	c.Clear()

	state, _ := c.Gate()
	assert.Equal(t, GateIdle, state)
	assert.Empty(t, c.Prescription())
	assert.Zero(t, c.Count())
}
