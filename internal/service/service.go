package service

import (
	"context"

	"medistore/internal/model"
	"medistore/internal/prescription"
)

// MedicineService defines catalogue and inventory operations.
type MedicineService interface {
	// List returns the full catalogue.
	List(ctx context.Context) ([]model.Medicine, error)

	// Get returns one medicine or model.ErrMedicineNotFound.
	Get(ctx context.Context, id string) (*model.Medicine, error)

	// Create adds a medicine to the catalogue. Admin only.
	Create(ctx context.Context, actor model.Actor, req *model.MedicineRequest) (*model.Medicine, error)

	// Update applies a partial update. Admin only.
	Update(ctx context.Context, actor model.Actor, id string, update *model.MedicineUpdate) (*model.Medicine, error)

	// Delete removes a medicine. Admin only.
	Delete(ctx context.Context, actor model.Actor, id string) error

	// Restock atomically adds units to a medicine. Admin only.
	Restock(ctx context.Context, actor model.Actor, id string, amount int) (*model.Medicine, error)

	// ImageURL returns the medicine image or a generated placeholder.
	ImageURL(ctx context.Context, id string) (string, error)
}

// OrderService defines order placement and the order lifecycle.
type OrderService interface {
	// PlaceOrder verifies a cart snapshot, decrements stock and persists the order.
	PlaceOrder(ctx context.Context, actor model.Actor, req *model.OrderRequest) (*model.Order, error)

	// GetOrder returns an order visible to the actor.
	GetOrder(ctx context.Context, actor model.Actor, id string) (*model.Order, error)

	// ListOrders lists every order for admins, optionally filtered by userID,
	// and only the actor's own orders for customers.
	ListOrders(ctx context.Context, actor model.Actor, userID string) ([]model.Order, error)

	// UpdateStatus moves an order along its lifecycle. Admin only.
	UpdateStatus(ctx context.Context, actor model.Actor, id, status string) (*model.Order, error)

	// AttachPrescription stores a prescription image on an order.
	AttachPrescription(ctx context.Context, actor model.Actor, id, payload string) (*model.Order, error)

	// GetPrescription returns the stored prescription image of an order.
	GetPrescription(ctx context.Context, actor model.Actor, id string) (prescription.Image, error)

	// PaymentLink returns a UPI deep link for the order total.
	PaymentLink(ctx context.Context, actor model.Actor, id string) (*model.PaymentLinkResponse, error)

	// Stats summarises orders and inventory. Admin only.
	Stats(ctx context.Context, actor model.Actor) (*model.Stats, error)
}

// AuthService defines account operations.
type AuthService interface {
	// Signup creates a customer account and returns it with a token.
	Signup(ctx context.Context, req *model.SignupRequest) (*model.AuthResponse, error)

	// Login checks credentials and returns the user with a token.
	Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error)
}

// TokenIssuer creates bearer tokens for users.
type TokenIssuer interface {
	Issue(user *model.User) (string, error)
}

func requireAdmin(actor model.Actor) error {
	if actor.Anonymous() {
		return model.ErrUnauthorised
	}
	if !actor.IsAdmin {
		return model.ErrForbidden
	}
	return nil
}
