package repository

import (
	"context"

	"medistore/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// MedicineRepository defines the interface for medicine data access operations.
// Lookups return (nil, nil) when the medicine does not exist.
type MedicineRepository interface {
	// GetAll retrieves the whole catalogue ordered by id.
	GetAll(ctx context.Context) ([]model.Medicine, error)

	// GetByID retrieves a single medicine by its ID.
	GetByID(ctx context.Context, id string) (*model.Medicine, error)

	// GetByIDs retrieves multiple medicines by their IDs.
	GetByIDs(ctx context.Context, ids []string) ([]model.Medicine, error)

	// Create inserts a new medicine.
	Create(ctx context.Context, medicine *model.Medicine) error

	// Update applies a partial update and returns the updated medicine.
	Update(ctx context.Context, id string, update model.MedicineUpdate) (*model.Medicine, error)

	// Delete removes a medicine. It reports whether a row was deleted.
	Delete(ctx context.Context, id string) (bool, error)

	// Restock atomically adds amount units to the medicine's stock.
	Restock(ctx context.Context, id string, amount int) (*model.Medicine, error)

	// DecrementStock subtracts quantity within tx only if enough stock remains.
	// It returns model.ErrInsufficientStock or model.ErrMedicineNotFound otherwise.
	DecrementStock(ctx context.Context, tx pgx.Tx, id string, quantity int) error

	// Inventory returns the number of medicines and the total units in stock.
	Inventory(ctx context.Context) (medicines int, units int, err error)
}

// OrderRepository defines the interface for order data access operations.
// Lookups return (nil, nil) when the order does not exist.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order by its ID along with its items.
	GetByID(ctx context.Context, id string) (*model.Order, error)

	// List retrieves orders newest first; an empty userID lists every order.
	List(ctx context.Context, userID string) ([]model.Order, error)

	// UpdateStatus moves an order from one status to another. It reports false
	// when the order no longer has the expected status.
	UpdateStatus(ctx context.Context, id string, from, to model.OrderStatus) (bool, error)

	// SetPrescription stores a prescription reference on the order.
	SetPrescription(ctx context.Context, id, ref string) (bool, error)

	// Summary counts orders per status and sums the total of revenue statuses.
	Summary(ctx context.Context) (map[model.OrderStatus]int, decimal.Decimal, error)
}

// UserRepository defines the interface for user data access operations.
// Lookups return (nil, nil) when the user does not exist.
type UserRepository interface {
	// Create inserts a new user, returning model.ErrUserExists on a duplicate
	// username or email.
	Create(ctx context.Context, user *model.User) error

	// GetByUsername retrieves a user by username.
	GetByUsername(ctx context.Context, username string) (*model.User, error)

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*model.User, error)
}
