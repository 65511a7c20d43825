// Package storefront holds a customer's or admin's client-side session: the
// signed-in user, the cached catalogue and orders, and the cart.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"medistore/internal/cart"
	"medistore/internal/model"
	"medistore/internal/payment"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNotLoggedIn is returned by operations that need a signed-in user.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrEmptyCart is returned when checking out an empty cart.
	ErrEmptyCart = errors.New("cart is empty")
)

// API is the subset of the storefront API a session uses.
type API interface {
	SetToken(token string)
	Signup(ctx context.Context, req model.SignupRequest) (*model.AuthResponse, error)
	Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error)
	Medicines(ctx context.Context) ([]model.Medicine, error)
	Orders(ctx context.Context, userID string) ([]model.Order, error)
	PlaceOrder(ctx context.Context, req model.OrderRequest) (*model.Order, error)
	CreateMedicine(ctx context.Context, req model.MedicineRequest) (*model.Medicine, error)
	Restock(ctx context.Context, id string, amount int) (*model.Medicine, error)
	UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error)
}

// DefaultDeliveryFee is charged when Options leaves DeliveryFee unset. It
// matches the server's default.
var DefaultDeliveryFee = decimal.NewFromInt(50)

// Options configures a Session.
type Options struct {
	// CheckoutDelay is a pause before an order is submitted.
	CheckoutDelay time.Duration
	// DeliveryFee must equal the server's fee or checkout fails with a
	// total mismatch. Zero selects DefaultDeliveryFee.
	DeliveryFee decimal.Decimal
	UPI           payment.UPI
}

// Session is a single user's view of the store. It is not safe for
// concurrent use.
type Session struct {
	api    API
	opts   Options
	logger zerolog.Logger

	user      *model.User
	catalogue []model.Medicine
	inventory cart.Inventory
	cart      *cart.Cart
	orders    []model.Order
}

// NewSession creates a signed-out session.
func NewSession(api API, opts Options, logger zerolog.Logger) *Session {
	if opts.DeliveryFee.IsZero() {
		opts.DeliveryFee = DefaultDeliveryFee
	}
	return &Session{
		api:       api,
		opts:      opts,
		logger:    logger.With().Str("component", "storefront").Logger(),
		inventory: cart.NewInventory(nil),
		cart:      cart.New(),
	}
}

// Signup creates an account, signs in and loads the store.
func (s *Session) Signup(ctx context.Context, username, email, password string) (*model.User, error) {
	resp, err := s.api.Signup(ctx, model.SignupRequest{Username: username, Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return s.signIn(ctx, resp)
}

// Login signs in and loads the store.
func (s *Session) Login(ctx context.Context, username, password string) (*model.User, error) {
	resp, err := s.api.Login(ctx, model.LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	return s.signIn(ctx, resp)
}

func (s *Session) signIn(ctx context.Context, resp *model.AuthResponse) (*model.User, error) {
	user := resp.User
	s.user = &user
	s.api.SetToken(resp.Token)

	s.logger.Info().Str("user_id", user.ID).Bool("admin", user.IsAdmin).Msg("signed in")

	if err := s.Refresh(ctx); err != nil {
		return &user, fmt.Errorf("signed in but failed to load store: %w", err)
	}
	return &user, nil
}

// Logout forgets the user, cart and orders. Server state is not touched.
func (s *Session) Logout() {
	s.user = nil
	s.api.SetToken("")
	s.cart.Clear()
	s.orders = nil
}

// User returns the signed-in user.
func (s *Session) User() (model.User, bool) {
	if s.user == nil {
		return model.User{}, false
	}
	return *s.user, true
}

// Refresh reloads the catalogue and, when signed in, the user's orders.
func (s *Session) Refresh(ctx context.Context) error {
	var (
		medicines []model.Medicine
		orders    []model.Order
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		medicines, err = s.api.Medicines(ctx)
		if err != nil {
			return fmt.Errorf("failed to load catalogue: %w", err)
		}
		return nil
	})
	if s.user != nil {
		g.Go(func() error {
			var err error
			orders, err = s.api.Orders(ctx, "")
			if err != nil {
				return fmt.Errorf("failed to load orders: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Warn().Err(err).Msg("refresh failed")
		return err
	}

	s.setCatalogue(medicines)
	if s.user != nil {
		s.orders = orders
	}
	return nil
}

// RefreshCatalog reloads only the catalogue.
func (s *Session) RefreshCatalog(ctx context.Context) error {
	medicines, err := s.api.Medicines(ctx)
	if err != nil {
		return fmt.Errorf("failed to load catalogue: %w", err)
	}
	s.setCatalogue(medicines)
	return nil
}

func (s *Session) setCatalogue(medicines []model.Medicine) {
	s.catalogue = medicines
	s.inventory = cart.NewInventory(medicines)
}

// Catalog returns the catalogue with stock reduced by what is in the cart.
func (s *Session) Catalog() []model.Medicine {
	return s.cart.EffectiveCatalog(s.catalogue)
}

// Orders returns the session's orders, newest first.
func (s *Session) Orders() []model.Order {
	out := make([]model.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// AddToCart adds one unit of a medicine, possibly opening the prescription gate.
func (s *Session) AddToCart(medicineID string) (cart.Result, error) {
	if s.user == nil {
		return cart.Unchanged, ErrNotLoggedIn
	}
	return s.cart.Add(s.inventory, medicineID)
}

// UpdateQuantity changes a cart line by delta.
func (s *Session) UpdateQuantity(medicineID string, delta int) bool {
	return s.cart.UpdateQuantity(s.inventory, medicineID, delta)
}

// PendingPrescription returns the medicine waiting for a prescription, if any.
func (s *Session) PendingPrescription() (model.Medicine, bool) {
	state, med := s.cart.Gate()
	return med, state == cart.GatePending
}

// ApprovePrescription attaches image and adds the pending medicine.
func (s *Session) ApprovePrescription(image string) (cart.Result, error) {
	return s.cart.ApprovePrescription(s.inventory, image)
}

// CancelPrescription abandons the pending medicine.
func (s *Session) CancelPrescription() {
	s.cart.CancelPrescription()
}

// Cart returns the cart lines.
func (s *Session) Cart() []cart.Line {
	return s.cart.Lines()
}

// CartCount returns the number of units in the cart.
func (s *Session) CartCount() int {
	return s.cart.Count()
}

// CartTotal returns the cart subtotal plus the delivery fee.
func (s *Session) CartTotal() decimal.Decimal {
	if s.cart.Empty() {
		return decimal.Zero
	}
	return s.cart.Subtotal(s.inventory).Add(s.opts.DeliveryFee)
}

// Checkout submits the cart as an order. On failure the cart is kept so the
// user can retry.
func (s *Session) Checkout(ctx context.Context, method model.PaymentMethod, address string) (*model.Order, error) {
	if s.user == nil {
		return nil, ErrNotLoggedIn
	}
	if s.cart.Empty() {
		return nil, ErrEmptyCart
	}

	if s.opts.CheckoutDelay > 0 {
		timer := time.NewTimer(s.opts.CheckoutDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	total := s.CartTotal()
	req := model.OrderRequest{
		UserID:            s.user.ID,
		CustomerName:      s.user.Username,
		Items:             s.cart.OrderItems(),
		PaymentMethod:     string(method),
		Total:             &total,
		DeliveryAddress:   strings.TrimSpace(address),
		PrescriptionImage: s.cart.Prescription(),
	}

	order, err := s.api.PlaceOrder(ctx, req)
	if err != nil {
		s.logger.Warn().Err(err).Int("items", len(req.Items)).Msg("checkout failed")
		return nil, err
	}

	s.cart.Clear()
	s.orders = append([]model.Order{*order}, s.orders...)

	if err := s.RefreshCatalog(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to refresh catalogue after checkout")
	}

	s.logger.Info().Str("order_id", order.ID).Str("total", order.Total.String()).Msg("order placed")
	return order, nil
}

// PaymentLink returns the UPI deep link for paying an order online.
func (s *Session) PaymentLink(order model.Order) string {
	return s.opts.UPI.Link(order.Total)
}
