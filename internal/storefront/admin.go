package storefront

import (
	"context"
	"strings"

	"medistore/internal/model"
)

func (s *Session) requireAdmin() error {
	if s.user == nil {
		return ErrNotLoggedIn
	}
	if !s.user.IsAdmin {
		return model.ErrForbidden
	}
	return nil
}

// Restock adds amount units to a medicine and updates the cached catalogue.
func (s *Session) Restock(ctx context.Context, medicineID string, amount int) (*model.Medicine, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, model.ErrInvalidQuantity
	}

	med, err := s.api.Restock(ctx, medicineID, amount)
	if err != nil {
		return nil, err
	}
	s.replaceMedicine(*med)
	return med, nil
}

// AddMedicine creates a medicine. The session is stricter than the server:
// price must be positive and at least one unit must be stocked.
func (s *Session) AddMedicine(ctx context.Context, req model.MedicineRequest) (*model.Medicine, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Category) == "" {
		return nil, model.NewValidationError("Name and category are required")
	}
	if req.Price == nil || !req.Price.IsPositive() {
		return nil, model.NewValidationError("Price must be greater than zero")
	}
	if !model.HasPriceScale(*req.Price) {
		return nil, model.NewValidationError("Price cannot have more than 2 decimal places")
	}
	if req.Stock == nil || *req.Stock < 1 {
		return nil, model.NewValidationError("Stock must be at least 1")
	}

	med, err := s.api.CreateMedicine(ctx, req)
	if err != nil {
		return nil, err
	}
	s.setCatalogue(append(s.catalogue, *med))
	return med, nil
}

// UpdateOrderStatus moves an order along its lifecycle. An admin's own order
// cannot be confirmed or dispatched from their session.
func (s *Session) UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}
	for _, o := range s.orders {
		if o.ID == orderID && o.UserID == s.user.ID && status.RequiresIndependentApprover() {
			return nil, model.ErrSelfApproval
		}
	}

	order, err := s.api.UpdateOrderStatus(ctx, orderID, status)
	if err != nil {
		return nil, err
	}
	for i := range s.orders {
		if s.orders[i].ID == order.ID {
			s.orders[i] = *order
		}
	}
	return order, nil
}

func (s *Session) replaceMedicine(med model.Medicine) {
	catalogue := make([]model.Medicine, len(s.catalogue))
	copy(catalogue, s.catalogue)
	for i := range catalogue {
		if catalogue[i].ID == med.ID {
			catalogue[i] = med
		}
	}
	s.setCatalogue(catalogue)
}
