package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"medistore/internal/cache"
	"medistore/internal/model"
	"medistore/internal/payment"
	"medistore/internal/prescription"
	"medistore/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// OrderConfig holds the business settings used when placing orders.
type OrderConfig struct {
	DeliveryFee decimal.Decimal
	UPI         payment.UPI
}

// orderService implements OrderService.
type orderService struct {
	orderRepo     repository.OrderRepository
	medicineRepo  repository.MedicineRepository
	prescriptions prescription.Store
	catalog       cache.Catalog
	cfg           OrderConfig
	logger        zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	medicineRepo repository.MedicineRepository,
	prescriptions prescription.Store,
	catalog cache.Catalog,
	cfg OrderConfig,
	logger zerolog.Logger,
) OrderService {
	if catalog == nil {
		catalog = cache.NewNop()
	}
	return &orderService{
		orderRepo:     orderRepo,
		medicineRepo:  medicineRepo,
		prescriptions: prescriptions,
		catalog:       catalog,
		cfg:           cfg,
		logger:        logger.With().Str("service", "order").Logger(),
	}
}

// PlaceOrder verifies a cart snapshot against authoritative prices and stock,
// then decrements stock and persists the order in one transaction.
func (s *orderService) PlaceOrder(ctx context.Context, actor model.Actor, req *model.OrderRequest) (*model.Order, error) {
	if actor.Anonymous() {
		return nil, model.ErrUnauthorised
	}
	if req == nil {
		return nil, model.NewValidationError("Order request is required")
	}
	if req.UserID != "" && req.UserID != actor.UserID {
		s.logger.Warn().
			Str("actor_id", actor.UserID).
			Str("user_id", req.UserID).
			Msg("order placed on behalf of another user")
		return nil, model.ErrForbidden
	}

	method, err := model.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	quantities, err := s.mergeItems(req.Items)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	// Stock rows are locked in id order so concurrent orders cannot deadlock.
	sort.Strings(ids)

	medicines, err := s.medicineRepo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load ordered medicines")
		return nil, fmt.Errorf("failed to load medicines: %w", err)
	}
	byID := make(map[string]model.Medicine, len(medicines))
	for _, m := range medicines {
		byID[m.ID] = m
	}

	now := time.Now().UTC()
	order := &model.Order{
		ID:              "order-" + uuid.Must(uuid.NewV7()).String(),
		UserID:          actor.UserID,
		CustomerName:    strings.TrimSpace(req.CustomerName),
		PaymentMethod:   method,
		Status:          model.StatusPendingPayment,
		DeliveryAddress: strings.TrimSpace(req.DeliveryAddress),
		DeliveryFee:     s.cfg.DeliveryFee,
		Subtotal:        decimal.Zero,
		CreatedAt:       now,
		UpdatedAt:       now,
		Date:            model.FormatOrderDate(now),
	}
	if order.CustomerName == "" {
		order.CustomerName = actor.Username
	}

	needsPrescription := false
	for _, id := range ids {
		m, ok := byID[id]
		if !ok {
			s.logger.Warn().Str("medicine_id", id).Msg("ordered medicine does not exist")
			return nil, model.NewDomainError(model.ErrCodeMedicineNotFound, fmt.Sprintf("Medicine %s not found", id))
		}
		needsPrescription = needsPrescription || m.RequiresPrescription

		qty := quantities[id]
		lineTotal := m.Price.Mul(decimal.NewFromInt(int64(qty)))
		order.Items = append(order.Items, model.OrderItem{
			ID:         uuid.Must(uuid.NewV7()).String(),
			OrderID:    order.ID,
			MedicineID: m.ID,
			Name:       m.Name,
			UnitPrice:  m.Price,
			Quantity:   qty,
			Subtotal:   lineTotal,
		})
		order.Subtotal = order.Subtotal.Add(lineTotal)
	}
	order.Total = order.Subtotal.Add(order.DeliveryFee)

	var image *prescription.Image
	if strings.TrimSpace(req.PrescriptionImage) != "" {
		img, err := prescription.Decode(req.PrescriptionImage)
		if err != nil {
			return nil, err
		}
		image = &img
	}
	if needsPrescription && image == nil {
		return nil, model.ErrPrescriptionRequired
	}

	if req.Total != nil && !req.Total.Equal(order.Total) {
		s.logger.Warn().
			Str("claimed", req.Total.String()).
			Str("computed", order.Total.String()).
			Msg("order total mismatch")
		return nil, model.ErrTotalMismatch
	}

	if image != nil {
		key := prescription.NewKey(order.ID, *image)
		if err := s.prescriptions.Put(ctx, key, *image); err != nil {
			return nil, fmt.Errorf("failed to store prescription: %w", err)
		}
		order.PrescriptionImage = key
	}

	if err := s.persist(ctx, order); err != nil {
		if order.PrescriptionImage != "" {
			if delErr := s.prescriptions.Delete(ctx, order.PrescriptionImage); delErr != nil {
				s.logger.Warn().Err(delErr).Str("key", order.PrescriptionImage).Msg("failed to remove orphaned prescription")
			}
		}
		return nil, err
	}

	s.invalidate(ctx)

	s.logger.Info().
		Str("order_id", order.ID).
		Str("user_id", order.UserID).
		Int("item_count", len(order.Items)).
		Str("total", order.Total.String()).
		Msg("order placed successfully")

	return order, nil
}

// persist decrements stock for every line and inserts the order atomically.
func (s *orderService) persist(ctx context.Context, order *model.Order) error {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to create order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	for _, item := range order.Items {
		if err = s.medicineRepo.DecrementStock(ctx, tx, item.MedicineID, item.Quantity); err != nil {
			if errors.Is(err, model.ErrInsufficientStock) {
				return model.NewDomainError(model.ErrCodeInsufficientStock,
					fmt.Sprintf("Insufficient stock for %s", item.Name))
			}
			return err
		}
	}

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID).Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, order.Items); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID).
			Int("item_count", len(order.Items)).
			Msg("failed to create order items")
		return fmt.Errorf("failed to create order items: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID).Msg("failed to commit transaction")
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// mergeItems validates order lines and sums duplicate medicine ids.
func (s *orderService) mergeItems(items []model.OrderItemRequest) (map[string]int, error) {
	if len(items) == 0 {
		return nil, model.NewValidationError("Order must contain at least one item")
	}

	quantities := make(map[string]int, len(items))
	for i, item := range items {
		id := strings.TrimSpace(item.MedicineID)
		if id == "" {
			return nil, model.NewValidationError(fmt.Sprintf("Item %d: medicine ID is required", i))
		}
		if item.Quantity <= 0 {
			s.logger.Warn().
				Int("item_index", i).
				Str("medicine_id", id).
				Int("quantity", item.Quantity).
				Msg("invalid quantity")
			return nil, model.ErrInvalidQuantity
		}
		quantities[id] += item.Quantity
	}

	return quantities, nil
}

// GetOrder returns an order visible to the actor.
func (s *orderService) GetOrder(ctx context.Context, actor model.Actor, id string) (*model.Order, error) {
	if actor.Anonymous() {
		return nil, model.ErrUnauthorised
	}

	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeOrder(actor, order); err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders lists orders visible to the actor.
func (s *orderService) ListOrders(ctx context.Context, actor model.Actor, userID string) ([]model.Order, error) {
	if actor.Anonymous() {
		return nil, model.ErrUnauthorised
	}
	if !actor.IsAdmin {
		userID = actor.UserID
	}

	orders, err := s.orderRepo.List(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus moves an order along its lifecycle. An admin may not confirm
// or dispatch an order they placed themselves.
func (s *orderService) UpdateStatus(ctx context.Context, actor model.Actor, id, status string) (*model.Order, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	next, err := model.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}

	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(next) {
		return nil, model.NewDomainError(model.ErrCodeInvalidStatusTransition,
			fmt.Sprintf("Cannot move order from %s to %s", order.Status, next))
	}

	if next.RequiresIndependentApprover() && actor.Owns(order.UserID) {
		s.logger.Warn().
			Str("order_id", id).
			Str("admin_id", actor.UserID).
			Str("status", string(next)).
			Msg("self-approval refused")
		return nil, model.ErrSelfApproval
	}

	updated, err := s.orderRepo.UpdateStatus(ctx, id, order.Status, next)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	if !updated {
		return nil, model.ErrStatusConflict
	}

	s.logger.Info().
		Str("order_id", id).
		Str("from", string(order.Status)).
		Str("to", string(next)).
		Str("admin_id", actor.UserID).
		Msg("order status updated")

	order.Status = next
	order.UpdatedAt = time.Now().UTC()
	return order, nil
}

// AttachPrescription stores a prescription image on an order and replaces
// any previous one.
func (s *orderService) AttachPrescription(ctx context.Context, actor model.Actor, id, payload string) (*model.Order, error) {
	if actor.Anonymous() {
		return nil, model.ErrUnauthorised
	}

	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeOrder(actor, order); err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, model.NewDomainError(model.ErrCodeInvalidStatusTransition,
			"Cannot attach a prescription to a delivered order")
	}

	img, err := prescription.Decode(payload)
	if err != nil {
		return nil, err
	}

	key := prescription.NewKey(order.ID, img)
	if err := s.prescriptions.Put(ctx, key, img); err != nil {
		return nil, fmt.Errorf("failed to store prescription: %w", err)
	}

	ok, err := s.orderRepo.SetPrescription(ctx, order.ID, key)
	if err != nil || !ok {
		if delErr := s.prescriptions.Delete(ctx, key); delErr != nil {
			s.logger.Warn().Err(delErr).Str("key", key).Msg("failed to remove orphaned prescription")
		}
		if err != nil {
			return nil, fmt.Errorf("failed to attach prescription: %w", err)
		}
		return nil, model.ErrOrderNotFound
	}

	if previous := order.PrescriptionImage; previous != "" {
		if err := s.prescriptions.Delete(ctx, previous); err != nil {
			s.logger.Warn().Err(err).Str("key", previous).Msg("failed to remove replaced prescription")
		}
	}

	order.PrescriptionImage = key
	return order, nil
}

// GetPrescription returns the stored prescription image of an order.
func (s *orderService) GetPrescription(ctx context.Context, actor model.Actor, id string) (prescription.Image, error) {
	order, err := s.GetOrder(ctx, actor, id)
	if err != nil {
		return prescription.Image{}, err
	}
	if order.PrescriptionImage == "" {
		return prescription.Image{}, model.ErrPrescriptionNotFound
	}

	img, err := s.prescriptions.Get(ctx, order.PrescriptionImage)
	if err != nil {
		if errors.Is(err, prescription.ErrNotFound) {
			s.logger.Warn().Str("order_id", id).Str("key", order.PrescriptionImage).Msg("prescription reference has no image")
			return prescription.Image{}, model.ErrPrescriptionNotFound
		}
		return prescription.Image{}, fmt.Errorf("failed to read prescription: %w", err)
	}
	return img, nil
}

// PaymentLink returns a UPI deep link for the order total.
func (s *orderService) PaymentLink(ctx context.Context, actor model.Actor, id string) (*model.PaymentLinkResponse, error) {
	order, err := s.GetOrder(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	return &model.PaymentLinkResponse{
		OrderID: order.ID,
		Amount:  order.Total,
		Link:    s.cfg.UPI.Link(order.Total),
	}, nil
}

// Stats summarises orders and inventory for the admin dashboard.
func (s *orderService) Stats(ctx context.Context, actor model.Actor) (*model.Stats, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	counts, revenue, err := s.orderRepo.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to summarise orders: %w", err)
	}

	medicines, units, err := s.medicineRepo.Inventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to summarise inventory: %w", err)
	}

	stats := &model.Stats{
		OrdersByStatus: make(map[model.OrderStatus]int, len(model.OrderStatuses)),
		PendingPayment: counts[model.StatusPendingPayment],
		Revenue:        revenue,
		TotalStock:     units,
		MedicineCount:  medicines,
	}
	for _, st := range model.OrderStatuses {
		stats.OrdersByStatus[st] = counts[st]
		stats.TotalOrders += counts[st]
	}

	return stats, nil
}

func (s *orderService) load(ctx context.Context, id string) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) invalidate(ctx context.Context) {
	if err := s.catalog.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate catalogue cache")
	}
}

// authorizeOrder allows admins and the ordering customer.
func authorizeOrder(actor model.Actor, order *model.Order) error {
	if actor.IsAdmin || actor.Owns(order.UserID) {
		return nil
	}
	return model.ErrForbidden
}
