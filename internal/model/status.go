package model

import "strings"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPendingPayment OrderStatus = "Pending Payment"
	StatusConfirmed      OrderStatus = "Confirmed"
	StatusDispatched     OrderStatus = "Dispatched"
	StatusDelivered      OrderStatus = "Delivered"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	StatusPendingPayment,
	StatusConfirmed,
	StatusDispatched,
	StatusDelivered,
}

var statusTransitions = map[OrderStatus][]OrderStatus{
	StatusPendingPayment: {StatusConfirmed, StatusDispatched},
	StatusConfirmed:      {StatusDispatched},
	StatusDispatched:     {StatusDelivered},
	StatusDelivered:      nil,
}

// ParseOrderStatus converts s into an OrderStatus, rejecting unknown values.
func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(strings.TrimSpace(s))
	if _, ok := statusTransitions[st]; !ok {
		return "", ErrInvalidStatus
	}
	return st, nil
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions exist.
func (s OrderStatus) IsTerminal() bool {
	return len(statusTransitions[s]) == 0
}

// CountsAsRevenue reports whether an order in this status contributes to revenue.
func (s OrderStatus) CountsAsRevenue() bool {
	return s == StatusConfirmed || s == StatusDispatched || s == StatusDelivered
}

// RequiresIndependentApprover reports whether the ordering user may not set
// this status on their own order.
func (s OrderStatus) RequiresIndependentApprover() bool {
	return s == StatusConfirmed || s == StatusDispatched
}

// PaymentMethod is how the customer pays for an order.
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "Cash on Delivery"
	PaymentOnline         PaymentMethod = "Online Payment"
)

// ParsePaymentMethod converts s into a PaymentMethod, rejecting unknown values.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch pm := PaymentMethod(strings.TrimSpace(s)); pm {
	case PaymentCashOnDelivery, PaymentOnline:
		return pm, nil
	default:
		return "", ErrInvalidPaymentMethod
	}
}
