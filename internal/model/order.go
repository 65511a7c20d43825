package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderDateLayout renders Order.Date, e.g. "17 Oct 2026, 03:04 pm".
const OrderDateLayout = "02 Jan 2006, 03:04 pm"

// Order represents a customer order.
type Order struct {
	ID                string          `json:"id" db:"id"`
	UserID            string          `json:"userId" db:"user_id"`
	CustomerName      string          `json:"customerName" db:"customer_name"`
	Items             []OrderItem     `json:"items"`
	Subtotal          decimal.Decimal `json:"subtotal" db:"subtotal"`
	DeliveryFee       decimal.Decimal `json:"deliveryFee" db:"delivery_fee"`
	Total             decimal.Decimal `json:"total" db:"total"`
	PaymentMethod     PaymentMethod   `json:"paymentMethod" db:"payment_method"`
	Status            OrderStatus     `json:"status" db:"status"`
	Date              string          `json:"date"`
	DeliveryAddress   string          `json:"deliveryAddress,omitempty" db:"delivery_address"`
	PrescriptionImage string          `json:"prescriptionImage,omitempty" db:"prescription_image"`
	CreatedAt         time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderItem is a frozen snapshot of a medicine at the time of ordering.
type OrderItem struct {
	ID         string          `json:"-" db:"id"`
	OrderID    string          `json:"-" db:"order_id"`
	MedicineID string          `json:"medicineId" db:"medicine_id"`
	Name       string          `json:"name" db:"name"`
	UnitPrice  decimal.Decimal `json:"unitPrice" db:"unit_price"`
	Quantity   int             `json:"quantity" db:"quantity"`
	Subtotal   decimal.Decimal `json:"subtotal" db:"subtotal"`
}

// OrderRequest represents the request payload for creating an order.
type OrderRequest struct {
	UserID            string             `json:"userId,omitempty"`
	CustomerName      string             `json:"customerName,omitempty"`
	Items             []OrderItemRequest `json:"items"`
	PaymentMethod     string             `json:"paymentMethod"`
	Total             *decimal.Decimal   `json:"total,omitempty"`
	DeliveryAddress   string             `json:"deliveryAddress,omitempty"`
	PrescriptionImage string             `json:"prescriptionImage,omitempty"`
}

// OrderItemRequest represents a single item in an order request.
type OrderItemRequest struct {
	MedicineID string `json:"medicineId"`
	Quantity   int    `json:"quantity"`
}

// StatusUpdateRequest is the payload for an admin status transition.
type StatusUpdateRequest struct {
	Status string `json:"status"`
}

// PrescriptionRequest carries an image payload, either raw base64 or a data URL.
type PrescriptionRequest struct {
	Image string `json:"image"`
}

// PaymentLinkResponse wraps a UPI deep link for an order.
type PaymentLinkResponse struct {
	OrderID string          `json:"orderId"`
	Amount  decimal.Decimal `json:"amount"`
	Link    string          `json:"link"`
}

// Stats summarises orders and inventory for the admin dashboard.
type Stats struct {
	TotalOrders    int                 `json:"totalOrders"`
	PendingPayment int                 `json:"pendingPayment"`
	OrdersByStatus map[OrderStatus]int `json:"ordersByStatus"`
	Revenue        decimal.Decimal     `json:"revenue"`
	TotalStock     int                 `json:"totalStock"`
	MedicineCount  int                 `json:"medicineCount"`
}

// FormatOrderDate renders t in the storefront's display layout.
func FormatOrderDate(t time.Time) string {
	return t.Format(OrderDateLayout)
}
