package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "Pending"
	OrderComplete  OrderStatus = "Complete"
	OrderShipped   OrderStatus = "Shipped"
	OrderDelivered OrderStatus = "Delivered"
	OrderCancelled OrderStatus = "Cancelled"
)

// ParseOrderStatus is case-sensitive: the status set is fixed.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case OrderPending, OrderComplete, OrderShipped, OrderDelivered, OrderCancelled:
		return OrderStatus(s), true
	}
	return "", false
}

type OrderLineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	// Seller is derived from the catalog at pricing/read time, never stored
	// on the order row.
	Seller string `json:"seller,omitempty"`
}

type OrderSummary struct {
	ItemsSubtotal decimal.Decimal `json:"items_subtotal"`
	Shipping      decimal.Decimal `json:"shipping"`
	Discount      decimal.Decimal `json:"discount"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
}

type Order struct {
	ID            uuid.UUID       `json:"id"`
	CustomerEmail string          `json:"customer_email"`
	CustomerName  string          `json:"customer_name"`
	Phone         string          `json:"phone"`
	Address       string          `json:"address"`
	City          string          `json:"city"`
	Country       string          `json:"country"`
	Zip           string          `json:"zip"`
	Items         []OrderLineItem `json:"items"`
	Summary       OrderSummary    `json:"summary"`
	PaymentMethod string          `json:"payment_method"`
	Status        OrderStatus     `json:"status"`
	CouponCode    string          `json:"coupon_code,omitempty"`
	Revision      int64           `json:"revision"`
	CreatedAt     time.Time       `json:"created_at"`
}

// VendorOrderLine is one unwound order line attributed to a vendor via the
// catalog join, before regrouping into vendor-scoped sub-orders.
type VendorOrderLine struct {
	OrderID       uuid.UUID
	CustomerEmail string
	Status        OrderStatus
	PaymentMethod string
	CreatedAt     time.Time
	Item          OrderLineItem
}

// VendorOrder is one vendor's slice of a shared order: only that vendor's
// lines plus the order fields the vendor is allowed to see.
type VendorOrder struct {
	OrderID        uuid.UUID       `json:"order_id"`
	CustomerEmail  string          `json:"customer_email"`
	Status         OrderStatus     `json:"status"`
	PaymentMethod  string          `json:"payment_method"`
	Items          []OrderLineItem `json:"items"`
	TotalForVendor decimal.Decimal `json:"total_for_vendor"`
	CreatedAt      time.Time       `json:"created_at"`
}
