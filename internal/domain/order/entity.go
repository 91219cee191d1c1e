// internal/domain/order/entity.go
package order

import (
	"time"
)

// OrderStatus represents the order status
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// PaymentMethod values accepted at checkout
var ValidPaymentMethods = []string{"credit_card", "debit_card", "paypal", "stripe"}

// Order represents an immutable snapshot of a checked-out cart. There is
// no separate order_items table: an order's lines are the cart_items of
// its (completed) cart_id, which is why carts referenced by orders are
// never deleted.
type Order struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	OrderNumber     string      `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	UserID          uint        `gorm:"not null;index" json:"user_id"`
	CartID          uint        `gorm:"not null;index" json:"cart_id"`
	Subtotal        float64     `gorm:"not null;type:decimal(10,2)" json:"subtotal"`
	Tax             float64     `gorm:"not null;type:decimal(10,2)" json:"tax"`
	TotalAmount     float64     `gorm:"not null;type:decimal(10,2)" json:"total_amount"`
	Status          OrderStatus `gorm:"not null;size:20;default:'pending'" json:"status"`
	ShippingAddress string      `gorm:"not null;size:500" json:"shipping_address"`
	PaymentMethod   string      `gorm:"not null;size:50" json:"payment_method"`
	Notes           string      `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// TableName overrides the table name for Order
func (Order) TableName() string {
	return "orders"
}

// IsValidStatus reports whether s is one of the five order statuses
func IsValidStatus(s string) bool {
	switch OrderStatus(s) {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// IsValidPaymentMethod reports whether m is an accepted payment method
func IsValidPaymentMethod(m string) bool {
	for _, valid := range ValidPaymentMethods {
		if m == valid {
			return true
		}
	}
	return false
}

// CanBeCancelledByUser checks if a customer may still cancel the order.
// Admin status updates are intentionally not bound by this check.
func (o *Order) CanBeCancelledByUser() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusProcessing
}
