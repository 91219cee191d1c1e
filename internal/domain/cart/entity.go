// internal/domain/cart/entity.go
package cart

import (
	"time"
)

// CartStatus represents the cart lifecycle state
type CartStatus string

const (
	CartStatusActive    CartStatus = "active"
	CartStatusCompleted CartStatus = "completed"
	CartStatusAbandoned CartStatus = "abandoned"
)

// Cart represents a user's shopping cart. A user has exactly one active
// cart at a time; checkout marks it completed and creates a fresh one.
// Completed carts are retained because orders reference their items.
type Cart struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	Status    CartStatus `gorm:"not null;size:20;default:'active'" json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Relationships
	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items,omitempty"`
}

// CartItem represents one product line in a cart. PriceAtTime freezes the
// product price at the moment the row was last written, insulating order
// totals from later price changes.
type CartItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CartID      uint      `gorm:"not null;index;uniqueIndex:idx_cart_product" json:"cart_id"`
	ProductID   uint      `gorm:"not null;index;uniqueIndex:idx_cart_product" json:"product_id"`
	Quantity    int       `gorm:"not null;check:quantity > 0" json:"quantity"`
	PriceAtTime float64   `gorm:"not null;type:decimal(10,2)" json:"price_at_time"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName overrides
func (Cart) TableName() string     { return "carts" }
func (CartItem) TableName() string { return "cart_items" }
