// internal/domain/product/entity.go
package product

import (
	"time"
)

// Product represents the product entity. Price is stored as a
// two-decimal amount; stock_quantity may never go negative.
type Product struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"not null;size:200" json:"name"`
	Description   string    `gorm:"type:text" json:"description"`
	Price         float64   `gorm:"not null;type:decimal(10,2);check:price >= 0" json:"price"`
	StockQuantity int       `gorm:"not null;default:0;check:stock_quantity >= 0" json:"stock_quantity"`
	Category      string    `gorm:"size:100;index" json:"category"`
	ImageURL      string    `gorm:"size:500" json:"image_url"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName overrides the table name for Product
func (Product) TableName() string {
	return "products"
}

// IsInStock reports whether any quantity remains
func (p *Product) IsInStock() bool {
	return p.StockQuantity > 0
}
