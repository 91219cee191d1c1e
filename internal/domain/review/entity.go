// internal/domain/review/entity.go
package review

import (
	"time"
)

// Review represents a product review. A user may review a product once,
// and only after receiving it in a delivered order.
type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;index;uniqueIndex:idx_product_user" json:"product_id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_product_user" json:"user_id"`
	Rating    int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Comment   string    `gorm:"type:text" json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name for Review
func (Review) TableName() string {
	return "reviews"
}
