// internal/domain/review/service.go
package review

import (
	"errors"
	"time"

	"github.com/your-org/shopping-cart-backend/internal/config"
	"github.com/your-org/shopping-cart-backend/internal/domain/order"
	"github.com/your-org/shopping-cart-backend/internal/domain/product"
	"github.com/your-org/shopping-cart-backend/internal/pkg/apperr"
	"gorm.io/gorm"
)

// Service handles product review business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new review service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// CreateRequest represents review submission data. The product comes
// from the URL path, not the body.
type CreateRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=2000"`
}

// UpdateRequest represents a review edit. Pointer fields distinguish
// "not provided" from zero values.
type UpdateRequest struct {
	Rating  *int    `json:"rating" binding:"omitempty,min=1,max=5"`
	Comment *string `json:"comment" binding:"omitempty,max=2000"`
}

// WithAuthor is a review joined with its author's username
type WithAuthor struct {
	ID        uint      `json:"id"`
	ProductID uint      `json:"product_id"`
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListResponse is a product's review page with rating aggregates
type ListResponse struct {
	Reviews      []WithAuthor       `json:"reviews"`
	AvgRating    float64            `json:"avgRating"`
	ReviewCount  int64              `json:"reviewCount"`
	Distribution map[int]int64      `json:"distribution"`
	Pagination   product.Pagination `json:"pagination"`
}

// ListRequest represents review listing query parameters
type ListRequest struct {
	Page  int `form:"page,default=1"`
	Limit int `form:"limit,default=10"`
}

// ListForProduct retrieves a product's reviews, newest first, with the
// average rating and a 1-5 star distribution.
func (s *Service) ListForProduct(productID uint, req *ListRequest) (*ListResponse, error) {
	var p product.Product
	if err := s.db.First(&p, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Product not found")
		}
		return nil, apperr.Internal("Failed to retrieve product", err)
	}

	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 10
	}

	var total int64
	err := s.db.Model(&Review{}).Where("product_id = ?", productID).Count(&total).Error
	if err != nil {
		return nil, apperr.Internal("Failed to count reviews", err)
	}

	reviews := []WithAuthor{}
	offset := (req.Page - 1) * req.Limit
	err = s.db.Table("reviews r").
		Select("r.id, r.product_id, r.user_id, u.username, r.rating, r.comment, r.created_at, r.updated_at").
		Joins("JOIN users u ON r.user_id = u.id").
		Where("r.product_id = ?", productID).
		Order("r.created_at DESC").
		Offset(offset).Limit(req.Limit).
		Scan(&reviews).Error
	if err != nil {
		return nil, apperr.Internal("Failed to retrieve reviews", err)
	}

	var avg struct {
		AvgRating float64
	}
	err = s.db.Model(&Review{}).
		Select("COALESCE(AVG(rating), 0) as avg_rating").
		Where("product_id = ?", productID).
		Scan(&avg).Error
	if err != nil {
		return nil, apperr.Internal("Failed to aggregate ratings", err)
	}

	distribution := map[int]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	var buckets []struct {
		Rating int
		Count  int64
	}
	err = s.db.Model(&Review{}).
		Select("rating, COUNT(*) as count").
		Where("product_id = ?", productID).
		Group("rating").
		Scan(&buckets).Error
	if err != nil {
		return nil, apperr.Internal("Failed to aggregate rating distribution", err)
	}
	for _, b := range buckets {
		distribution[b.Rating] = b.Count
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &ListResponse{
		Reviews:      reviews,
		AvgRating:    avg.AvgRating,
		ReviewCount:  total,
		Distribution: distribution,
		Pagination: product.Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// Create submits a review. The caller must have a delivered order
// containing the product, and may review each product only once.
func (s *Service) Create(userID, productID uint, req *CreateRequest) (*Review, error) {
	var p product.Product
	if err := s.db.First(&p, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Product not found")
		}
		return nil, apperr.Internal("Failed to retrieve product", err)
	}

	delivered, err := s.hasDeliveredOrder(userID, productID)
	if err != nil {
		return nil, err
	}
	if !delivered {
		return nil, apperr.Forbidden("You can only review products from delivered orders")
	}

	var existing Review
	err = s.db.Where("product_id = ? AND user_id = ?", productID, userID).First(&existing).Error
	if err == nil {
		return nil, apperr.Conflict("You have already reviewed this product")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Internal("Failed to check existing review", err)
	}

	r := Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := s.db.Create(&r).Error; err != nil {
		return nil, apperr.Internal("Failed to create review", err)
	}

	return &r, nil
}

// Update edits the caller's own review
func (s *Service) Update(reviewID, userID uint, req *UpdateRequest) (*Review, error) {
	var r Review
	err := s.db.Where("id = ? AND user_id = ?", reviewID, userID).First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Review not found")
		}
		return nil, apperr.Internal("Failed to retrieve review", err)
	}

	updates := map[string]interface{}{}
	if req.Rating != nil {
		updates["rating"] = *req.Rating
	}
	if req.Comment != nil {
		updates["comment"] = *req.Comment
	}
	if len(updates) == 0 {
		return nil, apperr.Validation("No valid fields to update")
	}

	if err := s.db.Model(&r).Updates(updates).Error; err != nil {
		return nil, apperr.Internal("Failed to update review", err)
	}

	return &r, nil
}

// Delete removes a review. Owners may delete their own; admins any.
func (s *Service) Delete(reviewID, userID uint, isAdmin bool) error {
	query := s.db.Where("id = ?", reviewID)
	if !isAdmin {
		query = query.Where("user_id = ?", userID)
	}

	result := query.Delete(&Review{})
	if result.Error != nil {
		return apperr.Internal("Failed to delete review", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("Review not found")
	}
	return nil
}

// hasDeliveredOrder checks whether one of the user's delivered orders
// contained the product. Order lines live in cart_items, joined through
// the order's cart_id.
func (s *Service) hasDeliveredOrder(userID, productID uint) (bool, error) {
	var count int64
	err := s.db.Table("orders o").
		Joins("JOIN cart_items ci ON ci.cart_id = o.cart_id").
		Where("o.user_id = ? AND o.status = ? AND ci.product_id = ?",
			userID, order.OrderStatusDelivered, productID).
		Count(&count).Error
	if err != nil {
		return false, apperr.Internal("Failed to check purchase history", err)
	}
	return count > 0, nil
}
