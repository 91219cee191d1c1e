// internal/domain/product/service.go
package product

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/your-org/shopping-cart-backend/internal/config"
	"github.com/your-org/shopping-cart-backend/internal/pkg/apperr"
	"gorm.io/gorm"
)

// Service handles product catalog business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new product service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// ListRequest represents catalog query parameters
type ListRequest struct {
	Category string  `form:"category"`
	MinPrice float64 `form:"minPrice"`
	MaxPrice float64 `form:"maxPrice"`
	Search   string  `form:"search"`
	SortBy   string  `form:"sortBy,default=created_at"`
	Order    string  `form:"order,default=DESC"`
	Page     int     `form:"page,default=1"`
	Limit    int     `form:"limit,default=10"`
}

// CreateRequest represents admin product creation data
type CreateRequest struct {
	Name          string  `json:"name" binding:"required,max=200"`
	Description   string  `json:"description" binding:"max=1000"`
	Price         float64 `json:"price" binding:"min=0"`
	StockQuantity int     `json:"stock_quantity" binding:"min=0"`
	Category      string  `json:"category" binding:"max=100"`
	ImageURL      string  `json:"image_url" binding:"omitempty,url"`
}

// UpdateRequest represents admin product update data. Pointer fields
// distinguish "not provided" from zero values.
type UpdateRequest struct {
	Name          *string  `json:"name" binding:"omitempty,max=200"`
	Description   *string  `json:"description" binding:"omitempty,max=1000"`
	Price         *float64 `json:"price" binding:"omitempty,min=0"`
	StockQuantity *int     `json:"stock_quantity" binding:"omitempty,min=0"`
	Category      *string  `json:"category" binding:"omitempty,max=100"`
	ImageURL      *string  `json:"image_url" binding:"omitempty,url"`
}

// RatingSummary aggregates review data for a product
type RatingSummary struct {
	ProductID   uint    `json:"product_id"`
	AvgRating   float64 `json:"avgRating"`
	ReviewCount int     `json:"reviewCount"`
}

// ProductWithRating is a catalog entry enriched with review aggregates
type ProductWithRating struct {
	Product
	AvgRating   float64 `json:"avgRating"`
	ReviewCount int     `json:"reviewCount"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// ListResponse represents a paginated catalog page
type ListResponse struct {
	Products   []ProductWithRating `json:"products"`
	Pagination Pagination          `json:"pagination"`
}

// CategoryCount is a distinct category with its product count
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Sortable fields are allow-listed; anything else falls back to created_at.
var allowedSortFields = map[string]bool{
	"price":          true,
	"created_at":     true,
	"name":           true,
	"stock_quantity": true,
}

// List retrieves a filtered, sorted, paginated catalog page with rating
// aggregates computed on read.
func (s *Service) List(req *ListRequest) (*ListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 10
	}

	query := s.db.Model(&Product{})

	if req.Category != "" {
		query = query.Where("category = ?", req.Category)
	}
	if req.MinPrice > 0 {
		query = query.Where("price >= ?", req.MinPrice)
	}
	if req.MaxPrice > 0 {
		query = query.Where("price <= ?", req.MaxPrice)
	}
	if req.Search != "" {
		pattern := "%" + req.Search + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperr.Internal("Failed to count products", err)
	}

	query = query.Order(s.buildOrderClause(req.SortBy, req.Order))

	var products []Product
	offset := (req.Page - 1) * req.Limit
	if err := query.Offset(offset).Limit(req.Limit).Find(&products).Error; err != nil {
		return nil, apperr.Internal("Failed to retrieve products", err)
	}

	ratings, err := s.ratingsFor(products)
	if err != nil {
		return nil, err
	}

	enriched := make([]ProductWithRating, len(products))
	for i, p := range products {
		enriched[i] = ProductWithRating{Product: p}
		if r, ok := ratings[p.ID]; ok {
			enriched[i].AvgRating = r.AvgRating
			enriched[i].ReviewCount = r.ReviewCount
		}
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &ListResponse{
		Products: enriched,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// RecentReview is a review row joined with its author's username
type RecentReview struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// Detail is a single product with rating aggregates and recent reviews
type Detail struct {
	Product
	AvgRating     float64        `json:"avgRating"`
	ReviewCount   int            `json:"reviewCount"`
	RecentReviews []RecentReview `json:"recentReviews"`
}

// Get retrieves one product with its rating aggregate and the five most
// recent reviews.
func (s *Service) Get(id uint) (*Detail, error) {
	var p Product
	if err := s.db.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Product not found")
		}
		return nil, apperr.Internal("Failed to retrieve product", err)
	}

	detail := &Detail{Product: p, RecentReviews: []RecentReview{}}

	var summary struct {
		AvgRating   float64
		ReviewCount int
	}
	err := s.db.Table("reviews").
		Select("COALESCE(AVG(rating), 0) as avg_rating, COUNT(*) as review_count").
		Where("product_id = ?", id).
		Scan(&summary).Error
	if err != nil {
		return nil, apperr.Internal("Failed to aggregate ratings", err)
	}
	detail.AvgRating = summary.AvgRating
	detail.ReviewCount = summary.ReviewCount

	err = s.db.Table("reviews r").
		Select("r.id, r.user_id, u.username, r.rating, r.comment, r.created_at").
		Joins("JOIN users u ON r.user_id = u.id").
		Where("r.product_id = ?", id).
		Order("r.created_at DESC").
		Limit(5).
		Scan(&detail.RecentReviews).Error
	if err != nil {
		return nil, apperr.Internal("Failed to load recent reviews", err)
	}

	return detail, nil
}

// Create inserts a new product (admin only, enforced at the route level)
func (s *Service) Create(req *CreateRequest) (*Product, error) {
	p := Product{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		Category:      req.Category,
		ImageURL:      req.ImageURL,
	}

	if err := s.db.Create(&p).Error; err != nil {
		return nil, apperr.Internal("Failed to create product", err)
	}

	return &p, nil
}

// Update applies the provided fields to an existing product
func (s *Service) Update(id uint, req *UpdateRequest) (*Product, error) {
	var p Product
	if err := s.db.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Product not found")
		}
		return nil, apperr.Internal("Failed to retrieve product", err)
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.StockQuantity != nil {
		updates["stock_quantity"] = *req.StockQuantity
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}

	if len(updates) == 0 {
		return nil, apperr.Validation("No valid fields to update")
	}

	if err := s.db.Model(&p).Updates(updates).Error; err != nil {
		return nil, apperr.Internal("Failed to update product", err)
	}

	return &p, nil
}

// Delete removes a product unless it still sits in an active cart
func (s *Service) Delete(id uint) error {
	var count int64
	err := s.db.Table("cart_items ci").
		Joins("JOIN carts c ON ci.cart_id = c.id").
		Where("ci.product_id = ? AND c.status = ?", id, "active").
		Count(&count).Error
	if err != nil {
		return apperr.Internal("Failed to check active carts", err)
	}

	if count > 0 {
		return apperr.Conflict("Cannot delete product that is in active carts")
	}

	result := s.db.Delete(&Product{}, id)
	if result.Error != nil {
		return apperr.Internal("Failed to delete product", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("Product not found")
	}

	return nil
}

// Categories lists distinct categories with product counts
func (s *Service) Categories() ([]CategoryCount, error) {
	var categories []CategoryCount
	err := s.db.Model(&Product{}).
		Select("category, COUNT(*) as count").
		Where("category IS NOT NULL AND category != ''").
		Group("category").
		Order("count DESC").
		Scan(&categories).Error
	if err != nil {
		return nil, apperr.Internal("Failed to list categories", err)
	}
	return categories, nil
}

// Search performs a quick name/description lookup for typeahead use.
// Queries shorter than two characters return an empty result.
func (s *Service) Search(q string) ([]Product, error) {
	if len(strings.TrimSpace(q)) < 2 {
		return []Product{}, nil
	}

	pattern := "%" + q + "%"
	var products []Product
	err := s.db.
		Where("name LIKE ? OR description LIKE ?", pattern, pattern).
		Limit(10).
		Find(&products).Error
	if err != nil {
		return nil, apperr.Internal("Failed to search products", err)
	}
	return products, nil
}

// ratingsFor loads review aggregates for one catalog page of products
func (s *Service) ratingsFor(products []Product) (map[uint]RatingSummary, error) {
	result := make(map[uint]RatingSummary, len(products))
	if len(products) == 0 {
		return result, nil
	}

	ids := make([]uint, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}

	var summaries []RatingSummary
	err := s.db.Table("reviews").
		Select("product_id, AVG(rating) as avg_rating, COUNT(*) as review_count").
		Where("product_id IN ?", ids).
		Group("product_id").
		Scan(&summaries).Error
	if err != nil {
		return nil, apperr.Internal("Failed to aggregate ratings", err)
	}

	for _, r := range summaries {
		result[r.ProductID] = r
	}
	return result, nil
}

func (s *Service) buildOrderClause(sortBy, order string) string {
	if !allowedSortFields[sortBy] {
		sortBy = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(order, "ASC") {
		direction = "ASC"
	}
	return fmt.Sprintf("%s %s", sortBy, direction)
}
