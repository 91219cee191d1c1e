// internal/domain/cart/service.go
package cart

import (
	"errors"

	"github.com/your-org/shopping-cart-backend/internal/config"
	"github.com/your-org/shopping-cart-backend/internal/domain/product"
	"github.com/your-org/shopping-cart-backend/internal/pkg/apperr"
	"github.com/your-org/shopping-cart-backend/internal/pkg/pricing"
	"gorm.io/gorm"
)

// Service handles cart business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new cart service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// AddItemRequest represents add-to-cart data
type AddItemRequest struct {
	ProductID uint `json:"product_id" binding:"required,min=1"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

// UpdateItemRequest represents a cart line quantity change
type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// ItemResponse is one cart line joined with live product data. Monetary
// fields carry the external two-decimal representation.
type ItemResponse struct {
	ID            uint   `json:"id"`
	ProductID     uint   `json:"product_id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Category      string `json:"category"`
	ImageURL      string `json:"image_url"`
	Quantity      int    `json:"quantity"`
	StockQuantity int    `json:"stock_quantity"`
	PriceAtTime   string `json:"price_at_time"`
	CurrentPrice  string `json:"current_price"`
	Subtotal      string `json:"subtotal"`
}

// CartResponse is the user's active cart with derived totals
type CartResponse struct {
	ID            uint           `json:"id"`
	Status        CartStatus     `json:"status"`
	Items         []ItemResponse `json:"items"`
	Subtotal      string         `json:"subtotal"`
	Tax           string         `json:"tax"`
	Total         string         `json:"total"`
	ItemCount     int            `json:"itemCount"`
	TotalQuantity int            `json:"totalQuantity"`
}

// itemRow is the scan target for cart lines joined with products
type itemRow struct {
	ID            uint
	ProductID     uint
	Name          string
	Description   string
	Category      string
	ImageURL      string
	Quantity      int
	StockQuantity int
	PriceAtTime   float64
	CurrentPrice  float64
}

// GetActiveCart returns the user's single active cart, creating one if
// absent. The partial unique index on (user_id, status='active') makes
// the create race-safe: a concurrent insert loses and falls back to the
// existing row.
func (s *Service) GetActiveCart(userID uint) (*Cart, error) {
	var c Cart
	err := s.db.Where(Cart{UserID: userID, Status: CartStatusActive}).
		FirstOrCreate(&c).Error
	if err != nil {
		// Lost the race against a concurrent create; the active cart
		// now exists, so read it back.
		retry := s.db.Where("user_id = ? AND status = ?", userID, CartStatusActive).First(&c)
		if retry.Error != nil {
			return nil, apperr.Internal("Failed to load active cart", err)
		}
	}
	return &c, nil
}

// GetCart returns the active cart with items and derived totals
func (s *Service) GetCart(userID uint) (*CartResponse, error) {
	c, err := s.GetActiveCart(userID)
	if err != nil {
		return nil, err
	}
	return s.buildResponse(c)
}

// AddItem inserts a new cart line or tops up an existing one. Every row
// write re-stamps price_at_time with the product's current price.
func (s *Service) AddItem(userID uint, req *AddItemRequest) (*CartResponse, error) {
	var prod product.Product
	if err := s.db.First(&prod, req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Product not found")
		}
		return nil, apperr.Internal("Failed to retrieve product", err)
	}

	if prod.StockQuantity < req.Quantity {
		return nil, apperr.InsufficientStock("Insufficient stock", prod.StockQuantity, -1)
	}

	c, err := s.GetActiveCart(userID)
	if err != nil {
		return nil, err
	}

	var existing CartItem
	err = s.db.Where("cart_id = ? AND product_id = ?", c.ID, req.ProductID).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		item := CartItem{
			CartID:      c.ID,
			ProductID:   req.ProductID,
			Quantity:    req.Quantity,
			PriceAtTime: prod.Price,
		}
		if err := s.db.Create(&item).Error; err != nil {
			return nil, apperr.Internal("Failed to add item to cart", err)
		}
	case err != nil:
		return nil, apperr.Internal("Failed to check cart item", err)
	default:
		newQuantity := existing.Quantity + req.Quantity
		if prod.StockQuantity < newQuantity {
			return nil, apperr.InsufficientStockInCart(
				"Insufficient stock for updated quantity", prod.StockQuantity, existing.Quantity)
		}
		existing.Quantity = newQuantity
		existing.PriceAtTime = prod.Price
		if err := s.db.Save(&existing).Error; err != nil {
			return nil, apperr.Internal("Failed to update cart item", err)
		}
	}

	return s.buildResponse(c)
}

// UpdateItem changes a cart line's quantity after verifying the line
// belongs to a cart owned by the caller.
func (s *Service) UpdateItem(userID, itemID uint, req *UpdateItemRequest) (*CartResponse, error) {
	item, owner, err := s.loadItemWithOwner(itemID)
	if err != nil {
		return nil, err
	}
	if owner.UserID != userID {
		return nil, apperr.Forbidden("Unauthorized")
	}

	var prod product.Product
	if err := s.db.First(&prod, item.ProductID).Error; err != nil {
		return nil, apperr.Internal("Failed to retrieve product", err)
	}

	if prod.StockQuantity < req.Quantity {
		return nil, apperr.InsufficientStock("Insufficient stock", prod.StockQuantity, -1)
	}

	item.Quantity = req.Quantity
	item.PriceAtTime = prod.Price
	if err := s.db.Save(item).Error; err != nil {
		return nil, apperr.Internal("Failed to update cart item", err)
	}

	return s.buildResponse(owner)
}

// RemoveItem deletes a cart line after the ownership check
func (s *Service) RemoveItem(userID, itemID uint) (*CartResponse, error) {
	item, owner, err := s.loadItemWithOwner(itemID)
	if err != nil {
		return nil, err
	}
	if owner.UserID != userID {
		return nil, apperr.Forbidden("Unauthorized")
	}

	if err := s.db.Delete(&CartItem{}, item.ID).Error; err != nil {
		return nil, apperr.Internal("Failed to remove cart item", err)
	}

	return s.buildResponse(owner)
}

// Clear deletes every line of the caller's active cart
func (s *Service) Clear(userID uint) error {
	var c Cart
	err := s.db.Where("user_id = ? AND status = ?", userID, CartStatusActive).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("No active cart found")
		}
		return apperr.Internal("Failed to load active cart", err)
	}

	if err := s.db.Where("cart_id = ?", c.ID).Delete(&CartItem{}).Error; err != nil {
		return apperr.Internal("Failed to clear cart", err)
	}

	return nil
}

// loadItemWithOwner loads a cart line and its owning cart in one join
func (s *Service) loadItemWithOwner(itemID uint) (*CartItem, *Cart, error) {
	var item CartItem
	if err := s.db.First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFound("Cart item not found")
		}
		return nil, nil, apperr.Internal("Failed to retrieve cart item", err)
	}

	var owner Cart
	if err := s.db.First(&owner, item.CartID).Error; err != nil {
		return nil, nil, apperr.Internal("Failed to retrieve cart", err)
	}

	return &item, &owner, nil
}

func (s *Service) buildResponse(c *Cart) (*CartResponse, error) {
	var rows []itemRow
	err := s.db.Table("cart_items ci").
		Select(`ci.id, ci.quantity, ci.price_at_time,
			p.id as product_id, p.name, p.description, p.category,
			p.image_url, p.price as current_price, p.stock_quantity`).
		Joins("JOIN products p ON ci.product_id = p.id").
		Where("ci.cart_id = ?", c.ID).
		Order("ci.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Internal("Failed to load cart items", err)
	}

	items := make([]ItemResponse, len(rows))
	var subtotal float64
	totalQuantity := 0
	for i, row := range rows {
		line := pricing.LineSubtotal(row.PriceAtTime, row.Quantity)
		subtotal += line
		totalQuantity += row.Quantity
		items[i] = ItemResponse{
			ID:            row.ID,
			ProductID:     row.ProductID,
			Name:          row.Name,
			Description:   row.Description,
			Category:      row.Category,
			ImageURL:      row.ImageURL,
			Quantity:      row.Quantity,
			StockQuantity: row.StockQuantity,
			PriceAtTime:   pricing.FormatAmount(row.PriceAtTime),
			CurrentPrice:  pricing.FormatAmount(row.CurrentPrice),
			Subtotal:      pricing.FormatAmount(line),
		}
	}

	tax := pricing.Tax(subtotal)
	return &CartResponse{
		ID:            c.ID,
		Status:        c.Status,
		Items:         items,
		Subtotal:      pricing.FormatAmount(subtotal),
		Tax:           pricing.FormatAmount(tax),
		Total:         pricing.FormatAmount(pricing.Round2(subtotal + tax)),
		ItemCount:     len(items),
		TotalQuantity: totalQuantity,
	}, nil
}
