// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/shopping-cart-backend/internal/config"
	"github.com/your-org/shopping-cart-backend/internal/domain/analytics"
	"github.com/your-org/shopping-cart-backend/internal/domain/cart"
	"github.com/your-org/shopping-cart-backend/internal/domain/product"
	"github.com/your-org/shopping-cart-backend/internal/domain/user"
	"github.com/your-org/shopping-cart-backend/internal/pkg/apperr"
	"github.com/your-org/shopping-cart-backend/internal/pkg/email"
	"github.com/your-org/shopping-cart-backend/internal/pkg/pricing"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service handles order business logic
type Service struct {
	db       *gorm.DB
	config   *config.Config
	notifier email.Notifier
	tracker  *analytics.Tracker
	logger   *logrus.Logger
}

// NewService creates a new order service
func NewService(db *gorm.DB, cfg *config.Config, notifier email.Notifier, tracker *analytics.Tracker, logger *logrus.Logger) *Service {
	return &Service{
		db:       db,
		config:   cfg,
		notifier: notifier,
		tracker:  tracker,
		logger:   logger,
	}
}

// CreateRequest represents checkout data
type CreateRequest struct {
	ShippingAddress string `json:"shipping_address" binding:"required,max=500"`
	PaymentMethod   string `json:"payment_method" binding:"required"`
	Notes           string `json:"notes" binding:"max=1000"`
}

// UpdateStatusRequest represents an admin status change
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ItemDetail is one order line, reconstructed from the completed cart
type ItemDetail struct {
	ProductID   uint   `json:"product_id"`
	Name        string `json:"name"`
	ImageURL    string `json:"image_url"`
	Quantity    int    `json:"quantity"`
	PriceAtTime string `json:"price_at_time"`
	Subtotal    string `json:"subtotal"`
}

// Summary is one order in a list view
type Summary struct {
	ID          uint        `json:"id"`
	OrderNumber string      `json:"order_number"`
	Status      OrderStatus `json:"status"`
	Subtotal    string      `json:"subtotal"`
	Tax         string      `json:"tax"`
	TotalAmount string      `json:"total_amount"`
	ItemCount   int         `json:"item_count"`
	CreatedAt   time.Time   `json:"created_at"`
}

// ListResponse is a paginated order history page
type ListResponse struct {
	Orders     []Summary          `json:"orders"`
	Pagination product.Pagination `json:"pagination"`
}

// Detail is a full order with its reconstructed lines
type Detail struct {
	ID              uint         `json:"id"`
	OrderNumber     string       `json:"order_number"`
	UserID          uint         `json:"user_id"`
	Status          OrderStatus  `json:"status"`
	Subtotal        string       `json:"subtotal"`
	Tax             string       `json:"tax"`
	TotalAmount     string       `json:"total_amount"`
	ShippingAddress string       `json:"shipping_address"`
	PaymentMethod   string       `json:"payment_method"`
	Notes           string       `json:"notes"`
	Items           []ItemDetail `json:"items"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// ListRequest represents order history query parameters
type ListRequest struct {
	Status string `form:"status"`
	Page   int    `form:"page,default=1"`
	Limit  int    `form:"limit,default=10"`
}

// checkoutLine is a cart line joined with its product, scanned inside
// the checkout transaction.
type checkoutLine struct {
	ItemID        uint
	ProductID     uint
	Name          string
	Quantity      int
	PriceAtTime   float64
	StockQuantity int
}

// Create performs checkout as a single transaction: validate the active
// cart and stock, snapshot totals, decrement stock, retire the cart and
// open a fresh one. The confirmation email goes out after commit and
// never fails the request.
func (s *Service) Create(ctx context.Context, userID uint, req *CreateRequest) (*Detail, error) {
	if !IsValidPaymentMethod(req.PaymentMethod) {
		return nil, apperr.Validation(fmt.Sprintf("Invalid payment method. Must be one of: %v", ValidPaymentMethods))
	}

	var created Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var activeCart cart.Cart
		err := tx.Where("user_id = ? AND status = ?", userID, cart.CartStatusActive).First(&activeCart).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Same class as an empty cart: checkout rejected, not 404
				return apperr.Validation("No active cart found")
			}
			return apperr.Internal("Failed to load active cart", err)
		}

		var lines []checkoutLine
		err = tx.Table("cart_items ci").
			Select(`ci.id as item_id, ci.quantity, ci.price_at_time,
				p.id as product_id, p.name, p.stock_quantity`).
			Joins("JOIN products p ON ci.product_id = p.id").
			Where("ci.cart_id = ?", activeCart.ID).
			Scan(&lines).Error
		if err != nil {
			return apperr.Internal("Failed to load cart items", err)
		}
		if len(lines) == 0 {
			return apperr.Validation("Cart is empty")
		}

		// Re-read each product under a row lock before validating stock,
		// so concurrent checkouts of the same product serialize.
		var subtotal float64
		for i, line := range lines {
			var prod product.Product
			if err := s.lockForUpdate(tx).First(&prod, line.ProductID).Error; err != nil {
				return apperr.Internal("Failed to lock product", err)
			}
			lines[i].StockQuantity = prod.StockQuantity
			if prod.StockQuantity < line.Quantity {
				return apperr.InsufficientStock(
					fmt.Sprintf("Insufficient stock for %s", line.Name),
					prod.StockQuantity, line.Quantity)
			}
			subtotal += pricing.LineSubtotal(line.PriceAtTime, line.Quantity)
		}

		subtotal = pricing.Round2(subtotal)
		tax := pricing.Tax(subtotal)

		created = Order{
			OrderNumber:     pricing.GenerateOrderNumber(),
			UserID:          userID,
			CartID:          activeCart.ID,
			Subtotal:        subtotal,
			Tax:             tax,
			TotalAmount:     pricing.Round2(subtotal + tax),
			Status:          OrderStatusPending,
			ShippingAddress: req.ShippingAddress,
			PaymentMethod:   req.PaymentMethod,
			Notes:           req.Notes,
		}
		if err := tx.Create(&created).Error; err != nil {
			return apperr.Internal("Failed to create order", err)
		}

		for _, line := range lines {
			result := tx.Model(&product.Product{}).
				Where("id = ? AND stock_quantity >= ?", line.ProductID, line.Quantity).
				Update("stock_quantity", gorm.Expr("stock_quantity - ?", line.Quantity))
			if result.Error != nil {
				return apperr.Internal("Failed to decrement stock", result.Error)
			}
			if result.RowsAffected == 0 {
				return apperr.InsufficientStock(
					fmt.Sprintf("Insufficient stock for %s", line.Name),
					line.StockQuantity, line.Quantity)
			}
		}

		err = tx.Model(&cart.Cart{}).Where("id = ?", activeCart.ID).
			Update("status", cart.CartStatusCompleted).Error
		if err != nil {
			return apperr.Internal("Failed to complete cart", err)
		}

		fresh := cart.Cart{UserID: userID, Status: cart.CartStatusActive}
		if err := tx.Create(&fresh).Error; err != nil {
			return apperr.Internal("Failed to create new cart", err)
		}

		return nil
	})
	if err != nil {
		return nil, apperr.From(err)
	}

	detail, err := s.buildDetail(&created)
	if err != nil {
		return nil, err
	}

	s.tracker.TrackOrderPlaced(ctx, created.OrderNumber, created.TotalAmount)
	go s.notifyConfirmation(created, len(detail.Items))

	return detail, nil
}

// List retrieves the caller's order history, newest first
func (s *Service) List(userID uint, req *ListRequest) (*ListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 10
	}

	query := s.db.Model(&Order{}).Where("user_id = ?", userID)
	if req.Status != "" {
		if !IsValidStatus(req.Status) {
			return nil, apperr.Validation("Invalid status filter")
		}
		query = query.Where("status = ?", req.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperr.Internal("Failed to count orders", err)
	}

	var orders []Order
	offset := (req.Page - 1) * req.Limit
	err := query.Order("created_at DESC").Offset(offset).Limit(req.Limit).Find(&orders).Error
	if err != nil {
		return nil, apperr.Internal("Failed to retrieve orders", err)
	}

	counts, err := s.itemCountsFor(orders)
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, len(orders))
	for i, o := range orders {
		summaries[i] = Summary{
			ID:          o.ID,
			OrderNumber: o.OrderNumber,
			Status:      o.Status,
			Subtotal:    pricing.FormatAmount(o.Subtotal),
			Tax:         pricing.FormatAmount(o.Tax),
			TotalAmount: pricing.FormatAmount(o.TotalAmount),
			ItemCount:   counts[o.CartID],
			CreatedAt:   o.CreatedAt,
		}
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &ListResponse{
		Orders: summaries,
		Pagination: product.Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// Get retrieves one order with its lines. Customers only see their own
// orders; admins see any.
func (s *Service) Get(orderID, userID uint, isAdmin bool) (*Detail, error) {
	o, err := s.loadOrder(orderID, userID, isAdmin)
	if err != nil {
		return nil, err
	}
	return s.buildDetail(o)
}

// Cancel lets a customer cancel their own pending or processing order.
// Stock moves back onto the shelf exactly once.
func (s *Service) Cancel(ctx context.Context, orderID, userID uint) (*Detail, error) {
	var cancelled Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var o Order
		err := tx.Where("id = ? AND user_id = ?", orderID, userID).First(&o).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Order not found")
			}
			return apperr.Internal("Failed to retrieve order", err)
		}

		if !o.CanBeCancelledByUser() {
			return apperr.Validation(fmt.Sprintf("Cannot cancel order with status: %s", o.Status))
		}

		if err := s.restoreStock(tx, o.CartID); err != nil {
			return err
		}

		err = tx.Model(&o).Update("status", OrderStatusCancelled).Error
		if err != nil {
			return apperr.Internal("Failed to cancel order", err)
		}

		cancelled = o
		cancelled.Status = OrderStatusCancelled
		return nil
	})
	if err != nil {
		return nil, apperr.From(err)
	}

	return s.buildDetail(&cancelled)
}

// UpdateStatus sets an order's status (admin only, enforced at the route
// level). Any of the five statuses is accepted, in any order, so support
// staff can correct mistakes. Moving into cancelled restores stock, but
// only when the order was not already cancelled.
func (s *Service) UpdateStatus(ctx context.Context, orderID uint, req *UpdateStatusRequest) (*Detail, error) {
	if !IsValidStatus(req.Status) {
		return nil, apperr.Validation(
			"Invalid status. Must be one of: pending, processing, shipped, delivered, cancelled")
	}

	var updated Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var o Order
		if err := tx.First(&o, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Order not found")
			}
			return apperr.Internal("Failed to retrieve order", err)
		}

		newStatus := OrderStatus(req.Status)
		if newStatus == OrderStatusCancelled && o.Status != OrderStatusCancelled {
			if err := s.restoreStock(tx, o.CartID); err != nil {
				return err
			}
		}

		if err := tx.Model(&o).Update("status", newStatus).Error; err != nil {
			return apperr.Internal("Failed to update order status", err)
		}

		updated = o
		updated.Status = newStatus
		return nil
	})
	if err != nil {
		return nil, apperr.From(err)
	}

	go s.notifyStatusUpdate(updated)

	return s.buildDetail(&updated)
}

// StatusCount is the number of orders in one status
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// MonthlyRevenue aggregates completed revenue per calendar month
type MonthlyRevenue struct {
	Month   string  `json:"month"`
	Orders  int64   `json:"orders"`
	Revenue float64 `json:"revenue"`
}

// TopProduct is a best-seller row across non-cancelled orders
type TopProduct struct {
	ProductID uint    `json:"product_id"`
	Name      string  `json:"name"`
	TotalSold int64   `json:"total_sold"`
	Revenue   float64 `json:"revenue"`
}

// CategoryPerformance aggregates sales per product category
type CategoryPerformance struct {
	Category string  `json:"category"`
	Orders   int64   `json:"orders"`
	Revenue  float64 `json:"revenue"`
}

// AnalyticsSummary is the admin dashboard aggregate
type AnalyticsSummary struct {
	TotalOrders         int64                 `json:"total_orders"`
	TotalRevenue        string                `json:"total_revenue"`
	AvgOrderValue       string                `json:"avg_order_value"`
	OrdersByStatus      []StatusCount         `json:"orders_by_status"`
	RevenueByMonth      []MonthlyRevenue      `json:"revenue_by_month"`
	TopProducts         []TopProduct          `json:"top_products"`
	CategoryPerformance []CategoryPerformance `json:"category_performance"`
}

// Analytics computes the admin order summary. Cancelled orders count in
// the status breakdown but are excluded from revenue.
func (s *Service) Analytics() (*AnalyticsSummary, error) {
	summary := &AnalyticsSummary{
		OrdersByStatus:      []StatusCount{},
		RevenueByMonth:      []MonthlyRevenue{},
		TopProducts:         []TopProduct{},
		CategoryPerformance: []CategoryPerformance{},
	}

	if err := s.db.Model(&Order{}).Count(&summary.TotalOrders).Error; err != nil {
		return nil, apperr.Internal("Failed to count orders", err)
	}

	var revenue struct {
		Total    float64
		AvgValue float64
	}
	err := s.db.Model(&Order{}).
		Select("COALESCE(SUM(total_amount), 0) as total, COALESCE(AVG(total_amount), 0) as avg_value").
		Where("status != ?", OrderStatusCancelled).
		Scan(&revenue).Error
	if err != nil {
		return nil, apperr.Internal("Failed to aggregate revenue", err)
	}
	summary.TotalRevenue = pricing.FormatAmount(revenue.Total)
	summary.AvgOrderValue = pricing.FormatAmount(pricing.Round2(revenue.AvgValue))

	err = s.db.Model(&Order{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&summary.OrdersByStatus).Error
	if err != nil {
		return nil, apperr.Internal("Failed to aggregate statuses", err)
	}

	err = s.db.Model(&Order{}).
		Select(fmt.Sprintf("%s as month, COUNT(*) as orders, COALESCE(SUM(total_amount), 0) as revenue", s.monthExpr())).
		Where("status != ?", OrderStatusCancelled).
		Group("month").
		Order("month DESC").
		Limit(12).
		Scan(&summary.RevenueByMonth).Error
	if err != nil {
		return nil, apperr.Internal("Failed to aggregate monthly revenue", err)
	}

	// Order lines live in cart_items, joined through each order's cart_id
	err = s.db.Table("orders o").
		Select(`ci.product_id, p.name,
			SUM(ci.quantity) as total_sold,
			SUM(ci.quantity * ci.price_at_time) as revenue`).
		Joins("JOIN cart_items ci ON ci.cart_id = o.cart_id").
		Joins("JOIN products p ON p.id = ci.product_id").
		Where("o.status != ?", OrderStatusCancelled).
		Group("ci.product_id, p.name").
		Order("total_sold DESC").
		Limit(5).
		Scan(&summary.TopProducts).Error
	if err != nil {
		return nil, apperr.Internal("Failed to aggregate top products", err)
	}

	err = s.db.Table("orders o").
		Select(`p.category,
			COUNT(DISTINCT o.id) as orders,
			SUM(ci.quantity * ci.price_at_time) as revenue`).
		Joins("JOIN cart_items ci ON ci.cart_id = o.cart_id").
		Joins("JOIN products p ON p.id = ci.product_id").
		Where("o.status != ?", OrderStatusCancelled).
		Group("p.category").
		Order("revenue DESC").
		Scan(&summary.CategoryPerformance).Error
	if err != nil {
		return nil, apperr.Internal("Failed to aggregate category performance", err)
	}

	return summary, nil
}

// restoreStock returns every line of an order's cart to inventory
func (s *Service) restoreStock(tx *gorm.DB, cartID uint) error {
	var items []cart.CartItem
	if err := tx.Where("cart_id = ?", cartID).Find(&items).Error; err != nil {
		return apperr.Internal("Failed to load order items", err)
	}

	for _, item := range items {
		err := tx.Model(&product.Product{}).
			Where("id = ?", item.ProductID).
			Update("stock_quantity", gorm.Expr("stock_quantity + ?", item.Quantity)).Error
		if err != nil {
			return apperr.Internal("Failed to restore stock", err)
		}
	}
	return nil
}

func (s *Service) loadOrder(orderID, userID uint, isAdmin bool) (*Order, error) {
	query := s.db.Where("id = ?", orderID)
	if !isAdmin {
		query = query.Where("user_id = ?", userID)
	}

	var o Order
	if err := query.First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Order not found")
		}
		return nil, apperr.Internal("Failed to retrieve order", err)
	}
	return &o, nil
}

// buildDetail reconstructs an order's lines from its completed cart.
// No order_items table exists: the completed cart's rows, with their
// frozen price_at_time, are the order's lines.
func (s *Service) buildDetail(o *Order) (*Detail, error) {
	var rows []struct {
		ProductID   uint
		Name        string
		ImageURL    string
		Quantity    int
		PriceAtTime float64
	}
	err := s.db.Table("cart_items ci").
		Select("ci.quantity, ci.price_at_time, p.id as product_id, p.name, p.image_url").
		Joins("JOIN products p ON ci.product_id = p.id").
		Where("ci.cart_id = ?", o.CartID).
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Internal("Failed to load order items", err)
	}

	items := make([]ItemDetail, len(rows))
	for i, row := range rows {
		items[i] = ItemDetail{
			ProductID:   row.ProductID,
			Name:        row.Name,
			ImageURL:    row.ImageURL,
			Quantity:    row.Quantity,
			PriceAtTime: pricing.FormatAmount(row.PriceAtTime),
			Subtotal:    pricing.FormatAmount(pricing.LineSubtotal(row.PriceAtTime, row.Quantity)),
		}
	}

	return &Detail{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		Status:          o.Status,
		Subtotal:        pricing.FormatAmount(o.Subtotal),
		Tax:             pricing.FormatAmount(o.Tax),
		TotalAmount:     pricing.FormatAmount(o.TotalAmount),
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		Notes:           o.Notes,
		Items:           items,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}, nil
}

func (s *Service) itemCountsFor(orders []Order) (map[uint]int, error) {
	counts := make(map[uint]int, len(orders))
	if len(orders) == 0 {
		return counts, nil
	}

	cartIDs := make([]uint, len(orders))
	for i, o := range orders {
		cartIDs[i] = o.CartID
	}

	var rows []struct {
		CartID uint
		Count  int
	}
	err := s.db.Table("cart_items").
		Select("cart_id, COUNT(*) as count").
		Where("cart_id IN ?", cartIDs).
		Group("cart_id").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Internal("Failed to count order items", err)
	}

	for _, row := range rows {
		counts[row.CartID] = row.Count
	}
	return counts, nil
}

// lockForUpdate applies SELECT ... FOR UPDATE on dialects that support
// it. SQLite serializes writers anyway.
func (s *Service) lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func (s *Service) monthExpr() string {
	if s.db.Dialector.Name() == "postgres" {
		return "to_char(created_at, 'YYYY-MM')"
	}
	return "strftime('%Y-%m', created_at)"
}

func (s *Service) notifyConfirmation(o Order, itemCount int) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var u user.User
	if err := s.db.First(&u, o.UserID).Error; err != nil {
		s.logger.WithError(err).Warn("Failed to load user for order confirmation")
		return
	}

	err := s.notifier.SendOrderConfirmation(ctx, u.Email, u.Username, o.OrderNumber, o.TotalAmount, itemCount)
	if err != nil {
		s.logger.WithError(err).WithField("order_number", o.OrderNumber).
			Warn("Failed to send order confirmation")
	}
}

func (s *Service) notifyStatusUpdate(o Order) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var u user.User
	if err := s.db.First(&u, o.UserID).Error; err != nil {
		s.logger.WithError(err).Warn("Failed to load user for status update")
		return
	}

	err := s.notifier.SendOrderStatusUpdate(ctx, u.Email, o.OrderNumber, string(o.Status))
	if err != nil {
		s.logger.WithError(err).WithField("order_number", o.OrderNumber).
			Warn("Failed to send status update")
	}
}
