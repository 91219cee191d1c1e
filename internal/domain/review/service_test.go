package review

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/shopping-cart-backend/internal/config"
	"github.com/your-org/shopping-cart-backend/internal/domain/cart"
	"github.com/your-org/shopping-cart-backend/internal/domain/order"
	"github.com/your-org/shopping-cart-backend/internal/domain/product"
	"github.com/your-org/shopping-cart-backend/internal/domain/user"
	"github.com/your-org/shopping-cart-backend/internal/pkg/apperr"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&user.User{}, &product.Product{}, &cart.Cart{}, &cart.CartItem{},
		&order.Order{}, &Review{}))

	return NewService(db, &config.Config{}), db
}

// seedDeliveredOrder creates a user plus a delivered order containing
// the product, which is the precondition for writing a review.
func seedDeliveredOrder(t *testing.T, db *gorm.DB, username string, p *product.Product, status order.OrderStatus) *user.User {
	t.Helper()

	u := &user.User{Username: username, Email: username + "@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(u).Error)

	c := &cart.Cart{UserID: u.ID, Status: cart.CartStatusCompleted}
	require.NoError(t, db.Create(c).Error)

	item := &cart.CartItem{CartID: c.ID, ProductID: p.ID, Quantity: 1, PriceAtTime: p.Price}
	require.NoError(t, db.Create(item).Error)

	o := &order.Order{
		OrderNumber:     "ORD-TEST-" + username,
		UserID:          u.ID,
		CartID:          c.ID,
		Subtotal:        p.Price,
		Tax:             0,
		TotalAmount:     p.Price,
		Status:          status,
		ShippingAddress: "1 Main Street",
		PaymentMethod:   "credit_card",
	}
	require.NoError(t, db.Create(o).Error)

	return u
}

func seedProduct(t *testing.T, db *gorm.DB) *product.Product {
	t.Helper()
	p := &product.Product{Name: "Widget", Price: 10.00, StockQuantity: 5, Category: "Test"}
	require.NoError(t, db.Create(p).Error)
	return p
}

func TestCreateReview(t *testing.T) {
	svc, db := setupTestService(t)
	p := seedProduct(t, db)
	buyer := seedDeliveredOrder(t, db, "alice", p, order.OrderStatusDelivered)

	t.Run("unknown product", func(t *testing.T) {
		_, err := svc.Create(buyer.ID, 9999, &CreateRequest{Rating: 5})
		require.Error(t, err)
		assert.Equal(t, 404, apperr.From(err).Status)
	})

	t.Run("no delivered order", func(t *testing.T) {
		stranger := &user.User{Username: "bob", Email: "bob@example.com", PasswordHash: "x"}
		require.NoError(t, db.Create(stranger).Error)

		_, err := svc.Create(stranger.ID, p.ID, &CreateRequest{Rating: 4})
		require.Error(t, err)
		appErr := apperr.From(err)
		assert.Equal(t, 403, appErr.Status)
		assert.Equal(t, "You can only review products from delivered orders", appErr.Message)
	})

	t.Run("order not yet delivered", func(t *testing.T) {
		pending := seedDeliveredOrder(t, db, "carol", p, order.OrderStatusShipped)

		_, err := svc.Create(pending.ID, p.ID, &CreateRequest{Rating: 4})
		require.Error(t, err)
		assert.Equal(t, 403, apperr.From(err).Status)
	})

	t.Run("buyer reviews once", func(t *testing.T) {
		r, err := svc.Create(buyer.ID, p.ID, &CreateRequest{Rating: 5, Comment: "Great"})
		require.NoError(t, err)
		assert.Equal(t, 5, r.Rating)

		_, err = svc.Create(buyer.ID, p.ID, &CreateRequest{Rating: 3})
		require.Error(t, err)
		assert.Equal(t, "You have already reviewed this product", apperr.From(err).Message)
	})
}

func TestListForProduct(t *testing.T) {
	svc, db := setupTestService(t)
	p := seedProduct(t, db)

	a := seedDeliveredOrder(t, db, "alice", p, order.OrderStatusDelivered)
	b := seedDeliveredOrder(t, db, "bob", p, order.OrderStatusDelivered)

	_, err := svc.Create(a.ID, p.ID, &CreateRequest{Rating: 5, Comment: "Great"})
	require.NoError(t, err)
	_, err = svc.Create(b.ID, p.ID, &CreateRequest{Rating: 3, Comment: "Fine"})
	require.NoError(t, err)

	t.Run("unknown product", func(t *testing.T) {
		_, err := svc.ListForProduct(9999, &ListRequest{})
		require.Error(t, err)
		assert.Equal(t, 404, apperr.From(err).Status)
	})

	t.Run("aggregates", func(t *testing.T) {
		resp, err := svc.ListForProduct(p.ID, &ListRequest{Page: 1, Limit: 10})
		require.NoError(t, err)

		assert.Equal(t, int64(2), resp.ReviewCount)
		assert.InDelta(t, 4.0, resp.AvgRating, 0.0001)
		assert.Equal(t, int64(1), resp.Distribution[5])
		assert.Equal(t, int64(1), resp.Distribution[3])
		assert.Equal(t, int64(0), resp.Distribution[1])
		require.Len(t, resp.Reviews, 2)
		assert.NotEmpty(t, resp.Reviews[0].Username)
	})
}

func TestUpdateReview(t *testing.T) {
	svc, db := setupTestService(t)
	p := seedProduct(t, db)
	buyer := seedDeliveredOrder(t, db, "alice", p, order.OrderStatusDelivered)

	r, err := svc.Create(buyer.ID, p.ID, &CreateRequest{Rating: 5, Comment: "Great"})
	require.NoError(t, err)

	t.Run("owner edits", func(t *testing.T) {
		rating := 4
		updated, err := svc.Update(r.ID, buyer.ID, &UpdateRequest{Rating: &rating})
		require.NoError(t, err)
		assert.Equal(t, 4, updated.Rating)
		assert.Equal(t, "Great", updated.Comment, "unset fields are untouched")
	})

	t.Run("no fields", func(t *testing.T) {
		_, err := svc.Update(r.ID, buyer.ID, &UpdateRequest{})
		require.Error(t, err)
		assert.Equal(t, 400, apperr.From(err).Status)
	})

	t.Run("someone else gets 404", func(t *testing.T) {
		rating := 1
		_, err := svc.Update(r.ID, buyer.ID+1000, &UpdateRequest{Rating: &rating})
		require.Error(t, err)
		assert.Equal(t, 404, apperr.From(err).Status)
	})
}

func TestDeleteReview(t *testing.T) {
	svc, db := setupTestService(t)
	p := seedProduct(t, db)
	buyer := seedDeliveredOrder(t, db, "alice", p, order.OrderStatusDelivered)

	t.Run("stranger cannot delete", func(t *testing.T) {
		r, err := svc.Create(buyer.ID, p.ID, &CreateRequest{Rating: 5})
		require.NoError(t, err)

		err = svc.Delete(r.ID, buyer.ID+1000, false)
		require.Error(t, err)
		assert.Equal(t, 404, apperr.From(err).Status)

		// Admin removes any review
		require.NoError(t, svc.Delete(r.ID, buyer.ID+1000, true))
	})

	t.Run("owner deletes own", func(t *testing.T) {
		r, err := svc.Create(buyer.ID, p.ID, &CreateRequest{Rating: 2})
		require.NoError(t, err)

		require.NoError(t, svc.Delete(r.ID, buyer.ID, false))

		err = svc.Delete(r.ID, buyer.ID, false)
		require.Error(t, err)
		assert.Equal(t, 404, apperr.From(err).Status)
	})
}
