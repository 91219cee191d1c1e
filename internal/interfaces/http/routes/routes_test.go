package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/shopping-cart-backend/internal/config"
	"github.com/your-org/shopping-cart-backend/internal/domain/cart"
	"github.com/your-org/shopping-cart-backend/internal/domain/order"
	"github.com/your-org/shopping-cart-backend/internal/domain/product"
	"github.com/your-org/shopping-cart-backend/internal/domain/review"
	"github.com/your-org/shopping-cart-backend/internal/domain/user"
	"github.com/your-org/shopping-cart-backend/internal/pkg/auth"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&user.User{}, &product.Product{}, &cart.Cart{}, &cart.CartItem{},
		&order.Order{}, &review.Review{}))

	cfg := &config.Config{
		App: config.AppConfig{Name: "test-app"},
		JWT: config.JWTConfig{
			Secret:      "test-secret-key-that-is-long-enough-0123",
			TokenExpiry: time.Hour,
		},
	}

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	router := gin.New()
	SetupRoutes(router.Group("/api"), db, nil, cfg, log)
	return router, db, cfg
}

func bearer(t *testing.T, cfg *config.Config, userID uint) string {
	t.Helper()
	token, err := auth.NewJWTManager(cfg).GenerateToken(userID, "alice", "alice@example.com", "customer")
	require.NoError(t, err)
	return "Bearer " + token
}

func TestReviewRoutes(t *testing.T) {
	router, db, cfg := setupRouter(t)

	p := &product.Product{Name: "Widget", Price: 10.00, StockQuantity: 5, Category: "Test"}
	require.NoError(t, db.Create(p).Error)

	t.Run("listing is public", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/reviews/products/1", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("products alias still serves the listing", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/products/1/reviews", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("creation requires auth", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/reviews/products/1",
			strings.NewReader(`{"rating":5}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("creation takes the product from the path", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/reviews/products/9999",
			strings.NewReader(`{"rating":5}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", bearer(t, cfg, 42))
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code, "unknown path product reaches the service")
	})
}

func TestCartClearRoute(t *testing.T) {
	router, db, cfg := setupRouter(t)

	c := &cart.Cart{UserID: 42, Status: cart.CartStatusActive}
	require.NoError(t, db.Create(c).Error)

	t.Run("clear endpoint", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/api/cart/clear", nil)
		req.Header.Set("Authorization", bearer(t, cfg, 42))
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("collection alias", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/api/cart", nil)
		req.Header.Set("Authorization", bearer(t, cfg, 42))
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
