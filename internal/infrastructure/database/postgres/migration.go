// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/shopping-cart-backend/internal/domain/cart"
	"github.com/your-org/shopping-cart-backend/internal/domain/order"
	"github.com/your-org/shopping-cart-backend/internal/domain/product"
	"github.com/your-org/shopping-cart-backend/internal/domain/review"
	"github.com/your-org/shopping-cart-backend/internal/domain/user"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, logger *logrus.Logger) *Migration {
	return &Migration{
		db:     db,
		logger: logger,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.logger.Info("Running database auto-migrations")

	// Dependency order: carts reference users, cart_items reference
	// carts and products, orders reference users and carts.
	models := []interface{}{
		&user.User{},
		&product.Product{},
		&cart.Cart{},
		&cart.CartItem{},
		&order.Order{},
		&review.Review{},
	}

	for _, model := range models {
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.logger.Info("Database auto-migrations completed")
	return nil
}

// CreateIndexes creates indexes AutoMigrate cannot express. The partial
// unique index enforces the one-active-cart-per-user invariant at the
// database level, so concurrent cart creates cannot slip past the
// application check.
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_carts_user_active ON carts(user_id) WHERE status = 'active'",
		"CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_products_category_price ON products(category, price)",
		"CREATE INDEX IF NOT EXISTS idx_reviews_product_created ON reviews(product_id, created_at DESC)",
	}

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			m.logger.WithError(err).Warn("Failed to create index")
		}
	}

	return nil
}

// SeedInitialData inserts the development fixtures: an admin account,
// a test customer, and a small catalog.
func (m *Migration) SeedInitialData() error {
	m.logger.Info("Seeding initial data")

	if err := m.seedUser("admin@example.com", "admin", "admin123", user.RoleAdmin); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	if err := m.seedUser("test@example.com", "testuser", "test123", user.RoleCustomer); err != nil {
		return fmt.Errorf("failed to seed test user: %w", err)
	}
	if err := m.seedProducts(); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}

	return nil
}

func (m *Migration) seedUser(email, username, password, role string) error {
	var existing user.User
	err := m.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	u := user.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}

	return m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		initialCart := cart.Cart{UserID: u.ID, Status: cart.CartStatusActive}
		if err := tx.Create(&initialCart).Error; err != nil {
			return err
		}
		m.logger.WithField("email", email).Info("Seeded user")
		return nil
	})
}

func (m *Migration) seedProducts() error {
	var count int64
	if err := m.db.Model(&product.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	products := []product.Product{
		{
			Name:          "Wireless Headphones",
			Description:   "Over-ear wireless headphones with active noise cancellation and 30-hour battery life.",
			Price:         149.99,
			StockQuantity: 40,
			Category:      "Electronics",
			ImageURL:      "https://example.com/images/headphones.jpg",
		},
		{
			Name:          "Mechanical Keyboard",
			Description:   "Tenkeyless mechanical keyboard with hot-swappable switches.",
			Price:         89.99,
			StockQuantity: 25,
			Category:      "Electronics",
			ImageURL:      "https://example.com/images/keyboard.jpg",
		},
		{
			Name:          "Stainless Water Bottle",
			Description:   "Insulated 750ml bottle that keeps drinks cold for 24 hours.",
			Price:         24.50,
			StockQuantity: 100,
			Category:      "Home & Kitchen",
			ImageURL:      "https://example.com/images/bottle.jpg",
		},
		{
			Name:          "Trail Running Shoes",
			Description:   "Lightweight trail shoes with aggressive grip for mixed terrain.",
			Price:         119.00,
			StockQuantity: 18,
			Category:      "Sports & Outdoors",
			ImageURL:      "https://example.com/images/shoes.jpg",
		},
		{
			Name:          "Go Programming Handbook",
			Description:   "A practical guide to building production services in Go.",
			Price:         39.95,
			StockQuantity: 60,
			Category:      "Books",
			ImageURL:      "https://example.com/images/book.jpg",
		},
	}

	for _, p := range products {
		if err := m.db.Create(&p).Error; err != nil {
			m.logger.WithError(err).WithField("product", p.Name).Warn("Failed to seed product")
		}
	}

	m.logger.WithField("count", len(products)).Info("Seeded products")
	return nil
}
