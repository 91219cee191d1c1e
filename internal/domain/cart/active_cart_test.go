package cart_test

import (
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/shopping-cart-backend/internal/config"
	"github.com/your-org/shopping-cart-backend/internal/domain/cart"
	"github.com/your-org/shopping-cart-backend/internal/domain/product"
	"github.com/your-org/shopping-cart-backend/internal/domain/user"
	"github.com/your-org/shopping-cart-backend/internal/infrastructure/database/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupIndexedDB builds a database with the real index set applied, so
// the one-active-cart-per-user constraint holds at the storage level.
func setupIndexedDB(t *testing.T) (*cart.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every goroutine on the same in-memory
	// database and serializes statements without busy errors.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&user.User{}, &product.Product{}, &cart.Cart{}, &cart.CartItem{}))

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	require.NoError(t, postgres.NewMigration(db, log).CreateIndexes())

	return cart.NewService(db, &config.Config{}), db
}

func TestActiveCartUniqueIndex(t *testing.T) {
	svc, db := setupIndexedDB(t)

	first, err := svc.GetActiveCart(1)
	require.NoError(t, err)

	t.Run("second active cart is rejected", func(t *testing.T) {
		dup := cart.Cart{UserID: 1, Status: cart.CartStatusActive}
		require.Error(t, db.Create(&dup).Error)

		var count int64
		require.NoError(t, db.Model(&cart.Cart{}).
			Where("user_id = ? AND status = ?", 1, cart.CartStatusActive).
			Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("completed carts are unconstrained", func(t *testing.T) {
		done := cart.Cart{UserID: 1, Status: cart.CartStatusCompleted}
		require.NoError(t, db.Create(&done).Error)

		again := cart.Cart{UserID: 1, Status: cart.CartStatusCompleted}
		require.NoError(t, db.Create(&again).Error)
	})

	t.Run("lookup still resolves the original cart", func(t *testing.T) {
		got, err := svc.GetActiveCart(1)
		require.NoError(t, err)
		assert.Equal(t, first.ID, got.ID)
	})
}

func TestConcurrentGetActiveCart(t *testing.T) {
	svc, db := setupIndexedDB(t)

	const workers = 8
	ids := make(chan uint, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			c, err := svc.GetActiveCart(2)
			assert.NoError(t, err)
			if c != nil {
				ids <- c.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	// Losers of the create race fell back to the winner's cart
	var want uint
	for id := range ids {
		if want == 0 {
			want = id
		}
		assert.Equal(t, want, id)
	}
	require.NotZero(t, want)

	var count int64
	require.NoError(t, db.Model(&cart.Cart{}).
		Where("user_id = ? AND status = ?", 2, cart.CartStatusActive).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
