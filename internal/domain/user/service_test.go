package user

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/shopping-cart-backend/internal/config"
	"github.com/your-org/shopping-cart-backend/internal/domain/cart"
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

	require.NoError(t, db.AutoMigrate(&User{}, &cart.Cart{}, &cart.CartItem{}))

	cfg := &config.Config{
		App: config.AppConfig{Name: "test-app"},
		JWT: config.JWTConfig{
			Secret:      "test-secret-key-that-is-long-enough-0123",
			TokenExpiry: time.Hour,
		},
		Security: config.SecurityConfig{BcryptCost: 4},
	}

	return NewService(db, cfg), db
}

func TestRegisterCreatesUserAndCart(t *testing.T) {
	svc, db := setupTestService(t)

	resp, err := svc.Register(&RegisterRequest{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)

	assert.Equal(t, "alice", resp.User.Username)
	assert.Equal(t, "alice@example.com", resp.User.Email, "email is stored lowercase")
	assert.Equal(t, RoleCustomer, resp.User.Role)

	var c cart.Cart
	err = db.Where("user_id = ? AND status = ?", resp.User.ID, cart.CartStatusActive).First(&c).Error
	require.NoError(t, err, "registration creates an active cart")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := setupTestService(t)

	_, err := svc.Register(&RegisterRequest{Username: "alice", Email: "a@example.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.Register(&RegisterRequest{Username: "other", Email: "a@example.com", Password: "secret123"})
	require.Error(t, err)
	assert.Equal(t, "Email already registered", apperr.From(err).Message)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := setupTestService(t)

	_, err := svc.Register(&RegisterRequest{Username: "alice", Email: "a@example.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.Register(&RegisterRequest{Username: "alice", Email: "b@example.com", Password: "secret123"})
	require.Error(t, err)
	assert.Equal(t, "Username already taken", apperr.From(err).Message)
}

func TestLogin(t *testing.T) {
	svc, _ := setupTestService(t)

	_, err := svc.Register(&RegisterRequest{Username: "alice", Email: "a@example.com", Password: "secret123"})
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		resp, err := svc.Login(&LoginRequest{Email: "a@example.com", Password: "secret123"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "alice", resp.User.Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(&LoginRequest{Email: "a@example.com", Password: "wrong-pass"})
		require.Error(t, err)
		appErr := apperr.From(err)
		assert.Equal(t, 401, appErr.Status)
		assert.Equal(t, "Invalid credentials", appErr.Message)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(&LoginRequest{Email: "nobody@example.com", Password: "secret123"})
		require.Error(t, err)
		// Same message as wrong password so the response does not leak
		// which accounts exist.
		assert.Equal(t, "Invalid credentials", apperr.From(err).Message)
	})
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := setupTestService(t)

	resp, err := svc.Register(&RegisterRequest{Username: "alice", Email: "a@example.com", Password: "secret123"})
	require.NoError(t, err)
	_, err = svc.Register(&RegisterRequest{Username: "bob", Email: "b@example.com", Password: "secret123"})
	require.NoError(t, err)

	t.Run("rename", func(t *testing.T) {
		u, err := svc.UpdateProfile(resp.User.ID, &UpdateProfileRequest{Username: "alice2"})
		require.NoError(t, err)
		assert.Equal(t, "alice2", u.Username)
	})

	t.Run("taken username", func(t *testing.T) {
		_, err := svc.UpdateProfile(resp.User.ID, &UpdateProfileRequest{Username: "bob"})
		require.Error(t, err)
		assert.Equal(t, "Username already taken", apperr.From(err).Message)
	})
}
