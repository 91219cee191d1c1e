// internal/domain/user/service.go
package user

import (
	"errors"
	"fmt"
	"strings"

	"github.com/your-org/shopping-cart-backend/internal/config"
	"github.com/your-org/shopping-cart-backend/internal/domain/cart"
	"github.com/your-org/shopping-cart-backend/internal/pkg/apperr"
	"github.com/your-org/shopping-cart-backend/internal/pkg/auth"
	"gorm.io/gorm"
)

// Service handles user and authentication business logic
type Service struct {
	db              *gorm.DB
	config          *config.Config
	jwtManager      *auth.JWTManager
	passwordManager *auth.PasswordManager
}

// NewService creates a new user service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:              db,
		config:          cfg,
		jwtManager:      auth.NewJWTManager(cfg),
		passwordManager: auth.NewPasswordManager(cfg),
	}
}

// RegisterRequest represents registration data
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50,alphanum"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest represents login data
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest represents profile update data
type UpdateProfileRequest struct {
	Username string `json:"username" binding:"omitempty,min=3,max=50,alphanum"`
}

// AuthResponse carries a signed token plus the public user projection
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Register creates a new user together with their initial active cart,
// atomically. Duplicate email or username is reported with a
// field-specific message.
func (s *Service) Register(req *RegisterRequest) (*AuthResponse, error) {
	email := strings.ToLower(req.Email)

	var existing User
	err := s.db.Where("email = ? OR username = ?", email, req.Username).First(&existing).Error
	if err == nil {
		if existing.Email == email {
			return nil, apperr.Conflict("Email already registered")
		}
		return nil, apperr.Conflict("Username already taken")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Internal("Failed to check existing users", err)
	}

	hash, err := s.passwordManager.HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}

	newUser := User{
		Username:     req.Username,
		Email:        email,
		PasswordHash: hash,
		Role:         RoleCustomer,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&newUser).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		// Every user starts with an active cart
		initialCart := cart.Cart{UserID: newUser.ID, Status: cart.CartStatusActive}
		if err := tx.Create(&initialCart).Error; err != nil {
			return fmt.Errorf("failed to create initial cart: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, apperr.Internal("Failed to register user", err)
	}

	token, err := s.jwtManager.GenerateToken(newUser.ID, newUser.Username, newUser.Email, newUser.Role)
	if err != nil {
		return nil, apperr.Internal("Failed to generate token", err)
	}

	return &AuthResponse{Token: token, User: &newUser}, nil
}

// Login verifies credentials and issues a token
func (s *Service) Login(req *LoginRequest) (*AuthResponse, error) {
	var u User
	err := s.db.Where("email = ?", strings.ToLower(req.Email)).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized("Invalid credentials")
		}
		return nil, apperr.Internal("Failed to look up user", err)
	}

	if err := s.passwordManager.VerifyPassword(req.Password, u.PasswordHash); err != nil {
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	token, err := s.jwtManager.GenerateToken(u.ID, u.Username, u.Email, u.Role)
	if err != nil {
		return nil, apperr.Internal("Failed to generate token", err)
	}

	return &AuthResponse{Token: token, User: &u}, nil
}

// GetProfile retrieves a user by ID
func (s *Service) GetProfile(userID uint) (*User, error) {
	var u User
	if err := s.db.First(&u, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.Internal("Failed to retrieve user", err)
	}
	return &u, nil
}

// UpdateProfile updates mutable profile fields, currently the username
func (s *Service) UpdateProfile(userID uint, req *UpdateProfileRequest) (*User, error) {
	if req.Username != "" {
		var existing User
		err := s.db.Where("username = ? AND id != ?", req.Username, userID).First(&existing).Error
		if err == nil {
			return nil, apperr.Conflict("Username already taken")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Internal("Failed to check username", err)
		}

		if err := s.db.Model(&User{}).Where("id = ?", userID).Update("username", req.Username).Error; err != nil {
			return nil, apperr.Internal("Failed to update profile", err)
		}
	}

	return s.GetProfile(userID)
}
