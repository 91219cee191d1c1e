// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/shopping-cart-backend/internal/domain/analytics"
	"github.com/your-org/shopping-cart-backend/internal/domain/cart"
	"github.com/your-org/shopping-cart-backend/internal/interfaces/http/middleware"
)

// CartHandler handles shopping cart endpoints
type CartHandler struct {
	cartService *cart.Service
	tracker     *analytics.Tracker
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService *cart.Service, tracker *analytics.Tracker) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		tracker:     tracker,
	}
}

// Get handles GET /api/cart
func (h *CartHandler) Get(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	resp, err := h.cartService.GetCart(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": resp})
}

// AddItem handles POST /api/cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	var req cart.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	resp, err := h.cartService.AddItem(userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.tracker.TrackEvent(c.Request.Context(), analytics.EventAddToCart)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Item added to cart",
		"cart":    resp,
	})
}

// UpdateItem handles PUT /api/cart/items/:id
func (h *CartHandler) UpdateItem(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req cart.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	resp, err := h.cartService.UpdateItem(userID, itemID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item updated",
		"cart":    resp,
	})
}

// RemoveItem handles DELETE /api/cart/items/:id
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.cartService.RemoveItem(userID, itemID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from cart",
		"cart":    resp,
	})
}

// Clear handles DELETE /api/cart
func (h *CartHandler) Clear(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	if err := h.cartService.Clear(userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}
