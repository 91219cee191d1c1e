// internal/interfaces/http/handlers/review.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/shopping-cart-backend/internal/domain/review"
	"github.com/your-org/shopping-cart-backend/internal/interfaces/http/middleware"
)

// ReviewHandler handles product review endpoints
type ReviewHandler struct {
	reviewService *review.Service
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviewService *review.Service) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// ListForProduct handles GET /api/reviews/products/:productId and its
// alias GET /api/products/:id/reviews.
func (h *ReviewHandler) ListForProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, productIDParam(c))
	if !ok {
		return
	}

	var req review.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondValidation(c, err)
		return
	}

	resp, err := h.reviewService.ListForProduct(productID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Create handles POST /api/reviews/products/:productId
func (h *ReviewHandler) Create(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	productID, ok := parseIDParam(c, "productId")
	if !ok {
		return
	}

	var req review.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	r, err := h.reviewService.Create(userID, productID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Review submitted successfully",
		"review":  r,
	})
}

// Update handles PUT /api/reviews/:id
func (h *ReviewHandler) Update(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	reviewID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req review.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	r, err := h.reviewService.Update(reviewID, userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Review updated successfully",
		"review":  r,
	})
}

// Delete handles DELETE /api/reviews/:id
func (h *ReviewHandler) Delete(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	reviewID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := h.reviewService.Delete(reviewID, userID, middleware.IsAdminFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Review deleted successfully"})
}

// productIDParam picks the product path parameter name, which differs
// between the canonical route and the products-group alias.
func productIDParam(c *gin.Context) string {
	if c.Param("productId") != "" {
		return "productId"
	}
	return "id"
}
