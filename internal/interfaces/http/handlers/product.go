// internal/interfaces/http/handlers/product.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/shopping-cart-backend/internal/domain/analytics"
	"github.com/your-org/shopping-cart-backend/internal/domain/product"
)

// ProductHandler handles catalog endpoints
type ProductHandler struct {
	productService *product.Service
	tracker        *analytics.Tracker
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *product.Service, tracker *analytics.Tracker) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		tracker:        tracker,
	}
}

// List handles GET /api/products
func (h *ProductHandler) List(c *gin.Context) {
	var req product.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondValidation(c, err)
		return
	}

	resp, err := h.productService.List(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Get handles GET /api/products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.productService.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}

	h.tracker.TrackProductView(c.Request.Context(), id)

	c.JSON(http.StatusOK, gin.H{"product": detail})
}

// Create handles POST /api/products (admin)
func (h *ProductHandler) Create(c *gin.Context) {
	var req product.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	p, err := h.productService.Create(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product created successfully",
		"product": p,
	})
}

// Update handles PUT /api/products/:id (admin)
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req product.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	p, err := h.productService.Update(id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product updated successfully",
		"product": p,
	})
}

// Delete handles DELETE /api/products/:id (admin)
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.productService.Delete(id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// Categories handles GET /api/products/categories
func (h *ProductHandler) Categories(c *gin.Context) {
	categories, err := h.productService.Categories()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// Search handles GET /api/products/search
func (h *ProductHandler) Search(c *gin.Context) {
	results, err := h.productService.Search(c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}

	h.tracker.TrackEvent(c.Request.Context(), analytics.EventSearch)

	c.JSON(http.StatusOK, gin.H{"products": results})
}
