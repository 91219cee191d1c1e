// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/shopping-cart-backend/internal/config"
	"github.com/your-org/shopping-cart-backend/internal/domain/analytics"
	"github.com/your-org/shopping-cart-backend/internal/domain/cart"
	"github.com/your-org/shopping-cart-backend/internal/domain/order"
	"github.com/your-org/shopping-cart-backend/internal/domain/product"
	"github.com/your-org/shopping-cart-backend/internal/domain/review"
	"github.com/your-org/shopping-cart-backend/internal/domain/user"
	"github.com/your-org/shopping-cart-backend/internal/interfaces/http/handlers"
	"github.com/your-org/shopping-cart-backend/internal/interfaces/http/middleware"
	"github.com/your-org/shopping-cart-backend/internal/pkg/email"
	"gorm.io/gorm"
)

// SetupRoutes wires every API route. Services are constructed once here
// and shared by their handlers rather than rebuilt per request.
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) {
	notifier := email.NewService(cfg, logger)
	tracker := analytics.NewTracker(redisClient, logger)

	userService := user.NewService(db, cfg)
	productService := product.NewService(db, cfg)
	cartService := cart.NewService(db, cfg)
	orderService := order.NewService(db, cfg, notifier, tracker, logger)
	reviewService := review.NewService(db, cfg)

	authHandler := handlers.NewAuthHandler(userService, tracker)
	productHandler := handlers.NewProductHandler(productService, tracker)
	cartHandler := handlers.NewCartHandler(cartService, tracker)
	orderHandler := handlers.NewOrderHandler(orderService)
	reviewHandler := handlers.NewReviewHandler(reviewService)

	auth := rg.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)

		protected := auth.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			protected.GET("/profile", authHandler.GetProfile)
			protected.PUT("/profile", authHandler.UpdateProfile)
		}
	}

	products := rg.Group("/products")
	{
		products.GET("", productHandler.List)
		products.GET("/search", productHandler.Search)
		products.GET("/categories", productHandler.Categories)
		products.GET("/:id", middleware.OptionalAuthMiddleware(cfg), productHandler.Get)
		products.GET("/:id/reviews", reviewHandler.ListForProduct)

		admin := products.Group("")
		admin.Use(middleware.AuthMiddleware(cfg), middleware.AdminMiddleware())
		{
			admin.POST("", productHandler.Create)
			admin.PUT("/:id", productHandler.Update)
			admin.DELETE("/:id", productHandler.Delete)
		}
	}

	cartRoutes := rg.Group("/cart")
	cartRoutes.Use(middleware.AuthMiddleware(cfg))
	{
		cartRoutes.GET("", cartHandler.Get)
		cartRoutes.DELETE("/clear", cartHandler.Clear)
		// Alias kept for clients clearing via the collection itself
		cartRoutes.DELETE("", cartHandler.Clear)
		cartRoutes.POST("/items", cartHandler.AddItem)
		cartRoutes.PUT("/items/:id", cartHandler.UpdateItem)
		cartRoutes.DELETE("/items/:id", cartHandler.RemoveItem)
	}

	orders := rg.Group("/orders")
	orders.Use(middleware.AuthMiddleware(cfg))
	{
		orders.POST("", orderHandler.Create)
		orders.GET("", orderHandler.List)
		orders.GET("/:id", orderHandler.Get)
		orders.POST("/:id/cancel", orderHandler.Cancel)

		admin := orders.Group("")
		admin.Use(middleware.AdminMiddleware())
		{
			admin.PUT("/:id/status", orderHandler.UpdateStatus)
			admin.GET("/analytics/summary", orderHandler.Analytics)
		}
	}

	reviews := rg.Group("/reviews")
	{
		reviews.GET("/products/:productId", reviewHandler.ListForProduct)

		protected := reviews.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			protected.POST("/products/:productId", reviewHandler.Create)
			protected.PUT("/:id", reviewHandler.Update)
			protected.DELETE("/:id", reviewHandler.Delete)
		}
	}
}
