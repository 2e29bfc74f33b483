package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/ledgerx/ledgerx-backend/internal/auth"
	"github.com/ledgerx/ledgerx-backend/internal/customer"
	"github.com/ledgerx/ledgerx-backend/internal/inventory"
	"github.com/ledgerx/ledgerx-backend/internal/payment"
	"github.com/ledgerx/ledgerx-backend/internal/product"
	"github.com/ledgerx/ledgerx-backend/internal/qr"
	"github.com/ledgerx/ledgerx-backend/internal/reports"
	"github.com/ledgerx/ledgerx-backend/internal/sales"
	"github.com/ledgerx/ledgerx-backend/pkg/database"
	"github.com/ledgerx/ledgerx-backend/pkg/middleware"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize database
	db, err := database.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Setup Gin router
	r := gin.Default()

	// Middleware
	r.Use(middleware.CORS())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Auth routes (public)
		authHandler := auth.NewHandler(db)
		v1.POST("/auth/register", authHandler.Register)
		v1.POST("/auth/verify-otp", authHandler.VerifyOTP)
		v1.POST("/auth/login", authHandler.Login)
		v1.POST("/auth/refresh", authHandler.RefreshToken)
		v1.POST("/auth/forgot-password", authHandler.ForgotPassword)
		v1.POST("/auth/reset-password", authHandler.ResetPassword)

		// Google OAuth routes
		v1.GET("/auth/google", authHandler.GoogleLogin)
		v1.GET("/auth/google/callback", authHandler.GoogleCallback)

		// Public customer ledger, reached by QR token (no auth)
		qrHandler := qr.NewHandler(db)
		v1.GET("/public/ledger/:token", qrHandler.PublicLedger)

		// Protected routes
		protected := v1.Group("")
		protected.Use(middleware.AuthRequired())
		{
			// Auth - current user and shop profile
			protected.GET("/auth/me", authHandler.GetMe)
			protected.GET("/shop", authHandler.GetShop)
			protected.PUT("/shop", authHandler.UpdateShop)

			// Customer routes
			customerHandler := customer.NewHandler(db)
			protected.GET("/customers", customerHandler.List)
			protected.POST("/customers", customerHandler.Create)
			protected.GET("/customers/:id", customerHandler.Get)
			protected.PUT("/customers/:id", customerHandler.Update)
			protected.PATCH("/customers/:id/toggle", customerHandler.ToggleActive)
			protected.GET("/customers/:id/ledger", customerHandler.GetLedger)
			protected.POST("/customers/:id/qr-token", customerHandler.CreateQRToken)
			protected.DELETE("/customers/:id/qr-token", customerHandler.RevokeQRToken)

			// Product routes
			productHandler := product.NewHandler(db)
			protected.GET("/products", productHandler.List)
			protected.POST("/products", productHandler.Create)
			protected.GET("/products/low-stock", productHandler.LowStock)
			protected.GET("/products/:id", productHandler.Get)
			protected.PUT("/products/:id", productHandler.Update)
			protected.PATCH("/products/:id/toggle", productHandler.ToggleActive)
			protected.DELETE("/products/:id", productHandler.Delete)

			// Sales and payments
			salesHandler := sales.NewHandler(db)
			protected.GET("/transactions", salesHandler.List)
			protected.POST("/transactions", salesHandler.Create)
			protected.GET("/transactions/:id", salesHandler.Get)
			protected.POST("/transactions/:id/void", salesHandler.Void)
			protected.POST("/payments", salesHandler.CreatePayment)
			protected.POST("/customers/:id/payments", salesHandler.CreatePaymentForCustomer)

			// Reports routes
			reportsHandler := reports.NewHandler(db)
			protected.GET("/reports/dashboard", reportsHandler.Dashboard)
			protected.GET("/reports/customers", reportsHandler.CustomerReport)
			protected.GET("/reports/sales", reportsHandler.SalesReport)
			protected.GET("/reports/products", reportsHandler.ProductReport)

			// Inventory routes
			inventoryHandler := inventory.NewHandler(db)
			protected.GET("/inventory/export", inventoryHandler.Export)
			protected.POST("/inventory/import", inventoryHandler.Import)
			protected.PUT("/inventory/:id/stock", inventoryHandler.UpdateStock)

			// Payment bridge (UPI deep link)
			paymentHandler := payment.NewHandler(db)
			protected.GET("/customers/:id/payment-link", paymentHandler.PaymentLink)
		}
	}

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
