package product

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ledgerx/ledgerx-backend/pkg/database"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

type CreateProductRequest struct {
	Name              string          `json:"name" binding:"required"`
	Category          string          `json:"category"`
	DefaultPrice      decimal.Decimal `json:"default_price" binding:"required"`
	StockQuantity     int             `json:"stock_quantity" binding:"min=0"`
	LowStockThreshold int             `json:"low_stock_threshold"`
	ImageURL          string          `json:"image_url"`
}

type UpdateProductRequest struct {
	Name              string          `json:"name" binding:"required"`
	Category          string          `json:"category"`
	DefaultPrice      decimal.Decimal `json:"default_price" binding:"required"`
	LowStockThreshold int             `json:"low_stock_threshold"`
	ImageURL          string          `json:"image_url"`
}

// List returns the shop's products, active only unless include_inactive=true
func (h *Handler) List(c *gin.Context) {
	shopID := c.GetString("shop_id")
	search := c.Query("search")

	query := h.db.Where("shop_id = ?", shopID)
	if c.Query("include_inactive") != "true" {
		query = query.Where("is_active = ?", true)
	}
	if search != "" {
		query = query.Where("name ILIKE ? OR category ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var products []database.Product
	if err := query.Order("name ASC").Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": products})
}

// Create adds a new product
func (h *Handler) Create(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.DefaultPrice.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Price cannot be negative"})
		return
	}

	shopID, _ := uuid.Parse(c.GetString("shop_id"))

	threshold := req.LowStockThreshold
	if threshold <= 0 {
		threshold = 5
	}

	product := database.Product{
		ShopID:            shopID,
		Name:              req.Name,
		Category:          req.Category,
		DefaultPrice:      req.DefaultPrice.Round(2),
		StockQuantity:     req.StockQuantity,
		LowStockThreshold: threshold,
		ImageURL:          req.ImageURL,
		IsActive:          true,
	}

	if err := h.db.Create(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": product})
}

// Get returns a single product
func (h *Handler) Get(c *gin.Context) {
	shopID := c.GetString("shop_id")

	var product database.Product
	if err := h.db.Where("id = ? AND shop_id = ?", c.Param("id"), shopID).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": product})
}

// Update modifies a product. The price change only affects future sales;
// past items keep their price_at_sale snapshot.
func (h *Handler) Update(c *gin.Context) {
	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.DefaultPrice.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Price cannot be negative"})
		return
	}

	shopID := c.GetString("shop_id")

	var product database.Product
	if err := h.db.Where("id = ? AND shop_id = ?", c.Param("id"), shopID).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	updates := map[string]interface{}{
		"name":          req.Name,
		"category":      req.Category,
		"default_price": req.DefaultPrice.Round(2),
		"image_url":     req.ImageURL,
	}
	if req.LowStockThreshold > 0 {
		updates["low_stock_threshold"] = req.LowStockThreshold
	}

	if err := h.db.Model(&product).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": product})
}

// ToggleActive flips the soft-delete flag
func (h *Handler) ToggleActive(c *gin.Context) {
	shopID := c.GetString("shop_id")

	var product database.Product
	if err := h.db.Where("id = ? AND shop_id = ?", c.Param("id"), shopID).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if err := h.db.Model(&product).Update("is_active", !product.IsActive).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}

	product.IsActive = !product.IsActive
	c.JSON(http.StatusOK, gin.H{"data": product})
}

// Delete hard-deletes a product. The foreign key on transaction items is
// RESTRICT, so products with sale history are refused; deactivate those
// instead.
func (h *Handler) Delete(c *gin.Context) {
	shopID := c.GetString("shop_id")

	var product database.Product
	if err := h.db.Where("id = ? AND shop_id = ?", c.Param("id"), shopID).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	var itemCount int64
	h.db.Model(&database.TransactionItem{}).Where("product_id = ?", product.ID).Count(&itemCount)
	if itemCount > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Product has sale history and cannot be deleted. Deactivate it instead."})
		return
	}

	if err := h.db.Delete(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			c.JSON(http.StatusConflict, gin.H{"error": "Product has sale history and cannot be deleted. Deactivate it instead."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

// LowStock lists active products at or below their low-stock threshold
func (h *Handler) LowStock(c *gin.Context) {
	shopID := c.GetString("shop_id")

	var products []database.Product
	if err := h.db.Where("shop_id = ? AND is_active = ? AND stock_quantity <= low_stock_threshold", shopID, true).
		Order("stock_quantity ASC").
		Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": products})
}
