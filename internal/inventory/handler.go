package inventory

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ledgerx/ledgerx-backend/pkg/database"
	"gorm.io/gorm"
)

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

type UpdateStockRequest struct {
	StockQuantity *int `json:"stock_quantity" binding:"required"`
}

// UpdateStock sets a product's stock to an absolute count (manual
// correction after a physical recount)
func (h *Handler) UpdateStock(c *gin.Context) {
	var req UpdateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *req.StockQuantity < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Stock cannot be negative"})
		return
	}

	shopID := c.GetString("shop_id")

	var product database.Product
	if err := h.db.Where("id = ? AND shop_id = ?", c.Param("id"), shopID).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if err := h.db.Model(&product).Update("stock_quantity", *req.StockQuantity).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update stock"})
		return
	}

	product.StockQuantity = *req.StockQuantity
	c.JSON(http.StatusOK, gin.H{"data": product})
}
