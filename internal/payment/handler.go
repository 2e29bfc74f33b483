package payment

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
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

// PaymentLink returns a UPI deep link for collecting the given amount from
// the customer in the path. The shop must have its UPI ID configured.
func (h *Handler) PaymentLink(c *gin.Context) {
	shopID := c.GetString("shop_id")

	var shop database.Shop
	if err := h.db.First(&shop, "id = ?", shopID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if shop.UPIID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Configure the shop's UPI ID first"})
		return
	}

	var customer database.Customer
	if err := h.db.Where("id = ? AND shop_id = ?", c.Param("id"), shopID).First(&customer).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
		return
	}

	note := c.Query("note")
	if note == "" {
		note = fmt.Sprintf("Payment to %s", shop.ShopName)
	}

	link, err := BuildUPILink(shop.UPIID, shop.ShopName, amount, note)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"customer_id": customer.ID,
			"upi_link":    link,
			"amount":      amount.StringFixed(2),
		},
	})
}
