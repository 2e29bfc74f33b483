package customer

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ledgerx/ledgerx-backend/internal/sales"
	"github.com/ledgerx/ledgerx-backend/pkg/database"
	"gorm.io/gorm"
)

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

type CreateCustomerRequest struct {
	Name   string `json:"name" binding:"required"`
	Mobile string `json:"mobile" binding:"required"`
}

type UpdateCustomerRequest struct {
	Name   string `json:"name" binding:"required"`
	Mobile string `json:"mobile" binding:"required"`
}

type CreateQRTokenRequest struct {
	ExpiresInDays int `json:"expires_in_days"` // 0 = no expiry
}

// List returns the shop's customers. Inactive ones are excluded unless
// include_inactive=true is passed.
func (h *Handler) List(c *gin.Context) {
	shopID := c.GetString("shop_id")
	search := c.Query("search")

	query := h.db.Where("shop_id = ?", shopID)
	if c.Query("include_inactive") != "true" {
		query = query.Where("is_active = ?", true)
	}
	if search != "" {
		query = query.Where("name ILIKE ? OR mobile ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var customers []database.Customer
	if err := query.Order("name ASC").Find(&customers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch customers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": customers})
}

// Create adds a new credit customer
func (h *Handler) Create(c *gin.Context) {
	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	shopID, _ := uuid.Parse(c.GetString("shop_id"))

	customer := database.Customer{
		ShopID:   shopID,
		Name:     req.Name,
		Mobile:   req.Mobile,
		IsActive: true,
	}

	if err := h.db.Create(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "A customer with this mobile already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create customer"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": customer})
}

// Get returns a single customer
func (h *Handler) Get(c *gin.Context) {
	shopID := c.GetString("shop_id")
	customerID := c.Param("id")

	var customer database.Customer
	if err := h.db.Where("id = ? AND shop_id = ?", customerID, shopID).First(&customer).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": customer})
}

// Update modifies a customer's name or mobile
func (h *Handler) Update(c *gin.Context) {
	var req UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	shopID := c.GetString("shop_id")
	customerID := c.Param("id")

	var customer database.Customer
	if err := h.db.Where("id = ? AND shop_id = ?", customerID, shopID).First(&customer).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if err := h.db.Model(&customer).Updates(map[string]interface{}{
		"name":   req.Name,
		"mobile": req.Mobile,
	}).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "A customer with this mobile already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update customer"})
		return
	}

	customer.Name = req.Name
	customer.Mobile = req.Mobile
	c.JSON(http.StatusOK, gin.H{"data": customer})
}

// ToggleActive flips the soft-delete flag. History is always retained;
// customers referenced by transactions are never hard-deleted.
func (h *Handler) ToggleActive(c *gin.Context) {
	shopID := c.GetString("shop_id")
	customerID := c.Param("id")

	var customer database.Customer
	if err := h.db.Where("id = ? AND shop_id = ?", customerID, shopID).First(&customer).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if err := h.db.Model(&customer).Update("is_active", !customer.IsActive).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update customer"})
		return
	}

	customer.IsActive = !customer.IsActive
	c.JSON(http.StatusOK, gin.H{"data": customer})
}

// GetLedger returns the customer's outstanding balance and statement,
// newest line first.
func (h *Handler) GetLedger(c *gin.Context) {
	shopID := c.GetString("shop_id")

	var customer database.Customer
	if err := h.db.Where("id = ? AND shop_id = ?", c.Param("id"), shopID).First(&customer).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	view, err := sales.LedgerForCustomer(h.db, customer.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute ledger"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"customer":    customer,
			"outstanding": view.Outstanding,
			"statement":   view.Rows,
		},
	})
}

// CreateQRToken mints (or re-mints) the customer's public ledger token.
// Re-minting replaces the old token, which immediately stops working.
func (h *Handler) CreateQRToken(c *gin.Context) {
	var req CreateQRTokenRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	shopID := c.GetString("shop_id")

	var customer database.Customer
	if err := h.db.Where("id = ? AND shop_id = ?", c.Param("id"), shopID).First(&customer).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	var expiresAt *time.Time
	if req.ExpiresInDays > 0 {
		t := time.Now().AddDate(0, 0, req.ExpiresInDays)
		expiresAt = &t
	}

	token := database.QRToken{
		CustomerID:  customer.ID,
		SecureToken: uuid.New(),
		IsActive:    true,
		ExpiresAt:   expiresAt,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("customer_id = ?", customer.ID).Delete(&database.QRToken{}).Error; err != nil {
			return err
		}
		return tx.Create(&token).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create QR token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": token})
}

// RevokeQRToken deactivates the customer's public ledger token
func (h *Handler) RevokeQRToken(c *gin.Context) {
	shopID := c.GetString("shop_id")

	var customer database.Customer
	if err := h.db.Where("id = ? AND shop_id = ?", c.Param("id"), shopID).First(&customer).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	result := h.db.Model(&database.QRToken{}).
		Where("customer_id = ? AND is_active = ?", customer.ID, true).
		Update("is_active", false)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revoke QR token"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "QR token revoked"})
}
