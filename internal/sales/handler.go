package sales

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

type SaleItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

type CreateSaleRequest struct {
	TransactionType string            `json:"transaction_type" binding:"required,oneof=CASH CREDIT"`
	CustomerID      *uuid.UUID        `json:"customer_id"`
	PaidAmount      decimal.Decimal   `json:"paid_amount"`
	Items           []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
}

type CreatePaymentRequest struct {
	CustomerID uuid.UUID       `json:"customer_id" binding:"required"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
}

type PaymentAmountRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

func writeSaleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInsufficientStock):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, ErrCustomerRequired), errors.Is(err, ErrInvalidPaidAmount),
		errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrNoItems):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrCustomerNotFound), errors.Is(err, ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record transaction"})
	}
}

// Create records a CASH or CREDIT sale atomically
func (h *Handler) Create(c *gin.Context) {
	var req CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	shopID, _ := uuid.Parse(c.GetString("shop_id"))

	items := make([]SaleItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, SaleItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	sale, err := RecordSale(h.db, shopID, SaleInput{
		TransactionType: req.TransactionType,
		CustomerID:      req.CustomerID,
		PaidAmount:      req.PaidAmount,
		Items:           items,
	})
	if err != nil {
		writeSaleError(c, err)
		return
	}

	var created database.Transaction
	if err := h.db.Preload("Items").Preload("Items.Product").Preload("Customer").
		First(&created, "id = ?", sale.ID).Error; err != nil {
		// The sale committed; serve what we have rather than a partial reload
		c.JSON(http.StatusCreated, gin.H{"data": sale})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": created})
}

// CreatePayment records a standalone payment received from a customer
func (h *Handler) CreatePayment(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	shopID, _ := uuid.Parse(c.GetString("shop_id"))

	payment, err := RecordPayment(h.db, shopID, req.CustomerID, req.Amount)
	if err != nil {
		writeSaleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": payment})
}

// CreatePaymentForCustomer records a payment for the customer in the path
func (h *Handler) CreatePaymentForCustomer(c *gin.Context) {
	var req PaymentAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	shopID, _ := uuid.Parse(c.GetString("shop_id"))
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	payment, err := RecordPayment(h.db, shopID, customerID, req.Amount)
	if err != nil {
		writeSaleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": payment})
}

// List returns the shop's transactions, newest first. Optional filters:
// type=CASH|CREDIT|PAYMENT, customer_id.
func (h *Handler) List(c *gin.Context) {
	shopID := c.GetString("shop_id")

	query := h.db.Where("shop_id = ? AND is_active = ?", shopID, true)
	if txType := c.Query("type"); txType != "" {
		query = query.Where("transaction_type = ?", txType)
	}
	if customerID := c.Query("customer_id"); customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}

	var transactions []database.Transaction
	if err := query.
		Preload("Items").
		Preload("Items.Product").
		Preload("Customer").
		Order("transaction_date DESC, sequence DESC").
		Find(&transactions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": transactions})
}

// Get returns a single transaction
func (h *Handler) Get(c *gin.Context) {
	shopID := c.GetString("shop_id")
	transactionID := c.Param("id")

	var transaction database.Transaction
	if err := h.db.Where("id = ? AND shop_id = ?", transactionID, shopID).
		Preload("Items").
		Preload("Items.Product").
		Preload("Customer").
		First(&transaction).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": transaction})
}

// Void soft-deletes a transaction. The row stays for history but drops out
// of balances, statements and reports. Stock is not restored.
func (h *Handler) Void(c *gin.Context) {
	shopID := c.GetString("shop_id")
	transactionID := c.Param("id")

	var transaction database.Transaction
	if err := h.db.Where("id = ? AND shop_id = ?", transactionID, shopID).
		First(&transaction).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if !transaction.IsActive {
		c.JSON(http.StatusConflict, gin.H{"error": "Transaction is already voided"})
		return
	}

	if err := h.db.Model(&transaction).Update("is_active", false).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to void transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": transaction})
}
