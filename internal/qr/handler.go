// Package qr serves the public, unauthenticated, read-only customer ledger
// reached by scanning a shop's QR code. The token is the whole capability:
// any failure — unknown token, revoked, expired, wrong format — answers the
// same 404 so nothing leaks about what exists.
package qr

import (
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

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}

// expired reports whether a token is past its expiry. An active token past
// its expiry is just as dead as a revoked one; a nil ExpiresAt never expires.
func expired(token database.QRToken, now time.Time) bool {
	return token.ExpiresAt != nil && token.ExpiresAt.Before(now)
}

// PublicLedger returns the customer's name, outstanding balance and
// statement for a valid token.
func (h *Handler) PublicLedger(c *gin.Context) {
	tokenUUID, err := uuid.Parse(c.Param("token"))
	if err != nil {
		notFound(c)
		return
	}

	var token database.QRToken
	if err := h.db.Where("secure_token = ? AND is_active = ?", tokenUUID, true).First(&token).Error; err != nil {
		notFound(c)
		return
	}

	if expired(token, time.Now()) {
		notFound(c)
		return
	}

	var customer database.Customer
	if err := h.db.First(&customer, "id = ?", token.CustomerID).Error; err != nil {
		notFound(c)
		return
	}

	view, err := sales.LedgerForCustomer(h.db, customer.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute ledger"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"customer_name": customer.Name,
			"outstanding":   view.Outstanding,
			"statement":     view.Rows,
		},
	})
}
