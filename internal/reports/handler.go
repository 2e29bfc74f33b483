package reports

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ledgerx/ledgerx-backend/internal/ledger"
	"github.com/ledgerx/ledgerx-backend/internal/sales"
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

type DateRangeRequest struct {
	StartDate string `form:"start_date"` // 2006-01-02
	EndDate   string `form:"end_date"`
}

func (r DateRangeRequest) parse() (start, end time.Time, ok bool) {
	if r.StartDate == "" || r.EndDate == "" {
		return start, end, false
	}
	var err error
	start, err = time.Parse("2006-01-02", r.StartDate)
	if err != nil {
		return start, end, false
	}
	end, err = time.Parse("2006-01-02", r.EndDate)
	if err != nil {
		return start, end, false
	}
	// Inclusive end of day
	end = end.AddDate(0, 0, 1)
	return start, end, true
}

func sumAmount(db *gorm.DB, shopID string, types []string, from, to time.Time) decimal.Decimal {
	var total decimal.Decimal
	db.Model(&database.Transaction{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Where("shop_id = ? AND is_active = ? AND transaction_type IN ?", shopID, true, types).
		Where("transaction_date >= ? AND transaction_date < ?", from, to).
		Scan(&total)
	return total
}

// Dashboard returns the summary cards: today's sales, today's money in,
// low-stock count, active customer count and recent activity.
func (h *Handler) Dashboard(c *gin.Context) {
	shopID := c.GetString("shop_id")

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	// Invoice value written today
	todaysSales := sumAmount(h.db, shopID, []string{database.TxCash, database.TxCredit}, dayStart, dayEnd)

	// Money actually received today: cash sales, standalone payments, and
	// the upfront split collected on today's credit sales (which is never
	// stored as a separate PAYMENT row)
	todaysInflow := sumAmount(h.db, shopID, []string{database.TxCash, database.TxPayment}, dayStart, dayEnd)
	var todaysUpfront decimal.Decimal
	h.db.Model(&database.Transaction{}).
		Select("COALESCE(SUM(paid_amount), 0)").
		Where("shop_id = ? AND is_active = ? AND transaction_type = ?", shopID, true, database.TxCredit).
		Where("transaction_date >= ? AND transaction_date < ?", dayStart, dayEnd).
		Scan(&todaysUpfront)
	todaysInflow = todaysInflow.Add(todaysUpfront)

	var lowStockCount int64
	h.db.Model(&database.Product{}).
		Where("shop_id = ? AND is_active = ? AND stock_quantity <= low_stock_threshold", shopID, true).
		Count(&lowStockCount)

	var customerCount int64
	h.db.Model(&database.Customer{}).
		Where("shop_id = ? AND is_active = ?", shopID, true).
		Count(&customerCount)

	var recent []database.Transaction
	h.db.Where("shop_id = ? AND is_active = ?", shopID, true).
		Preload("Customer").
		Order("created_at DESC").
		Limit(5).
		Find(&recent)

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"todays_sales":     todaysSales,
			"todays_inflow":    todaysInflow,
			"low_stock_count":  lowStockCount,
			"active_customers": customerCount,
			"recent_activity":  recent,
		},
	})
}

type CustomerBalance struct {
	Customer database.Customer `json:"customer"`
	Balance  decimal.Decimal   `json:"balance"`
}

// CustomerReport lists customers by net position. type=outstanding (default)
// keeps those who owe the shop; type=advance keeps those the shop owes,
// with the balance shown as the positive advance.
func (h *Handler) CustomerReport(c *gin.Context) {
	shopID := c.GetString("shop_id")
	reportType := c.DefaultQuery("type", "outstanding")

	var customers []database.Customer
	if err := h.db.Where("shop_id = ? AND is_active = ?", shopID, true).Find(&customers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch customers"})
		return
	}

	report := make([]CustomerBalance, 0)
	for _, customer := range customers {
		var transactions []database.Transaction
		if err := h.db.Where("customer_id = ? AND is_active = ?", customer.ID, true).
			Find(&transactions).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
			return
		}
		balance := ledger.Outstanding(sales.EntriesFromTransactions(transactions))

		if reportType == "advance" && balance.IsNegative() {
			report = append(report, CustomerBalance{Customer: customer, Balance: balance.Abs()})
		} else if reportType == "outstanding" && balance.IsPositive() {
			report = append(report, CustomerBalance{Customer: customer, Balance: balance})
		}
	}

	c.JSON(http.StatusOK, gin.H{"data": report, "type": reportType})
}

// SalesReport lists CASH and CREDIT transactions in the date range with
// their total. Defaults to the current month.
func (h *Handler) SalesReport(c *gin.Context) {
	shopID := c.GetString("shop_id")

	var req DateRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start, end, ok := req.parse()
	if !ok {
		now := time.Now()
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 1, 0)
	}

	var transactions []database.Transaction
	if err := h.db.Where("shop_id = ? AND is_active = ? AND transaction_type IN ?",
		shopID, true, []string{database.TxCash, database.TxCredit}).
		Where("transaction_date >= ? AND transaction_date < ?", start, end).
		Preload("Customer").
		Order("transaction_date DESC").
		Find(&transactions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}

	total := decimal.Zero
	for _, t := range transactions {
		total = total.Add(t.TotalAmount)
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"start_date":   start.Format("2006-01-02"),
			"end_date":     end.AddDate(0, 0, -1).Format("2006-01-02"),
			"total_sales":  total,
			"transactions": transactions,
		},
	})
}

type ProductSales struct {
	ProductID     string          `json:"product_id"`
	ProductName   string          `json:"product_name"`
	TotalQuantity int             `json:"total_quantity"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
}

// ProductReport aggregates quantity sold per product over the date range
func (h *Handler) ProductReport(c *gin.Context) {
	shopID := c.GetString("shop_id")

	var req DateRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start, end, ok := req.parse()
	if !ok {
		now := time.Now()
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 1, 0)
	}

	var report []ProductSales
	if err := h.db.Table("transaction_items").
		Select("products.id AS product_id, products.name AS product_name, SUM(transaction_items.quantity) AS total_quantity, SUM(transaction_items.quantity * transaction_items.price_at_sale) AS total_revenue").
		Joins("JOIN transactions ON transactions.id = transaction_items.transaction_id").
		Joins("JOIN products ON products.id = transaction_items.product_id").
		Where("transactions.shop_id = ? AND transactions.is_active = ? AND transactions.transaction_type IN ?",
			shopID, true, []string{database.TxCash, database.TxCredit}).
		Where("transactions.transaction_date >= ? AND transactions.transaction_date < ?", start, end).
		Group("products.id, products.name").
		Order("total_quantity DESC").
		Scan(&report).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"start_date": start.Format("2006-01-02"),
			"end_date":   end.AddDate(0, 0, -1).Format("2006-01-02"),
			"products":   report,
		},
	})
}
