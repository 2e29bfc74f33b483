package sales

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerx/ledgerx-backend/internal/ledger"
	"github.com/ledgerx/ledgerx-backend/pkg/database"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Failures the handler maps to response codes. Everything else is a 500.
var (
	ErrCustomerRequired  = errors.New("customer is required for credit sales and payments")
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidPaidAmount = errors.New("paid amount cannot exceed the bill total")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrNoItems           = errors.New("a sale needs at least one item")
)

type SaleItem struct {
	ProductID uuid.UUID
	Quantity  int
}

type SaleInput struct {
	TransactionType string // CASH or CREDIT
	CustomerID      *uuid.UUID
	PaidAmount      decimal.Decimal // upfront collection, CREDIT only
	Items           []SaleItem
}

// RecordSale writes one sale as a single all-or-nothing unit: the
// transaction row, its items, and every touched product's stock decrement
// commit together or not at all. Product rows are locked FOR UPDATE so two
// concurrent sales cannot oversell the same stock.
func RecordSale(db *gorm.DB, shopID uuid.UUID, input SaleInput) (*database.Transaction, error) {
	if len(input.Items) == 0 {
		return nil, ErrNoItems
	}
	if input.PaidAmount.IsNegative() {
		return nil, ErrInvalidAmount
	}

	var customerID *uuid.UUID
	if input.TransactionType == database.TxCredit {
		if input.CustomerID == nil {
			return nil, ErrCustomerRequired
		}
		customerID = input.CustomerID
	}

	var result database.Transaction
	err := db.Transaction(func(tx *gorm.DB) error {
		if customerID != nil {
			var customer database.Customer
			if err := tx.Where("id = ? AND shop_id = ? AND is_active = ?", customerID, shopID, true).
				First(&customer).Error; err != nil {
				return ErrCustomerNotFound
			}
		}

		total := decimal.Zero
		items := make([]database.TransactionItem, 0, len(input.Items))
		for _, item := range input.Items {
			var product database.Product
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id = ? AND shop_id = ? AND is_active = ?", item.ProductID, shopID, true).
				First(&product).Error; err != nil {
				return fmt.Errorf("%w: %s", ErrProductNotFound, item.ProductID)
			}

			if product.StockQuantity < item.Quantity {
				return fmt.Errorf("%w: %s has %d left", ErrInsufficientStock, product.Name, product.StockQuantity)
			}

			if err := tx.Model(&product).
				Update("stock_quantity", gorm.Expr("stock_quantity - ?", item.Quantity)).Error; err != nil {
				return err
			}

			// Price snapshot: later price changes never alter this sale
			items = append(items, database.TransactionItem{
				ProductID:   product.ID,
				Quantity:    item.Quantity,
				PriceAtSale: product.DefaultPrice,
			})
			total = total.Add(product.DefaultPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
		total = total.Round(2)

		paid := decimal.Zero
		if input.TransactionType == database.TxCredit {
			paid = input.PaidAmount.Round(2)
			if paid.GreaterThan(total) {
				return ErrInvalidPaidAmount
			}
		}

		// Single representation of the upfront collection: it lives on the
		// CREDIT row only, never as an extra PAYMENT row, so the balance
		// can never subtract it twice.
		result = database.Transaction{
			ShopID:          shopID,
			CustomerID:      customerID,
			TransactionType: input.TransactionType,
			TotalAmount:     total,
			PaidAmount:      paid,
			TransactionDate: time.Now(),
			IsActive:        true,
		}
		if err := tx.Create(&result).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].TransactionID = result.ID
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// RecordPayment writes a standalone PAYMENT against a customer's balance.
// Payments carry no items and never touch stock.
func RecordPayment(db *gorm.DB, shopID, customerID uuid.UUID, amount decimal.Decimal) (*database.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var customer database.Customer
	if err := db.Where("id = ? AND shop_id = ? AND is_active = ?", customerID, shopID, true).
		First(&customer).Error; err != nil {
		return nil, ErrCustomerNotFound
	}

	payment := database.Transaction{
		ShopID:          shopID,
		CustomerID:      &customerID,
		TransactionType: database.TxPayment,
		TotalAmount:     amount.Round(2),
		PaidAmount:      decimal.Zero,
		TransactionDate: time.Now(),
		IsActive:        true,
	}
	if err := db.Create(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// StatementRow is one line of a customer statement, newest first.
type StatementRow struct {
	TransactionID   uuid.UUID       `json:"transaction_id"`
	TransactionType string          `json:"transaction_type"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	TransactionDate time.Time       `json:"transaction_date"`
	Balance         decimal.Decimal `json:"balance"`
	AbsBalance      decimal.Decimal `json:"abs_balance"`
}

// LedgerView is the customer-facing statement plus the net position.
type LedgerView struct {
	Outstanding decimal.Decimal `json:"outstanding"`
	Rows        []StatementRow  `json:"rows"`
}

// EntriesFromTransactions adapts persisted rows for the calculator.
// Amounts are taken as stored; inconsistent historical data flows through
// rather than crashing a statement view.
func EntriesFromTransactions(transactions []database.Transaction) []ledger.Entry {
	entries := make([]ledger.Entry, 0, len(transactions))
	for _, t := range transactions {
		entries = append(entries, ledger.Entry{
			ID:       t.ID,
			Type:     ledger.EntryType(t.TransactionType),
			Total:    t.TotalAmount,
			Paid:     t.PaidAmount,
			Date:     t.TransactionDate,
			Sequence: t.Sequence,
			Active:   t.IsActive,
		})
	}
	return entries
}

// LedgerForCustomer loads a customer's active transactions and runs the
// balance calculator over them.
func LedgerForCustomer(db *gorm.DB, customerID uuid.UUID) (*LedgerView, error) {
	var transactions []database.Transaction
	if err := db.Where("customer_id = ? AND is_active = ?", customerID, true).
		Find(&transactions).Error; err != nil {
		return nil, err
	}

	entries := EntriesFromTransactions(transactions)
	lines := ledger.Statement(entries)

	rows := make([]StatementRow, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, StatementRow{
			TransactionID:   line.Entry.ID,
			TransactionType: string(line.Entry.Type),
			TotalAmount:     line.Entry.Total,
			PaidAmount:      line.Entry.Paid,
			TransactionDate: line.Entry.Date,
			Balance:         line.Balance,
			AbsBalance:      line.AbsBalance(),
		})
	}

	return &LedgerView{
		Outstanding: ledger.Outstanding(entries),
		Rows:        rows,
	}, nil
}
