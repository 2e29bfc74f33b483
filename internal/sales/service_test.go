package sales

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerx/ledgerx-backend/pkg/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB connects to the database named by TEST_DATABASE_URL and
// migrates a fresh schema. Tests are skipped when it is unset so the pure
// ledger tests still run anywhere.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database-backed tests")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedShop(t *testing.T, db *gorm.DB) database.Shop {
	t.Helper()
	suffix := uuid.New().String()[:8]
	user := database.User{
		Username:   "shopkeeper-" + suffix,
		Email:      "shopkeeper-" + suffix + "@example.com",
		IsVerified: true,
		IsActive:   true,
	}
	require.NoError(t, db.Create(&user).Error)
	shop := database.Shop{UserID: user.ID, ShopName: "Test Shop", OwnerName: "Tester"}
	require.NoError(t, db.Create(&shop).Error)
	return shop
}

func seedCustomer(t *testing.T, db *gorm.DB, shopID uuid.UUID) database.Customer {
	t.Helper()
	customer := database.Customer{
		ShopID:   shopID,
		Name:     "Ravi",
		Mobile:   uuid.New().String()[:12],
		IsActive: true,
	}
	require.NoError(t, db.Create(&customer).Error)
	return customer
}

func seedProduct(t *testing.T, db *gorm.DB, shopID uuid.UUID, price string, stock int) database.Product {
	t.Helper()
	d, err := decimal.NewFromString(price)
	require.NoError(t, err)
	product := database.Product{
		ShopID:        shopID,
		Name:          "Rice 1kg " + uuid.New().String()[:8],
		DefaultPrice:  d,
		StockQuantity: stock,
		IsActive:      true,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func TestRecordSaleInsufficientStockIsAllOrNothing(t *testing.T) {
	db := setupTestDB(t)
	shop := seedShop(t, db)
	inStock := seedProduct(t, db, shop.ID, "50.00", 10)
	short := seedProduct(t, db, shop.ID, "80.00", 3)

	_, err := RecordSale(db, shop.ID, SaleInput{
		TransactionType: database.TxCash,
		Items: []SaleItem{
			{ProductID: inStock.ID, Quantity: 2},
			{ProductID: short.ID, Quantity: 5}, // only 3 left
		},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	// No partial state: both stocks untouched, no transaction rows written
	var p1, p2 database.Product
	require.NoError(t, db.First(&p1, "id = ?", inStock.ID).Error)
	require.NoError(t, db.First(&p2, "id = ?", short.ID).Error)
	assert.Equal(t, 10, p1.StockQuantity)
	assert.Equal(t, 3, p2.StockQuantity)

	var count int64
	db.Model(&database.Transaction{}).Where("shop_id = ?", shop.ID).Count(&count)
	assert.Zero(t, count)
}

func TestRecordCreditSaleWithUpfrontPayment(t *testing.T) {
	db := setupTestDB(t)
	shop := seedShop(t, db)
	customer := seedCustomer(t, db, shop.ID)
	product := seedProduct(t, db, shop.ID, "250.00", 20)

	sale, err := RecordSale(db, shop.ID, SaleInput{
		TransactionType: database.TxCredit,
		CustomerID:      &customer.ID,
		PaidAmount:      decimal.RequireFromString("200.00"),
		Items:           []SaleItem{{ProductID: product.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, "500", sale.TotalAmount.String())
	assert.Equal(t, "200", sale.PaidAmount.String())

	var updated database.Product
	require.NoError(t, db.First(&updated, "id = ?", product.ID).Error)
	assert.Equal(t, 18, updated.StockQuantity)

	// Exactly one representation: no synthesized PAYMENT row
	var payments int64
	db.Model(&database.Transaction{}).
		Where("customer_id = ? AND transaction_type = ?", customer.ID, database.TxPayment).
		Count(&payments)
	assert.Zero(t, payments)

	// Balance: (500 - 200), then a separate payment of 100 -> 200
	_, err = RecordPayment(db, shop.ID, customer.ID, decimal.RequireFromString("100.00"))
	require.NoError(t, err)

	view, err := LedgerForCustomer(db, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "200", view.Outstanding.String())
	require.Len(t, view.Rows, 2)
	assert.True(t, view.Rows[0].Balance.Equal(view.Outstanding))
}

func TestRecordSaleRejectsOverpaidCredit(t *testing.T) {
	db := setupTestDB(t)
	shop := seedShop(t, db)
	customer := seedCustomer(t, db, shop.ID)
	product := seedProduct(t, db, shop.ID, "100.00", 5)

	_, err := RecordSale(db, shop.ID, SaleInput{
		TransactionType: database.TxCredit,
		CustomerID:      &customer.ID,
		PaidAmount:      decimal.RequireFromString("150.00"),
		Items:           []SaleItem{{ProductID: product.ID, Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrInvalidPaidAmount)

	var updated database.Product
	require.NoError(t, db.First(&updated, "id = ?", product.ID).Error)
	assert.Equal(t, 5, updated.StockQuantity, "rejected sale must not touch stock")
}

func TestRecordSaleCreditRequiresCustomer(t *testing.T) {
	db := setupTestDB(t)
	shop := seedShop(t, db)
	product := seedProduct(t, db, shop.ID, "10.00", 5)

	_, err := RecordSale(db, shop.ID, SaleInput{
		TransactionType: database.TxCredit,
		Items:           []SaleItem{{ProductID: product.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrCustomerRequired)
}

func TestRecordSaleIsShopScoped(t *testing.T) {
	db := setupTestDB(t)
	shopA := seedShop(t, db)
	shopB := seedShop(t, db)
	foreign := seedProduct(t, db, shopB.ID, "10.00", 5)

	_, err := RecordSale(db, shopA.ID, SaleInput{
		TransactionType: database.TxCash,
		Items:           []SaleItem{{ProductID: foreign.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestRecordPaymentRejectsNonPositiveAmount(t *testing.T) {
	db := setupTestDB(t)
	shop := seedShop(t, db)
	customer := seedCustomer(t, db, shop.ID)

	_, err := RecordPayment(db, shop.ID, customer.ID, decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = RecordPayment(db, shop.ID, customer.ID, decimal.RequireFromString("-5"))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestVoidedTransactionsDropOutOfLedger(t *testing.T) {
	db := setupTestDB(t)
	shop := seedShop(t, db)
	customer := seedCustomer(t, db, shop.ID)
	product := seedProduct(t, db, shop.ID, "300.00", 10)

	sale, err := RecordSale(db, shop.ID, SaleInput{
		TransactionType: database.TxCredit,
		CustomerID:      &customer.ID,
		Items:           []SaleItem{{ProductID: product.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	view, err := LedgerForCustomer(db, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "300", view.Outstanding.String())

	require.NoError(t, db.Model(sale).Update("is_active", false).Error)

	view, err = LedgerForCustomer(db, customer.ID)
	require.NoError(t, err)
	assert.True(t, view.Outstanding.IsZero())
	assert.Empty(t, view.Rows)
}

func TestSequenceBreaksSameTimestampTies(t *testing.T) {
	db := setupTestDB(t)
	shop := seedShop(t, db)
	customer := seedCustomer(t, db, shop.ID)

	when := time.Now().Truncate(time.Second)
	credit := database.Transaction{
		ShopID: shop.ID, CustomerID: &customer.ID,
		TransactionType: database.TxCredit,
		TotalAmount:     decimal.RequireFromString("100.00"),
		TransactionDate: when, IsActive: true,
	}
	require.NoError(t, db.Create(&credit).Error)
	payment := database.Transaction{
		ShopID: shop.ID, CustomerID: &customer.ID,
		TransactionType: database.TxPayment,
		TotalAmount:     decimal.RequireFromString("100.00"),
		TransactionDate: when, IsActive: true,
	}
	require.NoError(t, db.Create(&payment).Error)
	assert.Greater(t, payment.Sequence, credit.Sequence)

	view, err := LedgerForCustomer(db, customer.ID)
	require.NoError(t, err)
	require.Len(t, view.Rows, 2)
	assert.Equal(t, database.TxPayment, view.Rows[0].TransactionType)
	assert.Equal(t, "100", view.Rows[1].Balance.String())
	assert.True(t, view.Rows[0].Balance.IsZero())
}
