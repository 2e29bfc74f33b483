package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction types
const (
	TxCash    = "CASH"
	TxCredit  = "CREDIT"
	TxPayment = "PAYMENT"
)

// OTP purposes
const (
	OTPPurposeRegister = "register"
	OTPPurposeReset    = "reset"
)

// Base model for all entities
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User represents a login account (one per shop)
type User struct {
	BaseModel
	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	GoogleID     string `gorm:"index" json:"-"` // For Google OAuth (empty for password accounts)
	PasswordHash string `json:"-"`
	IsVerified   bool   `gorm:"default:false" json:"is_verified"` // Email OTP gate
	IsActive     bool   `gorm:"default:true" json:"is_active"`
}

// Shop represents one shopkeeper's business, 1:1 with User
type Shop struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	ShopName  string    `gorm:"not null" json:"shop_name"`
	OwnerName string    `gorm:"not null" json:"owner_name"`
	UPIID     string    `json:"upi_id"` // Payee VPA for payment links
}

// EmailOTP stores short-lived verification codes
type EmailOTP struct {
	BaseModel
	UserID  uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User    User      `gorm:"foreignKey:UserID" json:"-"`
	OTP     string    `gorm:"not null" json:"-"`
	Purpose string    `gorm:"not null" json:"purpose"` // register, reset
	IsUsed  bool      `gorm:"default:false" json:"is_used"`
}

// PasswordResetToken is the link-based reset flow
type PasswordResetToken struct {
	BaseModel
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User   User      `gorm:"foreignKey:UserID" json:"-"`
	Token  uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"-"`
	IsUsed bool      `gorm:"default:false" json:"is_used"`
}

// Customer is a credit (udhar) customer of one shop.
// Cash-only buyers are never stored.
type Customer struct {
	BaseModel
	ShopID   uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_shop_mobile" json:"shop_id"`
	Shop     Shop      `gorm:"foreignKey:ShopID" json:"-"`
	Name     string    `gorm:"not null" json:"name"`
	Mobile   string    `gorm:"not null;uniqueIndex:idx_shop_mobile" json:"mobile"`
	IsActive bool      `gorm:"default:true" json:"is_active"`
}

// Product is a sellable item belonging to one shop
type Product struct {
	BaseModel
	ShopID            uuid.UUID       `gorm:"type:uuid;not null;index" json:"shop_id"`
	Shop              Shop            `gorm:"foreignKey:ShopID" json:"-"`
	Name              string          `gorm:"not null" json:"name"`
	Category          string          `json:"category"`
	DefaultPrice      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"default_price"`
	StockQuantity     int             `gorm:"not null;default:0" json:"stock_quantity"`
	LowStockThreshold int             `gorm:"default:5" json:"low_stock_threshold"`
	ImageURL          string          `json:"image_url"`
	IsActive          bool            `gorm:"default:true" json:"is_active"`
}

// Transaction is one financial action: a CASH sale, a CREDIT sale,
// or a PAYMENT received against a customer's balance.
type Transaction struct {
	BaseModel
	ShopID          uuid.UUID         `gorm:"type:uuid;not null;index" json:"shop_id"`
	Shop            Shop              `gorm:"foreignKey:ShopID" json:"-"`
	CustomerID      *uuid.UUID        `gorm:"type:uuid;index" json:"customer_id"` // nil for cash sales
	Customer        *Customer         `gorm:"foreignKey:CustomerID;constraint:OnDelete:SET NULL" json:"customer,omitempty"`
	TransactionType string            `gorm:"not null;index" json:"transaction_type"` // CASH, CREDIT, PAYMENT
	TotalAmount     decimal.Decimal   `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	PaidAmount      decimal.Decimal   `gorm:"type:decimal(10,2);not null;default:0" json:"paid_amount"` // collected at credit-sale time
	TransactionDate time.Time         `gorm:"not null;index" json:"transaction_date"`
	Sequence        int64             `gorm:"autoIncrement;uniqueIndex" json:"sequence"` // insertion order, tie-break for equal dates
	Items           []TransactionItem `gorm:"foreignKey:TransactionID" json:"items,omitempty"`
	IsActive        bool              `gorm:"default:true" json:"is_active"`
}

// TransactionItem is one product line in a sale.
// PAYMENT transactions never have items.
type TransactionItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	TransactionID uuid.UUID       `gorm:"type:uuid;not null;index" json:"transaction_id"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null" json:"product_id"`
	Product       Product         `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT" json:"product"`
	Quantity      int             `gorm:"not null" json:"quantity"`
	PriceAtSale   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price_at_sale"` // snapshot, never recomputed
}

// QRToken grants public read-only access to one customer's ledger
type QRToken struct {
	BaseModel
	CustomerID  uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"customer_id"`
	Customer    Customer   `gorm:"foreignKey:CustomerID" json:"-"`
	SecureToken uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"secure_token"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// Migrate runs database migrations
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Shop{},
		&EmailOTP{},
		&PasswordResetToken{},
		&Customer{},
		&Product{},
		&Transaction{},
		&TransactionItem{},
		&QRToken{},
	)
}
