package qr

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ledgerx/ledgerx-backend/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name      string
		expiresAt *time.Time
		want      bool
	}{
		{"no expiry never expires", nil, false},
		{"future expiry still usable", &future, false},
		{"past expiry is dead", &past, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := database.QRToken{IsActive: true, ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, expired(token, now))
		})
	}
}

// setupTestDB connects to the database named by TEST_DATABASE_URL and
// migrates a fresh schema. Tests are skipped when it is unset.
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

func setupRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/public/ledger/:token", NewHandler(db).PublicLedger)
	return r
}

func seedCustomerWithToken(t *testing.T, db *gorm.DB, isActive bool, expiresAt *time.Time) (database.Customer, database.QRToken) {
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
	customer := database.Customer{
		ShopID:   shop.ID,
		Name:     "Ravi",
		Mobile:   uuid.New().String()[:12],
		IsActive: true,
	}
	require.NoError(t, db.Create(&customer).Error)
	token := database.QRToken{
		CustomerID:  customer.ID,
		SecureToken: uuid.New(),
		IsActive:    isActive,
		ExpiresAt:   expiresAt,
	}
	require.NoError(t, db.Create(&token).Error)
	return customer, token
}

func get(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, "/public/ledger/"+token, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPublicLedgerExpiredTokenIsDenied(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(db)

	past := time.Now().Add(-24 * time.Hour)
	_, token := seedCustomerWithToken(t, db, true, &past)

	w := get(r, token.SecureToken.String())
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPublicLedgerRevokedTokenIsDenied(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(db)

	_, token := seedCustomerWithToken(t, db, false, nil)

	w := get(r, token.SecureToken.String())
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPublicLedgerUnknownTokenIsDenied(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(db)

	assert.Equal(t, http.StatusNotFound, get(r, uuid.New().String()).Code)
	assert.Equal(t, http.StatusNotFound, get(r, "not-a-uuid").Code)
}

func TestPublicLedgerValidTokenServesStatement(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(db)

	future := time.Now().Add(24 * time.Hour)
	customer, token := seedCustomerWithToken(t, db, true, &future)

	w := get(r, token.SecureToken.String())
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), customer.Name)
	assert.Contains(t, w.Body.String(), "outstanding")
}
