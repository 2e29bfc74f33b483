package sales

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupSalesRouter(db *gorm.DB, shopID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("shop_id", shopID.String())
		c.Next()
	})
	r.POST("/transactions", NewHandler(db).Create)
	return r
}

func TestCreateSaleRespondsWithPersistedSale(t *testing.T) {
	db := setupTestDB(t)
	shop := seedShop(t, db)
	customer := seedCustomer(t, db, shop.ID)
	product := seedProduct(t, db, shop.ID, "50.00", 10)
	r := setupSalesRouter(db, shop.ID)

	body := `{
		"transaction_type": "CREDIT",
		"customer_id": "` + customer.ID.String() + `",
		"items": [{"product_id": "` + product.ID.String() + `", "quantity": 2}]
	}`
	req, _ := http.NewRequest(http.MethodPost, "/transactions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			ID          uuid.UUID `json:"id"`
			TotalAmount string    `json:"total_amount"`
			Items       []struct {
				Product struct {
					Name string `json:"name"`
				} `json:"product"`
			} `json:"items"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEqual(t, uuid.Nil, resp.Data.ID)
	assert.Equal(t, "100", resp.Data.TotalAmount)
	require.Len(t, resp.Data.Items, 1)
	assert.Equal(t, product.Name, resp.Data.Items[0].Product.Name)
}
