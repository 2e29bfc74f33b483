package inventory

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ledgerx/ledgerx-backend/pkg/database"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type ImportResult struct {
	TotalRows    int      `json:"total_rows"`
	SuccessCount int      `json:"success_count"`
	FailedCount  int      `json:"failed_count"`
	Errors       []string `json:"errors"`
}

type importRow struct {
	Name     string
	Category string
	Price    decimal.Decimal
	StockQty int
}

// Import handles Excel/CSV upload for bulk inventory import. Rows are
// matched by product name within the shop: existing products get price and
// stock updated, unknown names become new products. Row failures are
// collected, not fatal.
func (h *Handler) Import(c *gin.Context) {
	shopID, _ := uuid.Parse(c.GetString("shop_id"))

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer file.Close()

	var rows []importRow
	fileName := strings.ToLower(header.Filename)

	if strings.HasSuffix(fileName, ".xlsx") || strings.HasSuffix(fileName, ".xls") {
		rows, err = parseExcel(file)
	} else if strings.HasSuffix(fileName, ".csv") {
		rows, err = parseCSV(file)
	} else {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported file format. Please upload .xlsx or .csv"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Failed to parse file: %v", err)})
		return
	}

	result := ImportResult{
		TotalRows: len(rows),
		Errors:    []string{},
	}

	for i, row := range rows {
		if row.Name == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Product name is required", i+2))
			result.FailedCount++
			continue
		}
		if row.Price.IsNegative() || row.StockQty < 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Price and stock cannot be negative", i+2))
			result.FailedCount++
			continue
		}

		var existing database.Product
		err := h.db.Where("shop_id = ? AND name = ?", shopID, row.Name).First(&existing).Error
		if err == nil {
			updates := map[string]interface{}{
				"default_price":  row.Price.Round(2),
				"stock_quantity": row.StockQty,
			}
			if row.Category != "" {
				updates["category"] = row.Category
			}
			if err := h.db.Model(&existing).Updates(updates).Error; err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d: failed to update %s", i+2, row.Name))
				result.FailedCount++
				continue
			}
		} else {
			product := database.Product{
				ShopID:        shopID,
				Name:          row.Name,
				Category:      row.Category,
				DefaultPrice:  row.Price.Round(2),
				StockQuantity: row.StockQty,
				IsActive:      true,
			}
			if err := h.db.Create(&product).Error; err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d: failed to create %s", i+2, row.Name))
				result.FailedCount++
				continue
			}
		}
		result.SuccessCount++
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// parseRecord maps one raw line to an import row: name, category, price, stock
func parseRecord(record []string) importRow {
	row := importRow{Price: decimal.Zero}
	if len(record) > 0 {
		row.Name = strings.TrimSpace(record[0])
	}
	if len(record) > 1 {
		row.Category = strings.TrimSpace(record[1])
	}
	if len(record) > 2 {
		if price, err := decimal.NewFromString(strings.TrimSpace(record[2])); err == nil {
			row.Price = price
		}
	}
	if len(record) > 3 {
		if qty, err := strconv.Atoi(strings.TrimSpace(record[3])); err == nil {
			row.StockQty = qty
		}
	}
	return row
}

func parseCSV(file io.Reader) ([]importRow, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var rows []importRow
	for i, record := range records {
		if i == 0 {
			// Header row
			continue
		}
		rows = append(rows, parseRecord(record))
	}
	return rows, nil
}

func parseExcel(file io.Reader) ([]importRow, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found")
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}

	var rows []importRow
	for i, record := range records {
		if i == 0 {
			continue
		}
		rows = append(rows, parseRecord(record))
	}
	return rows, nil
}
