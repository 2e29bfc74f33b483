package inventory

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ledgerx/ledgerx-backend/pkg/database"
	"github.com/xuri/excelize/v2"
)

var exportHeader = []string{"Name", "Category", "Price", "Stock", "Active"}

// exportRows flattens products into the export table, one row per product
func exportRows(products []database.Product) [][]string {
	rows := make([][]string, 0, len(products))
	for _, p := range products {
		rows = append(rows, []string{
			p.Name,
			p.Category,
			p.DefaultPrice.StringFixed(2),
			strconv.Itoa(p.StockQuantity),
			strconv.FormatBool(p.IsActive),
		})
	}
	return rows
}

// Export downloads the shop's inventory as CSV (default) or XLSX
func (h *Handler) Export(c *gin.Context) {
	shopID := c.GetString("shop_id")

	var products []database.Product
	if err := h.db.Where("shop_id = ?", shopID).Order("name ASC").Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	filename := fmt.Sprintf("inventory-%s", time.Now().Format("20060102"))

	switch c.DefaultQuery("format", "csv") {
	case "xlsx":
		data, err := buildXLSX(products)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build export"})
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", filename))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)

	case "csv":
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		w.Write(exportHeader)
		w.WriteAll(exportRows(products))
		if err := w.Error(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build export"})
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", filename))
		c.Data(http.StatusOK, "text/csv", buf.Bytes())

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported format. Use csv or xlsx"})
	}
}

func buildXLSX(products []database.Product) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Inventory"
	f.SetSheetName("Sheet1", sheet)

	for col, title := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, title)
	}
	for i, row := range exportRows(products) {
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
