package importer

import (
	"strings"

	"github.com/cleared-dev/stockval/internal/coerce"
	"github.com/cleared-dev/stockval/internal/model"
)

// WarehouseParser parses warehouse stock-on-hand exports.
type WarehouseParser struct{}

const (
	whColSKU       = 3
	whColOnHand    = 6
	whColAllocated = 7
)

// Format returns the parser name.
func (p *WarehouseParser) Format() string { return string(model.RoleWarehouse) }

// Parse reads SKU, on-hand and allocated counts from each data row. Current
// stock is on-hand minus allocated; rows with none are skipped.
func (p *WarehouseParser) Parse(rows [][]string) ([]model.StockRow, model.Diagnostics) {
	var (
		out  []model.StockRow
		diag model.Diagnostics
	)
	for i, row := range rows {
		if i == 0 {
			continue
		}
		diag.Rows++

		onHand := lenientInt(field(row, whColOnHand), &diag)
		allocated := lenientInt(field(row, whColAllocated), &diag)
		current := onHand - allocated

		sku := NormalizeWarehouseSKU(field(row, whColSKU))
		switch {
		case current <= 0:
			diag.Skip(model.SkipNoStock)
			continue
		case sku == "":
			diag.Skip(model.SkipEmptySKU)
			continue
		}

		out = append(out, model.StockRow{
			Line:      i + 1,
			SKU:       sku,
			Quantity:  current,
			OnHand:    onHand,
			Allocated: allocated,
		})
	}
	return out, diag
}

// NormalizeWarehouseSKU trims sku, strips one leading and one trailing
// double quote, then trims and upper-cases what is left.
func NormalizeWarehouseSKU(sku string) string {
	sku = strings.TrimPrefix(strings.TrimSpace(sku), `"`)
	sku = strings.TrimSuffix(sku, `"`)
	return strings.ToUpper(strings.TrimSpace(sku))
}

// lenientInt parses s, counting a non-empty unparseable value as coerced.
func lenientInt(s string, diag *model.Diagnostics) int64 {
	n, ok := coerce.Int(s)
	if !ok && s != "" {
		diag.Coerced++
	}
	return n
}
