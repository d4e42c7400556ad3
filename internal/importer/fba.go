package importer

import (
	"regexp"
	"strings"

	"github.com/cleared-dev/stockval/internal/coerce"
	"github.com/cleared-dev/stockval/internal/model"
)

// FBAParser parses Amazon FBA inventory exports.
type FBAParser struct{}

const (
	fbaColSKU       = 1
	fbaColAvailable = 6
)

var fbaSuffix = regexp.MustCompile(`(?i)_fba|-fba`)

// Format returns the parser name.
func (p *FBAParser) Format() string { return string(model.RoleFBA) }

// Parse reads SKU and available quantity from each data row. Rows with no
// available stock or no SKU left after normalization are skipped.
func (p *FBAParser) Parse(rows [][]string) ([]model.StockRow, model.Diagnostics) {
	var (
		out  []model.StockRow
		diag model.Diagnostics
	)
	for i, row := range rows {
		if i == 0 {
			continue
		}
		diag.Rows++

		qty, ok := coerce.Int(field(row, fbaColAvailable))
		if !ok && field(row, fbaColAvailable) != "" {
			diag.Coerced++
		}
		if qty <= 0 {
			diag.Skip(model.SkipNonPositiveQuantity)
			continue
		}

		sku := NormalizeFBASKU(field(row, fbaColSKU))
		if sku == "" {
			diag.Skip(model.SkipEmptySKU)
			continue
		}

		out = append(out, model.StockRow{Line: i + 1, SKU: sku, Quantity: qty})
	}
	return out, diag
}

// NormalizeFBASKU removes every "_FBA" and "-FBA" marker, in any case, then
// trims and upper-cases what is left.
func NormalizeFBASKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(fbaSuffix.ReplaceAllString(sku, "")))
}
