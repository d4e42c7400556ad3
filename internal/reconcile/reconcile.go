// Package reconcile values normalized stock rows against a price table.
package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/stockval/internal/model"
)

// Prices looks up the unit price of a normalized SKU.
type Prices interface {
	Lookup(sku string) (decimal.Decimal, bool)
}

// Run matches every row against prices by exact SKU. Matched rows add
// quantity times unit price to the total; unmatched rows are listed in
// encounter order and do not affect it.
func Run(role model.Role, rows []model.StockRow, prices Prices) model.Report {
	rep := model.Report{Role: role, TotalValue: decimal.Zero}

	for _, row := range rows {
		price, ok := prices.Lookup(row.SKU)
		if !ok {
			rep.Unmatched = append(rep.Unmatched, model.MatchResult{
				SKU:      row.SKU,
				Quantity: row.Quantity,
			})
			continue
		}

		value := price.Mul(decimal.NewFromInt(row.Quantity))
		rep.TotalValue = rep.TotalValue.Add(value)
		rep.MatchedCount++
		rep.Matches = append(rep.Matches, model.MatchResult{
			SKU:       row.SKU,
			Quantity:  row.Quantity,
			UnitPrice: price,
			LineValue: value,
			Matched:   true,
		})
	}
	return rep
}
