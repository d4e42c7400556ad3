package model

import (
	"github.com/shopspring/decimal"
)

// Role identifies which stock export a reconciliation run consumed.
type Role string

const (
	RoleFBA       Role = "fba"
	RoleWarehouse Role = "warehouse"
)

// SkipReason explains why a data row did not contribute to a result.
type SkipReason string

const (
	SkipEmptySKU            SkipReason = "empty_sku"
	SkipNonPositivePrice    SkipReason = "non_positive_price"
	SkipNonPositiveQuantity SkipReason = "non_positive_quantity"
	SkipNoStock             SkipReason = "no_stock"
)

// PriceEntry is one master-list row that made it into the price table.
type PriceEntry struct {
	SKU       string // normalized: trimmed, upper-case
	UnitPrice decimal.Decimal
}

// StockRow is a normalized record from an inventory export.
type StockRow struct {
	Line      int // 1-based line in the tokenized file, header = 1
	SKU       string
	Quantity  int64 // FBA: available; warehouse: OnHand - Allocated
	OnHand    int64 // warehouse only
	Allocated int64 // warehouse only
}

// MatchResult is the outcome of looking up one stock row in the price table.
// Unmatched results carry a zero UnitPrice and LineValue.
type MatchResult struct {
	SKU       string
	Quantity  int64
	UnitPrice decimal.Decimal
	LineValue decimal.Decimal
	Matched   bool
}

// Diagnostics tallies what happened to the data rows of one file.
type Diagnostics struct {
	Rows    int                // data rows seen, header excluded
	Skipped map[SkipReason]int // rows dropped before matching, by reason
	Coerced int                // numeric fields that fell back to 0
}

// Skip records one dropped row.
func (d *Diagnostics) Skip(reason SkipReason) {
	if d.Skipped == nil {
		d.Skipped = make(map[SkipReason]int)
	}
	d.Skipped[reason]++
}

// SkippedTotal returns the number of dropped rows across all reasons.
func (d Diagnostics) SkippedTotal() int {
	n := 0
	for _, c := range d.Skipped {
		n += c
	}
	return n
}

// Merge adds the counts of o into d.
func (d *Diagnostics) Merge(o Diagnostics) {
	d.Rows += o.Rows
	d.Coerced += o.Coerced
	for reason, c := range o.Skipped {
		if d.Skipped == nil {
			d.Skipped = make(map[SkipReason]int)
		}
		d.Skipped[reason] += c
	}
}

// Report is the result of one reconciliation run.
type Report struct {
	Role         Role
	TotalValue   decimal.Decimal
	MatchedCount int
	Matches      []MatchResult // matched rows, encounter order
	Unmatched    []MatchResult // unmatched rows with quantity > 0, encounter order
	Diagnostics  Diagnostics
}
