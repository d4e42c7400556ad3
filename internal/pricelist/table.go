// Package pricelist builds and holds the master SKU price table that stock
// exports are valued against.
package pricelist

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/stockval/internal/coerce"
	"github.com/cleared-dev/stockval/internal/model"
)

// Master list layout: column B is the SKU, column D the per-unit rate.
const (
	colSKU   = 1
	colPrice = 3
)

// sampleLimit caps the SKU samples reported after a load.
const sampleLimit = 10

// Table maps normalized SKUs to strictly positive unit prices. A Table is
// never modified after Build returns it.
type Table struct {
	prices map[string]decimal.Decimal
}

// NormalizeSKU trims and upper-cases a SKU.
func NormalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}

// Lookup returns the unit price for an already-normalized SKU.
func (t *Table) Lookup(sku string) (decimal.Decimal, bool) {
	if t == nil {
		return decimal.Zero, false
	}
	p, ok := t.prices[sku]
	return p, ok
}

// Len returns the number of distinct SKUs.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.prices)
}

// Entries returns the table sorted by SKU.
func (t *Table) Entries() []model.PriceEntry {
	if t == nil {
		return nil
	}
	entries := make([]model.PriceEntry, 0, len(t.prices))
	for sku, p := range t.prices {
		entries = append(entries, model.PriceEntry{SKU: sku, UnitPrice: p})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].SKU < entries[j].SKU })
	return entries
}

// BuildResult describes what Build kept and dropped.
type BuildResult struct {
	Kept        int      // rows inserted, duplicates included
	Sample      []string // first kept rows as "SKU: $rate"
	Diagnostics model.Diagnostics
}

// Build turns tokenized master-list rows into a Table. Row 0 is the header.
// A row is kept only when its SKU is non-empty and its price parses to a
// positive value; later rows overwrite earlier ones with the same SKU.
func Build(rows [][]string) (*Table, BuildResult) {
	t := &Table{prices: make(map[string]decimal.Decimal)}
	var res BuildResult

	for i, row := range rows {
		if i == 0 {
			continue
		}
		res.Diagnostics.Rows++

		var sku string
		if len(row) > colSKU {
			sku = row[colSKU]
		}
		raw := "0"
		if len(row) > colPrice {
			raw = row[colPrice]
		}
		price, ok := coerce.Price(raw)
		if !ok && raw != "" {
			res.Diagnostics.Coerced++
		}

		key := NormalizeSKU(sku)
		switch {
		case key == "":
			res.Diagnostics.Skip(model.SkipEmptySKU)
			continue
		case !price.IsPositive():
			res.Diagnostics.Skip(model.SkipNonPositivePrice)
			continue
		}

		t.prices[key] = price
		res.Kept++
		if len(res.Sample) < sampleLimit {
			res.Sample = append(res.Sample, fmt.Sprintf("%s: $%s", key, price))
		}
	}
	return t, res
}

// MarshalSnapshot encodes the table as a flat JSON object of SKU to price.
func MarshalSnapshot(t *Table) ([]byte, error) {
	flat := make(map[string]json.Number, t.Len())
	if t != nil {
		for sku, p := range t.prices {
			flat[sku] = json.Number(p.String())
		}
	}
	data, err := json.Marshal(flat)
	if err != nil {
		return nil, fmt.Errorf("encoding price snapshot: %w", err)
	}
	return data, nil
}

// UnmarshalSnapshot decodes a snapshot written by MarshalSnapshot. Entries
// that would break the table invariants are dropped.
func UnmarshalSnapshot(data []byte) (*Table, error) {
	var flat map[string]json.Number
	if err := json.Unmarshal(data, &flat); err != nil {
		return nil, fmt.Errorf("decoding price snapshot: %w", err)
	}
	t := &Table{prices: make(map[string]decimal.Decimal, len(flat))}
	for sku, n := range flat {
		key := NormalizeSKU(sku)
		p, err := decimal.NewFromString(n.String())
		if err != nil || key == "" || !p.IsPositive() {
			continue
		}
		t.prices[key] = p
	}
	return t, nil
}
