package valuation

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/stockval/internal/model"
)

const (
	defaultCurrency   = money.USD
	defaultSampleSize = 5
	shortSampleSize   = 3
)

func currency(code string) *money.Currency {
	if cur := money.GetCurrency(strings.ToUpper(code)); cur != nil {
		return cur
	}
	return money.GetCurrency(defaultCurrency)
}

// FormatCurrency renders d in the given ISO currency, e.g. "$1,234.50".
// Unknown codes fall back to USD. Amounts whose minor units overflow int64
// are rendered without grouping.
func FormatCurrency(d decimal.Decimal, code string) string {
	cur := currency(code)
	minor := d.Shift(int32(cur.Fraction)).Round(0)
	if !minor.BigInt().IsInt64() {
		return formatPlain(d, cur)
	}
	return money.New(minor.IntPart(), cur.Code).Display()
}

// FormatPlain renders d with the currency symbol and no thousands
// separator, e.g. "$1250.00".
func FormatPlain(d decimal.Decimal, code string) string {
	return formatPlain(d, currency(code))
}

func formatPlain(d decimal.Decimal, cur *money.Currency) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	return sign + cur.Grapheme + d.StringFixed(int32(cur.Fraction))
}

// Describe renders one unmatched row the way summaries list it.
func Describe(role model.Role, m model.MatchResult) string {
	if role == model.RoleWarehouse {
		return fmt.Sprintf("%s (Stock: %d)", m.SKU, m.Quantity)
	}
	return fmt.Sprintf("%s (Qty: %d)", m.SKU, m.Quantity)
}

// SummaryOptions controls Summarize.
type SummaryOptions struct {
	Currency   string
	SampleSize int // unmatched SKUs listed; defaults to 5
}

// Summarize renders a human-readable result for one run, one line per
// statement.
func Summarize(rep model.Report, opts SummaryOptions) []string {
	if opts.SampleSize <= 0 {
		opts.SampleSize = defaultSampleSize
	}
	if opts.Currency == "" {
		opts.Currency = defaultCurrency
	}
	if rep.Role == model.RoleWarehouse {
		return summarizeWarehouse(rep, opts)
	}
	return summarizeFBA(rep, opts)
}

func summarizeFBA(rep model.Report, opts SummaryOptions) []string {
	lines := []string{
		fmt.Sprintf("Processed %d SKUs", rep.MatchedCount),
		fmt.Sprintf("Total FBA Value: %s", FormatCurrency(rep.TotalValue, opts.Currency)),
	}
	if n := len(rep.Unmatched); n > 0 {
		lines = append(lines,
			fmt.Sprintf("%d unmatched SKUs", n),
			"First few unmatched: "+describeFirst(rep, opts.SampleSize))
	}
	return lines
}

func summarizeWarehouse(rep model.Report, opts SummaryOptions) []string {
	var lines []string
	if rep.MatchedCount > 0 {
		lines = append(lines,
			fmt.Sprintf("Processed %d SKUs", rep.MatchedCount),
			fmt.Sprintf("Total Warehouse Value: %s", FormatCurrency(rep.TotalValue, opts.Currency)))
		if len(rep.Matches) > 0 {
			m := rep.Matches[0]
			lines = append(lines, fmt.Sprintf("Example: %s: %d units × %s = %s",
				m.SKU, m.Quantity,
				FormatPlain(m.UnitPrice, opts.Currency),
				FormatPlain(m.LineValue, opts.Currency)))
		}
	} else {
		lines = append(lines,
			"No SKUs matched!",
			"Please verify your files are in the correct format.")
	}

	if n := len(rep.Unmatched); n > 0 {
		lines = append(lines, fmt.Sprintf("%d unmatched SKUs", n))
		if n <= opts.SampleSize {
			lines = append(lines, "Unmatched: "+describeFirst(rep, n))
		} else {
			lines = append(lines, "First few unmatched: "+describeFirst(rep, shortSampleSize))
		}
	}
	return lines
}

func describeFirst(rep model.Report, n int) string {
	if n > len(rep.Unmatched) {
		n = len(rep.Unmatched)
	}
	parts := make([]string, n)
	for i, m := range rep.Unmatched[:n] {
		parts[i] = Describe(rep.Role, m)
	}
	return strings.Join(parts, ", ")
}
