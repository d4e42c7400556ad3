// Package coerce implements the lenient numeric parsing used for spreadsheet
// exports: a number is read from the longest numeric prefix of a field, and
// a field with no such prefix falls back to zero.
package coerce

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	intPrefix     = regexp.MustCompile(`^[+-]?\d+`)
	decimalPrefix = regexp.MustCompile(`^([+-]?)(\d+(?:\.\d*)?|\.\d+)([eE][+-]?\d+)?`)
	priceNoise    = strings.NewReplacer("$", "", ",", "")
)

// Int parses the leading integer of s ("12", "12.9", "7 units" all give their
// integer prefix). ok is false when s has no integer prefix or it overflows;
// the value is then 0.
func Int(s string) (v int64, ok bool) {
	m := intPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Decimal parses the leading decimal number of s, exponent included. ok is
// false when s has no numeric prefix; the value is then zero.
func Decimal(s string) (v decimal.Decimal, ok bool) {
	m := decimalPrefix.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return decimal.Zero, false
	}
	num := strings.TrimSuffix(m[2], ".")
	if strings.HasPrefix(num, ".") {
		num = "0" + num
	}
	num += m[3]
	if m[1] == "-" {
		num = "-" + num
	}
	d, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Price strips every "$" and "," from s and parses the rest with Decimal.
func Price(s string) (decimal.Decimal, bool) {
	return Decimal(priceNoise.Replace(s))
}
