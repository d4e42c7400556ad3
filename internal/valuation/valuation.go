// Package valuation combines FBA and warehouse reconciliation runs into the
// value applied to an inventory account.
package valuation

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/stockval/internal/model"
	"github.com/cleared-dev/stockval/internal/pricelist"
)

var (
	// ErrInputMissing means a run was started without a file.
	ErrInputMissing = pricelist.ErrInputMissing
	// ErrPriceTableMissing means no master price table is available.
	ErrPriceTableMissing = pricelist.ErrPriceTableMissing
	// ErrNoValueToApply means both components sum to exactly zero.
	ErrNoValueToApply = errors.New("no inventory value calculated")
	// ErrNoAccount means there is no target account to apply to.
	ErrNoAccount = errors.New("no target account")
	// ErrNoSession means the helper is not open.
	ErrNoSession = errors.New("inventory helper is not open")
	// ErrSuperseded means a newer run for the same role replaced this one.
	ErrSuperseded = errors.New("run superseded by a newer run")
	// ErrNotInventoryAccount means the target account does not hold stock.
	ErrNotInventoryAccount = errors.New("not an inventory account")
)

// ApplyValue validates the combined total for accountID and returns it
// rounded to cents. A total that rounds to 0.00 counts as nothing calculated.
func ApplyValue(accountID int, total decimal.Decimal) (decimal.Decimal, error) {
	if accountID == 0 {
		return decimal.Zero, ErrNoAccount
	}
	v := total.Round(2)
	if v.IsZero() {
		return decimal.Zero, ErrNoValueToApply
	}
	return v, nil
}

// Phase is where a helper session is in its lifecycle.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseOpen    Phase = "open"
	PhaseApplied Phase = "applied"
	PhaseClosed  Phase = "closed"
)

// State is a snapshot of the helper session.
type State struct {
	SessionID      string
	AccountID      int
	Phase          Phase
	FBAValue       decimal.Decimal
	WarehouseValue decimal.Decimal
	Applied        decimal.Decimal // set once Phase is PhaseApplied
	Summaries      map[model.Role][]string
}

// Total returns FBAValue + WarehouseValue.
func (s State) Total() decimal.Decimal {
	return s.FBAValue.Add(s.WarehouseValue)
}

func (s *State) component(role model.Role) *decimal.Decimal {
	switch role {
	case model.RoleFBA:
		return &s.FBAValue
	case model.RoleWarehouse:
		return &s.WarehouseValue
	default:
		panic(fmt.Sprintf("unknown role %q", role))
	}
}
