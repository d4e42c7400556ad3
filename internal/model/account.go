package model

import "strings"

// AccountCategory is the balance-sheet side an account type belongs to.
type AccountCategory string

const (
	CategoryAsset     AccountCategory = "Asset"
	CategoryLiability AccountCategory = "Liability"
)

// InventoryType is the account type name the balance-sheet API uses for stock accounts.
const InventoryType = "Inventory"

// Account represents a row in accounts.csv or one entry of a store's account list.
type Account struct {
	ID       int
	Name     string
	Type     string
	Category AccountCategory
	StoreID  int // 0 = not bound to a store
}

// IsInventory reports whether the account holds stock value: either its type
// is Inventory or its name mentions it.
func (a Account) IsInventory() bool {
	return a.Type == InventoryType || strings.Contains(a.Name, InventoryType)
}
