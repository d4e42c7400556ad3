package accounts

import (
	"fmt"

	"github.com/cleared-dev/stockval/internal/model"
)

// DefaultChart returns the starter chart for one store. Account IDs are
// storeID*100 plus a fixed offset, so charts for different stores never
// collide.
func DefaultChart(storeName string, storeID int) []model.Account {
	base := storeID * 100
	acct := func(offset int, name, typ string, cat model.AccountCategory) model.Account {
		return model.Account{
			ID:       base + offset,
			Name:     fmt.Sprintf("%s - %s", storeName, name),
			Type:     typ,
			Category: cat,
			StoreID:  storeID,
		}
	}

	return []model.Account{
		acct(1, "Chase Checking", "Bank Checking", model.CategoryAsset),
		acct(2, "Capital One", "Bank Checking", model.CategoryAsset),
		acct(10, "Amazon", "Merchant Account", model.CategoryAsset),
		acct(11, "PayPal", "Merchant Account", model.CategoryAsset),
		acct(12, "Shopify/Merchant", "Merchant Account", model.CategoryAsset),
		acct(13, "Points", "Points", model.CategoryAsset),
		acct(20, "Live Inventory", model.InventoryType, model.CategoryAsset),
		acct(30, "IRS REFUND PTET", "Tax Refund", model.CategoryAsset),
		acct(50, "Management Fee", "Management Fee", model.CategoryLiability),
		acct(51, "Credit Card", "Credit Card", model.CategoryLiability),
		acct(52, "Sales Tax Payable", "Sales Tax Payable", model.CategoryLiability),
		acct(53, "Vendor Payable", "Vendor Payable", model.CategoryLiability),
	}
}
