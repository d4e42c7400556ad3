// Package wizardapi talks to the balance-sheet wizard API that owns account
// balances and draft snapshots.
package wizardapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/stockval/internal/config"
	"github.com/cleared-dev/stockval/internal/model"
)

// ErrDisabled is returned by NewClient when no base URL is configured.
var ErrDisabled = errors.New("wizard API base URL not configured")

const defaultTimeout = 15 * time.Second

// Client is a resty-backed wizard API client.
type Client struct {
	httpClient *resty.Client
}

// NewClient builds a client from configuration.
func NewClient(cfg config.WizardAPIConfig) (*Client, error) {
	base := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, ErrDisabled
	}
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(base+"/api/wizard").
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &Client{httpClient: restyClient}, nil
}

// Account is one entry of a store's account list.
type Account struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	AccountNumber *string `json:"account_number"`
	Type          string  `json:"type"`
	Category      string  `json:"category"`
	Bank          *string `json:"bank"`
}

// StoreAccounts groups a store's accounts the way the wizard displays them.
type StoreAccounts struct {
	BankAccounts     []Account `json:"bank_accounts"`
	MerchantAccounts []Account `json:"merchant_accounts"`
	Inventory        []Account `json:"inventory"`
	Receivables      []Account `json:"receivables"`
	Liabilities      []Account `json:"liabilities"`
}

// Balance is one account amount inside a draft.
type Balance struct {
	AccountID int             `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// Draft is a saved, unpublished balance-sheet snapshot.
type Draft struct {
	ID           int       `json:"id"`
	StoreID      int       `json:"store_id"`
	SnapshotDate string    `json:"snapshot_date"`
	Balances     []Balance `json:"balances"`
}

type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (e *envelope) check(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusBadRequest || !e.Success {
		msg := e.Error
		if msg == "" {
			msg = strings.TrimSpace(resp.String())
		}
		return fmt.Errorf("wizard api error: status=%d, message=%s", resp.StatusCode(), msg)
	}
	return nil
}

// GetStoreAccounts returns every active account of a store, flattened in
// display order.
func (c *Client) GetStoreAccounts(ctx context.Context, storeID int) ([]model.Account, error) {
	var result struct {
		envelope
		Accounts StoreAccounts `json:"accounts"`
	}
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&result).
		SetError(&result).
		Get(fmt.Sprintf("accounts/%d", storeID))
	if err != nil {
		return nil, fmt.Errorf("fetching store accounts: %w", err)
	}
	if err := result.check(resp); err != nil {
		return nil, err
	}

	var out []model.Account
	groups := [][]Account{
		result.Accounts.BankAccounts,
		result.Accounts.MerchantAccounts,
		result.Accounts.Inventory,
		result.Accounts.Receivables,
		result.Accounts.Liabilities,
	}
	for _, group := range groups {
		for _, a := range group {
			out = append(out, model.Account{
				ID:       a.ID,
				Name:     a.Name,
				Type:     a.Type,
				Category: model.AccountCategory(a.Category),
				StoreID:  storeID,
			})
		}
	}
	return out, nil
}

// GetDraft fetches a draft snapshot with its balances.
func (c *Client) GetDraft(ctx context.Context, draftID int) (*Draft, error) {
	var result struct {
		envelope
		Draft Draft `json:"draft"`
	}
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&result).
		SetError(&result).
		Get(fmt.Sprintf("draft/%d", draftID))
	if err != nil {
		return nil, fmt.Errorf("fetching draft %d: %w", draftID, err)
	}
	if err := result.check(resp); err != nil {
		return nil, err
	}
	return &result.Draft, nil
}

// SaveDraft creates or updates a draft and returns its ID. A zero d.ID
// creates a new draft.
func (c *Client) SaveDraft(ctx context.Context, d Draft) (int, error) {
	payload := map[string]any{
		"store_id":      d.StoreID,
		"snapshot_date": d.SnapshotDate,
		"balances":      d.Balances,
	}
	if d.ID != 0 {
		payload["draft_id"] = d.ID
	}

	var result struct {
		envelope
		DraftID int `json:"draft_id"`
	}
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&result).
		SetError(&result).
		Post("save-draft")
	if err != nil {
		return 0, fmt.Errorf("saving draft: %w", err)
	}
	if err := result.check(resp); err != nil {
		return 0, err
	}
	return result.DraftID, nil
}

// PushBalance sets accountID's amount in a draft, keeping every other
// balance as it was.
func (c *Client) PushBalance(ctx context.Context, draftID, accountID int, amount decimal.Decimal) error {
	d, err := c.GetDraft(ctx, draftID)
	if err != nil {
		return err
	}
	d.ID = draftID
	d.Balances = SetBalance(d.Balances, accountID, amount)
	if _, err := c.SaveDraft(ctx, *d); err != nil {
		return err
	}
	return nil
}

// SetBalance returns balances with accountID's amount replaced, or appended
// when absent.
func SetBalance(balances []Balance, accountID int, amount decimal.Decimal) []Balance {
	out := make([]Balance, 0, len(balances)+1)
	found := false
	for _, b := range balances {
		if b.AccountID == accountID {
			b.Amount = amount
			found = true
		}
		out = append(out, b)
	}
	if !found {
		out = append(out, Balance{AccountID: accountID, Amount: amount})
	}
	return out
}
