package wizardapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/stockval/internal/config"
	"github.com/cleared-dev/stockval/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(config.WizardAPIConfig{BaseURL: srv.URL + "/", TimeoutSeconds: 5})
	require.NoError(t, err)
	return c
}

func TestNewClient_Disabled(t *testing.T) {
	_, err := NewClient(config.WizardAPIConfig{BaseURL: "  "})
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestGetStoreAccounts(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/wizard/accounts/3", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"store":   map[string]any{"id": 3, "name": "Seal Skin", "code": "SEAL"},
			"accounts": map[string]any{
				"bank_accounts": []map[string]any{
					{"id": 11, "name": "Seal Skin - Chase Checking", "account_number": "3456", "type": "Bank Checking", "category": "Asset", "bank": "Chase"},
				},
				"merchant_accounts": []map[string]any{},
				"inventory": []map[string]any{
					{"id": 17, "name": "Seal Skin - Live Inventory", "account_number": nil, "type": "Inventory", "category": "Asset", "bank": nil},
				},
				"receivables": []map[string]any{},
				"liabilities": []map[string]any{
					{"id": 30, "name": "Seal Skin - AdsBing", "type": "Advertising Payable", "category": "Liability"},
				},
			},
		})
	}))

	accts, err := c.GetStoreAccounts(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, accts, 3)
	assert.Equal(t, model.Account{ID: 17, Name: "Seal Skin - Live Inventory", Type: "Inventory", Category: model.CategoryAsset, StoreID: 3}, accts[1])
	assert.True(t, accts[1].IsInventory())
	assert.Equal(t, model.CategoryLiability, accts[2].Category)
}

func TestGetStoreAccounts_Error(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "store missing"})
	}))

	_, err := c.GetStoreAccounts(context.Background(), 99)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=500")
	assert.Contains(t, err.Error(), "store missing")
}

func TestPushBalance(t *testing.T) {
	var saved map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/api/wizard/draft/5", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"draft": map[string]any{
				"id": 5, "store_id": 3, "snapshot_date": "2025-06-30",
				"balances": []map[string]any{
					{"account_id": 11, "amount": 1500.25},
					{"account_id": 17, "amount": 10},
				},
			},
		})
	})
	mux.HandleFunc("/api/wizard/save-draft", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&saved))
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "draft_id": 5, "message": "Draft saved successfully"})
	})
	c := newTestClient(t, mux)

	err := c.PushBalance(context.Background(), 5, 17, decimal.RequireFromString("2746.50"))
	require.NoError(t, err)

	require.NotNil(t, saved)
	assert.EqualValues(t, 5, saved["draft_id"])
	assert.EqualValues(t, 3, saved["store_id"])
	assert.Equal(t, "2025-06-30", saved["snapshot_date"])
	balances := saved["balances"].([]any)
	require.Len(t, balances, 2)
	second := balances[1].(map[string]any)
	assert.EqualValues(t, 17, second["account_id"])
	assert.Equal(t, "2746.5", second["amount"])
}

func TestPushBalance_DraftMissing(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "Draft not found"})
	}))

	err := c.PushBalance(context.Background(), 8, 17, decimal.NewFromInt(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Draft not found")
}

func TestSaveDraft_New(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, hasID := body["draft_id"]
		assert.False(t, hasID)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "draft_id": 12})
	}))

	id, err := c.SaveDraft(context.Background(), Draft{StoreID: 3, SnapshotDate: "2025-06-30"})
	require.NoError(t, err)
	assert.Equal(t, 12, id)
}

func TestSetBalance(t *testing.T) {
	one := decimal.NewFromInt(1)
	got := SetBalance([]Balance{{AccountID: 1, Amount: one}}, 2, decimal.NewFromInt(9))
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[1].AccountID)

	got = SetBalance(got, 1, decimal.NewFromInt(4))
	require.Len(t, got, 2)
	assert.Equal(t, "4", got[0].Amount.String())
}
