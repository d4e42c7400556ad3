package server

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cleared-dev/stockval/internal/csvrows"
	"github.com/cleared-dev/stockval/internal/model"
	"github.com/cleared-dev/stockval/internal/pricelist"
	"github.com/cleared-dev/stockval/internal/valuation"
)

// BalancePusher writes an applied value into a balance-sheet draft.
type BalancePusher interface {
	PushBalance(ctx context.Context, draftID, accountID int, amount decimal.Decimal) error
}

// InventoryHandler serves the master price table and helper session.
type InventoryHandler struct {
	prices   *pricelist.Service
	helper   *valuation.Helper
	pusher   BalancePusher
	draftID  int
	currency string
	logger   *zap.Logger
}

// NewInventoryHandler builds the handler. pusher may be nil; applied values
// are then only returned to the caller.
func NewInventoryHandler(prices *pricelist.Service, helper *valuation.Helper, pusher BalancePusher, draftID int, currency string, logger *zap.Logger) *InventoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryHandler{
		prices:   prices,
		helper:   helper,
		pusher:   pusher,
		draftID:  draftID,
		currency: currency,
		logger:   logger,
	}
}

type diagnosticsResponse struct {
	Rows    int                      `json:"rows"`
	Skipped map[model.SkipReason]int `json:"skipped"`
	Coerced int                      `json:"coerced"`
}

func toDiagnostics(d model.Diagnostics) diagnosticsResponse {
	skipped := d.Skipped
	if skipped == nil {
		skipped = map[model.SkipReason]int{}
	}
	return diagnosticsResponse{Rows: d.Rows, Skipped: skipped, Coerced: d.Coerced}
}

type stateResponse struct {
	SessionID      string                  `json:"session_id,omitempty"`
	AccountID      int                     `json:"account_id"`
	Phase          valuation.Phase         `json:"phase"`
	FBAValue       string                  `json:"fba_value"`
	WarehouseValue string                  `json:"warehouse_value"`
	Total          string                  `json:"total"`
	TotalDisplay   string                  `json:"total_display"`
	Applied        string                  `json:"applied,omitempty"`
	Summaries      map[model.Role][]string `json:"summaries,omitempty"`
}

func (h *InventoryHandler) toState(st valuation.State) stateResponse {
	resp := stateResponse{
		SessionID:      st.SessionID,
		AccountID:      st.AccountID,
		Phase:          st.Phase,
		FBAValue:       st.FBAValue.StringFixed(2),
		WarehouseValue: st.WarehouseValue.StringFixed(2),
		Total:          st.Total().StringFixed(2),
		TotalDisplay:   valuation.FormatCurrency(st.Total(), h.currency),
		Summaries:      st.Summaries,
	}
	if st.Phase == valuation.PhaseApplied {
		resp.Applied = st.Applied.StringFixed(2)
	}
	return resp
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, valuation.ErrInputMissing),
		errors.Is(err, valuation.ErrNotInventoryAccount),
		errors.Is(err, valuation.ErrNoAccount):
		return http.StatusBadRequest
	case errors.Is(err, valuation.ErrPriceTableMissing),
		errors.Is(err, valuation.ErrNoValueToApply),
		errors.Is(err, valuation.ErrNoSession),
		errors.Is(err, valuation.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, csvrows.ErrParseFailure):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled):
		return 499
	default:
		return http.StatusInternalServerError
	}
}

func (h *InventoryHandler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}

// LoadMaster replaces the master price table with the uploaded file.
func (h *InventoryHandler) LoadMaster(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.fail(c, valuation.ErrInputMissing)
		return
	}
	defer file.Close()

	res, err := h.prices.Load(c.Request.Context(), file)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.logger.Info("master list uploaded", zap.String("file", header.Filename), zap.Int("kept", res.Kept))

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"count":       res.Kept,
		"size":        res.Size,
		"sample":      res.Sample,
		"diagnostics": toDiagnostics(res.Diagnostics),
	})
}

// ShowMaster lists the current master price table.
func (h *InventoryHandler) ShowMaster(c *gin.Context) {
	tbl, err := h.prices.Current(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	type entry struct {
		SKU       string `json:"sku"`
		UnitPrice string `json:"unit_price"`
	}
	entries := make([]entry, 0, tbl.Len())
	for _, e := range tbl.Entries() {
		entries = append(entries, entry{SKU: e.SKU, UnitPrice: e.UnitPrice.String()})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(entries), "entries": entries})
}

// State returns the helper session.
func (h *InventoryHandler) State(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "state": h.toState(h.helper.State())})
}

type openRequest struct {
	AccountID int `json:"account_id"`
}

// Open starts a helper session for an account.
func (h *InventoryHandler) Open(c *gin.Context) {
	var req openRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid payload"})
		return
	}
	st, err := h.helper.Open(req.AccountID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "state": h.toState(st)})
}

// RunFBA values an uploaded FBA export.
func (h *InventoryHandler) RunFBA(c *gin.Context) {
	h.run(c, model.RoleFBA, h.helper.RunFBA)
}

// RunWarehouse values an uploaded warehouse export.
func (h *InventoryHandler) RunWarehouse(c *gin.Context) {
	h.run(c, model.RoleWarehouse, h.helper.RunWarehouse)
}

func (h *InventoryHandler) run(c *gin.Context, role model.Role, fn func(context.Context, io.Reader) (valuation.Result, error)) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		h.fail(c, valuation.ErrInputMissing)
		return
	}
	defer file.Close()

	res, err := fn(c.Request.Context(), file)
	if err != nil {
		h.fail(c, err)
		return
	}

	unmatched := make([]string, 0, len(res.Report.Unmatched))
	for _, m := range res.Report.Unmatched {
		unmatched = append(unmatched, valuation.Describe(role, m))
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"run_id":        res.RunID,
		"role":          role,
		"total":         res.Report.TotalValue.StringFixed(2),
		"matched_count": res.Report.MatchedCount,
		"unmatched":     unmatched,
		"summary":       res.Summary,
		"diagnostics":   toDiagnostics(res.Report.Diagnostics),
		"state":         h.toState(res.State),
	})
}

// Apply ends the session with the combined value and, when configured,
// pushes it into the balance-sheet draft.
func (h *InventoryHandler) Apply(c *gin.Context) {
	st, err := h.helper.Apply()
	if err != nil {
		h.fail(c, err)
		return
	}
	v := st.Applied

	body := gin.H{
		"success":    true,
		"account_id": st.AccountID,
		"value":      v.StringFixed(2),
		"message":    "Applied inventory value of " + valuation.FormatCurrency(v, h.currency),
		"pushed":     false,
	}
	if h.pusher != nil && h.draftID != 0 {
		if err := h.pusher.PushBalance(c.Request.Context(), h.draftID, st.AccountID, v); err != nil {
			h.logger.Error("pushing applied value", zap.Int("draft_id", h.draftID), zap.Error(err))
			body["success"] = false
			body["error"] = err.Error()
			c.JSON(http.StatusBadGateway, body)
			return
		}
		body["pushed"] = true
	}
	c.JSON(http.StatusOK, body)
}

// Close ends the session without applying.
func (h *InventoryHandler) Close(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "state": h.toState(h.helper.Close())})
}
