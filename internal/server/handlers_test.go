package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/stockval/internal/accounts"
	"github.com/cleared-dev/stockval/internal/csvrows"
	"github.com/cleared-dev/stockval/internal/importer"
	"github.com/cleared-dev/stockval/internal/kvstore"
	"github.com/cleared-dev/stockval/internal/pricelist"
	"github.com/cleared-dev/stockval/internal/valuation"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakePusher struct {
	draftID, accountID int
	amount             decimal.Decimal
	err                error
	onPush             func()
}

func (p *fakePusher) PushBalance(_ context.Context, draftID, accountID int, amount decimal.Decimal) error {
	p.draftID, p.accountID, p.amount = draftID, accountID, amount
	if p.onPush != nil {
		p.onPush()
	}
	return p.err
}

type testServer struct {
	engine *gin.Engine
	helper *valuation.Helper
	pusher *fakePusher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	chart, err := accounts.LoadFile("../../testdata/accounts.csv")
	require.NoError(t, err)

	prices := pricelist.NewService(kvstore.NewMemory(), false, nil)
	helper := valuation.NewHelper(prices, importer.DefaultRegistry(), valuation.WithAccounts(chart))
	pusher := &fakePusher{}
	h := NewInventoryHandler(prices, helper, pusher, 5, "USD", nil)
	return &testServer{engine: New(h, nil), helper: helper, pusher: pusher}
}

func (s *testServer) do(t *testing.T, req *http.Request) (int, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return w.Code, body
}

func (s *testServer) upload(t *testing.T, path, fixture string) (int, map[string]any) {
	t.Helper()
	data, err := os.ReadFile("../../testdata/" + fixture)
	require.NoError(t, err)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", fixture)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.do(t, req)
}

func (s *testServer) post(t *testing.T, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return s.do(t, req)
}

func (s *testServer) get(t *testing.T, path string) (int, map[string]any) {
	t.Helper()
	return s.do(t, httptest.NewRequest(http.MethodGet, path, nil))
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	code, body := s.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestFullFlow(t *testing.T) {
	s := newTestServer(t)

	code, body := s.upload(t, "/api/inventory/master", "master.csv")
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 4, body["count"])

	code, body = s.get(t, "/api/inventory/master")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 4, body["count"])

	code, body = s.post(t, "/api/inventory/helper/open", `{"account_id":120}`)
	require.Equal(t, http.StatusOK, code, body)

	code, body = s.upload(t, "/api/inventory/helper/fba", "fba.csv")
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "119.00", body["total"])
	assert.Equal(t, []any{"UNKNOWN-9 (Qty: 3)"}, body["unmatched"])

	code, body = s.upload(t, "/api/inventory/helper/warehouse", "warehouse.csv")
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "2627.50", body["total"])
	state := body["state"].(map[string]any)
	assert.Equal(t, "2746.50", state["total"])
	assert.Equal(t, "$2,746.50", state["total_display"])

	code, body = s.post(t, "/api/inventory/helper/apply", "")
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "2746.50", body["value"])
	assert.Equal(t, true, body["pushed"])
	assert.Equal(t, 5, s.pusher.draftID)
	assert.Equal(t, 120, s.pusher.accountID)
	assert.Equal(t, "2746.50", s.pusher.amount.StringFixed(2))

	code, body = s.get(t, "/api/inventory/helper")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "applied", body["state"].(map[string]any)["phase"])
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)

	code, body := s.get(t, "/api/inventory/master")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, false, body["success"])

	code, _ = s.post(t, "/api/inventory/helper/open", `{"account_id":101}`)
	assert.Equal(t, http.StatusBadRequest, code, "not an inventory account")

	code, _ = s.post(t, "/api/inventory/helper/open", `not json`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.upload(t, "/api/inventory/helper/fba", "fba.csv")
	assert.Equal(t, http.StatusConflict, code, "no session")

	code, _ = s.post(t, "/api/inventory/helper/open", `{"account_id":120}`)
	require.Equal(t, http.StatusOK, code)

	code, body = s.upload(t, "/api/inventory/helper/fba", "fba.csv")
	assert.Equal(t, http.StatusConflict, code, "price table missing")
	assert.Equal(t, valuation.ErrPriceTableMissing.Error(), body["error"])

	code, _ = s.post(t, "/api/inventory/helper/fba", "")
	assert.Equal(t, http.StatusBadRequest, code, "input missing")

	code, _ = s.post(t, "/api/inventory/helper/apply", "")
	assert.Equal(t, http.StatusConflict, code, "no value")

	code, body = s.post(t, "/api/inventory/helper/close", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "closed", body["state"].(map[string]any)["phase"])
}

func TestApply_PushFailure(t *testing.T) {
	s := newTestServer(t)
	s.pusher.err = errors.New("draft locked")

	code, _ := s.upload(t, "/api/inventory/master", "master.csv")
	require.Equal(t, http.StatusOK, code)
	code, _ = s.post(t, "/api/inventory/helper/open", `{"account_id":120}`)
	require.Equal(t, http.StatusOK, code)
	code, _ = s.upload(t, "/api/inventory/helper/fba", "fba.csv")
	require.Equal(t, http.StatusOK, code)

	code, body := s.post(t, "/api/inventory/helper/apply", "")
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "119.00", body["value"])
	assert.Equal(t, "draft locked", body["error"])
}

func TestApply_UsesAppliedSession(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.upload(t, "/api/inventory/master", "master.csv")
	require.Equal(t, http.StatusOK, code)
	code, _ = s.post(t, "/api/inventory/helper/open", `{"account_id":120}`)
	require.Equal(t, http.StatusOK, code)
	code, body := s.upload(t, "/api/inventory/helper/fba", "fba.csv")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "119.00", body["state"].(map[string]any)["total"])

	// Another session opens while the push is in flight.
	s.pusher.onPush = func() {
		_, err := s.helper.Open(121)
		require.NoError(t, err)
	}

	code, body = s.post(t, "/api/inventory/helper/apply", "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 120, body["account_id"])
	assert.Equal(t, true, body["pushed"])
	assert.Equal(t, 120, s.pusher.accountID)
	assert.Equal(t, 121, s.helper.State().AccountID)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(&csvrows.ParseError{Cause: errors.New("bad csv")}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("x")))
	assert.Equal(t, http.StatusConflict, statusFor(valuation.ErrSuperseded))
	assert.Equal(t, http.StatusBadRequest, statusFor(valuation.ErrNoAccount))
}
