package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/trademind/internal/app"
	"github.com/bobmcallan/trademind/internal/common"
	"github.com/bobmcallan/trademind/internal/models"
	"github.com/bobmcallan/trademind/internal/services/advisor"
	"github.com/bobmcallan/trademind/internal/services/ledger"
	"github.com/bobmcallan/trademind/internal/services/marketdata"
)

// memStore is an in-memory PortfolioStore backing the handler tests.
type memStore struct {
	mu       sync.Mutex
	holdings map[string]*models.Holding
	txs      map[string][]*models.Transaction
	order    []string
}

func newMemStore() *memStore {
	return &memStore{
		holdings: make(map[string]*models.Holding),
		txs:      make(map[string][]*models.Transaction),
	}
}

func (m *memStore) SaveHolding(_ context.Context, holding *models.Holding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.holdings[holding.ID]; !ok {
		m.order = append(m.order, holding.ID)
	}
	clone := *holding
	m.holdings[holding.ID] = &clone
	return nil
}

func (m *memStore) GetHolding(_ context.Context, holdingID string) (*models.Holding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	holding, ok := m.holdings[holdingID]
	if !ok {
		return nil, models.ErrNotFound
	}
	clone := *holding
	return &clone, nil
}

func (m *memStore) ListHoldingsForOwner(_ context.Context, ownerID string) ([]*models.Holding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Holding
	for i := len(m.order) - 1; i >= 0; i-- {
		if h, ok := m.holdings[m.order[i]]; ok && h.OwnerID == ownerID {
			clone := *h
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (m *memStore) DeleteHolding(_ context.Context, holdingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.holdings, holdingID)
	delete(m.txs, holdingID)
	return nil
}

func (m *memStore) AppendTransaction(_ context.Context, _ string, tx *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *tx
	m.txs[tx.HoldingID] = append(m.txs[tx.HoldingID], &clone)
	return nil
}

func (m *memStore) ListTransactionsForHolding(_ context.Context, holdingID string) ([]*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	log := m.txs[holdingID]
	result := make([]*models.Transaction, 0, len(log))
	for i := len(log) - 1; i >= 0; i-- {
		clone := *log[i]
		result = append(result, &clone)
	}
	return result, nil
}

func (m *memStore) Close() error { return nil }

// newTestServer builds a server over in-memory storage with no external
// collaborators: market data is synthetic, the advisor is unconfigured.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	logger := common.NewSilentLogger()
	a := &app.App{
		Config:      common.NewDefaultConfig(),
		Logger:      logger,
		Store:       newMemStore(),
		StartupTime: time.Now(),
	}
	a.Ledger = ledger.NewService(a.Store, logger)
	a.Market = marketdata.NewService(nil, logger)
	a.Advisor = advisor.NewService(nil, logger)

	return NewServer(a)
}

func doRequest(t *testing.T, srv *Server, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func createHolding(t *testing.T, srv *Server, symbol string, quantity, unitPrice float64) *models.Holding {
	t.Helper()

	rec := doRequest(t, srv, http.MethodPost, "/api/holdings", map[string]interface{}{
		"symbol":     symbol,
		"quantity":   quantity,
		"unit_price": unitPrice,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var holding models.Holding
	decodeBody(t, rec, &holding)
	return &holding
}

func TestCreateHolding(t *testing.T) {
	srv := newTestServer(t)

	holding := createHolding(t, srv, "aapl", 10, 150)

	assert.Equal(t, "AAPL", holding.Symbol)
	assert.Equal(t, 10.0, holding.Quantity)
	assert.Equal(t, 150.0, holding.AverageCost)
	assert.Equal(t, "AAPL Inc.", holding.Name, "blank name falls back to the market profile")
	assert.Equal(t, "Technology", holding.Sector)
	assert.Greater(t, holding.LastKnownPrice, 0.0, "price seeded from quote")
}

func TestCreateHoldingValidation(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/holdings", map[string]interface{}{
		"symbol": "", "quantity": 1, "unit_price": 1,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/api/holdings", map[string]interface{}{
		"symbol": "AAPL", "quantity": -1, "unit_price": 1,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListHoldings(t *testing.T) {
	srv := newTestServer(t)

	createHolding(t, srv, "AAPL", 10, 150)
	createHolding(t, srv, "MSFT", 5, 300)

	rec := doRequest(t, srv, http.MethodGet, "/api/holdings", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var holdings []*models.Holding
	decodeBody(t, rec, &holdings)
	require.Len(t, holdings, 2)
	assert.Equal(t, "MSFT", holdings[0].Symbol, "newest first")
}

func TestListHoldingsEmpty(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/holdings", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestOwnerIsolation(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/holdings", map[string]interface{}{
		"symbol": "AAPL", "quantity": 10, "unit_price": 150,
	}, map[string]string{"X-Trademind-User-ID": "alice"})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Default owner sees nothing.
	rec = doRequest(t, srv, http.MethodGet, "/api/holdings", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	// Alice sees her holding.
	rec = doRequest(t, srv, http.MethodGet, "/api/holdings", nil, map[string]string{"X-Trademind-User-ID": "alice"})
	require.Equal(t, http.StatusOK, rec.Code)
	var holdings []*models.Holding
	decodeBody(t, rec, &holdings)
	assert.Len(t, holdings, 1)
}

func TestGetHolding(t *testing.T) {
	srv := newTestServer(t)
	holding := createHolding(t, srv, "AAPL", 10, 150)

	rec := doRequest(t, srv, http.MethodGet, "/api/holdings/"+holding.ID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Holding
	decodeBody(t, rec, &got)
	assert.Equal(t, holding.ID, got.ID)

	rec = doRequest(t, srv, http.MethodGet, "/api/holdings/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteHolding(t *testing.T) {
	srv := newTestServer(t)
	holding := createHolding(t, srv, "AAPL", 10, 150)

	rec := doRequest(t, srv, http.MethodDelete, "/api/holdings/"+holding.ID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success": true}`, rec.Body.String())

	rec = doRequest(t, srv, http.MethodGet, "/api/holdings/"+holding.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPatchHoldingPrices(t *testing.T) {
	srv := newTestServer(t)
	holding := createHolding(t, srv, "AAPL", 10, 100)

	rec := doRequest(t, srv, http.MethodPatch, "/api/holdings/"+holding.ID, map[string]interface{}{
		"current_price": 123.5, "previous_close": 120.0,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Holding
	decodeBody(t, rec, &updated)
	assert.Equal(t, 123.5, updated.LastKnownPrice)
	assert.Equal(t, 120.0, updated.PreviousClosePrice)
	assert.Equal(t, 10.0, updated.Quantity, "patch must not touch ledger fields")
}

func TestPatchHoldingAdvice(t *testing.T) {
	srv := newTestServer(t)
	holding := createHolding(t, srv, "AAPL", 10, 100)

	rec := doRequest(t, srv, http.MethodPatch, "/api/holdings/"+holding.ID, map[string]interface{}{
		"advice": map[string]interface{}{"action": "SELL", "reasoning": "overextended", "confidence": 65},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Holding
	decodeBody(t, rec, &updated)
	require.NotNil(t, updated.Advice)
	assert.Equal(t, models.AdviceSell, updated.Advice.Action)
}

func TestPatchHoldingEmptyBody(t *testing.T) {
	srv := newTestServer(t)
	holding := createHolding(t, srv, "AAPL", 10, 100)

	rec := doRequest(t, srv, http.MethodPatch, "/api/holdings/"+holding.ID, map[string]interface{}{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApplyBuyTransaction(t *testing.T) {
	srv := newTestServer(t)
	holding := createHolding(t, srv, "AAPL", 10, 100)

	rec := doRequest(t, srv, http.MethodPost, "/api/holdings/"+holding.ID+"/transactions", map[string]interface{}{
		"kind": "BUY", "quantity": 10, "unit_price": 200,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp transactionResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, models.TransactionBuy, resp.Transaction.Kind)
	assert.Equal(t, 20.0, resp.Holding.Quantity)
	assert.InDelta(t, 150.0, resp.Holding.AverageCost, 1e-9)
}

func TestApplySellTransactionClamps(t *testing.T) {
	srv := newTestServer(t)
	holding := createHolding(t, srv, "AAPL", 20, 150)

	rec := doRequest(t, srv, http.MethodPost, "/api/holdings/"+holding.ID+"/transactions", map[string]interface{}{
		"kind": "SELL", "quantity": 25, "unit_price": 300,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp transactionResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, 0.0, resp.Holding.Quantity)
	assert.Equal(t, 150.0, resp.Holding.AverageCost)
}

func TestTransactionKindValidation(t *testing.T) {
	srv := newTestServer(t)
	holding := createHolding(t, srv, "AAPL", 10, 100)

	rec := doRequest(t, srv, http.MethodPost, "/api/holdings/"+holding.ID+"/transactions", map[string]interface{}{
		"kind": "SHORT", "quantity": 1, "unit_price": 1,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListTransactions(t *testing.T) {
	srv := newTestServer(t)
	holding := createHolding(t, srv, "AAPL", 10, 100)

	rec := doRequest(t, srv, http.MethodPost, "/api/holdings/"+holding.ID+"/transactions", map[string]interface{}{
		"kind": "SELL", "quantity": 2, "unit_price": 110,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/holdings/"+holding.ID+"/transactions", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var txs []*models.Transaction
	decodeBody(t, rec, &txs)
	require.Len(t, txs, 2)
	assert.Equal(t, models.TransactionSell, txs[0].Kind, "most recent first")
}

func TestHoldingAdvice(t *testing.T) {
	srv := newTestServer(t)
	holding := createHolding(t, srv, "AAPL", 10, 100)

	rec := doRequest(t, srv, http.MethodPost, "/api/holdings/"+holding.ID+"/advice", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Holding
	decodeBody(t, rec, &updated)
	require.NotNil(t, updated.Advice)
	assert.Equal(t, models.AdviceUnknown, updated.Advice.Action, "unconfigured advisor degrades to UNKNOWN")
}

func TestMarketQuote(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/market/quote/AAPL", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var quote models.Quote
	decodeBody(t, rec, &quote)
	assert.Equal(t, "AAPL", quote.Symbol)
	assert.Equal(t, models.SourceSynthetic, quote.Source)
	assert.Greater(t, quote.Current, 0.0)
}

func TestMarketProfile(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/market/profile/msft", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var profile models.CompanyProfile
	decodeBody(t, rec, &profile)
	assert.Equal(t, "MSFT Inc.", profile.Name)
	assert.Equal(t, "USD", profile.Currency)
}

func TestMarketHistory(t *testing.T) {
	srv := newTestServer(t)

	to := time.Now().Unix()
	from := time.Now().AddDate(0, 0, -30).Unix()
	path := fmt.Sprintf("/api/market/history/AAPL?from=%d&to=%d", from, to)

	rec := doRequest(t, srv, http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var series models.CandleSeries
	decodeBody(t, rec, &series)
	assert.Equal(t, "AAPL", series.Symbol)
	assert.NotEmpty(t, series.Candles)
	assert.Empty(t, series.Overlays)
}

func TestMarketHistoryWithOverlay(t *testing.T) {
	srv := newTestServer(t)

	to := time.Now().Unix()
	from := time.Now().AddDate(0, 0, -30).Unix()
	path := fmt.Sprintf("/api/market/history/AAPL?from=%d&to=%d&sma=5,10", from, to)

	rec := doRequest(t, srv, http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Series    *models.CandleSeries `json:"series"`
		Crossover string               `json:"crossover"`
	}
	decodeBody(t, rec, &resp)
	require.NotNil(t, resp.Series)
	require.Len(t, resp.Series.Overlays, 2)
	assert.Equal(t, 5, resp.Series.Overlays[0].Window)
	assert.NotEmpty(t, resp.Crossover)
}

func TestMarketHistoryBadRange(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/market/history/AAPL?from=200&to=100", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndVersion(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health map[string]interface{}
	decodeBody(t, rec, &health)
	assert.Equal(t, "ok", health["status"])

	rec = doRequest(t, srv, http.MethodGet, "/api/version", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPut, "/api/holdings", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodOptions, "/api/holdings", nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCorrelationIDEcho(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/health", nil, map[string]string{"X-Request-ID": "req-42"})
	assert.Equal(t, "req-42", rec.Header().Get("X-Correlation-ID"))
}
