package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intentscan/bridge-indexer/internal/analytics"
	"github.com/intentscan/bridge-indexer/internal/api/middleware"
	"github.com/intentscan/bridge-indexer/internal/store"
	"github.com/intentscan/bridge-indexer/internal/store/schema"
)

type fakeStore struct {
	store.Store
}

func strptr(s string) *string { return &s }

func (f *fakeStore) AvailableSymbols(context.Context) ([]string, error) {
	return []string{"USDC", "USDT"}, nil
}

func (f *fakeStore) EarliestTransactionTime(context.Context) (*time.Time, error) {
	t := time.Date(2025, 10, 1, 7, 30, 0, 0, time.UTC)
	return &t, nil
}

func (f *fakeStore) TokensForSymbol(_ context.Context, symbol string) ([]*schema.Token, error) {
	if symbol != "USDC" {
		return nil, nil
	}
	return []*schema.Token{
		{ID: 1, Symbol: "USDC", Chain: strptr("ETH")},
		{ID: 2, Symbol: "USDC", Chain: strptr("ARB")},
	}, nil
}

func (f *fakeStore) SlippageValues(_ context.Context, in, out int64, _ store.TimeRange) ([]float64, error) {
	if in == 1 && out == 2 {
		return []float64{0.2, 0.4}, nil
	}
	return nil, nil
}

func (f *fakeStore) PairCount(_ context.Context, in, out int64, _ store.TimeRange) (int64, error) {
	if in == 1 && out == 2 {
		return 2, nil
	}
	return 0, nil
}

func (f *fakeStore) PairVolume(_ context.Context, in, out int64, _ store.TimeRange) (float64, error) {
	if in == 1 && out == 2 {
		return 3000, nil
	}
	return 0, nil
}

func (f *fakeStore) RouteRollup(context.Context, store.RouteFilter) ([]store.RouteRow, error) {
	return []store.RouteRow{
		{SourceSymbol: "USDC", SourceChain: "ETH", DestSymbol: "USDC", DestChain: "ARB", Volume: 3000, AvgSlippage: 0.3, TxCount: 2, AvgTxSize: 1500},
	}, nil
}

func (f *fakeStore) TransactionStats(context.Context, []int64, store.TimeRange) (store.TxStats, error) {
	return store.TxStats{TxCount: 2, Volume: 3000}, nil
}

func (f *fakeStore) DailyStats(_ context.Context, _ []int64, _ store.TimeRange) ([]store.DailyRow, error) {
	return []store.DailyRow{
		{Day: time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC), Volume: 3000, TxCount: 2},
	}, nil
}

func newTestRouter(authCfg middleware.AuthConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewHandler(analytics.NewEngine(&fakeStore{}))
	SetupRoutes(router, handler, authCfg)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, path string, header http.Header) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestHealthCheck(t *testing.T) {
	code, body := doRequest(t, newTestRouter(middleware.AuthConfig{}), "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestListSymbols(t *testing.T) {
	code, body := doRequest(t, newTestRouter(middleware.AuthConfig{}), "/api/v1/symbols", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{"USDC", "USDT"}, body["symbols"])
	assert.Equal(t, "2025-10-01", body["earliest_date"])
}

func TestGetMatrix(t *testing.T) {
	code, body := doRequest(t, newTestRouter(middleware.AuthConfig{}),
		"/api/v1/symbols/USDC/matrix?metric=slippage&percentile=avg", nil)
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, "USDC", body["symbol"])
	assert.Equal(t, "avg", body["percentile"])
	assert.Equal(t, []any{"ARB", "ETH"}, body["chains"])

	cells, ok := body["cells"].([]any)
	require.True(t, ok)
	require.Len(t, cells, 2)
	// ETH (row 1) -> ARB (col 0) averaged, ARB -> ETH missing
	row1 := cells[1].([]any)
	assert.InDelta(t, 0.3, row1[0].(float64), 1e-9)
	row0 := cells[0].([]any)
	assert.Nil(t, row0[1])
	assert.Equal(t, 0.0, row0[0].(float64))
}

func TestGetMatrixRejectsBadParams(t *testing.T) {
	router := newTestRouter(middleware.AuthConfig{})

	code, body := doRequest(t, router, "/api/v1/symbols/USDC/matrix?metric=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotNil(t, body["error"])

	code, _ = doRequest(t, router, "/api/v1/symbols/USDC/matrix?percentile=p0", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = doRequest(t, router, "/api/v1/symbols/USDC/matrix?start_date=20-10-2025", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = doRequest(t, router, "/api/v1/symbols/USDC/matrix?start_date=2025-10-20&end_date=2025-10-01", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestListRoutes(t *testing.T) {
	code, body := doRequest(t, newTestRouter(middleware.AuthConfig{}), "/api/v1/routes", nil)
	require.Equal(t, http.StatusOK, code)

	routes, ok := body["routes"].([]any)
	require.True(t, ok)
	require.Len(t, routes, 1)
	route := routes[0].(map[string]any)
	assert.Equal(t, "USDC", route["from_symbol"])
	assert.Equal(t, "ARB", route["to_chain"])
	assert.Equal(t, true, route["zero_fee"])
}

func TestGetRouteSlippage(t *testing.T) {
	router := newTestRouter(middleware.AuthConfig{})

	code, body := doRequest(t, router,
		"/api/v1/routes/slippage?from_symbol=USDC&from_chain=ETH&to_symbol=USDC&to_chain=ARB&percentile=avg", nil)
	require.Equal(t, http.StatusOK, code)
	assert.InDelta(t, 0.3, body["slippage"].(float64), 1e-9)

	// empty route
	code, _ = doRequest(t, router,
		"/api/v1/routes/slippage?from_symbol=USDC&from_chain=ARB&to_symbol=USDC&to_chain=ETH", nil)
	assert.Equal(t, http.StatusNotFound, code)

	// missing endpoint params
	code, _ = doRequest(t, router, "/api/v1/routes/slippage?from_symbol=USDC", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestGetOverallStats(t *testing.T) {
	code, body := doRequest(t, newTestRouter(middleware.AuthConfig{}), "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), body["tx_count"])
	assert.Equal(t, float64(3000), body["volume"])
}

func TestAPIKeyAuth(t *testing.T) {
	router := newTestRouter(middleware.AuthConfig{APIKeys: []string{"secret"}})

	// health stays public
	code, _ := doRequest(t, router, "/health", nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = doRequest(t, router, "/api/v1/symbols", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = doRequest(t, router, "/api/v1/symbols",
		http.Header{"Authorization": []string{"ApiKey secret"}})
	assert.Equal(t, http.StatusOK, code)

	code, _ = doRequest(t, router, "/api/v1/symbols",
		http.Header{"Authorization": []string{"ApiKey wrong"}})
	assert.Equal(t, http.StatusUnauthorized, code)
}
