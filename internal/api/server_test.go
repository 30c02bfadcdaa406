package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rustyeddy/fundtrader/indicators"
	"github.com/rustyeddy/fundtrader/ledger"
	"github.com/rustyeddy/fundtrader/market"
	"github.com/rustyeddy/fundtrader/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testNow = time.Date(2024, 1, 21, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	srv     *Server
	handler http.Handler
	store   *store.Store
	ledger  string
}

// newTestEnv stores AAA priced 10..29 over Jan 1-20 2024 (with alternating
// dips) and BBB with two days.
func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	dir := t.TempDir()
	st := store.New(filepath.Join(dir, "funds"))

	var aaa []store.Row
	for i := 0; i < 20; i++ {
		p := 10 + i
		if i%3 == 2 {
			p -= 2
		}
		row := store.Row{
			Date:  market.FormatDate(market.Date(2024, 1, 1+i)),
			Price: decimal.NewNullDecimal(decimal.NewFromInt(int64(p))),
		}
		if i == 0 {
			row.Name = "Fund A"
		}
		aaa = append(aaa, row)
	}
	require.NoError(t, st.WriteRows("AAA", aaa))

	var bbb []store.Row
	require.NoError(t, json.Unmarshal([]byte(`[
		{"Date": "2024-01-19", "Price": "5.5"},
		{"Date": "2024-01-20", "Price": "5.75"}
	]`), &bbb))
	require.NoError(t, st.WriteRows("BBB", bbb))

	ledgerPath := filepath.Join(dir, "portfolio.json")
	l, err := ledger.Open(ledgerPath)
	require.NoError(t, err)

	opts = append([]Option{
		WithClock(func() time.Time { return testNow }),
		WithLogger(log.New(io.Discard, "", 0)),
		WithFundNames(map[string]string{"BBB": "Fund B"}),
	}, opts...)
	srv := NewServer(st, l, opts...)
	return &testEnv{srv: srv, handler: srv.Router(), store: st, ledger: ledgerPath}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestListFunds(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/funds", nil)
	require.Equal(t, http.StatusOK, w.Code)

	funds := decode[[]fundInfo](t, w)
	require.Len(t, funds, 2)

	assert.Equal(t, "AAA", funds[0].Symbol)
	assert.Equal(t, "Fund A", funds[0].Name)
	assert.Equal(t, 20, funds[0].Days)
	assert.Equal(t, "2024-01-20", funds[0].LatestDate)
	assert.Equal(t, "29", funds[0].LatestPrice.String())

	assert.Equal(t, "BBB", funds[1].Symbol)
	assert.Equal(t, "Fund B", funds[1].Name)
	assert.Equal(t, "5.75", funds[1].LatestPrice.String())
}

func TestFundHistory(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantPrices int
		wantSMA    int
		wantEMA    int
		wantCode   string
	}{
		{name: "all", path: "/api/funds/AAA/history", wantStatus: http.StatusOK, wantPrices: 20},
		{name: "week", path: "/api/funds/aaa/history?period=week", wantStatus: http.StatusOK, wantPrices: 7},
		{name: "week with sma", path: "/api/funds/AAA/history?period=week&ma=3", wantStatus: http.StatusOK, wantPrices: 7, wantSMA: 5},
		{name: "bad period", path: "/api/funds/AAA/history?period=decade", wantStatus: http.StatusBadRequest, wantCode: "INVALID_PERIOD"},
		{name: "all with ema", path: "/api/funds/AAA/history?ema=5", wantStatus: http.StatusOK, wantPrices: 20, wantEMA: 16},
		{name: "both averages", path: "/api/funds/AAA/history?period=week&ma=3&ema=7", wantStatus: http.StatusOK, wantPrices: 7, wantSMA: 5, wantEMA: 1},
		{name: "bad ma", path: "/api/funds/AAA/history?ma=x", wantStatus: http.StatusBadRequest, wantCode: "INVALID_MA"},
		{name: "bad ema", path: "/api/funds/AAA/history?ema=0", wantStatus: http.StatusBadRequest, wantCode: "INVALID_EMA"},
		{name: "unknown fund", path: "/api/funds/ZZZ/history", wantStatus: http.StatusNotFound, wantCode: "FUND_NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, tt.path, nil)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decode[errorResponse](t, w).Error.Code)
				return
			}

			resp := decode[struct {
				Symbol string              `json:"symbol"`
				Prices []pricePoint        `json:"prices"`
				SMA    []indicators.Point `json:"sma"`
				EMA    []indicators.Point `json:"ema"`
			}](t, w)
			assert.Equal(t, "AAA", resp.Symbol)
			assert.Len(t, resp.Prices, tt.wantPrices)
			assert.Len(t, resp.SMA, tt.wantSMA)
			assert.Len(t, resp.EMA, tt.wantEMA)
			assert.Equal(t, "2024-01-20", resp.Prices[len(resp.Prices)-1].Date)
		})
	}
}

func TestFundPrice(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/funds/BBB/price", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"symbol":"BBB","date":"2024-01-20","price":"5.75"}`, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/funds/NOPE/price", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFundRSI(t *testing.T) {
	env := newTestEnv(t)

	h, err := env.store.Load("AAA")
	require.NoError(t, err)
	want, err := indicators.RSI(h, market.Date(2024, 1, 20), 14)
	require.NoError(t, err)

	w := env.do(t, http.MethodGet, "/api/funds/AAA/rsi", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[struct {
		Date   string  `json:"date"`
		Period int     `json:"period"`
		RSI    float64 `json:"rsi"`
	}](t, w)
	assert.Equal(t, "2024-01-20", resp.Date)
	assert.Equal(t, 14, resp.Period)
	assert.InDelta(t, want, resp.RSI, 1e-9)

	w = env.do(t, http.MethodGet, "/api/funds/AAA/rsi?date=2024-01-05&period=3", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/funds/AAA/rsi?period=30", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INSUFFICIENT_DATA", decode[errorResponse](t, w).Error.Code)

	w = env.do(t, http.MethodGet, "/api/funds/AAA/rsi?date=20.01.2024", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLatestPrices(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/prices", nil)
	require.Equal(t, http.StatusOK, w.Code)

	prices := decode[map[string]pricePoint](t, w)
	require.Len(t, prices, 2)
	assert.Equal(t, "29", prices["AAA"].Price.String())
	assert.Equal(t, "2024-01-20", prices["BBB"].Date)
}

func TestTransactions(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/portfolio/transactions", gin.H{
		"symbol": "aaa", "date": "2024-01-05", "type": "buy", "quantity": 10,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	tx := decode[ledger.Transaction](t, w)
	assert.Equal(t, 1, tx.ID)
	assert.Equal(t, "AAA", tx.Symbol)

	tests := []struct {
		name       string
		body       gin.H
		wantStatus int
		wantCode   string
	}{
		{
			name:       "oversell",
			body:       gin.H{"symbol": "AAA", "date": "2024-01-06", "type": "sell", "quantity": 20},
			wantStatus: http.StatusConflict,
			wantCode:   "INSUFFICIENT_HOLDINGS",
		},
		{
			name:       "unknown type",
			body:       gin.H{"symbol": "AAA", "date": "2024-01-06", "type": "short", "quantity": 1},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_TRANSACTION",
		},
		{
			name:       "bad date",
			body:       gin.H{"symbol": "AAA", "date": "06.01.2024", "type": "buy", "quantity": 1},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_DATE",
		},
		{
			name:       "missing quantity",
			body:       gin.H{"symbol": "AAA", "date": "2024-01-06", "type": "buy"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/portfolio/transactions", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantCode, decode[errorResponse](t, w).Error.Code)
		})
	}

	w = env.do(t, http.MethodGet, "/api/portfolio/transactions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]ledger.Transaction](t, w), 1)

	// The ledger file is rewritten on every accepted transaction.
	data, err := os.ReadFile(env.ledger)
	require.NoError(t, err)
	var onDisk []ledger.Transaction
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Len(t, onDisk, 1)
}

func TestPortfolioSummary(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/portfolio/transactions", gin.H{
		"symbol": "AAA", "date": "2024-01-05", "type": "buy", "quantity": 10,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/portfolio/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)

	sum := decode[ledger.Summary](t, w)
	require.Len(t, sum.Holdings, 1)
	h := sum.Holdings[0]
	assert.Equal(t, "Fund A", h.Name)
	// Jan 5 is the fifth day: 10+4 = 14.
	assert.Equal(t, "140", h.Cost.String())
	assert.Equal(t, "290", h.Value.String())
	assert.InDelta(t, 16.0, h.AvgHoldingDays, 1e-9)
	assert.Equal(t, "140", sum.Totals.Cost.String())
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, WithRateLimit(1))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, env.do(t, http.MethodGet, "/health", nil).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t)
	h := env.srv.Handler([]string{"http://localhost:3000"})

	req := httptest.NewRequest(http.MethodOptions, "/api/funds", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestErrorHandlerRecovers(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(log.New(io.Discard, "", 0)))
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decode[errorResponse](t, w)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
	assert.Equal(t, "boom", resp.Error.Message)
}
