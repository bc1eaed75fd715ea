package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"portfolio/src/api"
	"portfolio/src/config"
	"portfolio/src/models"
	"portfolio/src/schemas"
	"portfolio/src/services"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const portfolioID = "6f1c2a8e-6c1b-4a7e-9d5b-2f0c4b8a9e11"

type fakeController struct {
	principals []string
	since      time.Time
	lastTx     *schemas.CreateTransactionRequest
	txErr      error
}

func (f *fakeController) CreatePortfolio(ctx context.Context, principal string, req *schemas.CreatePortfolioRequest) (*schemas.PortfolioResponse, error) {
	f.principals = append(f.principals, principal)
	if req.Name == "" {
		return nil, &services.ValidationError{Field: "name", Message: "is required"}
	}
	return &schemas.PortfolioResponse{ID: portfolioID, Name: req.Name}, nil
}

func (f *fakeController) ListPortfolios(ctx context.Context, principal string) ([]*schemas.PortfolioResponse, error) {
	f.principals = append(f.principals, principal)
	return []*schemas.PortfolioResponse{{ID: portfolioID, Name: "Main"}}, nil
}

func (f *fakeController) GetPortfolio(ctx context.Context, principal, id string) (*schemas.PortfolioResponse, error) {
	if id != portfolioID {
		return nil, services.ErrNotFound
	}
	return &schemas.PortfolioResponse{ID: id, Name: "Main", CurrentValue: decimal.NewFromInt(770)}, nil
}

func (f *fakeController) DeletePortfolio(ctx context.Context, principal, id string) error {
	return nil
}

func (f *fakeController) GetHoldings(ctx context.Context, principal, id string) (*schemas.HoldingsResponse, error) {
	return schemas.NewHoldingsResponse(id, nil), nil
}

func (f *fakeController) GetPerformance(ctx context.Context, principal, id string, since time.Time) ([]*schemas.MonthlyPerformanceResponse, error) {
	f.since = since
	return []*schemas.MonthlyPerformanceResponse{}, nil
}

func (f *fakeController) CreateTransaction(ctx context.Context, principal, pid string, req *schemas.CreateTransactionRequest) (*schemas.TransactionResultResponse, error) {
	f.lastTx = req
	if f.txErr != nil {
		return nil, f.txErr
	}
	return &schemas.TransactionResultResponse{
		Transaction: &schemas.TransactionResponse{ID: "t-1", PortfolioID: pid, Symbol: req.Symbol},
		LotChanges:  []services.LotChange{},
		Warnings:    []services.Warning{},
	}, nil
}

func (f *fakeController) ListTransactions(ctx context.Context, principal, pid string) ([]*schemas.TransactionResponse, error) {
	return []*schemas.TransactionResponse{}, nil
}

func (f *fakeController) ListPrices(ctx context.Context) ([]models.PriceQuote, error) {
	return []models.PriceQuote{{Symbol: "AAPL", Price: decimal.NewFromInt(110), LastUpdated: time.Now()}}, nil
}

func (f *fakeController) GetPrice(ctx context.Context, symbol string) (*models.PriceQuote, error) {
	return nil, context.DeadlineExceeded
}

func (f *fakeController) RefreshPrices(ctx context.Context) (*services.RefreshSummary, error) {
	return &services.RefreshSummary{Symbols: 1, Refreshed: []string{"AAPL"}, Failed: map[string]string{}}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeController, string) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	controller := &fakeController{}
	server := api.NewServerWithController(controller, cfg, logger)
	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)

	_, token, err := server.TokenAuth.Encode(map[string]interface{}{"sub": "user-1"})
	require.NoError(t, err)
	return ts, controller, token
}

func do(t *testing.T, ts *httptest.Server, method, path, token, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]interface{}
	_ = json.Unmarshal(raw, &decoded)
	return resp, decoded
}

func TestAlive(t *testing.T) {
	ts, _, _ := newTestServer(t)
	resp, _ := do(t, ts, http.MethodGet, "/alive", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthRequired(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, _ := do(t, ts, http.MethodGet, "/api/portfolios", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = do(t, ts, http.MethodGet, "/api/portfolios", "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPortfolioRoutes(t *testing.T) {
	ts, controller, token := newTestServer(t)

	resp, body := do(t, ts, http.MethodPost, "/api/portfolios", token, `{"name":"Main"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, portfolioID, body["id"])
	assert.Equal(t, []string{"user-1"}, controller.principals)

	resp, body = do(t, ts, http.MethodPost, "/api/portfolios", token, `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "name", body["field"])

	resp, _ = do(t, ts, http.MethodPost, "/api/portfolios", token, `{"title":"x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, ts, http.MethodGet, "/api/portfolios/"+portfolioID, token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "770", body["current_value"])

	resp, _ = do(t, ts, http.MethodGet, "/api/portfolios/unknown", token, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, ts, http.MethodDelete, "/api/portfolios/"+portfolioID, token, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = do(t, ts, http.MethodGet, "/api/portfolios/"+portfolioID+"/holdings", token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, portfolioID, body["portfolio_id"])
}

func TestCreateTransaction(t *testing.T) {
	ts, controller, token := newTestServer(t)
	body := `{"symbol":"AAPL","quantity":10,"transaction_type":"Buy","date":"2024-01-01","price":"100","currency":"USD"}`

	resp, decoded := do(t, ts, http.MethodPost, "/api/portfolios/"+portfolioID+"/transactions", token, body)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotNil(t, controller.lastTx)
	assert.Equal(t, int64(10), controller.lastTx.Quantity)
	assert.Equal(t, 2024, controller.lastTx.Date.Year())
	assert.Contains(t, decoded, "lot_changes")
	assert.Contains(t, decoded, "warnings")

	resp, _ = do(t, ts, http.MethodPost, "/api/portfolios/"+portfolioID+"/transactions", token, `{"date":"yesterday"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateTransaction_InsufficientQuantity(t *testing.T) {
	ts, controller, token := newTestServer(t)
	controller.txErr = &services.InsufficientQuantityError{Symbol: "AAPL", Requested: 11, Available: 10}
	body := `{"symbol":"AAPL","quantity":11,"transaction_type":"Sell","date":"2024-03-01","price":"120"}`

	resp, decoded := do(t, ts, http.MethodPost, "/api/portfolios/"+portfolioID+"/transactions", token, body)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, float64(1), decoded["deficit"])
	assert.Contains(t, decoded["error"], "short by 1")
}

func TestPriceRoutes(t *testing.T) {
	ts, _, token := newTestServer(t)

	resp, _ := do(t, ts, http.MethodGet, "/api/prices/AAPL", token, "")
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)

	resp, body := do(t, ts, http.MethodPost, "/api/prices/refresh", token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["symbols"])
}

func TestPerformanceWindow(t *testing.T) {
	ts, controller, token := newTestServer(t)

	resp, _ := do(t, ts, http.MethodGet, "/api/portfolios/"+portfolioID+"/performance", token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, controller.since.IsZero())

	resp, _ = do(t, ts, http.MethodGet, "/api/portfolios/"+portfolioID+"/performance?window=6m", token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.WithinDuration(t, time.Now().AddDate(0, -6, 0), controller.since, time.Minute)

	resp, _ = do(t, ts, http.MethodGet, "/api/portfolios/"+portfolioID+"/performance?window=soon", token, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	ts, _, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/portfolios", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
