package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"paperdesk/internal/anomaly"
	"paperdesk/internal/domain"
	"paperdesk/internal/forecast"
	"paperdesk/internal/market"
	"paperdesk/internal/ml/direction"
	"paperdesk/internal/service"
	"paperdesk/internal/signal"
	"paperdesk/internal/ta"
	"paperdesk/internal/trading"
)

func newTestRouter(t *testing.T, apiKey string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tracer := trace.NewNoopTracerProvider().Tracer("test")
	gen := market.NewGenerator(market.Config{
		Symbols:   []string{"AAPL", "MSFT"},
		Seed:      99,
		NoiseStd:  0.002,
		Retention: 200,
		Warmup:    120,
	})
	sim := service.NewSimService(
		tracer,
		gen,
		ta.DefaultWindows(),
		forecast.NewPredictor(forecast.DefaultConfig()),
		signal.NewEngine(signal.DefaultConfig()),
		trading.NewEngine(trading.DefaultConfig()),
		trading.NewPnLTracker(),
		direction.NewService(direction.DefaultTrainOptions()),
		anomaly.NewDetector(),
		nil,
		10,
	)

	r := gin.New()
	New(tracer, sim).RegisterRoutes(r, apiKey)
	return r
}

func doRequest(r *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, "")
	w := doRequest(r, "GET", "/health", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var body struct {
		Status  string   `json:"status"`
		Service string   `json:"service"`
		Symbols []string `json:"symbols"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body.Status != "healthy" || body.Service != "paperdesk" || len(body.Symbols) != 2 {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestTickReturnsCycleResult(t *testing.T) {
	r := newTestRouter(t, "")
	w := doRequest(r, "GET", "/api/tick", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var res domain.CycleResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if len(res.Ticks) != 2 || len(res.Predictions) != 2 {
		t.Fatalf("unexpected cycle result: %d ticks, %d predictions", len(res.Ticks), len(res.Predictions))
	}
	if res.Portfolio.TotalValue <= 0 {
		t.Fatalf("bad portfolio: %+v", res.Portfolio)
	}
}

func TestGetHistory(t *testing.T) {
	r := newTestRouter(t, "")
	w := doRequest(r, "GET", "/api/history/aapl?limit=25", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var body struct {
		Symbol     string                `json:"symbol"`
		History    []domain.PricePoint   `json:"history"`
		Prediction domain.ForecastResult `json:"prediction"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body.Symbol != "AAPL" || len(body.History) != 25 {
		t.Fatalf("unexpected response: symbol=%s points=%d", body.Symbol, len(body.History))
	}
	if len(body.Prediction.Horizon) != 10 {
		t.Fatalf("expected a 10-point forecast, got %+v", body.Prediction)
	}
	if body.Prediction.StartSeq != body.History[len(body.History)-1].Seq+1 {
		t.Fatalf("forecast does not continue the series: %+v", body.Prediction)
	}
}

func TestGetHistoryUnknownSymbol(t *testing.T) {
	r := newTestRouter(t, "")
	w := doRequest(r, "GET", "/api/history/NOPE", nil)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestGetPortfolio(t *testing.T) {
	r := newTestRouter(t, "")
	w := doRequest(r, "GET", "/api/portfolio", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var view domain.PortfolioView
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if view.Cash != 100000 || view.TotalValue != 100000 {
		t.Fatalf("expected untouched portfolio, got %+v", view)
	}
}

func TestGetPnLAfterTicks(t *testing.T) {
	r := newTestRouter(t, "")
	for i := 0; i < 3; i++ {
		if w := doRequest(r, "GET", "/api/tick", nil); w.Code != http.StatusOK {
			t.Fatalf("tick %d failed with %d", i, w.Code)
		}
	}

	w := doRequest(r, "GET", "/api/pnl", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var body struct {
		PnL []domain.PnLSample `json:"pnl"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if len(body.PnL) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(body.PnL))
	}
}

func TestGetTradesEmptyLedger(t *testing.T) {
	r := newTestRouter(t, "")
	w := doRequest(r, "GET", "/api/trades", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
}

func TestGetPerformance(t *testing.T) {
	r := newTestRouter(t, "")
	w := doRequest(r, "GET", "/api/performance", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var sum domain.PerformanceSummary
	if err := json.Unmarshal(w.Body.Bytes(), &sum); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if sum.TotalTrades != 0 {
		t.Fatalf("expected empty ledger, got %+v", sum)
	}
}

func TestCloseSessionRequiresAPIKey(t *testing.T) {
	r := newTestRouter(t, "secret")

	w := doRequest(r, "POST", "/api/session/close", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}

	w = doRequest(r, "POST", "/api/session/close", map[string]string{"X-API-Key": "wrong"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", w.Code)
	}

	w = doRequest(r, "POST", "/api/session/close", map[string]string{"X-API-Key": "secret"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
}

func TestCloseSessionWithoutKeyConfigured(t *testing.T) {
	r := newTestRouter(t, "")
	w := doRequest(r, "POST", "/api/session/close", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var body struct {
		Portfolio domain.PortfolioView `json:"portfolio"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if len(body.Portfolio.Positions) != 0 {
		t.Fatalf("positions remain: %+v", body.Portfolio.Positions)
	}
}
