package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"dapurstok/backend/internal/cache"
	"dapurstok/backend/internal/domain"
	"dapurstok/backend/internal/service"
	"dapurstok/backend/internal/store/memory"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

// newTestAPI builds a full API with an in-memory store, real AuthManager and
// real Service so handler tests exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.NewSeeded()
	svc := service.New(repo, cache.NoopStockCache{})
	auth := NewAuthManager("test-secret-key", time.Hour, repo)

	return New(svc, auth, "*")
}

func loginAs(t *testing.T, handler http.Handler, username, password string) string {
	t.Helper()

	payload, _ := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("login as %s failed: %d %s", username, rec.Code, rec.Body.String())
	}
	var resp domain.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.AccessToken
}

func csrfToken(t *testing.T, handler http.Handler) string {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/csrf-token", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("csrf token fetch failed: %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode csrf response: %v", err)
	}
	return body["csrf_token"]
}

func TestHandleHealth(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	payload, _ := json.Marshal(map[string]string{
		"username": "admin",
		"password": "wrongpassword",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleLogin_RateLimit(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	// The loginLimiter allows 5 attempts per minute.
	payload, _ := json.Marshal(map[string]string{
		"username": "admin",
		"password": "badpass",
	})

	var lastCode int
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		lastCode = rec.Code
	}

	if lastCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after 6 attempts, got %d", lastCode)
	}
}

func TestHandleIngredients_RequiresAuth(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ingredients", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandleIngredients_ListWithValidToken(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, handler, "admin", "admin123")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ingredients", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ingredients"] == nil {
		t.Fatalf("expected ingredients key in response, got %v", body)
	}
}

func TestHandlePurchases_MutationRequiresCSRF(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, handler, "admin", "admin123")

	payload, _ := json.Marshal(map[string]any{
		"ingredient_id": "ING-UDANG",
		"purchase_qty":  "2",
		"total_price":   "600000",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/purchases", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without CSRF token, got %d", rec.Code)
	}
}

func TestHandlePurchases_FullPath(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, handler, "admin", "admin123")
	csrf := csrfToken(t, handler)

	payload, _ := json.Marshal(map[string]any{
		"ingredient_id": "ING-UDANG",
		"purchase_qty":  "2",
		"total_price":   "600000",
		"purchase_ref":  "INV-API-001",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/purchases", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-CSRF-Token", csrf)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var resp domain.PurchaseResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !resp.Lot.InitialQty.Equal(dec("120")) {
		t.Fatalf("expected 120 stock units, got %s", resp.Lot.InitialQty)
	}

	// The new lot is visible in the ledger listing.
	lotsReq := httptest.NewRequest(http.MethodGet, "/api/v1/ingredients/ING-UDANG/lots", nil)
	lotsReq.Header.Set("Authorization", "Bearer "+token)
	lotsRec := httptest.NewRecorder()
	handler.ServeHTTP(lotsRec, lotsReq)

	if lotsRec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing lots, got %d", lotsRec.Code)
	}
}

func TestHandlePurchases_UnknownIngredientIs404(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, handler, "admin", "admin123")
	csrf := csrfToken(t, handler)

	payload, _ := json.Marshal(map[string]any{
		"ingredient_id": "ING-MISTERI",
		"purchase_qty":  "1",
		"total_price":   "10000",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/purchases", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-CSRF-Token", csrf)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleCostReport_AdminOnly(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	staffToken := loginAs(t, handler, "staff", "staff123")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/costs?from=2026-03-01&to=2026-03-31", nil)
	req.Header.Set("Authorization", "Bearer "+staffToken)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff role, got %d", rec.Code)
	}

	adminToken := loginAs(t, handler, "admin", "admin123")
	adminReq := httptest.NewRequest(http.MethodGet, "/api/v1/reports/costs?from=2026-03-01&to=2026-03-31", nil)
	adminReq.Header.Set("Authorization", "Bearer "+adminToken)
	adminRec := httptest.NewRecorder()

	handler.ServeHTTP(adminRec, adminReq)

	if adminRec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d (body: %s)", adminRec.Code, adminRec.Body.String())
	}

	var report domain.CostReport
	if err := json.NewDecoder(adminRec.Body).Decode(&report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Granularity != domain.GranularityDay {
		t.Fatalf("expected default day granularity, got %s", report.Granularity)
	}
}

func TestHandleCostReport_BadRangeRejected(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, handler, "admin", "admin123")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/costs?from=2026-03-31&to=2026-03-01", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted range, got %d", rec.Code)
	}
}

func TestHandleItemAvailability(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, handler, "staff", "staff123")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items/ITEM-NASI-UDANG/availability", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var resp domain.AvailabilityResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Units == nil || *resp.Units != 0 {
		t.Fatalf("expected 0 units with empty stock, got %v", resp.Units)
	}
}

func TestHandleStockAlerts(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, handler, "staff", "staff123")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stock/alerts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string][]domain.LowStockAlert
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body["alerts"]) == 0 {
		t.Fatalf("expected alerts for seeded catalog at zero stock")
	}
}
