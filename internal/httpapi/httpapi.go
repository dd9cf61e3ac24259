package httpapi

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"dapurstok/backend/internal/domain"
	"dapurstok/backend/internal/service"
	"dapurstok/backend/internal/store"
)

type API struct {
	service       *service.Service
	auth          *AuthManager
	allowedOrigin string
	loginLimiter  *attemptLimiter
	csrfSecret    []byte
}

func New(svc *service.Service, auth *AuthManager, allowedOrigin string) *API {
	csrfSecret := make([]byte, 32)
	if _, err := rand.Read(csrfSecret); err != nil {
		// Fall back to a deterministic secret if crypto/rand fails (should not happen in practice).
		csrfSecret = []byte("csrf-fallback-secret-change-me!!")
	}
	return &API{
		service:       svc,
		auth:          auth,
		allowedOrigin: allowedOrigin,
		loginLimiter:  newAttemptLimiter(5, time.Minute),
		csrfSecret:    csrfSecret,
	}
}

// csrfTokenForHour computes an HMAC-SHA256 token for the given hour bucket
// (expressed as Unix time truncated to the hour). The token is hex-encoded.
func (a *API) csrfTokenForHour(hourBucket int64) string {
	h := hmac.New(sha256.New, a.csrfSecret)
	fmt.Fprintf(h, "%d", hourBucket)
	return hex.EncodeToString(h.Sum(nil))
}

func (a *API) generateCSRFToken() string {
	bucket := time.Now().UTC().Truncate(time.Hour).Unix()
	return a.csrfTokenForHour(bucket)
}

// validateCSRFToken checks whether the provided token matches the current or
// previous hour bucket, giving a 2-hour validity window.
func (a *API) validateCSRFToken(token string) bool {
	if token == "" {
		return false
	}
	currentBucket := time.Now().UTC().Truncate(time.Hour).Unix()
	prevBucket := currentBucket - 3600

	expected1 := a.csrfTokenForHour(currentBucket)
	expected2 := a.csrfTokenForHour(prevBucket)

	return hmac.Equal([]byte(token), []byte(expected1)) ||
		hmac.Equal([]byte(token), []byte(expected2))
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	kept = append(kept, now)
	l.entries[key] = kept
	return true
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)
	mux.HandleFunc("/api/v1/auth/login", a.handleLogin)
	mux.HandleFunc("/api/v1/auth/csrf-token", a.handleCSRFToken)

	mux.HandleFunc("/api/v1/ingredients", a.requireAuth(a.handleIngredients, "staff", "admin"))
	mux.HandleFunc("/api/v1/ingredients/", a.requireAuth(a.handleIngredientActions, "staff", "admin"))
	mux.HandleFunc("/api/v1/purchases", a.requireAuth(a.handlePurchases, "staff", "admin"))
	mux.HandleFunc("/api/v1/sales", a.requireAuth(a.handleSales, "staff", "admin"))
	mux.HandleFunc("/api/v1/waste", a.requireAuth(a.handleWaste, "staff", "admin"))
	mux.HandleFunc("/api/v1/batches", a.requireAuth(a.handleBatches, "staff", "admin"))
	mux.HandleFunc("/api/v1/stock", a.requireAuth(a.handleStock, "staff", "admin"))
	mux.HandleFunc("/api/v1/stock/alerts", a.requireAuth(a.handleStockAlerts, "staff", "admin"))
	mux.HandleFunc("/api/v1/recipes", a.requireAuth(a.handleRecipes, "staff", "admin"))
	mux.HandleFunc("/api/v1/recipes/", a.requireAuth(a.handleRecipeActions, "staff", "admin"))
	mux.HandleFunc("/api/v1/items/", a.requireAuth(a.handleItemActions, "staff", "admin"))

	mux.HandleFunc("/api/v1/reports/costs", a.requireAuth(a.handleCostReport, "admin"))
	mux.HandleFunc("/api/v1/audit-logs", a.requireAuth(a.handleAuditLogs, "admin"))
	mux.HandleFunc("/api/v1/users/staff", a.requireAuth(a.handleStaff, "admin"))

	return a.withMiddleware(mux)
}

func (a *API) requireAuth(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}

		token := strings.TrimSpace(authorization[len("Bearer "):])
		actor, err := a.auth.ParseToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}

		if len(roles) > 0 && !isRoleAllowed(actor.Role, roles) {
			writeError(w, http.StatusForbidden, errors.New("forbidden role"))
			return
		}

		next(w, r.WithContext(service.WithActor(r.Context(), actor)))
	}
}

func isRoleAllowed(role string, allowed []string) bool {
	for _, allow := range allowed {
		if role == allow {
			return true
		}
	}
	return false
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	if !a.loginLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.auth.Login(req)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleCSRFToken returns a stateless CSRF token valid for the current hour
// bucket. Clients include it in the X-CSRF-Token header on mutating requests.
func (a *API) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"csrf_token": a.generateCSRFToken(),
	})
}

// csrfExemptPaths lists paths exempt from CSRF validation. Login is excluded
// because it is called without a prior CSRF token fetch.
var csrfExemptPaths = []string{
	"/api/v1/auth/login",
}

func (a *API) checkCSRF(w http.ResponseWriter, r *http.Request) bool {
	method := r.Method
	if method != http.MethodPost && method != http.MethodPut && method != http.MethodPatch {
		return true
	}
	for _, exempt := range csrfExemptPaths {
		if r.URL.Path == exempt {
			return true
		}
	}
	token := strings.TrimSpace(r.Header.Get("X-CSRF-Token"))
	if !a.validateCSRFToken(token) {
		writeError(w, http.StatusForbidden, errors.New("missing or invalid CSRF token"))
		return false
	}
	return true
}

func (a *API) handleIngredients(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		ingredients, err := a.service.ListIngredients(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ingredients": ingredients})
	case http.MethodPost:
		var req domain.IngredientCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		ingredient, err := a.service.CreateIngredient(r.Context(), req)
		if err != nil {
			writeError(w, serviceErrorStatus(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"ingredient": ingredient})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleIngredientActions(w http.ResponseWriter, r *http.Request) {
	prefix := "/api/v1/ingredients/"
	tail := strings.TrimSpace(strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/"))
	if tail == "" {
		writeError(w, http.StatusBadRequest, errors.New("ingredient id required"))
		return
	}

	if strings.HasSuffix(tail, "/lots") {
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		id := strings.Trim(strings.TrimSuffix(tail, "/lots"), "/")
		includeDepleted := strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("include_depleted")), "true")
		limit := parsePositiveLimit(r.URL.Query().Get("limit"), 200, 500)

		lots, err := a.service.ListLots(r.Context(), id, includeDepleted, limit)
		if err != nil {
			writeError(w, serviceErrorStatus(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"lots": lots})
		return
	}

	if strings.HasSuffix(tail, "/recompute") {
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		actor, ok := service.ActorFromContext(r.Context())
		if !ok || actor.Role != "admin" {
			writeError(w, http.StatusForbidden, errors.New("forbidden role"))
			return
		}
		id := strings.Trim(strings.TrimSuffix(tail, "/recompute"), "/")

		resp, err := a.service.RecomputeStock(r.Context(), id)
		if err != nil {
			writeError(w, serviceErrorStatus(err), err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	if strings.HasSuffix(tail, "/stock") {
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		id := strings.Trim(strings.TrimSuffix(tail, "/stock"), "/")

		level, err := a.service.GetStockLevel(r.Context(), id)
		if err != nil {
			writeError(w, serviceErrorStatus(err), err)
			return
		}
		writeJSON(w, http.StatusOK, level)
		return
	}

	if r.Method != http.MethodPatch {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.IngredientUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	updated, err := a.service.UpdateIngredient(r.Context(), tail, req)
	if err != nil {
		writeError(w, serviceErrorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ingredient": updated})
}

func (a *API) handlePurchases(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.PurchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.service.RecordPurchase(r.Context(), req)
	if err != nil {
		writeError(w, serviceErrorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (a *API) handleSales(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		from, to, err := parseTimeRange(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		sales, err := a.service.ListSales(r.Context(), from, to)
		if err != nil {
			writeError(w, serviceErrorStatus(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sales": sales})
	case http.MethodPost:
		var req domain.SaleRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		resp, err := a.service.RecordSale(r.Context(), req)
		if err != nil {
			writeError(w, serviceErrorStatus(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleWaste(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		from, to, err := parseTimeRange(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		entries, err := a.service.ListWaste(r.Context(), from, to)
		if err != nil {
			writeError(w, serviceErrorStatus(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"waste": entries})
	case http.MethodPost:
		var req domain.WasteRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		entry, err := a.service.RecordWaste(r.Context(), req)
		if err != nil {
			writeError(w, serviceErrorStatus(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"waste": entry})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleBatches(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		from, to, err := parseTimeRange(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		batches, err := a.service.ListBatches(r.Context(), from, to)
		if err != nil {
			writeError(w, serviceErrorStatus(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"batches": batches})
	case http.MethodPost:
		var req domain.BatchRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		resp, err := a.service.RecordBatch(r.Context(), req)
		if err != nil {
			writeError(w, serviceErrorStatus(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleStock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	levels, err := a.service.ListStockLevels(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stock": levels})
}

func (a *API) handleStockAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	alerts, err := a.service.LowStockAlerts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}

func (a *API) handleRecipes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		items, err := a.service.ListRecipeItems(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	case http.MethodPost:
		var req domain.RecipeUpsertRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		if err := a.service.UpsertRecipe(r.Context(), req); err != nil {
			writeError(w, serviceErrorStatus(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleRecipeActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	prefix := "/api/v1/recipes/"
	itemID := strings.TrimSpace(strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/"))
	if itemID == "" {
		writeError(w, http.StatusBadRequest, errors.New("item id required"))
		return
	}

	lines, err := a.service.GetRecipe(r.Context(), itemID)
	if err != nil {
		writeError(w, serviceErrorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item_id": strings.ToUpper(itemID), "lines": lines})
}

func (a *API) handleItemActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	prefix := "/api/v1/items/"
	tail := strings.TrimSpace(strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/"))
	if !strings.HasSuffix(tail, "/availability") {
		writeError(w, http.StatusBadRequest, errors.New("unknown item action"))
		return
	}
	itemID := strings.Trim(strings.TrimSuffix(tail, "/availability"), "/")
	if itemID == "" {
		writeError(w, http.StatusBadRequest, errors.New("item id required"))
		return
	}

	resp, err := a.service.ComputeAvailableUnits(r.Context(), itemID)
	if err != nil {
		writeError(w, serviceErrorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleCostReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	from, to, err := parseTimeRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	granularity := r.URL.Query().Get("granularity")

	report, err := a.service.CostReport(r.Context(), from, to, granularity)
	if err != nil {
		writeError(w, serviceErrorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleAuditLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	from, to, err := parseTimeRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 100, 500)

	logs, err := a.service.ListAuditLogs(r.Context(), from, to, limit)
	if err != nil {
		writeError(w, serviceErrorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

func (a *API) handleStaff(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"staff": a.auth.ListStaff()})
	case http.MethodPost:
		var req domain.StaffCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		staff, err := a.auth.CreateStaff(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"staff": staff})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-CSRF-Token")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if (r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut) && strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if !a.checkCSRF(w, r) {
			return
		}

		startedAt := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(startedAt))
	})
}

// serviceErrorStatus maps service/store errors to HTTP statuses. Validation
// problems are 400, missing entities 404, role failures 403, the rest 422.
func serviceErrorStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrIngredientNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrInvalidInput), errors.Is(err, store.ErrZeroYield):
		return http.StatusBadRequest
	case strings.Contains(strings.ToLower(err.Error()), "admin role required"):
		return http.StatusForbidden
	default:
		return http.StatusUnprocessableEntity
	}
}

// parseTimeRange reads from/to query parameters, accepting either a plain
// date (2006-01-02) or RFC3339. Defaults to the last 30 days.
func parseTimeRange(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30)
	to := now

	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		parsed, err := parseFlexibleTime(raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from: %w", err)
		}
		from = parsed
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		parsed, err := parseFlexibleTime(raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to: %w", err)
		}
		to = parsed
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, errors.New("to must be after from")
	}
	return from, to, nil
}

func parseFlexibleTime(raw string) (time.Time, error) {
	if ts, err := time.Parse("2006-01-02", raw); err == nil {
		return ts.UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return ts.UTC(), nil
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeError(w http.ResponseWriter, status int, err error) {
	// For 5xx responses, return a generic message to avoid leaking internal
	// implementation details (stack traces, SQL errors, file paths, etc.).
	// 4xx responses are user-facing so we return the original error message.
	msg := err.Error()
	if status >= 500 {
		log.Printf("internal error (status %d): %v", status, err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
