package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"phambili/internal/budget"
	"phambili/internal/identity"
	"phambili/internal/services"
	"phambili/internal/storage"
	"phambili/internal/tax"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	taxCfg, err := tax.ByName("monthly")
	if err != nil {
		t.Fatal(err)
	}
	provider := identity.Static("u1")
	svc := services.NewBudgetService(
		storage.NewFlatGateway(storage.NewMemory()),
		provider,
		nil,
		taxCfg,
		budget.DefaultBands(),
		budget.DefaultPolicy(),
	)
	srv := NewServer(":0", svc, provider, nil)
	t.Cleanup(func() { srv.caches.Stop(); srv.rateLimiter.stop() })
	return srv
}

func doJSON(t *testing.T, srv *Server, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)

	payload := map[string]interface{}{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("unmarshal response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, payload
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec, _ := doJSON(t, srv, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rec.Code)
		}
	}
}

func TestIncomeAndTotals(t *testing.T) {
	srv := newTestServer(t)

	rec, _ := doJSON(t, srv, http.MethodPost, "/api/income", `{"amount":"10000"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("income status = %d body = %s", rec.Code, rec.Body.String())
	}

	rec, _ = doJSON(t, srv, http.MethodPost, "/api/expenses", `{"category":"Rent","amount":"6200"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expense status = %d body = %s", rec.Code, rec.Body.String())
	}

	rec, payload := doJSON(t, srv, http.MethodGet, "/api/totals", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("totals status = %d", rec.Code)
	}
	if payload["income"].(float64) != 10000 {
		t.Errorf("income = %v", payload["income"])
	}
	if payload["total_expenses"].(float64) != 6200 {
		t.Errorf("total_expenses = %v", payload["total_expenses"])
	}
	if payload["balance"].(float64) != 3800 {
		t.Errorf("balance = %v", payload["balance"])
	}
}

func TestInvalidAmountRejected(t *testing.T) {
	srv := newTestServer(t)

	rec, _ := doJSON(t, srv, http.MethodPost, "/api/income", `{"amount":"abc"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestExpenseMergeNeedsConfirmation(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/api/income", `{"amount":"10000"}`)
	doJSON(t, srv, http.MethodPost, "/api/expenses", `{"category":"Groceries","amount":"1000"}`)

	// Same category without confirm is rejected.
	rec, _ := doJSON(t, srv, http.MethodPost, "/api/expenses", `{"category":"groceries","amount":"200"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("unconfirmed merge status = %d", rec.Code)
	}

	rec, payload := doJSON(t, srv, http.MethodPost, "/api/expenses?confirm=true", `{"category":"groceries","amount":"200"}`)
	if rec.Code != http.StatusOK || payload["outcome"] != "merged" {
		t.Fatalf("confirmed merge status = %d payload = %v", rec.Code, payload)
	}

	_, payload = doJSON(t, srv, http.MethodGet, "/api/expenses", "")
	list := payload["expenses"].([]interface{})
	if len(list) != 1 {
		t.Fatalf("expenses = %v", list)
	}
	entry := list[0].(map[string]interface{})
	if entry["amount"].(float64) != 1200 {
		t.Errorf("merged amount = %v", entry["amount"])
	}
	if entry["category"] != "Groceries" {
		t.Errorf("category kept first casing, got %v", entry["category"])
	}
}

func TestDeclinedExpenseKeepsCachedViews(t *testing.T) {
	srv := newTestServer(t)

	rec, _ := doJSON(t, srv, http.MethodPost, "/api/income", `{"amount":"10000"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("income status = %d", rec.Code)
	}
	rec, _ = doJSON(t, srv, http.MethodPost, "/api/expenses", `{"category":"Groceries","amount":"1200"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expense status = %d", rec.Code)
	}

	rec, _ = doJSON(t, srv, http.MethodGet, "/api/totals", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("totals status = %d", rec.Code)
	}
	if _, hit := srv.totalsCache.Get("u1"); !hit {
		t.Fatal("totals not cached after read")
	}

	// Declining leaves the ledger untouched, so the cached view survives.
	rec, _ = doJSON(t, srv, http.MethodPost, "/api/expenses", `{"category":"groceries","amount":"500"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("unconfirmed duplicate status = %d", rec.Code)
	}
	if _, hit := srv.totalsCache.Get("u1"); !hit {
		t.Error("declined add evicted the totals cache")
	}

	// A confirmed merge mutates and must evict.
	rec, _ = doJSON(t, srv, http.MethodPost, "/api/expenses?confirm=true", `{"category":"groceries","amount":"500"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("merge status = %d", rec.Code)
	}
	if _, hit := srv.totalsCache.Get("u1"); hit {
		t.Error("merge left a stale totals cache entry")
	}
}

func TestGoalLifecycle(t *testing.T) {
	srv := newTestServer(t)

	rec, payload := doJSON(t, srv, http.MethodPost, "/api/goals", `{"name":"Laptop","target":"15000"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("goal status = %d body = %s", rec.Code, rec.Body.String())
	}
	goal := payload["goal"].(map[string]interface{})
	id := int64(goal["id"].(float64))

	rec, _ = doJSON(t, srv, http.MethodPost, "/api/goals/contribute", `{"id":"`+strconv.FormatInt(id, 10)+`","amount":"5000"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("contribute status = %d body = %s", rec.Code, rec.Body.String())
	}

	_, payload = doJSON(t, srv, http.MethodGet, "/api/goals", "")
	g := payload["goals"].([]interface{})[0].(map[string]interface{})
	if g["saved"].(float64) != 5000 {
		t.Errorf("saved = %v", g["saved"])
	}
	if g["progress"].(float64) < 33 || g["progress"].(float64) > 34 {
		t.Errorf("progress = %v", g["progress"])
	}

	// Deleting without confirm is refused, nothing changes.
	rec, _ = doJSON(t, srv, http.MethodDelete, "/api/goals?id="+strconv.FormatInt(id, 10), "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("unconfirmed delete status = %d", rec.Code)
	}

	rec, _ = doJSON(t, srv, http.MethodDelete, "/api/goals?id="+strconv.FormatInt(id, 10)+"&confirm=true", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec, _ = doJSON(t, srv, http.MethodDelete, "/api/goals?id="+strconv.FormatInt(id, 10)+"&confirm=true", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("repeat delete status = %d", rec.Code)
	}
}

func TestAdvice(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/api/income", `{"amount":"10000"}`)
	doJSON(t, srv, http.MethodPost, "/api/expenses", `{"category":"Rent","amount":"500"}`)

	rec, payload := doJSON(t, srv, http.MethodGet, "/api/advice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("advice status = %d", rec.Code)
	}
	if payload["tier"] != "positive" {
		t.Errorf("tier = %v", payload["tier"])
	}

	// The advice cache is invalidated on mutation, so fresh data shows up.
	doJSON(t, srv, http.MethodPost, "/api/expenses", `{"category":"Car","amount":"9000"}`)
	rec, payload = doJSON(t, srv, http.MethodGet, "/api/advice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("advice status = %d", rec.Code)
	}
	if payload["tier"] != "warning" {
		t.Errorf("tier after mutation = %v", payload["tier"])
	}
}

func TestSaveLoadClear(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/api/income", `{"amount":"10000"}`)
	doJSON(t, srv, http.MethodPost, "/api/expenses", `{"category":"Rent","amount":"5000"}`)

	rec, _ := doJSON(t, srv, http.MethodPost, "/api/save", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d", rec.Code)
	}

	rec, _ = doJSON(t, srv, http.MethodPost, "/api/load", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("load status = %d", rec.Code)
	}

	rec, _ = doJSON(t, srv, http.MethodPost, "/api/clear", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("clear status = %d", rec.Code)
	}

	rec, _ = doJSON(t, srv, http.MethodPost, "/api/load", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("load after clear status = %d", rec.Code)
	}
}

func TestImportExportTemplate(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/api/income", `{"amount":"20000"}`)

	csv := "Category,Amount\nRent,5000\n,abc\nFood,200\n"
	req := httptest.NewRequest(http.MethodPost, "/api/import?confirm=true", strings.NewReader(csv))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("import status = %d body = %s", rec.Code, rec.Body.String())
	}
	payload := map[string]interface{}{}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if payload["imported"].(float64) != 2 || payload["skipped"].(float64) != 1 {
		t.Fatalf("import payload = %v", payload)
	}

	// Unconfirmed import leaves the ledger untouched.
	req = httptest.NewRequest(http.MethodPost, "/api/import", strings.NewReader("Category,Amount\nOther,10\n"))
	rec = httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("unconfirmed import status = %d", rec.Code)
	}

	rec, _ = doJSON(t, srv, http.MethodGet, "/api/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != "Category,Amount\nRent,5000\nFood,200\n" {
		t.Fatalf("export = %q", got)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "budget_export_") {
		t.Errorf("content disposition = %q", cd)
	}

	rec, _ = doJSON(t, srv, http.MethodGet, "/api/template", "")
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Body.String(), "Category,Amount\n") {
		t.Fatalf("template status = %d body = %q", rec.Code, rec.Body.String())
	}
}

func TestIdentityEndpoints(t *testing.T) {
	kv := storage.NewMemory()
	registry := identity.NewRegistry(kv)
	taxCfg, err := tax.ByName("monthly")
	if err != nil {
		t.Fatal(err)
	}
	svc := services.NewBudgetService(
		storage.NewHistoryGateway(kv),
		registry,
		nil,
		taxCfg,
		budget.DefaultBands(),
		budget.DefaultPolicy(),
	)
	srv := NewServer(":0", svc, registry, registry)
	t.Cleanup(func() { srv.caches.Stop(); srv.rateLimiter.stop() })

	rec, _ := doJSON(t, srv, http.MethodPost, "/api/income", `{"amount":"1000"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("income without login status = %d", rec.Code)
	}

	rec, _ = doJSON(t, srv, http.MethodPost, "/api/register", `{"name":"Thandi","email":"t@example.com","password":"pw"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d body = %s", rec.Code, rec.Body.String())
	}

	rec, _ = doJSON(t, srv, http.MethodPost, "/api/register", `{"name":"Other","email":"T@Example.com","password":"pw"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate email status = %d", rec.Code)
	}

	rec, _ = doJSON(t, srv, http.MethodPost, "/api/login", `{"email":"t@example.com","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d", rec.Code)
	}

	rec, _ = doJSON(t, srv, http.MethodPost, "/api/login", `{"email":"t@example.com","password":"pw"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d body = %s", rec.Code, rec.Body.String())
	}

	rec, _ = doJSON(t, srv, http.MethodPost, "/api/income", `{"amount":"1000"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("income after login status = %d", rec.Code)
	}

	rec, _ = doJSON(t, srv, http.MethodPost, "/api/logout", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", rec.Code)
	}
}

