package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/contract"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type testEnv struct {
	t      *testing.T
	server *httptest.Server
	client *http.Client
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := storage.NewMemoryStore()
	authsvc := auth.NewService(store, store, "test-secret-at-least-16", time.Hour)
	srv := NewServer(":0", store, authsvc, time.Hour, 10000)

	ts := httptest.NewServer(srv.Server.Handler)
	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &testEnv{
		t:      t,
		server: ts,
		client: &http.Client{Jar: jar},
	}
}

// do sends a JSON request through the environment's cookie-holding
// client and returns the response.
func (e *testEnv) do(method, path string, body any) *http.Response {
	e.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		e.t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.client.Do(req)
	if err != nil {
		e.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func (e *testEnv) decode(resp *http.Response, out any) {
	e.t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		e.t.Fatalf("decode response: %v", err)
	}
}

func (e *testEnv) register(username, password string) core.User {
	e.t.Helper()
	resp := e.do("POST", "/api/auth/register", contract.Credentials{Username: username, Password: password})
	if resp.StatusCode != http.StatusCreated {
		e.t.Fatalf("register %s: status %d", username, resp.StatusCode)
	}
	var user core.User
	e.decode(resp, &user)
	return user
}

func (e *testEnv) login(username, password string) {
	e.t.Helper()
	resp := e.do("POST", "/api/auth/login", contract.Credentials{Username: username, Password: password})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		e.t.Fatalf("login %s: status %d", username, resp.StatusCode)
	}
}

func lunchPayload() contract.TransactionPayload {
	return contract.TransactionPayload{
		Amount:      "20.00",
		Category:    "Food",
		Date:        "2024-01-01",
		Description: "Lunch",
		Type:        "expense",
	}
}

func TestRegisterLoginCreateAndSummary(t *testing.T) {
	e := newTestEnv(t)

	user := e.register("alice", "secret1")
	if user.ID == 0 || user.Username != "alice" {
		t.Fatalf("unexpected register response: %+v", user)
	}
	if user.Password != "" {
		t.Fatal("password hash leaked in register response")
	}

	e.login("alice", "secret1")

	resp := e.do("POST", "/api/transactions", lunchPayload())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d", resp.StatusCode)
	}
	var created core.Transaction
	e.decode(resp, &created)
	if created.ID == 0 || created.UserID != user.ID {
		t.Fatalf("unexpected created transaction: %+v", created)
	}
	if created.Amount != "20.00" || created.Type != core.Expense {
		t.Fatalf("payload fields lost: %+v", created)
	}

	resp = e.do("GET", "/api/transactions", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: status %d", resp.StatusCode)
	}
	var list []core.Transaction
	e.decode(resp, &list)
	if len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("listing: %+v", list)
	}

	resp = e.do("GET", "/api/dashboard/summary", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary: status %d", resp.StatusCode)
	}
	var summary core.Summary
	e.decode(resp, &summary)
	if summary.Expense != "20.00" || summary.Balance != "-20.00" {
		t.Fatalf("summary: %+v", summary)
	}
	if len(summary.ByCategory) != 1 || summary.ByCategory[0].Category != "Food" {
		t.Fatalf("breakdown: %+v", summary.ByCategory)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	e := newTestEnv(t)
	e.register("alice", "secret1")

	resp := e.do("POST", "/api/auth/register", contract.Credentials{Username: "alice", Password: "other"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register: status %d", resp.StatusCode)
	}
	var body struct {
		Message string `json:"message"`
	}
	e.decode(resp, &body)
	if body.Message != "Username already exists" {
		t.Fatalf("message = %q", body.Message)
	}
}

func TestRegisterValidation(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do("POST", "/api/auth/register", contract.Credentials{Password: "secret1"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var body struct {
		Message string `json:"message"`
		Field   string `json:"field"`
	}
	e.decode(resp, &body)
	if body.Field != "username" || body.Message == "" {
		t.Fatalf("field error: %+v", body)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	e := newTestEnv(t)
	e.register("alice", "secret1")

	resp := e.do("POST", "/api/auth/login", contract.Credentials{Username: "alice", Password: "wrong"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status %d", resp.StatusCode)
	}
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	e := newTestEnv(t)

	paths := []struct {
		method, path string
	}{
		{"GET", "/api/auth/user"},
		{"GET", "/api/transactions"},
		{"POST", "/api/transactions"},
		{"GET", "/api/transactions/1"},
		{"PUT", "/api/transactions/1"},
		{"DELETE", "/api/transactions/1"},
		{"GET", "/api/dashboard/summary"},
		{"POST", "/api/auth/logout"},
	}
	for _, p := range paths {
		resp := e.do(p.method, p.path, nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s %s: status %d, want 401", p.method, p.path, resp.StatusCode)
		}
	}
}

func TestCurrentUser(t *testing.T) {
	e := newTestEnv(t)
	registered := e.register("alice", "secret1")
	e.login("alice", "secret1")

	resp := e.do("GET", "/api/auth/user", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var user core.User
	e.decode(resp, &user)
	if user.ID != registered.ID || user.Username != "alice" {
		t.Fatalf("current user: %+v", user)
	}
}

func TestLogout(t *testing.T) {
	e := newTestEnv(t)
	e.register("alice", "secret1")
	e.login("alice", "secret1")

	resp := e.do("POST", "/api/auth/logout", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: status %d", resp.StatusCode)
	}

	resp = e.do("GET", "/api/auth/user", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("session survived logout: status %d", resp.StatusCode)
	}
}

func TestTransactionOwnership(t *testing.T) {
	e := newTestEnv(t)

	e.register("alice", "secret1")
	e.login("alice", "secret1")
	resp := e.do("POST", "/api/transactions", lunchPayload())
	var created core.Transaction
	e.decode(resp, &created)

	// Bob cannot see, update, or delete alice's transaction; every
	// probe reads as if it did not exist.
	e.register("bob", "secret2")
	e.login("bob", "secret2")

	path := fmt.Sprintf("/api/transactions/%d", created.ID)
	for _, probe := range []struct {
		method string
		body   any
	}{
		{"GET", nil},
		{"PUT", contract.TransactionPatch{}},
		{"DELETE", nil},
	} {
		resp := e.do(probe.method, path, probe.body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("%s %s as bob: status %d, want 404", probe.method, path, resp.StatusCode)
		}
	}

	// Alice still owns it.
	e.login("alice", "secret1")
	resp = e.do("GET", path, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("owner read: status %d", resp.StatusCode)
	}
}

func TestUpdateTransaction(t *testing.T) {
	e := newTestEnv(t)
	e.register("alice", "secret1")
	e.login("alice", "secret1")

	resp := e.do("POST", "/api/transactions", lunchPayload())
	var created core.Transaction
	e.decode(resp, &created)

	amount := "25.50"
	desc := "Team lunch"
	resp = e.do("PUT", fmt.Sprintf("/api/transactions/%d", created.ID), contract.TransactionPatch{
		Amount:      &amount,
		Description: &desc,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: status %d", resp.StatusCode)
	}
	var updated core.Transaction
	e.decode(resp, &updated)
	if updated.Amount != "25.50" || updated.Description != "Team lunch" {
		t.Fatalf("update not applied: %+v", updated)
	}
	if updated.Category != "Food" {
		t.Fatalf("untouched field changed: %+v", updated)
	}

	badType := "transfer"
	resp = e.do("PUT", fmt.Sprintf("/api/transactions/%d", created.ID), contract.TransactionPatch{Type: &badType})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid patch: status %d", resp.StatusCode)
	}
}

func TestDeleteTransaction(t *testing.T) {
	e := newTestEnv(t)
	e.register("alice", "secret1")
	e.login("alice", "secret1")

	resp := e.do("POST", "/api/transactions", lunchPayload())
	var created core.Transaction
	e.decode(resp, &created)

	path := fmt.Sprintf("/api/transactions/%d", created.ID)
	resp = e.do("DELETE", path, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: status %d", resp.StatusCode)
	}

	resp = e.do("DELETE", path, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete: status %d", resp.StatusCode)
	}

	resp = e.do("GET", "/api/transactions", nil)
	var list []core.Transaction
	e.decode(resp, &list)
	if len(list) != 0 {
		t.Fatalf("deleted transaction still listed: %+v", list)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	e := newTestEnv(t)
	e.register("alice", "secret1")
	e.login("alice", "secret1")

	cases := []struct {
		name   string
		mutate func(*contract.TransactionPayload)
		field  string
	}{
		{"bad amount", func(p *contract.TransactionPayload) { p.Amount = "-5" }, "amount"},
		{"bad date", func(p *contract.TransactionPayload) { p.Date = "someday" }, "date"},
		{"bad type", func(p *contract.TransactionPayload) { p.Type = "loan" }, "type"},
		{"missing description", func(p *contract.TransactionPayload) { p.Description = "" }, "description"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := lunchPayload()
			tc.mutate(&p)
			resp := e.do("POST", "/api/transactions", p)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status %d", resp.StatusCode)
			}
			var body struct {
				Field string `json:"field"`
			}
			e.decode(resp, &body)
			if body.Field != tc.field {
				t.Fatalf("field = %q, want %q", body.Field, tc.field)
			}
		})
	}

	// Malformed JSON body.
	req, _ := http.NewRequest("POST", e.server.URL+"/api/transactions", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.client.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("malformed body: status %d", resp.StatusCode)
	}
}

func TestListTransactionsFiltered(t *testing.T) {
	e := newTestEnv(t)
	e.register("alice", "secret1")
	e.login("alice", "secret1")

	payloads := []contract.TransactionPayload{
		{Amount: "20.00", Category: "Food", Merchant: "Corner Deli", Date: "2024-01-01", Description: "Lunch", Type: "expense"},
		{Amount: "50.00", Category: "Transport", Date: "2024-01-05", Description: "Uber ride", Type: "expense"},
		{Amount: "5000.00", Category: "Salary", Date: "2024-01-10", Description: "Monthly salary", Type: "income"},
	}
	for _, p := range payloads {
		resp := e.do("POST", "/api/transactions", p)
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create: status %d", resp.StatusCode)
		}
	}

	cases := []struct {
		name  string
		query url.Values
		want  int
	}{
		{"by category", url.Values{contract.QueryCategory: {"Food"}}, 1},
		{"by search", url.Values{contract.QuerySearch: {"uber"}}, 1},
		{"by merchant", url.Values{contract.QueryMerchant: {"deli"}}, 1},
		{"by date range", url.Values{
			contract.QueryStartDate: {"2024-01-05"},
			contract.QueryEndDate:   {"2024-01-10"},
		}, 2},
		{"no match", url.Values{contract.QueryCategory: {"Rent"}}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := e.do("GET", "/api/transactions?"+tc.query.Encode(), nil)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status %d", resp.StatusCode)
			}
			var list []core.Transaction
			e.decode(resp, &list)
			if len(list) != tc.want {
				t.Fatalf("got %d transactions, want %d", len(list), tc.want)
			}
		})
	}

	resp := e.do("GET", "/api/transactions?"+url.Values{contract.QueryStartDate: {"never"}}.Encode(), nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad filter date: status %d", resp.StatusCode)
	}
}

func TestListCacheInvalidatedOnMutation(t *testing.T) {
	e := newTestEnv(t)
	e.register("alice", "secret1")
	e.login("alice", "secret1")

	// Prime the cache with an empty list.
	resp := e.do("GET", "/api/transactions", nil)
	var list []core.Transaction
	e.decode(resp, &list)
	if len(list) != 0 {
		t.Fatalf("expected empty listing, got %+v", list)
	}

	resp = e.do("POST", "/api/transactions", lunchPayload())
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d", resp.StatusCode)
	}

	resp = e.do("GET", "/api/transactions", nil)
	e.decode(resp, &list)
	if len(list) != 1 {
		t.Fatalf("stale listing after create: %+v", list)
	}
}

func TestHealthEndpoints(t *testing.T) {
	e := newTestEnv(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		resp := e.do("GET", path, nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: status %d", path, resp.StatusCode)
		}
	}
}

func TestRateLimitOnMutations(t *testing.T) {
	store := storage.NewMemoryStore()
	authsvc := auth.NewService(store, store, "test-secret-at-least-16", time.Hour)
	srv := NewServer(":0", store, authsvc, time.Hour, 2)
	ts := httptest.NewServer(srv.Server.Handler)
	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	var last int
	for i := 0; i < 5; i++ {
		resp, err := http.Post(ts.URL+"/api/auth/login", "application/json", bytes.NewReader([]byte(`{}`)))
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		resp.Body.Close()
		last = resp.StatusCode
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after exceeding the limit, got %d", last)
	}
}
