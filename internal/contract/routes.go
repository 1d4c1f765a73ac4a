// Package contract is the single source of truth for the HTTP API:
// every endpoint's method, path template and success status, plus the
// request schemas and their validation rules. The server registers
// handlers from these routes and the client builds requests from
// them, so the two sides cannot drift apart.
package contract

import (
	"net/http"
	"strings"
)

// Route describes one API operation.
type Route struct {
	Name    string
	Method  string
	Path    string // URL template, path parameters in {braces}
	Success int    // status returned on success
}

var (
	AuthRegister = Route{Name: "auth.register", Method: http.MethodPost, Path: "/api/auth/register", Success: http.StatusCreated}
	AuthLogin    = Route{Name: "auth.login", Method: http.MethodPost, Path: "/api/auth/login", Success: http.StatusOK}
	AuthLogout   = Route{Name: "auth.logout", Method: http.MethodPost, Path: "/api/auth/logout", Success: http.StatusOK}
	AuthUser     = Route{Name: "auth.user", Method: http.MethodGet, Path: "/api/auth/user", Success: http.StatusOK}

	TransactionList   = Route{Name: "transactions.list", Method: http.MethodGet, Path: "/api/transactions", Success: http.StatusOK}
	TransactionGet    = Route{Name: "transactions.get", Method: http.MethodGet, Path: "/api/transactions/{id}", Success: http.StatusOK}
	TransactionCreate = Route{Name: "transactions.create", Method: http.MethodPost, Path: "/api/transactions", Success: http.StatusCreated}
	TransactionUpdate = Route{Name: "transactions.update", Method: http.MethodPut, Path: "/api/transactions/{id}", Success: http.StatusOK}
	TransactionDelete = Route{Name: "transactions.delete", Method: http.MethodDelete, Path: "/api/transactions/{id}", Success: http.StatusNoContent}

	DashboardSummary = Route{Name: "dashboard.summary", Method: http.MethodGet, Path: "/api/dashboard/summary", Success: http.StatusOK}
)

// Routes lists every registered route.
func Routes() []Route {
	return []Route{
		AuthRegister, AuthLogin, AuthLogout, AuthUser,
		TransactionList, TransactionGet, TransactionCreate,
		TransactionUpdate, TransactionDelete,
		DashboardSummary,
	}
}

// Pattern returns the "METHOD /path" form accepted by http.ServeMux.
func (r Route) Pattern() string {
	return r.Method + " " + r.Path
}

// URL expands the path template with the given parameter values.
// Unknown placeholders are left untouched.
func (r Route) URL(params map[string]string) string {
	path := r.Path
	for k, v := range params {
		path = strings.ReplaceAll(path, "{"+k+"}", v)
	}
	return path
}
