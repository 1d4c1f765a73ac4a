// Package http wires the route contract registry to the persistence
// layer: it authenticates requests, validates bodies against the
// shared schemas and maps errors to status codes.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/contract"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// SessionCookieName is the cookie carrying the signed session id.
const SessionCookieName = "fintrack_session"

type Server struct {
	http.Server
	store       storage.Store
	auth        *auth.Service
	sessionTTL  time.Duration
	rateLimiter *rateLimiter

	// Per-user transaction list cache; invalidated on every mutation.
	listCache    *cache.LRU[[]core.Transaction]
	cacheJanitor *cache.Janitor

	shutdownOnce sync.Once
}

// NewServer configures all routes from the contract registry and
// returns a ready-to-run server.
func NewServer(addr string, store storage.Store, authsvc *auth.Service, sessionTTL time.Duration, rateLimitRPM int) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:       store,
		auth:        authsvc,
		sessionTTL:  sessionTTL,
		rateLimiter: newRateLimiter(rateLimitRPM),
		listCache:   cache.NewLRU[[]core.Transaction](500, 5*time.Minute),
	}
	s.cacheJanitor = cache.NewJanitor(s.listCache)
	s.cacheJanitor.Start(10 * time.Minute)

	mux.HandleFunc(contract.AuthRegister.Pattern(), s.withCommon(s.handleRegister))
	mux.HandleFunc(contract.AuthLogin.Pattern(), s.withCommon(s.handleLogin))
	mux.HandleFunc(contract.AuthLogout.Pattern(), s.withCommon(s.requireAuth(s.handleLogout)))
	mux.HandleFunc(contract.AuthUser.Pattern(), s.withCommon(s.requireAuth(s.handleCurrentUser)))

	mux.HandleFunc(contract.TransactionList.Pattern(), s.withCommon(s.requireAuth(s.handleListTransactions)))
	mux.HandleFunc(contract.TransactionGet.Pattern(), s.withCommon(s.requireAuth(s.handleGetTransaction)))
	mux.HandleFunc(contract.TransactionCreate.Pattern(), s.withCommon(s.requireAuth(s.handleCreateTransaction)))
	mux.HandleFunc(contract.TransactionUpdate.Pattern(), s.withCommon(s.requireAuth(s.handleUpdateTransaction)))
	mux.HandleFunc(contract.TransactionDelete.Pattern(), s.withCommon(s.requireAuth(s.handleDeleteTransaction)))

	mux.HandleFunc(contract.DashboardSummary.Pattern(), s.withCommon(s.requireAuth(s.handleDashboardSummary)))

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	return s
}

// Shutdown stops the cleanup goroutines before draining the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheJanitor.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// userTransactions fetches a user's transactions, serving unfiltered
// reads from the list cache. Filtered reads always hit the store; the
// cache only holds the full per-user list.
func (s *Server) userTransactions(ctx context.Context, userID int64, f core.TransactionFilter) ([]core.Transaction, error) {
	key := strconv.FormatInt(userID, 10)
	if f.IsZero() {
		if list, found := s.listCache.Get(key); found {
			slog.DebugContext(ctx, "Transaction list cache hit", "user_id", userID, "count", len(list))
			out := make([]core.Transaction, len(list))
			copy(out, list)
			return out, nil
		}
	}

	list, err := s.store.GetTransactions(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	if f.IsZero() {
		s.listCache.Set(key, list)
	}
	return list, nil
}

func (s *Server) invalidateTransactions(userID int64) {
	s.listCache.Delete(strconv.FormatInt(userID, 10))
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
