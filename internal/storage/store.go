// Package storage persists users, transactions and sessions. Two
// implementations exist: SQLite for real deployments and an in-memory
// store for tests and throwaway runs, selected by the DATA_BACKEND
// configuration.
package storage

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/core"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a uniqueness constraint is violated.
	ErrConflict = errors.New("already exists")
)

// Session is one server-side authenticated context. The cookie only
// carries the opaque ID; logout and expiry are authoritative here.
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
}

type UserStore interface {
	GetUser(ctx context.Context, id int64) (core.User, error)
	GetUserByUsername(ctx context.Context, username string) (core.User, error)
	CreateUser(ctx context.Context, username, passwordHash string) (core.User, error)
}

type TransactionStore interface {
	// GetTransactions returns the user's transactions matching f,
	// ordered by id. Filtering happens in memory after a full
	// per-user fetch; fine at personal-ledger volumes.
	GetTransactions(ctx context.Context, userID int64, f core.TransactionFilter) ([]core.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	CreateTransaction(ctx context.Context, userID int64, in core.TransactionInput) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, id int64, upd core.TransactionUpdate) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
}

type SessionStore interface {
	CreateSession(ctx context.Context, s Session) error
	GetSession(ctx context.Context, id string) (Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Store is the full persistence surface.
type Store interface {
	UserStore
	TransactionStore
	SessionStore

	Close() error
}
