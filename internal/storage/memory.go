package storage

import (
	"context"
	"sync"
	"time"

	"fintrack/internal/core"
)

// MemoryStore keeps everything in maps behind a mutex. It backs the
// "memory" data backend and most of the test suite.
type MemoryStore struct {
	mu sync.Mutex

	users        map[int64]core.User
	usersByName  map[string]int64
	transactions map[int64]core.Transaction
	sessions     map[string]Session

	nextUserID int64
	nextTxID   int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[int64]core.User),
		usersByName:  make(map[string]int64),
		transactions: make(map[int64]core.Transaction),
		sessions:     make(map[string]Session),
		nextUserID:   1,
		nextTxID:     1,
	}
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) GetUser(ctx context.Context, id int64) (core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return core.User{}, ErrNotFound
	}
	return u, nil
}

func (m *MemoryStore) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.usersByName[username]
	if !ok {
		return core.User{}, ErrNotFound
	}
	return m.users[id], nil
}

func (m *MemoryStore) CreateUser(ctx context.Context, username, passwordHash string) (core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.usersByName[username]; exists {
		return core.User{}, ErrConflict
	}
	u := core.User{ID: m.nextUserID, Username: username, Password: passwordHash}
	m.nextUserID++
	m.users[u.ID] = u
	m.usersByName[username] = u.ID
	return u, nil
}

func (m *MemoryStore) GetTransactions(ctx context.Context, userID int64, f core.TransactionFilter) ([]core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := make([]core.Transaction, 0)
	// Map iteration order is random; collect then sort by id for a
	// stable listing that matches the SQLite store.
	for id := int64(1); id < m.nextTxID; id++ {
		t, ok := m.transactions[id]
		if !ok || t.UserID != userID {
			continue
		}
		list = append(list, t)
	}
	return f.Apply(list), nil
}

func (m *MemoryStore) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.transactions[id]
	if !ok {
		return core.Transaction{}, ErrNotFound
	}
	return t, nil
}

func (m *MemoryStore) CreateTransaction(ctx context.Context, userID int64, in core.TransactionInput) (core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := core.Transaction{
		ID:          m.nextTxID,
		UserID:      userID,
		Amount:      in.Amount,
		Category:    in.Category,
		Merchant:    in.Merchant,
		Date:        in.Date,
		Description: in.Description,
		Type:        in.Type,
	}
	m.nextTxID++
	m.transactions[t.ID] = t
	return t, nil
}

func (m *MemoryStore) UpdateTransaction(ctx context.Context, id int64, upd core.TransactionUpdate) (core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.transactions[id]
	if !ok {
		return core.Transaction{}, ErrNotFound
	}
	next := upd.Apply(current)
	m.transactions[id] = next
	return next, nil
}

func (m *MemoryStore) DeleteTransaction(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.transactions[id]; !ok {
		return ErrNotFound
	}
	delete(m.transactions, id)
	return nil
}

func (m *MemoryStore) CreateSession(ctx context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.ID] = s
	return nil
}

func (m *MemoryStore) GetSession(ctx context.Context, id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, s := range m.sessions {
		if s.ExpiresAt.Before(now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}
