package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

var (
	ErrUsernameTaken     = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNoSession         = errors.New("no active session")
)

// Service implements registration, login and session resolution on
// top of the user and session stores.
type Service struct {
	users    storage.UserStore
	sessions storage.SessionStore
	secret   []byte
	ttl      time.Duration
}

func NewService(users storage.UserStore, sessions storage.SessionStore, secret string, ttl time.Duration) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		secret:   []byte(secret),
		ttl:      ttl,
	}
}

// Register hashes the password and creates the user. The returned
// user carries the hash internally but the http layer never
// serializes it.
func (s *Service) Register(ctx context.Context, username, password string) (core.User, error) {
	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return core.User{}, ErrUsernameTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return core.User{}, fmt.Errorf("check username: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, username, hash)
	if errors.Is(err, storage.ErrConflict) {
		// Lost the race with a concurrent registration.
		return core.User{}, ErrUsernameTaken
	}
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User registered", "user_id", user.ID, "username", username)
	return user, nil
}

// Login verifies the credentials and establishes a session, returning
// the signed cookie value. Unknown usernames and wrong passwords are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (core.User, string, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		return core.User{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return core.User{}, "", fmt.Errorf("look up user: %w", err)
	}

	ok, err := VerifyPassword(user.Password, password)
	if err != nil {
		return core.User{}, "", fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return core.User{}, "", ErrInvalidCredentials
	}

	id, err := newSessionID()
	if err != nil {
		return core.User{}, "", fmt.Errorf("generate session id: %w", err)
	}
	sess := storage.Session{
		ID:        id,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.ttl),
	}
	if err := s.sessions.CreateSession(ctx, sess); err != nil {
		return core.User{}, "", fmt.Errorf("create session: %w", err)
	}

	slog.InfoContext(ctx, "User logged in", "user_id", user.ID, "username", username)
	return user, s.sign(id), nil
}

// CurrentUser resolves a signed cookie value to its user. Returns
// ErrNoSession for tampered, unknown or expired sessions.
func (s *Service) CurrentUser(ctx context.Context, cookieValue string) (core.User, error) {
	id, ok := s.verify(cookieValue)
	if !ok {
		return core.User{}, ErrNoSession
	}

	sess, err := s.sessions.GetSession(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return core.User{}, ErrNoSession
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get session: %w", err)
	}
	if time.Now().After(sess.ExpiresAt) {
		// Expired; drop it eagerly rather than waiting for the janitor.
		_ = s.sessions.DeleteSession(ctx, id)
		return core.User{}, ErrNoSession
	}

	user, err := s.users.GetUser(ctx, sess.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return core.User{}, ErrNoSession
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get session user: %w", err)
	}
	return user, nil
}

// Logout invalidates the session server-side.
func (s *Service) Logout(ctx context.Context, cookieValue string) error {
	id, ok := s.verify(cookieValue)
	if !ok {
		return ErrNoSession
	}
	if err := s.sessions.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// RunJanitor purges expired sessions every interval until ctx is
// cancelled.
func (s *Service) RunJanitor(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := s.sessions.DeleteExpiredSessions(ctx, time.Now())
			if err != nil {
				slog.WarnContext(ctx, "Session cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				slog.DebugContext(ctx, "Expired sessions removed", "count", n)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// sign produces the cookie value "<id>.<hexHMAC>".
func (s *Service) sign(id string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(id))
	return id + "." + hex.EncodeToString(mac.Sum(nil))
}

// verify checks the cookie signature and returns the bare session id.
func (s *Service) verify(cookieValue string) (string, bool) {
	id, sig, ok := strings.Cut(cookieValue, ".")
	if !ok || id == "" {
		return "", false
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(id))
	expected := hex.EncodeToString(mac.Sum(nil))
	if subtle.ConstantTimeCompare([]byte(sig), []byte(expected)) != 1 {
		return "", false
	}
	return id, true
}

func newSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
