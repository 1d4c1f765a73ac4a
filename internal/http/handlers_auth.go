package http

import (
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/auth"
	"fintrack/internal/contract"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	creds, ok := decodeJSON[contract.Credentials](w, r)
	if !ok {
		return
	}
	if fe := creds.Validate(); fe != nil {
		writeFieldError(w, fe)
		return
	}

	user, err := s.auth.Register(r.Context(), creds.Username, creds.Password)
	if errors.Is(err, auth.ErrUsernameTaken) {
		writeMessage(w, http.StatusConflict, "Username already exists")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Registration failed", "error", err, "username", creds.Username)
		writeMessage(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	writeJSON(w, contract.AuthRegister.Success, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	creds, ok := decodeJSON[contract.Credentials](w, r)
	if !ok {
		return
	}
	if fe := creds.Validate(); fe != nil {
		writeFieldError(w, fe)
		return
	}

	user, cookieValue, err := s.auth.Login(r.Context(), creds.Username, creds.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeMessage(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Login failed", "error", err, "username", creds.Username)
		writeMessage(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    cookieValue,
		Path:     "/",
		MaxAge:   int(s.sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, contract.AuthLogin.Success, user)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, user userContext) {
	if err := s.auth.Logout(r.Context(), user.SessionCookie); err != nil && !errors.Is(err, auth.ErrNoSession) {
		slog.ErrorContext(r.Context(), "Logout failed", "error", err, "user_id", user.ID)
		writeMessage(w, http.StatusInternalServerError, "Failed to log out")
		return
	}

	// Expire the cookie client-side too; the session row is already gone.
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, contract.AuthLogout.Success, messageResponse{Message: "Logged out"})
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request, user userContext) {
	writeJSON(w, contract.AuthUser.Success, user.User)
}
