package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

const sessionCookieName = "session_token"

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Formato de solicitud inválido")
		return
	}

	if err := s.creds.Verify(req.Username, req.Password); err != nil {
		slog.WarnContext(r.Context(), "Login failed", "username", req.Username)
		writeError(w, http.StatusUnauthorized, "Credenciales inválidas")
		return
	}

	token, err := s.sessions.Create()
	if err != nil {
		slog.ErrorContext(r.Context(), "Session creation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.sessions.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	slog.InfoContext(r.Context(), "Login successful", "username", req.Username)
	writeMessage(w, http.StatusOK, "Inicio de sesión exitoso")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		s.sessions.Revoke(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	writeMessage(w, http.StatusOK, "Sesión cerrada")
}
