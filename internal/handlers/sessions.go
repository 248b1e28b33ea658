package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// SessionCookie carries the session token for browser clients
const SessionCookie = "storeadmin_session"

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.methodNotAllowed(w)
		return
	}

	var request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeMessage(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	session, err := h.auth.Login(request.Email, request.Password)
	if err != nil {
		h.logger.Warn("Failed login", "email", request.Email, "remote", r.RemoteAddr)
		h.writeMessage(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	h.writeJSON(w, http.StatusOK, "Signed in", map[string]any{
		"token": session.Token,
		"user":  session.User,
	})
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.methodNotAllowed(w)
		return
	}
	h.auth.Logout(sessionToken(r))
	http.SetCookie(w, &http.Cookie{
		Name:    SessionCookie,
		Value:   "",
		Path:    "/",
		Expires: time.Unix(0, 0),
		MaxAge:  -1,
	})
	h.writeMessage(w, "Signed out", http.StatusOK)
}

// sessionToken reads the bearer token, falling back to the session cookie
func sessionToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}
