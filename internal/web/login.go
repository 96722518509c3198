package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-logr/logr"

	"powerpanel/internal/auth"
	"powerpanel/internal/netx"
)

// LoginRequest represents the login request payload
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// StartLogin registers all login-related routes with the given mux
func StartLogin(mux *http.ServeMux, log logr.Logger) {
	mux.HandleFunc("/login", handleLogin(log))
	mux.HandleFunc("/logout", handleLogout)
	mux.HandleFunc("/check-auth", handleCheckAuth)
}

// handleLogin processes login requests
func handleLogin(log logr.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		login(log, w, r)
	}
}

func login(log logr.Logger, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		netx.WriteMethodNotAllowed(w)
		return
	}

	var loginReq LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
		netx.WriteBadRequest(w, "Invalid request format")
		return
	}

	if !auth.VerifyPassword(loginReq.Username, loginReq.Password) {
		log.Info("rejected login", "user", loginReq.Username, "remote", r.RemoteAddr)
		netx.WriteUnauthorized(w, "Invalid username or password")
		return
	}

	token, err := auth.CreateSession(loginReq.Username)
	if err != nil {
		netx.WriteInternalServerError(w, "Failed to create session", err)
		return
	}

	auth.SetCookie(w, token)
	log.Info("user logged in", "user", loginReq.Username)

	// Return both cookie (for browser) and token (for frontend token-based auth)
	netx.WriteAuthSuccessWithToken(w, "Login successful", loginReq.Username, token)
}

// handleLogout processes logout requests
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		netx.WriteMethodNotAllowed(w)
		return
	}

	if token, exists := auth.GetTokenFromCookie(r); exists {
		auth.DeleteSession(token)
	}
	auth.ClearCookie(w)

	netx.WriteAuthSuccess(w, "Logout successful", "")
}

// handleCheckAuth checks if the user is authenticated
func handleCheckAuth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		netx.WriteMethodNotAllowed(w)
		return
	}

	username, authenticated := auth.IsAuthenticated(r)
	if !authenticated {
		netx.WriteUnauthorized(w, "Not authenticated")
		return
	}

	netx.WriteAuthSuccess(w, "Authenticated", username)
}
