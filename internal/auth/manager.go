package auth

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"sync"
	"time"
)

var (
	CookieName     = "pp-auth"
	cookieLifespan = 24 * time.Hour
)

// TokenStore holds issued panel login tokens
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[string]TokenData
	now    func() time.Time
}

// TokenData describes who a token was issued to
type TokenData struct {
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// NewTokenStore returns an empty store
func NewTokenStore() *TokenStore {
	return &TokenStore{
		tokens: make(map[string]TokenData),
		now:    time.Now,
	}
}

// Tokens is the global token store
var Tokens = NewTokenStore()

// GenerateToken creates a random token
func GenerateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// Issue creates a new token for the user
func (s *TokenStore) Issue(username string) (string, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.tokens[token] = TokenData{
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(cookieLifespan),
	}
	return token, nil
}

// Validate checks if a token is valid and returns the username
// Expired tokens are dropped
func (s *TokenStore) Validate(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, exists := s.tokens[token]
	if !exists {
		return "", false
	}
	if s.now().After(data.ExpiresAt) {
		delete(s.tokens, token)
		return "", false
	}
	return data.Username, true
}

// Revoke removes a token (logout)
func (s *TokenStore) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// Len returns the number of stored tokens, expired ones included
func (s *TokenStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

// CreateSession issues a token from the global store
func CreateSession(username string) (string, error) {
	return Tokens.Issue(username)
}

// ValidateSession validates a token against the global store
func ValidateSession(token string) (string, bool) {
	return Tokens.Validate(token)
}

// DeleteSession revokes a token from the global store
func DeleteSession(token string) {
	Tokens.Revoke(token)
}

// SetCookie sets an HTTP cookie with the session token
func SetCookie(w http.ResponseWriter, token string) {
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   false, // Set to true in production with HTTPS
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(cookieLifespan),
	}
	http.SetCookie(w, cookie)
}

// GetTokenFromCookie extracts the session token from HTTP request cookies
func GetTokenFromCookie(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", false
	}
	return cookie.Value, true
}

// ClearCookie removes the session cookie
func ClearCookie(w http.ResponseWriter) {
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Unix(0, 0), // Expired time
	}
	http.SetCookie(w, cookie)
}

// GetTokenFromHeader extracts the session token from Authorization header
func GetTokenFromHeader(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	// Support both "Bearer token" and "token" formats
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return token, true
	}
	return authHeader, true
}

// TokenFromCookieHeader extracts the session token from a raw Cookie header
func TokenFromCookieHeader(header string) string {
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if token, ok := strings.CutPrefix(part, CookieName+"="); ok {
			return token
		}
	}
	return ""
}

// IsAuthenticated checks if the request has a valid session (cookie or header)
func IsAuthenticated(r *http.Request) (string, bool) {
	// Try cookie first
	token, exists := GetTokenFromCookie(r)

	// If no cookie, try Authorization header
	if !exists {
		token, exists = GetTokenFromHeader(r)
		if !exists {
			return "", false
		}
	}

	return ValidateSession(token)
}
