package auth

import (
	"net/http"

	"github.com/zishang520/socket.io/servers/socket/v3"
)

// RequireAuth is a middleware that checks authentication for protected routes
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, authenticated := IsAuthenticated(r)
		if !authenticated {
			http.Redirect(w, r, "/pages/login.html", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

// SocketUsername returns the user behind a Socket.IO handshake, taken
// from the auth cookie or, failing that, a "token" field in the
// handshake auth payload
func SocketUsername(client *socket.Socket) (string, bool) {
	handshake := client.Handshake()
	var cookie string
	if cookies, ok := any(handshake.Headers["Cookie"]).([]string); ok && len(cookies) > 0 {
		cookie = cookies[0]
	}
	return ValidateSession(socketToken(cookie, handshake.Auth))
}

func socketToken(cookieHeader string, handshakeAuth any) string {
	if token := TokenFromCookieHeader(cookieHeader); token != "" {
		return token
	}
	if payload, ok := handshakeAuth.(map[string]any); ok {
		if token, ok := payload["token"].(string); ok {
			return token
		}
	}
	return ""
}

// RequireAuthSocketIO is a middleware that checks authentication for protected Socket.IO endpoints
func RequireAuthSocketIO(client *socket.Socket, next func(*socket.ExtendedError)) {
	if _, ok := SocketUsername(client); ok {
		next(nil)
	} else {
		next(socket.NewExtendedError("Unauthorized", ""))
	}
}
