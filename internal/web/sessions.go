package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/cast"
	"github.com/zishang520/socket.io/servers/socket/v3"

	"powerpanel/internal/auth"
	"powerpanel/internal/netx"
	"powerpanel/internal/system"
)

const sessionQueryTimeout = 10 * time.Second

var errMissingSessionID = errors.New("session id is required")

// SessionService exposes terminal service sessions over Socket.IO and HTTP
type SessionService struct {
	log  logr.Logger
	list func(context.Context) ([]system.SessionDetails, error)
	get  func(context.Context, uint32) (*system.SessionDetails, error)
}

// NewSessionService returns a service backed by the native session queries
func NewSessionService(log logr.Logger) *SessionService {
	return &SessionService{
		log:  log,
		list: system.GetSessions,
		get:  system.GetSession,
	}
}

// SetupSessionService registers the /sessions namespace on the server
func SetupSessionService(server *netx.Socket, service *SessionService) {
	namespace := server.GetNamespace("/sessions")

	namespace.AddEvent("list_sessions", func(client *socket.Socket, data ...any) {
		service.handleList(clientEmitter(client))
	})
	namespace.AddEvent("get_session", func(client *socket.Socket, data ...any) {
		service.handleGet(clientEmitter(client), data...)
	})

	namespace.RegisterEvents()
	namespace.AddMiddleware(auth.RequireAuthSocketIO)
}

// StartSessionAPI registers the HTTP session routes with the given mux
func StartSessionAPI(mux *http.ServeMux, service *SessionService) {
	mux.HandleFunc("/api/sessions", auth.RequireAuth(service.serveList))
	mux.HandleFunc("/api/sessions/{id}", auth.RequireAuth(service.serveGet))
}

func (s *SessionService) handleList(emit emitFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), sessionQueryTimeout)
	defer cancel()

	sessions, err := s.list(ctx)
	if err != nil {
		s.log.Error(err, "failed to list sessions")
		emit("sessions_error", fmt.Sprintf("Failed to list sessions: %v", err))
		return
	}
	emit("sessions", sessions)
}

func (s *SessionService) handleGet(emit emitFunc, data ...any) {
	id, err := sessionIDFromPayload(data)
	if err != nil {
		emit("sessions_error", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sessionQueryTimeout)
	defer cancel()

	session, err := s.get(ctx, id)
	if err != nil {
		s.log.Error(err, "failed to query session", "id", id)
		emit("sessions_error", fmt.Sprintf("Failed to query session %d: %v", id, err))
		return
	}
	emit("session", session)
}

func (s *SessionService) serveList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		netx.WriteMethodNotAllowed(w)
		return
	}

	sessions, err := s.list(r.Context())
	if err != nil {
		s.log.Error(err, "failed to list sessions")
		netx.WriteInternalServerError(w, "Failed to list sessions", err)
		return
	}
	netx.WriteSuccess(w, "OK", sessions)
}

func (s *SessionService) serveGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		netx.WriteMethodNotAllowed(w)
		return
	}

	id, err := cast.ToUint32E(r.PathValue("id"))
	if err != nil {
		netx.WriteBadRequest(w, "Invalid session id")
		return
	}

	session, err := s.get(r.Context(), id)
	if err != nil {
		netx.WriteInternalServerError(w, "Failed to query session", err)
		return
	}
	netx.WriteSuccess(w, "OK", session)
}

// sessionIDFromPayload accepts {"id": 3}, {"id": "3"} or a bare id
func sessionIDFromPayload(data []any) (uint32, error) {
	if len(data) == 0 {
		return 0, errMissingSessionID
	}

	raw := data[0]
	if payload, ok := firstPayload(data); ok {
		value, exists := payload["id"]
		if !exists {
			return 0, errMissingSessionID
		}
		raw = value
	} else if nested, ok := raw.([]any); ok {
		return sessionIDFromPayload(nested)
	}

	id, err := cast.ToUint32E(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid session id %v", raw)
	}
	return id, nil
}
