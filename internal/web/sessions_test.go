package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"powerpanel/internal/auth"
	"powerpanel/internal/system"
	"powerpanel/internal/winapi"
)

func testSessionService() *SessionService {
	return &SessionService{
		log: logr.Discard(),
		list: func(context.Context) ([]system.SessionDetails, error) {
			return []system.SessionDetails{
				{ID: 0, Info: &winapi.SessionInfo{State: winapi.StateDisconnected}},
				{ID: 2, Info: &winapi.SessionInfo{State: winapi.StateActive, UserName: "alice"}, Address: "10.0.0.5"},
			}, nil
		},
		get: func(_ context.Context, id uint32) (*system.SessionDetails, error) {
			if id == 99 {
				return nil, winapi.ErrNotImplemented
			}
			return &system.SessionDetails{ID: id}, nil
		},
	}
}

func TestSessionIDFromPayload(t *testing.T) {
	tests := []struct {
		name    string
		data    []any
		id      uint32
		wantErr bool
	}{
		{"map number", []any{map[string]any{"id": float64(3)}}, 3, false},
		{"map string", []any{map[string]any{"id": "7"}}, 7, false},
		{"bare", []any{float64(2)}, 2, false},
		{"nested", []any{[]any{map[string]any{"id": 5}}}, 5, false},
		{"empty", nil, 0, true},
		{"missing id", []any{map[string]any{"session": 1}}, 0, true},
		{"negative", []any{map[string]any{"id": -1}}, 0, true},
		{"garbage", []any{"abc"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := sessionIDFromPayload(tt.data)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, id)
		})
	}
}

func TestSessionEvents(t *testing.T) {
	service := testSessionService()
	rec := &recorder{}

	service.handleList(rec.emit)
	sessions, ok := rec.last("sessions")
	require.True(t, ok)
	assert.Len(t, sessions, 2)

	service.handleGet(rec.emit, map[string]any{"id": 4})
	session, ok := rec.last("session")
	require.True(t, ok)
	assert.Equal(t, uint32(4), session.(*system.SessionDetails).ID)

	service.handleGet(rec.emit, map[string]any{"id": 99})
	msg, ok := rec.last("sessions_error")
	require.True(t, ok)
	assert.Contains(t, msg, "session 99")
}

func TestSessionListError(t *testing.T) {
	service := testSessionService()
	service.list = func(context.Context) ([]system.SessionDetails, error) {
		return nil, errors.New("access denied")
	}
	rec := &recorder{}

	service.handleList(rec.emit)
	msg, ok := rec.last("sessions_error")
	require.True(t, ok)
	assert.Contains(t, msg, "access denied")
}

func TestSessionAPI(t *testing.T) {
	mux := http.NewServeMux()
	StartSessionAPI(mux, testSessionService())

	token, err := auth.CreateSession("alice")
	require.NoError(t, err)
	t.Cleanup(func() { auth.DeleteSession(token) })

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	rec := get("/api/sessions")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"address":"10.0.0.5"`)

	rec = get("/api/sessions/2")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":2`)

	assert.Equal(t, http.StatusBadRequest, get("/api/sessions/abc").Code)
	assert.Equal(t, http.StatusInternalServerError, get("/api/sessions/99").Code)
}
