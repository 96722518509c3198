package system

import (
	"context"
	"fmt"
	"net/netip"

	"powerpanel/internal/winapi"
)

// sessionQueries is the subset of *winapi.Session used here
type sessionQueries interface {
	ID() uint32
	Info() (*winapi.SessionInfo, error)
	Address() (netip.Addr, error)
	Display() (*winapi.ClientDisplay, error)
}

// GetSessions describes every session on the current server
func GetSessions(ctx context.Context) ([]SessionDetails, error) {
	sessions, err := winapi.Sessions()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate sessions: %w", err)
	}

	details := make([]SessionDetails, 0, len(sessions))
	for _, session := range sessions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		details = append(details, describeSession(session))
	}
	return details, nil
}

// GetSession describes a single session by ID
func GetSession(ctx context.Context, id uint32) (*SessionDetails, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	details := describeSession(winapi.NewSession(id))
	return &details, nil
}

func describeSession(session sessionQueries) SessionDetails {
	details := SessionDetails{ID: session.ID()}

	info, err := session.Info()
	if err != nil {
		details.Errors = append(details.Errors, fmt.Sprintf("info: %v", err))
	} else {
		details.Info = info
	}

	addr, err := session.Address()
	if err != nil {
		details.Errors = append(details.Errors, fmt.Sprintf("address: %v", err))
	} else if addr.IsValid() {
		details.Address = addr.String()
	}

	display, err := session.Display()
	if err != nil {
		details.Errors = append(details.Errors, fmt.Sprintf("display: %v", err))
	} else {
		details.Display = display
	}

	return details
}

// activeUser returns the user name of the first active session, or ""
func activeUser(sessions []SessionDetails) string {
	for _, s := range sessions {
		if s.Info != nil && s.Info.State == winapi.StateActive && s.Info.UserName != "" {
			return s.Info.UserName
		}
	}
	return ""
}
