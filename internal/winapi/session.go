package winapi

import (
	"fmt"
	"net/netip"
	"time"
	"unsafe"
)

// infoClass mirrors WTS_INFO_CLASS
type infoClass uint32

const (
	wtsClientAddress infoClass = 14
	wtsClientDisplay infoClass = 15
	wtsSessionInfo   infoClass = 24
)

// String returns the WTS_INFO_CLASS name
func (c infoClass) String() string {
	switch c {
	case wtsClientAddress:
		return "WTSClientAddress"
	case wtsClientDisplay:
		return "WTSClientDisplay"
	case wtsSessionInfo:
		return "WTSSessionInfo"
	default:
		return fmt.Sprintf("WTSInfoClass(%d)", uint32(c))
	}
}

// Windows address families carried by WTS_CLIENT_ADDRESS
const (
	afUnspec  = 0
	afInet    = 2
	afIPX     = 6
	afNetBIOS = 17
	afInet6   = 23
)

// ConnectState mirrors WTS_CONNECTSTATE_CLASS
type ConnectState int32

const (
	StateActive ConnectState = iota
	StateConnected
	StateConnectQuery
	StateShadow
	StateDisconnected
	StateIdle
	StateListen
	StateReset
	StateDown
	StateInit
)

var connectStateNames = [...]string{
	"active", "connected", "connect-query", "shadow", "disconnected",
	"idle", "listen", "reset", "down", "init",
}

// String returns the WTS connect state name
func (s ConnectState) String() string {
	if s >= 0 && int(s) < len(connectStateNames) {
		return connectStateNames[s]
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// MarshalText encodes the state as its name
func (s ConnectState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// wtsInfo mirrors WTSINFOW. The explicit padding keeps the LARGE_INTEGER
// fields 8-byte aligned on 386 as well as amd64
type wtsInfo struct {
	State                   int32
	SessionID               uint32
	IncomingBytes           uint32
	OutgoingBytes           uint32
	IncomingFrames          uint32
	OutgoingFrames          uint32
	IncomingCompressedBytes uint32
	OutgoingCompressedBytes uint32
	WinStationName          [32]uint16
	Domain                  [17]uint16
	UserName                [21]uint16
	_                       [2]uint16
	ConnectTime             int64
	DisconnectTime          int64
	LastInputTime           int64
	LogonTime               int64
	CurrentTime             int64
}

// SessionInfo is the decoded form of WTSINFOW
type SessionInfo struct {
	SessionID               uint32       `json:"session_id"`
	State                   ConnectState `json:"state"`
	WinStationName          string       `json:"win_station_name"`
	Domain                  string       `json:"domain"`
	UserName                string       `json:"user_name"`
	IncomingBytes           uint32       `json:"incoming_bytes"`
	OutgoingBytes           uint32       `json:"outgoing_bytes"`
	IncomingFrames          uint32       `json:"incoming_frames"`
	OutgoingFrames          uint32       `json:"outgoing_frames"`
	IncomingCompressedBytes uint32       `json:"incoming_compressed_bytes"`
	OutgoingCompressedBytes uint32       `json:"outgoing_compressed_bytes"`
	ConnectTime             time.Time    `json:"connect_time"`
	DisconnectTime          time.Time    `json:"disconnect_time"`
	LastInputTime           time.Time    `json:"last_input_time"`
	LogonTime               time.Time    `json:"logon_time"`
	CurrentTime             time.Time    `json:"current_time"`
}

func (w *wtsInfo) decode() *SessionInfo {
	return &SessionInfo{
		SessionID:               w.SessionID,
		State:                   ConnectState(w.State),
		WinStationName:          FromWide(w.WinStationName[:]),
		Domain:                  FromWide(w.Domain[:]),
		UserName:                FromWide(w.UserName[:]),
		IncomingBytes:           w.IncomingBytes,
		OutgoingBytes:           w.OutgoingBytes,
		IncomingFrames:          w.IncomingFrames,
		OutgoingFrames:          w.OutgoingFrames,
		IncomingCompressedBytes: w.IncomingCompressedBytes,
		OutgoingCompressedBytes: w.OutgoingCompressedBytes,
		ConnectTime:             fileTimeToTime(w.ConnectTime),
		DisconnectTime:          fileTimeToTime(w.DisconnectTime),
		LastInputTime:           fileTimeToTime(w.LastInputTime),
		LogonTime:               fileTimeToTime(w.LogonTime),
		CurrentTime:             fileTimeToTime(w.CurrentTime),
	}
}

// 100ns intervals between 1601-01-01 and 1970-01-01
const fileTimeEpochDelta = 116444736000000000

// fileTimeToTime converts a FILETIME-valued LARGE_INTEGER. Zero means unset
func fileTimeToTime(v int64) time.Time {
	if v <= 0 {
		return time.Time{}
	}
	return time.Unix(0, (v-fileTimeEpochDelta)*100).UTC()
}

// ClientAddress mirrors WTS_CLIENT_ADDRESS
type ClientAddress struct {
	AddressFamily uint32
	Address       [20]byte
}

// IP decodes the address. IPX, NetBIOS and unspecified families yield the
// zero netip.Addr and no error. Any other family outside IPv4/IPv6 is
// reported as ErrUnknownAddressFamily instead of panicking
func (a *ClientAddress) IP() (netip.Addr, error) {
	switch a.AddressFamily {
	case afInet:
		return netip.AddrFrom4([4]byte(a.Address[2:6])), nil
	case afInet6:
		return netip.AddrFrom16([16]byte(a.Address[2:18])), nil
	case afIPX, afNetBIOS, afUnspec:
		return netip.Addr{}, nil
	default:
		return netip.Addr{}, dataError(fmt.Sprintf("address family %d", a.AddressFamily), ErrUnknownAddressFamily)
	}
}

// ClientDisplay mirrors WTS_CLIENT_DISPLAY
type ClientDisplay struct {
	HorizontalResolution uint32 `json:"horizontal_resolution"`
	VerticalResolution   uint32 `json:"vertical_resolution"`
	ColorDepth           uint32 `json:"color_depth"`
}

// BitsPerPixel translates the ColorDepth code. Unknown codes return 0
func (d *ClientDisplay) BitsPerPixel() int {
	switch d.ColorDepth {
	case 1:
		return 4
	case 2:
		return 8
	case 4:
		return 16
	case 8:
		return 24
	case 16:
		return 15
	case 24:
		return 24
	case 32:
		return 32
	default:
		return 0
	}
}

// wtsBuffer owns memory allocated by a WTS API call. Close releases it
// with WTSFreeMemory and is safe to call more than once
type wtsBuffer struct {
	ptr  unsafe.Pointer
	size uint32
	free func(unsafe.Pointer)
}

// Close releases the buffer once
func (b *wtsBuffer) Close() {
	if b == nil || b.ptr == nil {
		return
	}
	b.free(b.ptr)
	b.ptr = nil
}

// view returns the buffer pointer once it is known to hold at least want bytes
func (b *wtsBuffer) view(want uintptr, what string) (unsafe.Pointer, error) {
	if b.ptr == nil || uintptr(b.size) < want {
		return nil, dataError(fmt.Sprintf("%s returned %d bytes, want %d", what, b.size, want), ErrInvalidData)
	}
	return b.ptr, nil
}

type sessionAPI interface {
	querySessionInformation(id uint32, class infoClass) (*wtsBuffer, error)
	enumerateSessions() ([]uint32, error)
}

// Session identifies one terminal-services login session. Nothing is
// cached: every method performs a fresh query
type Session struct {
	id  uint32
	api sessionAPI
}

// NewSession wraps a session ID. The ID's validity is owned by the OS
func NewSession(id uint32) *Session {
	return &Session{id: id, api: nativeSessions}
}

// Sessions lists the sessions on the current server
func Sessions() ([]*Session, error) {
	return listSessions(nativeSessions)
}

func listSessions(api sessionAPI) ([]*Session, error) {
	ids, err := api.enumerateSessions()
	if err != nil {
		return nil, err
	}
	sessions := make([]*Session, 0, len(ids))
	for _, id := range ids {
		sessions = append(sessions, &Session{id: id, api: api})
	}
	return sessions, nil
}

// ID returns the session ID this handle queries
func (s *Session) ID() uint32 {
	return s.id
}

// Info queries WTSSessionInfo
func (s *Session) Info() (*SessionInfo, error) {
	buf, err := s.api.querySessionInformation(s.id, wtsSessionInfo)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	p, err := buf.view(unsafe.Sizeof(wtsInfo{}), wtsSessionInfo.String())
	if err != nil {
		return nil, err
	}
	raw := *(*wtsInfo)(p)
	return raw.decode(), nil
}

// Address queries WTSClientAddress. The returned address is invalid
// (!IsValid()) when the client family carries no IP address
func (s *Session) Address() (netip.Addr, error) {
	buf, err := s.api.querySessionInformation(s.id, wtsClientAddress)
	if err != nil {
		return netip.Addr{}, err
	}
	defer buf.Close()

	p, err := buf.view(unsafe.Sizeof(ClientAddress{}), wtsClientAddress.String())
	if err != nil {
		return netip.Addr{}, err
	}
	raw := *(*ClientAddress)(p)
	return raw.IP()
}

// Display queries WTSClientDisplay
func (s *Session) Display() (*ClientDisplay, error) {
	buf, err := s.api.querySessionInformation(s.id, wtsClientDisplay)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	p, err := buf.view(unsafe.Sizeof(ClientDisplay{}), wtsClientDisplay.String())
	if err != nil {
		return nil, err
	}
	display := *(*ClientDisplay)(p)
	return &display, nil
}
