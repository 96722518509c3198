//go:build windows

package winapi

import (
	"errors"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modwtsapi32 = windows.NewLazySystemDLL("wtsapi32.dll")

	procWTSQuerySessionInformationW = modwtsapi32.NewProc("WTSQuerySessionInformationW")
)

// WTS_CURRENT_SERVER_HANDLE
const wtsCurrentServerHandle = 0

var nativeSessions sessionAPI = wtsSessionAPI{}

type wtsSessionAPI struct{}

func (wtsSessionAPI) querySessionInformation(id uint32, class infoClass) (*wtsBuffer, error) {
	if err := procWTSQuerySessionInformationW.Find(); err != nil {
		return nil, callError("WTSQuerySessionInformationW", uint32(windows.ERROR_PROC_NOT_FOUND), err)
	}

	var (
		buffer *uint16
		bytes  uint32
	)
	r1, _, e1 := procWTSQuerySessionInformationW.Call(
		wtsCurrentServerHandle,
		uintptr(id),
		uintptr(class),
		uintptr(unsafe.Pointer(&buffer)),
		uintptr(unsafe.Pointer(&bytes)),
	)
	if r1 == 0 {
		return nil, callError("WTSQuerySessionInformationW", errnoCode(e1), e1)
	}
	return &wtsBuffer{ptr: unsafe.Pointer(buffer), size: bytes, free: wtsFreeMemory}, nil
}

func (wtsSessionAPI) enumerateSessions() ([]uint32, error) {
	var (
		sessions *windows.WTS_SESSION_INFO
		count    uint32
	)
	if err := windows.WTSEnumerateSessions(wtsCurrentServerHandle, 0, 1, &sessions, &count); err != nil {
		return nil, callError("WTSEnumerateSessionsW", errnoCode(err), err)
	}
	buf := &wtsBuffer{
		ptr:  unsafe.Pointer(sessions),
		size: count * uint32(unsafe.Sizeof(windows.WTS_SESSION_INFO{})),
		free: wtsFreeMemory,
	}
	defer buf.Close()

	ids := make([]uint32, 0, count)
	if count == 0 {
		return ids, nil
	}
	for _, session := range unsafe.Slice(sessions, count) {
		ids = append(ids, session.SessionID)
	}
	return ids, nil
}

func wtsFreeMemory(p unsafe.Pointer) {
	windows.WTSFreeMemory(uintptr(p))
}

func errnoCode(err error) uint32 {
	var errno windows.Errno
	if errors.As(err, &errno) {
		return uint32(errno)
	}
	return 0
}
