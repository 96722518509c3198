//go:build !windows

package winapi

var nativeSessions sessionAPI = unsupportedSessionAPI{}

type unsupportedSessionAPI struct{}

func (unsupportedSessionAPI) querySessionInformation(uint32, infoClass) (*wtsBuffer, error) {
	return nil, ErrNotImplemented
}

func (unsupportedSessionAPI) enumerateSessions() ([]uint32, error) {
	return nil, ErrNotImplemented
}
