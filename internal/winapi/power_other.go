//go:build !windows

package winapi

// LogicalProcessorCount is only meaningful on Windows
func LogicalProcessorCount() uint32 {
	return 0
}

// QueryProcessorInformation always fails with ErrNotImplemented off Windows
func QueryProcessorInformation() ([]ProcessorPowerInformation, error) {
	return nil, ErrNotImplemented
}
