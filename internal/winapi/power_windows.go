//go:build windows

package winapi

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modkernel32 = windows.NewLazySystemDLL("kernel32.dll")
	modpowrprof = windows.NewLazySystemDLL("powrprof.dll")

	procGetSystemInfo          = modkernel32.NewProc("GetSystemInfo")
	procCallNtPowerInformation = modpowrprof.NewProc("CallNtPowerInformation")
)

// systemInfo mirrors SYSTEM_INFO
type systemInfo struct {
	ProcessorArchitecture     uint16
	Reserved                  uint16
	PageSize                  uint32
	MinimumApplicationAddress uintptr
	MaximumApplicationAddress uintptr
	ActiveProcessorMask       uintptr
	NumberOfProcessors        uint32
	ProcessorType             uint32
	AllocationGranularity     uint32
	ProcessorLevel            uint16
	ProcessorRevision         uint16
}

// LogicalProcessorCount returns dwNumberOfProcessors from GetSystemInfo
func LogicalProcessorCount() uint32 {
	var info systemInfo
	// GetSystemInfo has no failure mode
	procGetSystemInfo.Call(uintptr(unsafe.Pointer(&info)))
	return info.NumberOfProcessors
}

// QueryProcessorInformation returns one power record per logical
// processor, as reported by CallNtPowerInformation(ProcessorInformation)
func QueryProcessorInformation() ([]ProcessorPowerInformation, error) {
	return queryProcessorInformation(LogicalProcessorCount(), callNtPowerInformation)
}

func callNtPowerInformation(buf unsafe.Pointer, size uint32) error {
	if err := procCallNtPowerInformation.Find(); err != nil {
		return callError("CallNtPowerInformation", uint32(windows.ERROR_PROC_NOT_FOUND), err)
	}

	r1, _, _ := procCallNtPowerInformation.Call(
		uintptr(processorInformation),
		0, 0,
		uintptr(buf),
		uintptr(size),
	)
	if status := windows.NTStatus(r1); status != 0 {
		return callError("CallNtPowerInformation", uint32(status), status)
	}
	return nil
}
