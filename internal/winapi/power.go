package winapi

import (
	"math"
	"unsafe"
)

// ProcessorPowerInformation mirrors PROCESSOR_POWER_INFORMATION from
// powrprof. Clock rates are in MHz
type ProcessorPowerInformation struct {
	Number           uint32
	MaxMhz           uint32
	CurrentMhz       uint32
	MhzLimit         uint32
	MaxIdleState     uint32
	CurrentIdleState uint32
}

// processorPowerInformationSize is sizeof(PROCESSOR_POWER_INFORMATION)
const processorPowerInformationSize = 24

// POWER_INFORMATION_LEVEL ProcessorInformation
const processorInformation = 11

// powerInformationFunc fills size bytes at buf with processor records
type powerInformationFunc func(buf unsafe.Pointer, size uint32) error

func queryProcessorInformation(count uint32, call powerInformationFunc) ([]ProcessorPowerInformation, error) {
	if count == 0 {
		return nil, dataError("GetSystemInfo", ErrNoProcessors)
	}

	recordSize := uint64(unsafe.Sizeof(ProcessorPowerInformation{}))
	if recordSize != processorPowerInformationSize {
		return nil, dataError("unexpected PROCESSOR_POWER_INFORMATION size", ErrInvalidData)
	}
	size := uint64(count) * recordSize
	if size > math.MaxUint32 {
		return nil, dataError("processor buffer exceeds ULONG", ErrInvalidData)
	}

	processors := make([]ProcessorPowerInformation, count)
	if err := call(unsafe.Pointer(&processors[0]), uint32(size)); err != nil {
		return nil, err
	}
	return processors, nil
}
