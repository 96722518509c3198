package system

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"

	"powerpanel/internal/winapi"
)

// GetProcessorPower returns one record per logical processor
func GetProcessorPower() ([]ProcessorPower, error) {
	records, err := winapi.QueryProcessorInformation()
	if err != nil {
		return nil, err
	}
	return processorPower(records), nil
}

func processorPower(records []winapi.ProcessorPowerInformation) []ProcessorPower {
	processors := make([]ProcessorPower, 0, len(records))
	for _, r := range records {
		processors = append(processors, ProcessorPower{
			Number:           r.Number,
			MaxMHz:           r.MaxMhz,
			CurrentMHz:       r.CurrentMhz,
			LimitMHz:         r.MhzLimit,
			MaxIdleState:     r.MaxIdleState,
			CurrentIdleState: r.CurrentIdleState,
		})
	}
	return processors
}

// GetPowerSnapshot returns frequency, per-CPU power records and load
func GetPowerSnapshot(ctx context.Context, source FrequencySource) (*PowerSnapshot, error) {
	return powerSnapshot(ctx, source, winapi.QueryProcessorInformation, nativeFrequencyBackends)
}

func powerSnapshot(ctx context.Context, source FrequencySource, query func() ([]winapi.ProcessorPowerInformation, error), backends frequencyBackends) (*PowerSnapshot, error) {
	records, err := query()
	if err != nil {
		return nil, fmt.Errorf("failed to get processor power information: %w", err)
	}
	if len(records) == 0 {
		return nil, noProcessors("CallNtPowerInformation")
	}

	// The power records already carry the first processor's clock, so
	// only the WMI source needs a second query
	freq := FrequencyFromRecord(records[0])
	if selectFrequencySource(source) == SourceWMI {
		freq, err = newCPUFrequency(ctx, source, backends)
		if err != nil {
			return nil, fmt.Errorf("failed to get CPU frequency: %w", err)
		}
	}

	// Interval 0 compares against the previous call; the first call reports 0
	var load float64
	percent, err := cpu.PercentWithContext(ctx, 0, false)
	if err == nil && len(percent) > 0 {
		load = percent[0]
	}

	return &PowerSnapshot{
		Time:        time.Now(),
		Frequency:   freq,
		Processors:  processorPower(records),
		LoadPercent: load,
	}, nil
}

// ProperFrequency converts a clock rate to human readable format
func ProperFrequency(h Hertz) string {
	switch {
	case h >= GHz:
		return strconv.FormatFloat(float64(h)/float64(GHz), 'f', 2, 64) + " GHz"
	case h >= MHz:
		return strconv.FormatUint(uint64(h/MHz), 10) + " MHz"
	case h >= KHz:
		return strconv.FormatUint(uint64(h/KHz), 10) + " kHz"
	}
	return strconv.FormatUint(uint64(h), 10) + " Hz"
}

// Float2string converts float to string with specified precision
func Float2string(f float64, precision int) string {
	return strconv.FormatFloat(f, 'f', precision, 64)
}
