package system

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"powerpanel/internal/winapi"
)

// Hertz is a clock rate
type Hertz uint64

const (
	Hz  Hertz = 1
	KHz       = 1000 * Hz
	MHz       = 1000 * KHz
	GHz       = 1000 * MHz
)

// MHz returns the rate in megahertz
func (h Hertz) MHz() float64 {
	return float64(h) / float64(MHz)
}

// FrequencySource selects the backend a CPUFrequency reads from
type FrequencySource int

const (
	// SourceAuto lets the selector pick. It always resolves to
	// SourcePowerInformation
	SourceAuto FrequencySource = iota
	// SourcePowerInformation reads the first CallNtPowerInformation record
	SourcePowerInformation
	// SourceWMI reads Win32_Processor. Only used when asked for explicitly
	SourceWMI
)

// String returns the config spelling of the source
func (s FrequencySource) String() string {
	switch s {
	case SourceAuto:
		return "auto"
	case SourcePowerInformation:
		return "power"
	case SourceWMI:
		return "wmi"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// MarshalText encodes the source as its config spelling
func (s FrequencySource) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseFrequencySource parses "auto", "power" or "wmi". The empty string is auto
func ParseFrequencySource(value string) (FrequencySource, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return SourceAuto, nil
	case "power", "powerinformation":
		return SourcePowerInformation, nil
	case "wmi":
		return SourceWMI, nil
	default:
		return SourceAuto, fmt.Errorf("unknown frequency source %q", value)
	}
}

// selectFrequencySource resolves the requested source to the concrete
// backend that will be queried
func selectFrequencySource(requested FrequencySource) FrequencySource {
	if requested == SourceWMI {
		return SourceWMI
	}
	return SourcePowerInformation
}

// win32Processor holds the Win32_Processor columns read by the WMI source
type win32Processor struct {
	Name              string
	CurrentClockSpeed uint32
	MaxClockSpeed     uint32
}

type frequencyBackends struct {
	power func() ([]winapi.ProcessorPowerInformation, error)
	wmi   func(ctx context.Context) ([]win32Processor, error)
}

var nativeFrequencyBackends = frequencyBackends{
	power: winapi.QueryProcessorInformation,
	wmi:   queryWin32Processor,
}

// CPUFrequency is the clock speed of the first logical processor, read
// from exactly one backend chosen at construction
type CPUFrequency struct {
	source FrequencySource
	power  winapi.ProcessorPowerInformation
	wmi    win32Processor
}

// Frequency queries the CPU frequency with automatic source selection
func Frequency() (*CPUFrequency, error) {
	return FrequencyWithContext(context.Background())
}

// FrequencyWithContext is Frequency with a caller supplied context
func FrequencyWithContext(ctx context.Context) (*CPUFrequency, error) {
	return newCPUFrequency(ctx, SourceAuto, nativeFrequencyBackends)
}

// FrequencyFromSource queries the CPU frequency from the given source
func FrequencyFromSource(ctx context.Context, source FrequencySource) (*CPUFrequency, error) {
	return newCPUFrequency(ctx, source, nativeFrequencyBackends)
}

func newCPUFrequency(ctx context.Context, requested FrequencySource, backends frequencyBackends) (*CPUFrequency, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch source := selectFrequencySource(requested); source {
	case SourceWMI:
		processors, err := backends.wmi(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query Win32_Processor: %w", err)
		}
		if len(processors) == 0 {
			return nil, noProcessors("Win32_Processor")
		}
		return &CPUFrequency{source: source, wmi: processors[0]}, nil
	default:
		processors, err := backends.power()
		if err != nil {
			return nil, err
		}
		if len(processors) == 0 {
			return nil, noProcessors("CallNtPowerInformation")
		}
		return &CPUFrequency{source: source, power: processors[0]}, nil
	}
}

// FrequencyFromRecord wraps a power information record that was
// already queried
func FrequencyFromRecord(record winapi.ProcessorPowerInformation) *CPUFrequency {
	return &CPUFrequency{source: SourcePowerInformation, power: record}
}

// noProcessors reports an empty result from the named source
func noProcessors(source string) error {
	return &winapi.Error{Msg: source, Err: winapi.ErrNoProcessors}
}

// Source reports which backend produced the values
func (f *CPUFrequency) Source() FrequencySource {
	return f.source
}

// Current is always present once the query succeeded
func (f *CPUFrequency) Current() Hertz {
	switch f.source {
	case SourceWMI:
		return Hertz(f.wmi.CurrentClockSpeed) * MHz
	default:
		return Hertz(f.power.CurrentMhz) * MHz
	}
}

// Max returns false when the backend does not report a maximum
func (f *CPUFrequency) Max() (Hertz, bool) {
	switch f.source {
	case SourceWMI:
		if f.wmi.MaxClockSpeed == 0 {
			return 0, false
		}
		return Hertz(f.wmi.MaxClockSpeed) * MHz, true
	default:
		return Hertz(f.power.MaxMhz) * MHz, true
	}
}

// Min is never reported by either backend
func (f *CPUFrequency) Min() (Hertz, bool) {
	return 0, false
}

// MarshalJSON emits MHz values, with null for unknown bounds
func (f *CPUFrequency) MarshalJSON() ([]byte, error) {
	out := struct {
		Source  FrequencySource `json:"source"`
		Current float64         `json:"current_mhz"`
		Max     *float64        `json:"max_mhz"`
		Min     *float64        `json:"min_mhz"`
	}{
		Source:  f.source,
		Current: f.Current().MHz(),
	}
	if maxHz, ok := f.Max(); ok {
		value := maxHz.MHz()
		out.Max = &value
	}
	if minHz, ok := f.Min(); ok {
		value := minHz.MHz()
		out.Min = &value
	}
	return json.Marshal(out)
}
