package system

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"powerpanel/internal/winapi"
)

type backendCalls struct {
	power int
	wmi   int
}

func fakeBackends(calls *backendCalls, power []winapi.ProcessorPowerInformation, wmi []win32Processor) frequencyBackends {
	return frequencyBackends{
		power: func() ([]winapi.ProcessorPowerInformation, error) {
			calls.power++
			return power, nil
		},
		wmi: func(context.Context) ([]win32Processor, error) {
			calls.wmi++
			return wmi, nil
		},
	}
}

func TestSelectFrequencySource(t *testing.T) {
	tests := []struct {
		requested FrequencySource
		expected  FrequencySource
	}{
		{SourceAuto, SourcePowerInformation},
		{SourcePowerInformation, SourcePowerInformation},
		{SourceWMI, SourceWMI},
		{FrequencySource(99), SourcePowerInformation},
	}

	for _, tt := range tests {
		t.Run(tt.requested.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, selectFrequencySource(tt.requested))
		})
	}
}

func TestAutoFrequencyUsesPowerInformation(t *testing.T) {
	var calls backendCalls
	backends := fakeBackends(&calls,
		[]winapi.ProcessorPowerInformation{
			{Number: 0, MaxMhz: 3600, CurrentMhz: 2400},
			{Number: 1, MaxMhz: 3600, CurrentMhz: 800},
		},
		[]win32Processor{{CurrentClockSpeed: 1, MaxClockSpeed: 2}},
	)

	freq, err := newCPUFrequency(context.Background(), SourceAuto, backends)
	require.NoError(t, err)

	assert.Equal(t, SourcePowerInformation, freq.Source())
	assert.Equal(t, 1, calls.power)
	assert.Zero(t, calls.wmi, "automatic selection never reaches the WMI source")

	assert.Equal(t, 2400*MHz, freq.Current())
	maxHz, ok := freq.Max()
	require.True(t, ok)
	assert.Equal(t, 3600*MHz, maxHz)
	assert.LessOrEqual(t, freq.Current(), maxHz)
}

func TestMinFrequencyIsAlwaysUnknown(t *testing.T) {
	var calls backendCalls
	for _, record := range []winapi.ProcessorPowerInformation{
		{},
		{MaxMhz: 3600, CurrentMhz: 3600},
		{MaxMhz: 5000, CurrentMhz: 400, MhzLimit: 5000},
	} {
		backends := fakeBackends(&calls, []winapi.ProcessorPowerInformation{record}, nil)

		freq, err := newCPUFrequency(context.Background(), SourceAuto, backends)
		require.NoError(t, err)

		minHz, ok := freq.Min()
		assert.False(t, ok)
		assert.Zero(t, minHz)
	}
}

func TestWMIFrequency(t *testing.T) {
	var calls backendCalls
	backends := fakeBackends(&calls, nil, []win32Processor{
		{Name: "Test CPU", CurrentClockSpeed: 2100, MaxClockSpeed: 3000},
	})

	freq, err := newCPUFrequency(context.Background(), SourceWMI, backends)
	require.NoError(t, err)
	assert.Equal(t, SourceWMI, freq.Source())
	assert.Zero(t, calls.power)
	assert.Equal(t, 2100*MHz, freq.Current())

	maxHz, ok := freq.Max()
	require.True(t, ok)
	assert.Equal(t, 3000*MHz, maxHz)

	_, ok = freq.Min()
	assert.False(t, ok)

	backends = fakeBackends(&calls, nil, []win32Processor{{CurrentClockSpeed: 2100}})
	freq, err = newCPUFrequency(context.Background(), SourceWMI, backends)
	require.NoError(t, err)
	_, ok = freq.Max()
	assert.False(t, ok)
}

func TestFrequencyNoProcessors(t *testing.T) {
	var calls backendCalls

	_, err := newCPUFrequency(context.Background(), SourceAuto, fakeBackends(&calls, nil, nil))
	assert.ErrorIs(t, err, winapi.ErrNoProcessors)

	var dataErr *winapi.Error
	assert.ErrorAs(t, err, &dataErr)

	_, err = newCPUFrequency(context.Background(), SourceWMI, fakeBackends(&calls, nil, nil))
	assert.ErrorIs(t, err, winapi.ErrNoProcessors)
	require.ErrorAs(t, err, &dataErr)
	assert.Equal(t, "Win32_Processor", dataErr.Msg)
}

func TestFrequencyPropagatesNativeError(t *testing.T) {
	native := &winapi.Error{Func: "CallNtPowerInformation", Code: 0xC0000023, Err: errors.New("buffer too small")}
	backends := frequencyBackends{
		power: func() ([]winapi.ProcessorPowerInformation, error) { return nil, native },
	}

	freq, err := newCPUFrequency(context.Background(), SourceAuto, backends)
	assert.Nil(t, freq)
	assert.Same(t, native, err)
}

func TestFrequencyCanceledContext(t *testing.T) {
	var calls backendCalls
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newCPUFrequency(ctx, SourceAuto, fakeBackends(&calls, nil, nil))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls.power)
}

func TestParseFrequencySource(t *testing.T) {
	tests := []struct {
		input    string
		expected FrequencySource
		wantErr  bool
	}{
		{"", SourceAuto, false},
		{"auto", SourceAuto, false},
		{"POWER", SourcePowerInformation, false},
		{" wmi ", SourceWMI, false},
		{"sysfs", SourceAuto, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			source, err := ParseFrequencySource(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, source)
		})
	}
}

func TestCPUFrequencyJSON(t *testing.T) {
	var calls backendCalls
	backends := fakeBackends(&calls, []winapi.ProcessorPowerInformation{{MaxMhz: 3600, CurrentMhz: 1800}}, nil)

	freq, err := newCPUFrequency(context.Background(), SourceAuto, backends)
	require.NoError(t, err)

	data, err := json.Marshal(freq)
	require.NoError(t, err)
	assert.JSONEq(t, `{"source":"power","current_mhz":1800,"max_mhz":3600,"min_mhz":null}`, string(data))
}

func TestProperFrequency(t *testing.T) {
	assert.Equal(t, "3.60 GHz", ProperFrequency(3600*MHz))
	assert.Equal(t, "800 MHz", ProperFrequency(800*MHz))
	assert.Equal(t, "32 kHz", ProperFrequency(32*KHz))
	assert.Equal(t, "0 Hz", ProperFrequency(0))
}
