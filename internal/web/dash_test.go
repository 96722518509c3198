package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"powerpanel/internal/auth"
	"powerpanel/internal/conf"
	"powerpanel/internal/system"
	"powerpanel/internal/winapi"
)

type event struct {
	name string
	data any
}

type recorder struct {
	mu     sync.Mutex
	events []event
}

func (r *recorder) emit(name string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{name, data})
}

func (r *recorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.name == name {
			n++
		}
	}
	return n
}

func (r *recorder) last(name string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].name == name {
			return r.events[i].data, true
		}
	}
	return nil, false
}

func testSnapshot() *system.PowerSnapshot {
	return &system.PowerSnapshot{
		Time:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Frequency: system.FrequencyFromRecord(winapi.ProcessorPowerInformation{MaxMhz: 3600, CurrentMhz: 800}),
		Processors: []system.ProcessorPower{
			{Number: 0, MaxMHz: 3600, CurrentMHz: 800},
		},
		LoadPercent: 12.345,
	}
}

func testDashboard(rate time.Duration) *Dashboard {
	return &Dashboard{
		log:    logr.Discard(),
		source: system.SourceAuto,
		rate:   rate,
		collect: func(context.Context, system.FrequencySource) (*system.PowerSnapshot, error) {
			return testSnapshot(), nil
		},
		describe: func(context.Context) (*system.SystemInfo, error) {
			return &system.SystemInfo{User: "host", Host: "host", LogicalCPUs: 4}, nil
		},
		sessions: make(map[string]*DashboardSession),
	}
}

func TestNewDashboard(t *testing.T) {
	dash, err := NewDashboard(logr.Discard(), conf.Probe{FrequencySource: "wmi", RefreshRate: "5s"})
	require.NoError(t, err)
	assert.Equal(t, system.SourceWMI, dash.source)
	assert.Equal(t, 5*time.Second, dash.rate)

	_, err = NewDashboard(logr.Discard(), conf.Probe{FrequencySource: "bogus"})
	assert.Error(t, err)

	_, err = NewDashboard(logr.Discard(), conf.Probe{RefreshRate: "soon"})
	assert.Error(t, err)
}

func TestCollectMetricsFormatting(t *testing.T) {
	dash := testDashboard(0)

	metrics, err := dash.collectMetrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "power", metrics.Source)
	assert.Equal(t, "800 MHz", metrics.Current)
	assert.Equal(t, "3.60 GHz", metrics.Max)
	assert.Equal(t, "12.3%", metrics.Load)
	assert.Len(t, metrics.Processors, 1)
}

func TestConnectSendsInitialData(t *testing.T) {
	dash := testDashboard(0)
	rec := &recorder{}

	dash.Connect("c1", "alice", rec.emit)

	info, ok := rec.last("basic_system_info")
	require.True(t, ok)
	assert.Equal(t, "alice", info.(*system.SystemInfo).User)
	assert.Equal(t, 1, rec.count("power_metrics"))
	assert.Equal(t, 1, rec.count("dashboard_connected"))
	assert.Equal(t, 1, dash.ActiveSessions())

	dash.Disconnect("c1")
	assert.Equal(t, 0, dash.ActiveSessions())
}

func TestPeriodicUpdatesStopOnDisconnect(t *testing.T) {
	dash := testDashboard(5 * time.Millisecond)
	rec := &recorder{}

	dash.Connect("c1", "", rec.emit)
	assert.Eventually(t, func() bool { return rec.count("power_metrics") >= 3 }, time.Second, 5*time.Millisecond)

	dash.Disconnect("c1")
	time.Sleep(20 * time.Millisecond)
	settled := rec.count("power_metrics")
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, rec.count("power_metrics"))
}

func TestSetRefreshRate(t *testing.T) {
	dash := testDashboard(0)
	rec := &recorder{}
	dash.Connect("c1", "", rec.emit)
	t.Cleanup(func() { dash.Disconnect("c1") })

	dash.SetRefreshRate("c1", map[string]any{"rate": "OFF"})
	updated, ok := rec.last("refresh_rate_updated")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"rate": "OFF"}, updated)

	dash.SetRefreshRate("c1", []any{map[string]any{"rate": "2s"}})
	updated, _ = rec.last("refresh_rate_updated")
	assert.Equal(t, map[string]any{"rate": "2s"}, updated)
	dash.mutex.RLock()
	session := dash.sessions["c1"]
	dash.mutex.RUnlock()
	session.mutex.Lock()
	assert.Equal(t, 2*time.Second, session.RefreshRate)
	session.mutex.Unlock()

	dash.SetRefreshRate("c1", map[string]any{"rate": "1ns"})
	msg, ok := rec.last("dashboard_error")
	require.True(t, ok)
	assert.Equal(t, "Invalid refresh rate format", msg)
	session.mutex.Lock()
	assert.Equal(t, 2*time.Second, session.RefreshRate)
	session.mutex.Unlock()

	dash.SetRefreshRate("c1", map[string]any{"rate": "soon"})
	msg, _ = rec.last("dashboard_error")
	assert.Equal(t, "Invalid refresh rate format", msg)

	dash.SetRefreshRate("c1", map[string]any{})
	msg, _ = rec.last("dashboard_error")
	assert.Equal(t, "Refresh rate is required", msg)

	dash.SetRefreshRate("c1", "not a map")
	msg, _ = rec.last("dashboard_error")
	assert.Equal(t, "Invalid refresh rate data format", msg)
}

func TestSendMetricsReportsErrors(t *testing.T) {
	dash := testDashboard(0)
	dash.collect = func(context.Context, system.FrequencySource) (*system.PowerSnapshot, error) {
		return nil, errors.New("no power information")
	}
	rec := &recorder{}

	dash.sendMetrics(rec.emit)

	msg, ok := rec.last("dashboard_error")
	require.True(t, ok)
	assert.Contains(t, msg, "no power information")
	assert.Equal(t, 0, rec.count("power_metrics"))
}

func TestServePower(t *testing.T) {
	dash := testDashboard(0)
	mux := http.NewServeMux()
	StartIndex(mux, dash)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/power", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	token, err := auth.CreateSession("alice")
	require.NoError(t, err)
	t.Cleanup(func() { auth.DeleteSession(token) })

	req := httptest.NewRequest(http.MethodGet, "/api/power", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"current":"800 MHz"`)
}

func TestFirstPayload(t *testing.T) {
	payload, ok := firstPayload([]any{map[string]any{"rate": "10s"}})
	assert.True(t, ok)
	assert.Equal(t, "10s", payload["rate"])

	payload, ok = firstPayload([]any{[]any{map[string]any{"rate": "5s"}}})
	assert.True(t, ok)
	assert.Equal(t, "5s", payload["rate"])

	_, ok = firstPayload(nil)
	assert.False(t, ok)
	_, ok = firstPayload([]any{42})
	assert.False(t, ok)
}
