package web

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/cast"
	"github.com/zishang520/socket.io/servers/socket/v3"

	"powerpanel/internal/auth"
	"powerpanel/internal/conf"
	"powerpanel/internal/netx"
	"powerpanel/internal/system"
)

// emitFunc sends one event to a single client
type emitFunc func(event string, data any)

func clientEmitter(client *socket.Socket) emitFunc {
	return func(event string, data any) { client.Emit(event, data) }
}

// DashboardSession represents an active dashboard connection
type DashboardSession struct {
	ID          string
	RefreshRate time.Duration
	emit        emitFunc
	cancel      context.CancelFunc
	mutex       sync.Mutex
	active      bool
}

// Dashboard pushes power snapshots to connected clients
type Dashboard struct {
	log      logr.Logger
	source   system.FrequencySource
	rate     time.Duration
	collect  func(context.Context, system.FrequencySource) (*system.PowerSnapshot, error)
	describe func(context.Context) (*system.SystemInfo, error)

	mutex    sync.RWMutex
	sessions map[string]*DashboardSession
}

// PowerMetrics is the formatted view of a snapshot sent to the browser
type PowerMetrics struct {
	Time       time.Time               `json:"time"`
	Source     string                  `json:"source"`
	Current    string                  `json:"current"`
	Max        string                  `json:"max"`
	Load       string                  `json:"load"`
	Processors []system.ProcessorPower `json:"processors"`
	Snapshot   *system.PowerSnapshot   `json:"snapshot"`
}

// NewDashboard builds a dashboard from the Probe config
func NewDashboard(log logr.Logger, probe conf.Probe) (*Dashboard, error) {
	source, err := system.ParseFrequencySource(probe.FrequencySource)
	if err != nil {
		return nil, err
	}
	rate, err := conf.ParseRefreshRate(probe.RefreshRate)
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		log:      log,
		source:   source,
		rate:     rate,
		collect:  system.GetPowerSnapshot,
		describe: system.GetSystemInfo,
		sessions: make(map[string]*DashboardSession),
	}, nil
}

// SetupDashboardService registers the /dashboard namespace on the server
func SetupDashboardService(server *netx.Socket, dash *Dashboard) {
	namespace := server.GetNamespace("/dashboard")

	namespace.AddEvent("connect_dashboard", func(client *socket.Socket, data ...any) {
		username, _ := auth.SocketUsername(client)
		dash.Connect(string(client.Id()), username, clientEmitter(client))
	})
	namespace.AddEvent("set_refresh_rate", func(client *socket.Socket, data ...any) {
		dash.SetRefreshRate(string(client.Id()), data...)
	})
	namespace.AddEvent("refresh_data", func(client *socket.Socket, data ...any) {
		dash.sendMetrics(clientEmitter(client))
	})
	namespace.AddEvent("disconnect", func(client *socket.Socket, data ...any) {
		dash.Disconnect(string(client.Id()))
	})

	namespace.RegisterEvents()
	namespace.AddMiddleware(auth.RequireAuthSocketIO)
}

// Connect starts pushing snapshots to a client
func (d *Dashboard) Connect(id, username string, emit emitFunc) {
	d.log.Info("dashboard client connected", "id", id, "user", username)

	session := &DashboardSession{
		ID:          id,
		RefreshRate: d.rate,
		emit:        emit,
		active:      true,
	}

	d.mutex.Lock()
	if old, ok := d.sessions[id]; ok {
		old.stop()
	}
	d.sessions[id] = session
	d.mutex.Unlock()

	d.sendBasicInfo(emit, username)
	d.sendMetrics(emit)
	d.startPeriodicUpdates(session)

	emit("dashboard_connected", map[string]any{
		"refresh_rate": session.RefreshRate.String(),
		"source":       d.source.String(),
		"status":       "connected",
	})
}

// SetRefreshRate changes how often a client receives snapshots
func (d *Dashboard) SetRefreshRate(id string, data ...any) {
	d.mutex.RLock()
	session, exists := d.sessions[id]
	d.mutex.RUnlock()
	if !exists {
		return
	}

	payload, ok := firstPayload(data)
	if !ok {
		session.emit("dashboard_error", "Invalid refresh rate data format")
		return
	}
	rateStr := cast.ToString(payload["rate"])
	if rateStr == "" {
		session.emit("dashboard_error", "Refresh rate is required")
		return
	}
	rate, err := conf.ParseRefreshRate(rateStr)
	if err != nil {
		session.emit("dashboard_error", "Invalid refresh rate format")
		return
	}

	session.mutex.Lock()
	if !session.active {
		session.mutex.Unlock()
		session.emit("dashboard_error", "No active dashboard session")
		return
	}
	session.RefreshRate = rate
	session.mutex.Unlock()

	d.startPeriodicUpdates(session)
	session.emit("refresh_rate_updated", map[string]any{"rate": rateStr})
}

// Disconnect stops pushing to a client
func (d *Dashboard) Disconnect(id string) {
	d.mutex.Lock()
	session, exists := d.sessions[id]
	delete(d.sessions, id)
	d.mutex.Unlock()

	if exists {
		session.stop()
		d.log.Info("dashboard client disconnected", "id", id)
	}
}

// ActiveSessions returns the number of connected dashboard clients
func (d *Dashboard) ActiveSessions() int {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return len(d.sessions)
}

func (s *DashboardSession) stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.active = false
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// startPeriodicUpdates replaces any running ticker loop of the session
// A zero rate leaves the session idle until the next refresh_data
func (d *Dashboard) startPeriodicUpdates(session *DashboardSession) {
	session.mutex.Lock()
	defer session.mutex.Unlock()

	if session.cancel != nil {
		session.cancel()
		session.cancel = nil
	}
	if !session.active || session.RefreshRate <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	session.cancel = cancel
	ticker := time.NewTicker(session.RefreshRate)
	emit := session.emit

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				d.sendMetricsContext(ctx, emit)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (d *Dashboard) sendBasicInfo(emit emitFunc, username string) {
	info, err := d.describe(context.Background())
	if err != nil {
		d.log.Error(err, "failed to get system info")
		emit("dashboard_error", fmt.Sprintf("Failed to get system info: %v", err))
		return
	}
	if username != "" {
		info.User = username
	}
	emit("basic_system_info", info)
}

func (d *Dashboard) sendMetrics(emit emitFunc) {
	d.sendMetricsContext(context.Background(), emit)
}

func (d *Dashboard) sendMetricsContext(ctx context.Context, emit emitFunc) {
	metrics, err := d.collectMetrics(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		d.log.Error(err, "failed to collect power metrics")
		emit("dashboard_error", fmt.Sprintf("Failed to collect power metrics: %v", err))
		return
	}
	emit("power_metrics", metrics)
}

func (d *Dashboard) collectMetrics(ctx context.Context) (*PowerMetrics, error) {
	snapshot, err := d.collect(ctx, d.source)
	if err != nil {
		return nil, err
	}

	metrics := &PowerMetrics{
		Time:       snapshot.Time,
		Source:     snapshot.Frequency.Source().String(),
		Current:    system.ProperFrequency(snapshot.Frequency.Current()),
		Max:        "unknown",
		Load:       system.Float2string(snapshot.LoadPercent, 1) + "%",
		Processors: snapshot.Processors,
		Snapshot:   snapshot,
	}
	if maxHz, ok := snapshot.Frequency.Max(); ok {
		metrics.Max = system.ProperFrequency(maxHz)
	}
	return metrics, nil
}

// firstPayload returns the first event argument as a map, unwrapping
// the nested array some clients send
func firstPayload(data []any) (map[string]any, bool) {
	if len(data) == 0 {
		return nil, false
	}
	if nested, ok := data[0].([]any); ok {
		return firstPayload(nested)
	}
	payload, err := cast.ToStringMapE(data[0])
	if err != nil {
		return nil, false
	}
	return payload, true
}
