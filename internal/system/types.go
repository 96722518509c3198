package system

import (
	"time"

	"powerpanel/internal/winapi"
)

// SystemInfo represents general system information
type SystemInfo struct {
	User        string `json:"user"`
	Host        string `json:"host"`
	OS          string `json:"os"`
	Kernel      string `json:"kernel"`
	CPU         string `json:"cpu"`
	LogicalCPUs int    `json:"logical_cpus"`
}

// ProcessorPower is one logical processor's power record, in MHz
type ProcessorPower struct {
	Number           uint32 `json:"number"`
	MaxMHz           uint32 `json:"max_mhz"`
	CurrentMHz       uint32 `json:"current_mhz"`
	LimitMHz         uint32 `json:"limit_mhz"`
	MaxIdleState     uint32 `json:"max_idle_state"`
	CurrentIdleState uint32 `json:"current_idle_state"`
}

// PowerSnapshot represents the processor state at one instant
type PowerSnapshot struct {
	Time        time.Time        `json:"time"`
	Frequency   *CPUFrequency    `json:"frequency"`
	Processors  []ProcessorPower `json:"processors"`
	LoadPercent float64          `json:"load_percent"`
}

// SessionDetails collects everything known about one login session
// Each query fails independently; failures are listed in Errors
type SessionDetails struct {
	ID      uint32                `json:"id"`
	Info    *winapi.SessionInfo   `json:"info,omitempty"`
	Address string                `json:"address,omitempty"`
	Display *winapi.ClientDisplay `json:"display,omitempty"`
	Errors  []string              `json:"errors,omitempty"`
}

// Report is the one-shot dump printed by the CLI
type Report struct {
	System   *SystemInfo      `json:"system"`
	Power    *PowerSnapshot   `json:"power,omitempty"`
	Sessions []SessionDetails `json:"sessions,omitempty"`
	Errors   []string         `json:"errors,omitempty"`
}
