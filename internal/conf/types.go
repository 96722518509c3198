package conf

// Config is the whole TOML file
type Config struct {
	Auth  Auth
	Web   Web
	Probe Probe
	Log   Log
}

// Auth holds panel users as name -> bcrypt hash
type Auth struct {
	Users map[string]string
}

// Web controls the HTTP listener and static file root
type Web struct {
	RootPath string
	Listen   string
}

// Probe controls how the dashboard samples the machine
type Probe struct {
	FrequencySource string // "auto", "power" or "wmi"
	RefreshRate     string // duration, "10s"; "0" or "OFF" disables pushes
}

// Log selects the zap preset and level
type Log struct {
	Development bool
	Level       string
}
