package conf

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cast"
)

const (
	// DefaultRefreshRate is used when Probe.RefreshRate is empty
	DefaultRefreshRate = 10 * time.Second
	// MinRefreshRate is the shortest accepted interval between pushes
	MinRefreshRate = time.Second
)

var (
	Path string       // Config path
	mu   sync.RWMutex // Protects access to Conf
	Conf = Default()
)

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Auth: Auth{},
		Web: Web{
			RootPath: "web",
			Listen:   ":8080",
		},
		Probe: Probe{
			FrequencySource: "auto",
			RefreshRate:     "10s",
		},
		Log: Log{
			Level: "info",
		},
	}
}

// LoadConfig Set Path and load config into memory
// Run this at start
func LoadConfig(path string) error {
	Path = path
	err := Update()
	if err != nil {
		if os.IsNotExist(err) {
			f, err := os.OpenFile(path, os.O_CREATE, 0644)
			if err != nil {
				return fmt.Errorf("failed to create config file %s: %w", path, err)
			}
			return f.Close()
		}
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// Update reads the config file and loads it into the global Conf variable
func Update() (err error) {
	mu.Lock()
	defer mu.Unlock()

	if _, err = os.Stat(Path); os.IsNotExist(err) {
		return err
	}
	loaded := Default()
	if _, err = toml.DecodeFile(Path, &loaded); err != nil {
		return fmt.Errorf("failed to update global config %w", err)
	}
	Conf = loaded
	return nil
}

// Write saves the provided config to the TOML file at the global Path
func Write(conf Config) (err error) {
	mu.Lock()
	defer mu.Unlock()

	f, err := os.Create(Path)
	if err != nil {
		return fmt.Errorf("failed to create config file %w", err)
	}
	defer f.Close()
	err = toml.NewEncoder(f).Encode(conf)
	if err != nil {
		return fmt.Errorf("failed to write config file %w", err)
	}

	// Update global config after successful write
	Conf = conf
	return nil
}

// Read returns a copy of the current configuration
func Read() Config {
	mu.RLock()
	defer mu.RUnlock()

	conf := Conf
	conf.Auth = Auth{Users: make(map[string]string, len(Conf.Auth.Users))}
	for k, v := range Conf.Auth.Users {
		conf.Auth.Users[k] = v
	}
	return conf
}

// GetUsers returns a copy of the users map in a thread-safe manner
func GetUsers() map[string]string {
	mu.RLock()
	defer mu.RUnlock()

	users := make(map[string]string)
	for k, v := range Conf.Auth.Users {
		users[k] = v
	}
	return users
}

// GetWeb returns the Web config in a thread-safe manner
func GetWeb() Web {
	mu.RLock()
	defer mu.RUnlock()
	return Conf.Web
}

// GetProbe returns the Probe config in a thread-safe manner
func GetProbe() Probe {
	mu.RLock()
	defer mu.RUnlock()
	return Conf.Probe
}

// GetLog returns the Log config in a thread-safe manner
func GetLog() Log {
	mu.RLock()
	defer mu.RUnlock()
	return Conf.Log
}

// ParseRefreshRate accepts a duration ("10s", "1m"), a bare number of
// seconds, or "OFF"/"0" to disable pushes. Empty means the default;
// positive rates under MinRefreshRate are rejected
func ParseRefreshRate(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	switch strings.ToUpper(value) {
	case "":
		return DefaultRefreshRate, nil
	case "OFF", "0":
		return 0, nil
	}

	var rate time.Duration
	if seconds, err := strconv.Atoi(value); err == nil {
		rate = time.Duration(seconds) * time.Second
	} else if !strings.ContainsFunc(value, unicode.IsLetter) {
		// unitless fractions would otherwise be read as nanoseconds
		return 0, fmt.Errorf("invalid refresh rate %q", value)
	} else if rate, err = cast.ToDurationE(value); err != nil {
		return 0, fmt.Errorf("invalid refresh rate %q", value)
	}

	switch {
	case rate < 0:
		return 0, fmt.Errorf("invalid refresh rate %q", value)
	case rate > 0 && rate < MinRefreshRate:
		return 0, fmt.Errorf("refresh rate %q is below %s", value, MinRefreshRate)
	}
	return rate, nil
}
