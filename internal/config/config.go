// Package config loads settings from built-in defaults, an optional YAML
// file and HOUSEKEEPER_* environment variables, in that order. Command-line
// flags are applied last by the caller before Validate.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

type Mode string

const (
	ModeTUI       Mode = "tui"
	ModeCharacter Mode = "character"
	ModeText      Mode = "text"
	ModeGUI       Mode = "gui"
)

const (
	MinInterval = 100 * time.Millisecond
	MaxInterval = 10 * time.Second
)

type Config struct {
	Interval         time.Duration `yaml:"interval"`
	SlowInterval     time.Duration `yaml:"slow_interval"`
	VerySlowInterval time.Duration `yaml:"very_slow_interval"`
	IPMIInterval     time.Duration `yaml:"ipmi_interval"`
	CommandTimeout   time.Duration `yaml:"command_timeout"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout"`
	HealthInterval   time.Duration `yaml:"health_interval"`
	ErrorBackoff     time.Duration `yaml:"error_backoff"`

	TopProcesses   int `yaml:"top_processes"`
	TopConnections int `yaml:"top_connections"`

	NoPerCore  bool `yaml:"no_per_core"`
	NoGPU      bool `yaml:"no_gpu"`
	NoPCIe     bool `yaml:"no_pcie"`
	Fahrenheit bool `yaml:"fahrenheit"`

	Mode    Mode `yaml:"mode"`
	Full    bool `yaml:"full"`
	Profile bool `yaml:"profile"`
	Detect  bool `yaml:"-"`
	JSON    bool `yaml:"-"`

	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`
	LogFile  string `yaml:"log_file"`

	ProcRoot string `yaml:"proc_root"`
	SysRoot  string `yaml:"sys_root"`

	EnableVM           bool          `yaml:"vm"`
	LibvirtURI         string        `yaml:"libvirt_uri"`
	ReconnectInterval  time.Duration `yaml:"reconnect_interval"`
	MaxReconnectJitter time.Duration `yaml:"reconnect_max_jitter"`
}

func Default() Config {
	return Config{
		Interval:           time.Second,
		SlowInterval:       3 * time.Second,
		VerySlowInterval:   5 * time.Second,
		IPMIInterval:       10 * time.Second,
		CommandTimeout:     5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		HealthInterval:     30 * time.Second,
		ErrorBackoff:       1500 * time.Millisecond,
		TopProcesses:       10,
		TopConnections:     10,
		Mode:               ModeTUI,
		LogLevel:           "info",
		ProcRoot:           "/proc",
		SysRoot:            "/sys",
		LibvirtURI:         "qemu:///system",
		ReconnectInterval:  4 * time.Second,
		MaxReconnectJitter: 900 * time.Millisecond,
	}
}

// DefaultPath is $HOUSEKEEPER_CONFIG, else config.yaml under the user
// config directory.
func DefaultPath() string {
	if p := env("HOUSEKEEPER_CONFIG", ""); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "housekeeper", "config.yaml")
}

// Load builds a Config from defaults, the YAML file at path and the
// environment. An empty path uses DefaultPath; a missing default file is not
// an error, a missing explicit one is.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return Config{}, err
			}
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Interval = envDuration("HOUSEKEEPER_INTERVAL", c.Interval)
	c.SlowInterval = envDuration("HOUSEKEEPER_SLOW_INTERVAL", c.SlowInterval)
	c.VerySlowInterval = envDuration("HOUSEKEEPER_VERY_SLOW_INTERVAL", c.VerySlowInterval)
	c.IPMIInterval = envDuration("HOUSEKEEPER_IPMI_INTERVAL", c.IPMIInterval)
	c.CommandTimeout = envDuration("HOUSEKEEPER_COMMAND_TIMEOUT", c.CommandTimeout)
	c.ShutdownTimeout = envDuration("HOUSEKEEPER_SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
	c.HealthInterval = envDuration("HOUSEKEEPER_HEALTH_INTERVAL", c.HealthInterval)
	c.ErrorBackoff = envDuration("HOUSEKEEPER_ERROR_BACKOFF", c.ErrorBackoff)
	c.TopProcesses = envInt("HOUSEKEEPER_TOP_PROCESSES", c.TopProcesses)
	c.TopConnections = envInt("HOUSEKEEPER_TOP_CONNECTIONS", c.TopConnections)
	c.NoPerCore = envBool("HOUSEKEEPER_NO_PER_CORE", c.NoPerCore)
	c.NoGPU = envBool("HOUSEKEEPER_NO_GPU", c.NoGPU)
	c.NoPCIe = envBool("HOUSEKEEPER_NO_PCIE", c.NoPCIe)
	c.Fahrenheit = envBool("HOUSEKEEPER_FAHRENHEIT", c.Fahrenheit)
	c.Mode = Mode(strings.ToLower(env("HOUSEKEEPER_MODE", string(c.Mode))))
	c.Profile = envBool("HOUSEKEEPER_PROFILE", c.Profile)
	c.LogLevel = strings.ToLower(env("HOUSEKEEPER_LOG_LEVEL", c.LogLevel))
	c.LogJSON = envBool("HOUSEKEEPER_LOG_JSON", c.LogJSON)
	c.LogFile = env("HOUSEKEEPER_LOG_FILE", c.LogFile)
	c.ProcRoot = env("HOUSEKEEPER_PROC_ROOT", c.ProcRoot)
	c.SysRoot = env("HOUSEKEEPER_SYS_ROOT", c.SysRoot)
	c.EnableVM = envBool("HOUSEKEEPER_VM", c.EnableVM)
	c.LibvirtURI = env("HOUSEKEEPER_LIBVIRT_URI", c.LibvirtURI)
}

func (c Config) Validate() error {
	if c.Interval < MinInterval || c.Interval > MaxInterval {
		return fmt.Errorf("%w: interval %s outside [%s, %s]", ErrInvalid, c.Interval, MinInterval, MaxInterval)
	}
	if c.SlowInterval <= 0 || c.VerySlowInterval <= 0 || c.IPMIInterval <= 0 {
		return fmt.Errorf("%w: tier intervals must be > 0", ErrInvalid)
	}
	if c.CommandTimeout <= 0 {
		return fmt.Errorf("%w: command_timeout must be > 0", ErrInvalid)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: shutdown_timeout must be > 0", ErrInvalid)
	}
	if c.TopProcesses < 0 || c.TopConnections < 0 {
		return fmt.Errorf("%w: top_processes and top_connections must be >= 0", ErrInvalid)
	}
	switch c.Mode {
	case ModeTUI, ModeCharacter, ModeText, ModeGUI:
	default:
		return fmt.Errorf("%w: unsupported mode %q", ErrInvalid, c.Mode)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unsupported log level %q", ErrInvalid, c.LogLevel)
	}
	if strings.TrimSpace(c.ProcRoot) == "" || strings.TrimSpace(c.SysRoot) == "" {
		return fmt.Errorf("%w: proc_root and sys_root are required", ErrInvalid)
	}
	if c.EnableVM && c.LibvirtURI == "" {
		return fmt.Errorf("%w: libvirt_uri is required with vm enabled", ErrInvalid)
	}
	return nil
}

// Interactive reports whether the mode owns the terminal.
func (c Config) Interactive() bool {
	return c.Mode != ModeText
}

func env(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return fallback
	}
	switch v {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		// bare numbers are seconds, matching --interval
		if secs, ferr := strconv.ParseFloat(v, 64); ferr == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
		return fallback
	}
	return d
}
