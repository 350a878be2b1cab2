package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"dpu-platform/pkg/types"
)

// State store backends
const (
	BackendRedis = "redis"
	BackendBolt  = "bolt"
	BackendNone  = "none"
)

// Config represents the DPU platform configuration
type Config struct {
	PlatformJSON string        `yaml:"platform_json"`
	LockDir      string        `yaml:"lock_dir"`
	LogLevel     string        `yaml:"log_level"`
	Sysfs        SysfsConfig   `yaml:"sysfs"`
	Sensors      SensorsConfig `yaml:"sensors"`
	StateDB      StateDBConfig `yaml:"state_db"`
	Monitor      MonitorConfig `yaml:"monitor"`
}

// SysfsConfig holds the kernel PCI control file locations
type SysfsConfig struct {
	DevicesRoot string `yaml:"devices_root"`
	PCIRoot     string `yaml:"pci_root"`
}

// SensorsConfig holds the sensor ignore-rule locations and the sensor service name
type SensorsConfig struct {
	TemplateDir string `yaml:"template_dir"`
	ConfDir     string `yaml:"conf_dir"`
	Service     string `yaml:"service"`
}

// StateDBConfig selects and addresses the shared state store
type StateDBConfig struct {
	Backend  string `yaml:"backend"`
	Address  string `yaml:"address"`
	DB       int    `yaml:"db"`
	Password string `yaml:"password"`
	BoltPath string `yaml:"bolt_path"`

	// Timeout bounds how long the bolt backend waits for its file lock
	Timeout time.Duration `yaml:"timeout"`
}

// MonitorConfig configures dpuctl watch
type MonitorConfig struct {
	MetricsAddr string        `yaml:"metrics_addr"`
	Debounce    time.Duration `yaml:"debounce"`
}

// Default returns the configuration of a SONiC smart switch
func Default() *Config {
	return &Config{
		PlatformJSON: "/usr/share/sonic/platform/platform.json",
		LockDir:      "/var/lock",
		LogLevel:     "info",
		Sysfs: SysfsConfig{
			DevicesRoot: "/sys/bus/pci/devices",
			PCIRoot:     "/sys/bus/pci",
		},
		Sensors: SensorsConfig{
			TemplateDir: "/usr/share/sonic/platform/dpu_ignore_conf",
			ConfDir:     "/etc/sensors.d",
			Service:     "sensord",
		},
		StateDB: StateDBConfig{
			Backend:  BackendRedis,
			Address:  "127.0.0.1:6379",
			DB:       types.DefaultStateDBID,
			BoltPath: "/var/lib/dpu-platform/state.db",
			Timeout:  5 * time.Second,
		},
		Monitor: MonitorConfig{
			MetricsAddr: ":9105",
			Debounce:    500 * time.Millisecond,
		},
	}
}

// LoadConfig loads configuration from a YAML file on top of the defaults
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks that every path is set and that enumerated values are known
func (c *Config) Validate() error {
	required := map[string]string{
		"platform_json":        c.PlatformJSON,
		"lock_dir":             c.LockDir,
		"sysfs.devices_root":   c.Sysfs.DevicesRoot,
		"sysfs.pci_root":       c.Sysfs.PCIRoot,
		"sensors.template_dir": c.Sensors.TemplateDir,
		"sensors.conf_dir":     c.Sensors.ConfDir,
		"sensors.service":      c.Sensors.Service,
	}
	for name, value := range required {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	switch c.StateDB.Backend {
	case BackendRedis:
		if c.StateDB.Address == "" {
			return fmt.Errorf("state_db.address is required for the redis backend")
		}
		if c.StateDB.DB < 0 {
			return fmt.Errorf("state_db.db must be >= 0")
		}
	case BackendBolt:
		if c.StateDB.BoltPath == "" {
			return fmt.Errorf("state_db.bolt_path is required for the bolt backend")
		}
	case BackendNone:
	default:
		return fmt.Errorf("invalid state_db.backend: %s", c.StateDB.Backend)
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}

	if c.StateDB.Timeout < 0 {
		return fmt.Errorf("state_db.timeout must not be negative")
	}
	if c.Monitor.Debounce < 0 {
		return fmt.Errorf("monitor.debounce must not be negative")
	}
	return nil
}
