package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dpu-platform/internal/config"
	"dpu-platform/pkg"
)

const defaultConfigPath = "/etc/dpu-platform/dpuctl.yaml"

var (
	// Global flags
	configPath string
	logLevel   string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "dpuctl",
	Short: "DPU PCI control - hot-remove, rescan and sensor gating for DPU modules",
	Long: `dpuctl coordinates PCIe hot-remove and rescan of the DPU modules of a
smart switch, records the transition in the shared state database, and
suppresses sensor polling while a module is away.

Examples:
  dpuctl list                        # List DPU modules from platform.json
  dpuctl resolve DPU0                # Print the PCI address of DPU0
  dpuctl remove DPU0 --sensors       # Suppress sensors, then hot-remove DPU0
  dpuctl rescan DPU0 --sensors       # Rescan the bus, then restore sensors
  dpuctl status --format json        # Presence and transition state
  dpuctl watch                       # Export presence metrics`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
}

// setup loads the configuration and applies the log level. The default
// config file is optional; an explicitly named one must exist.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = loadConfig(configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	if err := pkg.SetLogLevelFromString(level); err != nil {
		return fmt.Errorf("invalid log level: %v", err)
	}
	return nil
}

func loadConfig(path string, explicit bool) (*config.Config, error) {
	if _, err := os.Stat(path); err != nil && !explicit {
		pkg.Debug("No config file at %s, using defaults", path)
		return config.Default(), nil
	}
	return config.LoadConfig(path)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
