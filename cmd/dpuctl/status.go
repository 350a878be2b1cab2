package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	vfs "github.com/twpayne/go-vfs"

	"dpu-platform/pkg/types"
)

var (
	statusFormat  string
	statusTimeout time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status [module...]",
	Short: "Show presence and transition state of DPU modules",
	Long: `Show whether each DPU module is enumerated on the PCI bus, the
transition recorded for it in the state database, and whether its sensors
are suppressed. Without arguments every module in platform.json is shown.

Examples:
  dpuctl status                  # All modules
  dpuctl status DPU0 DPU1        # Selected modules
  dpuctl status --format json    # JSON output with network devices`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusFormat, "format", "table", "Output format: table, json, simple")
	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", 5*time.Second, "State database timeout")
}

func runStatus(cmd *cobra.Command, args []string) error {
	if err := validateFormat(statusFormat); err != nil {
		return err
	}

	factory := newModuleFactory(cfg, vfs.OSFS)
	defer factory.Close()

	mods, err := factory.modules(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
	defer cancel()

	statuses := make([]types.ModuleStatus, 0, len(mods))
	for _, m := range mods {
		statuses = append(statuses, m.Status(ctx))
	}
	fmt.Fprint(cmd.OutOrStdout(), formatStatus(statuses, statusFormat))
	return nil
}
