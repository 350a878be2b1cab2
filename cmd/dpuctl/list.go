package main

import (
	"fmt"

	"github.com/spf13/cobra"
	vfs "github.com/twpayne/go-vfs"

	"dpu-platform/pkg"
	"dpu-platform/pkg/platform"
)

var listFormat string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List DPU modules from the platform descriptor",
	Long: `List every DPU module named in platform.json with its PCI address.

Examples:
  dpuctl list                  # Table output
  dpuctl list --format json    # JSON output`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listFormat, "format", "table", "Output format: table, json, simple")
}

func runList(cmd *cobra.Command, args []string) error {
	if err := validateFormat(listFormat); err != nil {
		return err
	}

	desc, err := platform.Load(vfs.OSFS, cfg.PlatformJSON)
	if err != nil {
		return err
	}
	busMap := desc.BusMap()
	pkg.Debug("Found %d DPU modules in %s", len(busMap), cfg.PlatformJSON)

	fmt.Fprint(cmd.OutOrStdout(), formatModuleMap(busMap, listFormat))
	return nil
}
