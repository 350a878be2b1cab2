package main

import (
	"fmt"

	"github.com/spf13/cobra"
	vfs "github.com/twpayne/go-vfs"

	"dpu-platform/pkg"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <module>",
	Short: "Print the PCI address of a DPU module",
	Args:  cobra.ExactArgs(1),
	RunE:  runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	factory := newModuleFactory(withoutStateDB(cfg), vfs.OSFS)
	defer factory.Close()

	bus, ok := factory.module(args[0]).PCIBusFromPlatformJSON()
	if !ok {
		return fmt.Errorf("no PCI address for %s in %s", args[0], cfg.PlatformJSON)
	}
	if err := validateBus(bus); err != nil {
		pkg.Warn("%s: %v", args[0], err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), bus)
	return nil
}
