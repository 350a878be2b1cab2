package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	vfs "github.com/twpayne/go-vfs"

	"dpu-platform/pkg"
	"dpu-platform/pkg/sysfs"
)

var (
	removeSensors bool
	rescanSensors bool
)

var removeCmd = &cobra.Command{
	Use:   "remove <module>",
	Short: "Hot-remove the PCI function of a DPU module",
	Long: `Hot-remove a DPU module from the PCI bus.

The module's PCI address is taken from platform.json. The operation is
serialized with any other removal or rescan of the same module, and the
transition is recorded in the state database as "detaching".

Examples:
  dpuctl remove DPU0              # Hot-remove DPU0
  dpuctl remove DPU0 --sensors    # Suppress DPU0 sensors first`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

var rescanCmd = &cobra.Command{
	Use:   "rescan <module>",
	Short: "Rescan the PCI bus to bring a DPU module back",
	Long: `Rescan the PCI bus after a DPU module was hot-removed.

The "detaching" record of the module is cleared from the state database
before the rescan is triggered.

Examples:
  dpuctl rescan DPU0              # Rescan for DPU0
  dpuctl rescan DPU0 --sensors    # Restore DPU0 sensors afterwards`,
	Args: cobra.ExactArgs(1),
	RunE: runRescan,
}

func init() {
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(rescanCmd)

	removeCmd.Flags().BoolVar(&removeSensors, "sensors", false, "Suppress module sensors before the removal")
	rescanCmd.Flags().BoolVar(&rescanSensors, "sensors", false, "Restore module sensors after the rescan")
}

func runRemove(cmd *cobra.Command, args []string) error {
	factory := newModuleFactory(cfg, vfs.OSFS)
	defer factory.Close()

	m := factory.module(args[0])
	if removeSensors && !m.HandleSensorRemoval() {
		return fmt.Errorf("failed to suppress sensors of %s", m.Name())
	}
	if !m.HandlePCIRemoval(context.Background()) {
		return fmt.Errorf("PCI removal of %s failed", m.Name())
	}
	pkg.Info("%s removed from the PCI bus", m.Name())
	return nil
}

func runRescan(cmd *cobra.Command, args []string) error {
	factory := newModuleFactory(cfg, vfs.OSFS)
	defer factory.Close()

	m := factory.module(args[0])
	if !m.HandlePCIRescan(context.Background()) {
		return fmt.Errorf("PCI rescan for %s failed", m.Name())
	}
	if bus, ok := m.PCIBusFromPlatformJSON(); ok && !m.Actuator().Present(bus) {
		pkg.Warn("%s (%s) did not reappear after rescan", m.Name(), bus)
	}
	if rescanSensors && !m.HandleSensorAddition() {
		return fmt.Errorf("failed to restore sensors of %s", m.Name())
	}
	pkg.Info("PCI rescan for %s completed", m.Name())
	return nil
}

// validateBus rejects addresses that are not in canonical sysfs form
func validateBus(bus string) error {
	if !sysfs.IsPciAddress(bus) {
		return fmt.Errorf("invalid PCI address: %s", bus)
	}
	return nil
}
