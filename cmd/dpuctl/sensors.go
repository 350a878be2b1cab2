package main

import (
	"fmt"

	"github.com/spf13/cobra"
	vfs "github.com/twpayne/go-vfs"

	"dpu-platform/pkg"
)

var sensorsCmd = &cobra.Command{
	Use:   "sensors",
	Short: "Suppress or restore sensor polling for a DPU module",
}

var sensorsDisableCmd = &cobra.Command{
	Use:   "disable <module>",
	Short: "Install the module's sensor ignore rule and restart the sensor service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSensors(args[0], false)
	},
}

var sensorsEnableCmd = &cobra.Command{
	Use:   "enable <module>",
	Short: "Remove the module's sensor ignore rule and restart the sensor service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSensors(args[0], true)
	},
}

func init() {
	rootCmd.AddCommand(sensorsCmd)
	sensorsCmd.AddCommand(sensorsDisableCmd)
	sensorsCmd.AddCommand(sensorsEnableCmd)
}

func runSensors(name string, enable bool) error {
	factory := newModuleFactory(withoutStateDB(cfg), vfs.OSFS)
	defer factory.Close()

	m := factory.module(name)
	if enable {
		if !m.HandleSensorAddition() {
			return fmt.Errorf("failed to restore sensors of %s", name)
		}
		pkg.Info("Sensors of %s restored", name)
		return nil
	}
	if !m.HandleSensorRemoval() {
		return fmt.Errorf("failed to suppress sensors of %s", name)
	}
	pkg.Info("Sensors of %s suppressed", name)
	return nil
}
