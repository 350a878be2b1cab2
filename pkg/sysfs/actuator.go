// Package sysfs performs PCI hot-remove and bus rescan through the kernel's
// sysfs control files and reads basic device information from the same tree.
package sysfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	vfs "github.com/twpayne/go-vfs"
)

// Default sysfs locations
const (
	DefaultDevicesRoot = "/sys/bus/pci/devices"
	DefaultPCIRoot     = "/sys/bus/pci"
)

// Actuator writes to the PCI remove and rescan control files
type Actuator struct {
	fs          vfs.FS
	devicesRoot string
	pciRoot     string
}

// NewActuator creates an actuator; empty roots fall back to the defaults
func NewActuator(fs vfs.FS, devicesRoot, pciRoot string) *Actuator {
	if devicesRoot == "" {
		devicesRoot = DefaultDevicesRoot
	}
	if pciRoot == "" {
		pciRoot = DefaultPCIRoot
	}
	return &Actuator{fs: fs, devicesRoot: devicesRoot, pciRoot: pciRoot}
}

// DevicesRoot returns the directory holding one entry per PCI function
func (a *Actuator) DevicesRoot() string {
	return a.devicesRoot
}

// RemovePath returns the remove control file of a device
func (a *Actuator) RemovePath(bus string) string {
	return filepath.Join(a.devicesRoot, bus, "remove")
}

// RescanPath returns the bus-wide rescan control file
func (a *Actuator) RescanPath() string {
	return filepath.Join(a.pciRoot, "rescan")
}

// Remove hot-removes the device at bus
func (a *Actuator) Remove(bus string) error {
	if bus == "" {
		return fmt.Errorf("empty bus address")
	}
	return a.trigger(a.RemovePath(bus))
}

// Rescan asks the kernel to re-enumerate the PCI bus
func (a *Actuator) Rescan() error {
	return a.trigger(a.RescanPath())
}

// trigger writes "1" to a kernel control file. The file is never created.
func (a *Actuator) trigger(path string) error {
	f, err := a.fs.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	if _, err := f.WriteString("1"); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Present reports whether the device at bus is currently enumerated
func (a *Actuator) Present(bus string) bool {
	if bus == "" {
		return false
	}
	_, err := a.fs.Stat(filepath.Join(a.devicesRoot, bus))
	return err == nil
}

// IsPciAddress checks if a string looks like a PCI address
func IsPciAddress(name string) bool {
	// dddd:dd:dd.d, lowercase hex, e.g. 0000:01:00.0
	if len(name) != 12 {
		return false
	}
	if name[4] != ':' || name[7] != ':' || name[10] != '.' {
		return false
	}
	for i, c := range name {
		if i == 4 || i == 7 || i == 10 {
			continue
		}
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

// BusFromPath extracts the PCI address from a path below root
func BusFromPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	bus := strings.Split(filepath.ToSlash(rel), "/")[0]
	if !IsPciAddress(bus) {
		return ""
	}
	return bus
}
