package sysfs

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/safchain/ethtool"

	"dpu-platform/pkg"
	"dpu-platform/pkg/types"
)

// Device holds the sysfs identity of a PCI function
type Device struct {
	Bus          string
	VendorID     string
	DeviceID     string
	KernelDriver string
	NUMANode     int
}

// DriverInfoSource returns driver details of a network interface
type DriverInfoSource interface {
	DriverInfo(intf string) (ethtool.DrvInfo, error)
}

var (
	ethHandle     *ethtool.Ethtool
	ethHandleOnce sync.Once
)

// defaultDriverInfo lazily opens the shared ethtool handle; nil if unavailable
func defaultDriverInfo() DriverInfoSource {
	ethHandleOnce.Do(func() {
		var err error
		ethHandle, err = ethtool.NewEthtool()
		if err != nil {
			pkg.WithError(err).Debug("failed to create ethtool handle")
		}
	})
	if ethHandle == nil {
		return nil
	}
	return ethHandle
}

// Describe reads vendor, device, driver and NUMA node of the device at bus
func (a *Actuator) Describe(bus string) (*Device, error) {
	devicePath := filepath.Join(a.devicesRoot, bus)
	device := &Device{Bus: bus, NUMANode: -1}

	vendor, err := a.readAttr(devicePath, "vendor")
	if err != nil {
		return nil, fmt.Errorf("failed to read vendor of %s: %w", bus, err)
	}
	device.VendorID = strings.TrimPrefix(vendor, "0x")

	deviceID, err := a.readAttr(devicePath, "device")
	if err != nil {
		return nil, fmt.Errorf("failed to read device of %s: %w", bus, err)
	}
	device.DeviceID = strings.TrimPrefix(deviceID, "0x")

	// Driver might not be bound
	if driverLink, err := a.fs.Readlink(filepath.Join(devicePath, "driver")); err == nil {
		device.KernelDriver = filepath.Base(driverLink)
	}

	if node, err := a.readAttr(devicePath, "numa_node"); err == nil {
		if n, err := strconv.Atoi(node); err == nil {
			device.NUMANode = n
		}
	}

	return device, nil
}

func (a *Actuator) readAttr(devicePath, name string) (string, error) {
	data, err := a.fs.ReadFile(filepath.Join(devicePath, name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// NetDevices lists the network interfaces of the device at bus. Driver
// details come from ethtool when src is non-nil; pass nil to use the
// shared handle.
func (a *Actuator) NetDevices(bus string, src DriverInfoSource) ([]types.NetDeviceInfo, error) {
	netPath := filepath.Join(a.devicesRoot, bus, "net")
	entries, err := a.fs.ReadDir(netPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", netPath, err)
	}
	if src == nil {
		src = defaultDriverInfo()
	}

	var devices []types.NetDeviceInfo
	for _, entry := range entries {
		info := types.NetDeviceInfo{Name: entry.Name()}
		if src != nil {
			if drv, err := src.DriverInfo(entry.Name()); err == nil {
				info.Driver = drv.Driver
				info.FirmwareVersion = drv.FwVersion
			} else {
				pkg.WithError(err).WithField("interface", entry.Name()).Debug("failed to get driver info")
			}
		}
		devices = append(devices, info)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].Name < devices[j].Name })
	return devices, nil
}
