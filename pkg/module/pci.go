package module

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"dpu-platform/pkg"
	"dpu-platform/pkg/platform"
	"dpu-platform/pkg/types"
)

// PCIBusFromPlatformJSON resolves the module's bus address from the platform
// descriptor. A resolved address is cached and never looked up again.
func (m *Module) PCIBusFromPlatformJSON() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busInfo != "" {
		return m.busInfo, true
	}

	logger := pkg.ForModule(m.name).WithField("path", m.descriptorPath)
	desc, err := platform.Load(m.fs, m.descriptorPath)
	if err != nil {
		logger.WithError(err).Debug("failed to load platform descriptor")
		return "", false
	}
	bus, err := desc.BusInfo(m.name)
	if err != nil {
		logger.WithError(err).Debug("no bus address in platform descriptor")
		return "", false
	}
	m.busInfo = bus
	return bus, true
}

// PCIRemovalFromPlatformJSON hot-removes the module through sysfs using the
// address from the platform descriptor
func (m *Module) PCIRemovalFromPlatformJSON(ctx context.Context) bool {
	return m.fromPlatformJSON(ctx, types.StateDetaching, func(bus string) error {
		return m.actuator.Remove(bus)
	})
}

// PCIReattachFromPlatformJSON rescans the PCI bus to bring the module back
func (m *Module) PCIReattachFromPlatformJSON(ctx context.Context) bool {
	return m.fromPlatformJSON(ctx, types.StateAttaching, func(string) error {
		return m.actuator.Rescan()
	})
}

func (m *Module) fromPlatformJSON(ctx context.Context, state types.TransitionState, write func(bus string) error) bool {
	bus, ok := m.PCIBusFromPlatformJSON()
	if !ok {
		pkg.ForModule(m.name).Error("PCI bus address not found in platform descriptor")
		return false
	}

	logger := pkg.ForBus(m.name, bus).WithField("state", state)
	err := m.locker.WithLock(m.name, func() error {
		m.recorder.Record(ctx, bus, state)
		return write(bus)
	})
	if err != nil {
		logger.WithError(err).Error("PCI sysfs operation failed")
		return false
	}
	logger.Info("PCI sysfs operation completed")
	return true
}

// HandlePCIRemoval detaches every PCI function of the module. Vendors that
// do not report bus addresses get the platform descriptor path.
func (m *Module) HandlePCIRemoval(ctx context.Context) bool {
	return m.handlePCI(ctx, types.StateDetaching, m.platform.PCIDetach, m.PCIRemovalFromPlatformJSON)
}

// HandlePCIRescan reattaches every PCI function of the module
func (m *Module) HandlePCIRescan(ctx context.Context) bool {
	return m.handlePCI(ctx, types.StateAttaching, m.platform.PCIReattach, m.PCIReattachFromPlatformJSON)
}

func (m *Module) handlePCI(ctx context.Context, state types.TransitionState,
	hook func(context.Context, string) error, fallback func(context.Context) bool) bool {
	logger := pkg.ForModule(m.name).WithField("state", state)

	buses, err := m.platform.PCIBusInfo()
	if errors.Is(err, ErrNotImplemented) {
		logger.Debug("vendor does not report PCI bus info, using platform descriptor")
		return fallback(ctx)
	}
	if err != nil {
		logger.WithError(err).Error("failed to get PCI bus info")
		return false
	}
	if len(buses) == 0 {
		logger.Error("vendor reported no PCI bus addresses")
		return false
	}

	var result *multierror.Error
	for _, bus := range buses {
		err := m.locker.WithLock(m.name, func() error {
			m.recorder.Record(ctx, bus, state)
			return hook(ctx, bus)
		})
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", bus, err))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		logger.WithError(err).Error("PCI operation failed")
		return false
	}
	logger.WithField("buses", buses).Info("PCI operation completed")
	return true
}

// Status reports presence, identity and transition state of the module
func (m *Module) Status(ctx context.Context) types.ModuleStatus {
	status := types.ModuleStatus{
		Name:              m.name,
		SensorsSuppressed: m.gate.Active(m.name),
	}
	bus, ok := m.PCIBusFromPlatformJSON()
	if !ok {
		return status
	}
	status.BusInfo = bus
	status.Present = m.actuator.Present(bus)
	if entry, ok := m.recorder.Lookup(ctx, bus); ok {
		status.Transition = entry.DPUState
	}
	if !status.Present {
		return status
	}

	if dev, err := m.actuator.Describe(bus); err == nil {
		status.VendorID = dev.VendorID
		status.DeviceID = dev.DeviceID
		status.Driver = dev.KernelDriver
	}
	if netdevs, err := m.actuator.NetDevices(bus, m.driverInfo); err == nil {
		status.NetDevices = netdevs
	}
	return status
}
