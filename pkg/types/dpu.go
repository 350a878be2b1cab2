package types

import "fmt"

// TransitionState is the PCI lifecycle phase of a module as published in the state store
type TransitionState string

const (
	StateDetaching TransitionState = "detaching"
	StateAttaching TransitionState = "attaching"
)

// Valid reports whether s is one of the known transition phases
func (s TransitionState) Valid() bool {
	return s == StateDetaching || s == StateAttaching
}

// State store layout shared with other platform daemons
const (
	PCIeDetachTable  = "PCIE_DETACH_INFO"
	TableSeparator   = "|"
	FieldBusInfo     = "bus_info"
	FieldDPUState    = "dpu_state"
	DefaultStateDBID = 6
)

// PCIeDetachKey returns the state store key for a bus address
func PCIeDetachKey(bus string) string {
	return fmt.Sprintf("%s%s%s", PCIeDetachTable, TableSeparator, bus)
}

// StateEntry is one PCIE_DETACH_INFO record
type StateEntry struct {
	BusInfo  string          `json:"bus_info"`
	DPUState TransitionState `json:"dpu_state"`
}

// NetDeviceInfo describes a network interface exposed by a module's PCI function
type NetDeviceInfo struct {
	Name            string `json:"name"`
	Driver          string `json:"driver,omitempty"`
	FirmwareVersion string `json:"firmware_version,omitempty"`
}

// ModuleStatus is the status report printed by dpuctl
type ModuleStatus struct {
	Name       string          `json:"name"`
	BusInfo    string          `json:"bus_info,omitempty"`
	Present    bool            `json:"present"`
	VendorID   string          `json:"vendor_id,omitempty"`
	DeviceID   string          `json:"device_id,omitempty"`
	Driver     string          `json:"driver,omitempty"`
	Transition TransitionState `json:"transition,omitempty"`
	NetDevices []NetDeviceInfo `json:"net_devices,omitempty"`

	// SensorsSuppressed is set while an ignore rule is installed
	SensorsSuppressed bool `json:"sensors_suppressed"`
}
