package sysfs

import (
	"errors"
	"testing"

	"github.com/safchain/ethtool"
	"github.com/twpayne/go-vfs/vfst"
)

func newTestActuator(t *testing.T, root interface{}) (*Actuator, *vfst.TestFS) {
	t.Helper()
	fs, cleanup, err := vfst.NewTestFS(root)
	if err != nil {
		t.Fatalf("failed to create test filesystem: %v", err)
	}
	t.Cleanup(cleanup)
	return NewActuator(fs, "", ""), fs
}

func TestRemoveWritesOne(t *testing.T) {
	a, fs := newTestActuator(t, map[string]interface{}{
		"/sys/bus/pci/devices/0000:01:00.0/remove": "",
	})

	if err := a.Remove("0000:01:00.0"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	vfst.RunTests(t, fs, "remove",
		vfst.TestPath("/sys/bus/pci/devices/0000:01:00.0/remove", vfst.TestContentsString("1")),
	)
}

func TestRescanWritesOne(t *testing.T) {
	a, fs := newTestActuator(t, map[string]interface{}{
		"/sys/bus/pci/rescan": "",
	})

	if err := a.Rescan(); err != nil {
		t.Fatalf("Rescan failed: %v", err)
	}

	vfst.RunTests(t, fs, "rescan",
		vfst.TestPath("/sys/bus/pci/rescan", vfst.TestContentsString("1")),
	)
}

func TestTriggerNeverCreatesFiles(t *testing.T) {
	a, fs := newTestActuator(t, map[string]interface{}{
		"/sys/bus/pci/devices": &vfst.Dir{Perm: 0o755},
	})

	if err := a.Remove("0000:01:00.0"); err == nil {
		t.Error("expected error removing a device without a remove file")
	}
	if err := a.Rescan(); err == nil {
		t.Error("expected error without a rescan file")
	}
	if err := a.Remove(""); err == nil {
		t.Error("expected error for empty bus address")
	}

	vfst.RunTests(t, fs, "no files created",
		vfst.TestPath("/sys/bus/pci/rescan", vfst.TestDoesNotExist),
		vfst.TestPath("/sys/bus/pci/devices/0000:01:00.0", vfst.TestDoesNotExist),
	)
}

func TestCustomRoots(t *testing.T) {
	a, _ := newTestActuator(t, map[string]interface{}{
		"/host/sys/pci/rescan": "",
	})
	a = NewActuator(a.fs, "/host/sys/pci/devices", "/host/sys/pci")

	if got := a.RemovePath("0000:01:00.0"); got != "/host/sys/pci/devices/0000:01:00.0/remove" {
		t.Errorf("unexpected remove path %s", got)
	}
	if got := a.RescanPath(); got != "/host/sys/pci/rescan" {
		t.Errorf("unexpected rescan path %s", got)
	}
	if err := a.Rescan(); err != nil {
		t.Errorf("Rescan failed: %v", err)
	}
}

func TestPresent(t *testing.T) {
	a, _ := newTestActuator(t, map[string]interface{}{
		"/sys/bus/pci/devices/0000:01:00.0/vendor": "0x15b3\n",
	})

	if !a.Present("0000:01:00.0") {
		t.Error("expected 0000:01:00.0 to be present")
	}
	if a.Present("0000:02:00.0") {
		t.Error("expected 0000:02:00.0 to be absent")
	}
	if a.Present("") {
		t.Error("empty bus address should never be present")
	}
}

// TestIsPciAddress tests PCI address validation
func TestIsPciAddress(t *testing.T) {
	testCases := []struct {
		name     string
		expected bool
	}{
		{"0000:01:00.0", true},
		{"0000:01:00.1", true},
		{"0000:0a:0b.c", true},
		{"0000:01:00", false},     // Missing function
		{"0000:01:00.0.1", false}, // Too many parts
		{"invalid", false},        // Invalid format
		{"0000:01:00.g", false},   // Invalid hex
		{"0000-01-00.0", false},   // Wrong separators
		{"", false},
	}

	for _, tc := range testCases {
		result := IsPciAddress(tc.name)
		if result != tc.expected {
			t.Errorf("IsPciAddress(%s): expected %t, got %t", tc.name, tc.expected, result)
		}
	}
}

func TestBusFromPath(t *testing.T) {
	root := "/sys/bus/pci/devices"
	testCases := []struct {
		path     string
		expected string
	}{
		{"/sys/bus/pci/devices/0000:01:00.0", "0000:01:00.0"},
		{"/sys/bus/pci/devices/0000:01:00.0/net/eth0", "0000:01:00.0"},
		{"/sys/bus/pci/devices/not-a-device", ""},
		{"/sys/class/net/eth0", ""},
	}

	for _, tc := range testCases {
		if got := BusFromPath(root, tc.path); got != tc.expected {
			t.Errorf("BusFromPath(%s): expected %q, got %q", tc.path, tc.expected, got)
		}
	}
}

// TestSysfsDeviceParsing tests reading identity attributes
func TestSysfsDeviceParsing(t *testing.T) {
	a, _ := newTestActuator(t, map[string]interface{}{
		"/sys/bus/pci/devices/0000:01:00.0": map[string]interface{}{
			"vendor":    "0x15b3\n",
			"device":    "0xa2dc\n",
			"numa_node": "1\n",
			"driver":    &vfst.Symlink{Target: "../../../bus/pci/drivers/mlx5_core"},
		},
		"/sys/bus/pci/devices/0000:02:00.0": map[string]interface{}{
			"vendor": "0x1dd8\n",
			"device": "0x0002\n",
		},
	})

	device, err := a.Describe("0000:01:00.0")
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if device.VendorID != "15b3" || device.DeviceID != "a2dc" {
		t.Errorf("unexpected ids %s:%s", device.VendorID, device.DeviceID)
	}
	if device.KernelDriver != "mlx5_core" {
		t.Errorf("expected driver mlx5_core, got %s", device.KernelDriver)
	}
	if device.NUMANode != 1 {
		t.Errorf("expected NUMA node 1, got %d", device.NUMANode)
	}

	// No driver bound and no NUMA information
	device, err = a.Describe("0000:02:00.0")
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if device.KernelDriver != "" {
		t.Errorf("expected no driver, got %s", device.KernelDriver)
	}
	if device.NUMANode != -1 {
		t.Errorf("expected NUMA node -1, got %d", device.NUMANode)
	}

	if _, err := a.Describe("0000:03:00.0"); err == nil {
		t.Error("expected error for missing device")
	}
}

type fakeDriverInfo map[string]ethtool.DrvInfo

func (f fakeDriverInfo) DriverInfo(intf string) (ethtool.DrvInfo, error) {
	info, ok := f[intf]
	if !ok {
		return ethtool.DrvInfo{}, errors.New("no such device")
	}
	return info, nil
}

func TestNetDevices(t *testing.T) {
	a, _ := newTestActuator(t, map[string]interface{}{
		"/sys/bus/pci/devices/0000:01:00.0/net": map[string]interface{}{
			"p1":  &vfst.Dir{Perm: 0o755},
			"p0":  &vfst.Dir{Perm: 0o755},
			"pf0": &vfst.Dir{Perm: 0o755},
		},
	})

	src := fakeDriverInfo{
		"p0": {Driver: "mlx5_core", FwVersion: "24.35.1012"},
		"p1": {Driver: "mlx5_core", FwVersion: "24.35.1012"},
	}

	devices, err := a.NetDevices("0000:01:00.0", src)
	if err != nil {
		t.Fatalf("NetDevices failed: %v", err)
	}
	if len(devices) != 3 {
		t.Fatalf("expected 3 devices, got %d", len(devices))
	}
	if devices[0].Name != "p0" || devices[1].Name != "p1" || devices[2].Name != "pf0" {
		t.Errorf("devices not sorted: %+v", devices)
	}
	if devices[0].Driver != "mlx5_core" || devices[0].FirmwareVersion != "24.35.1012" {
		t.Errorf("unexpected driver info %+v", devices[0])
	}
	// ethtool failures leave the interface listed without details
	if devices[2].Driver != "" {
		t.Errorf("expected empty driver for pf0, got %s", devices[2].Driver)
	}

	if _, err := a.NetDevices("0000:02:00.0", src); err == nil {
		t.Error("expected error for device without net directory")
	}
}
