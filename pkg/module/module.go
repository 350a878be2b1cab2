// Package module models a pluggable DPU module and coordinates its PCI
// hot-remove and rescan with the platform's vendor hooks.
package module

import (
	"sync"

	vfs "github.com/twpayne/go-vfs"

	"dpu-platform/pkg/pcilock"
	"dpu-platform/pkg/platform"
	"dpu-platform/pkg/sensors"
	"dpu-platform/pkg/statedb"
	"dpu-platform/pkg/sysfs"
)

// Sensor is a handle to one hardware sensor of a module
type Sensor interface {
	Name() string
}

// Module is one DPU known to the platform
type Module struct {
	name           string
	platform       Platform
	fs             vfs.FS
	descriptorPath string
	locker         *pcilock.Locker
	recorder       *statedb.Recorder
	actuator       *sysfs.Actuator
	gate           *sensors.Gate
	driverInfo     sysfs.DriverInfoSource

	mu      sync.Mutex
	busInfo string

	voltageSensors []Sensor
	currentSensors []Sensor
}

// Option configures a Module
type Option func(*Module)

// WithPlatform sets the vendor hooks
func WithPlatform(p Platform) Option {
	return func(m *Module) {
		m.platform = p
	}
}

// WithFS sets the filesystem used by components built from defaults
func WithFS(fs vfs.FS) Option {
	return func(m *Module) {
		m.fs = fs
	}
}

// WithDescriptorPath sets the platform descriptor location
func WithDescriptorPath(path string) Option {
	return func(m *Module) {
		m.descriptorPath = path
	}
}

func WithLocker(l *pcilock.Locker) Option {
	return func(m *Module) {
		m.locker = l
	}
}

func WithRecorder(r *statedb.Recorder) Option {
	return func(m *Module) {
		m.recorder = r
	}
}

func WithActuator(a *sysfs.Actuator) Option {
	return func(m *Module) {
		m.actuator = a
	}
}

func WithSensorGate(g *sensors.Gate) Option {
	return func(m *Module) {
		m.gate = g
	}
}

// WithDriverInfo sets where network driver details come from
func WithDriverInfo(src sysfs.DriverInfoSource) Option {
	return func(m *Module) {
		m.driverInfo = src
	}
}

// WithVoltageSensors sets the voltage sensors discovered by the vendor plugin
func WithVoltageSensors(s ...Sensor) Option {
	return func(m *Module) {
		m.voltageSensors = s
	}
}

// WithCurrentSensors sets the current sensors discovered by the vendor plugin
func WithCurrentSensors(s ...Sensor) Option {
	return func(m *Module) {
		m.currentSensors = s
	}
}

// New creates a module. Components not supplied as options are built on
// the host filesystem at their default locations, and the state store is
// left unconfigured.
func New(name string, opts ...Option) *Module {
	m := &Module{name: name}
	for _, opt := range opts {
		opt(m)
	}
	if m.platform == nil {
		m.platform = Unimplemented{}
	}
	if m.fs == nil {
		m.fs = vfs.OSFS
	}
	if m.descriptorPath == "" {
		m.descriptorPath = platform.DefaultPath
	}
	if m.locker == nil {
		m.locker = pcilock.New(m.fs, pcilock.DefaultDir)
	}
	if m.recorder == nil {
		m.recorder = statedb.NewRecorder(nil)
	}
	if m.actuator == nil {
		m.actuator = sysfs.NewActuator(m.fs, "", "")
	}
	if m.gate == nil {
		m.gate = sensors.NewGate(m.fs, nil, sensors.Options{})
	}
	return m
}

// Name returns the module name, e.g. "DPU0"
func (m *Module) Name() string {
	return m.name
}

// Recorder returns the transition state recorder
func (m *Module) Recorder() *statedb.Recorder {
	return m.recorder
}

// Actuator returns the sysfs actuator
func (m *Module) Actuator() *sysfs.Actuator {
	return m.actuator
}

func (m *Module) GetDPUID() (int, error) {
	return m.platform.DPUID()
}

func (m *Module) GetRebootCause() (string, string, error) {
	return m.platform.RebootCause()
}

func (m *Module) GetStateInfo() (map[string]string, error) {
	return m.platform.StateInfo()
}

func (m *Module) GetPCIBusInfo() ([]string, error) {
	return m.platform.PCIBusInfo()
}

func (m *Module) NumVoltageSensors() int {
	return len(m.voltageSensors)
}

func (m *Module) AllVoltageSensors() []Sensor {
	return append([]Sensor{}, m.voltageSensors...)
}

// VoltageSensor returns the sensor at index, or nil when out of range
func (m *Module) VoltageSensor(index int) Sensor {
	return sensorAt(m.voltageSensors, index)
}

func (m *Module) NumCurrentSensors() int {
	return len(m.currentSensors)
}

func (m *Module) AllCurrentSensors() []Sensor {
	return append([]Sensor{}, m.currentSensors...)
}

// CurrentSensor returns the sensor at index, or nil when out of range
func (m *Module) CurrentSensor(index int) Sensor {
	return sensorAt(m.currentSensors, index)
}

func sensorAt(list []Sensor, index int) Sensor {
	if index < 0 || index >= len(list) {
		return nil
	}
	return list[index]
}

// HandleSensorRemoval suppresses sensor polling before the module goes away
func (m *Module) HandleSensorRemoval() bool {
	return m.gate.Disable(m.name)
}

// HandleSensorAddition restores sensor polling once the module is back
func (m *Module) HandleSensorAddition() bool {
	return m.gate.Enable(m.name)
}

// Close releases the state store connection. It does not touch the store
// contents.
func (m *Module) Close() error {
	if conn := m.recorder.Connector(); conn != nil {
		return conn.Close()
	}
	return nil
}
