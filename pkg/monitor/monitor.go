// Package monitor watches the PCI device tree for DPU modules appearing and
// disappearing and exports their presence and transition state as metrics.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	vfs "github.com/twpayne/go-vfs"

	"dpu-platform/pkg"
	"dpu-platform/pkg/module"
	"dpu-platform/pkg/sysfs"
	"dpu-platform/pkg/types"
)

const defaultDebounce = 500 * time.Millisecond

// Options configure a Monitor
type Options struct {
	// DevicesRoot is the PCI devices directory as seen through the FS
	DevicesRoot string
	Debounce    time.Duration
	Registerer  prometheus.Registerer
}

// Monitor observes module presence. It never triggers removal or rescan.
type Monitor struct {
	fs          vfs.FS
	modules     []*module.Module
	devicesRoot string
	debounce    time.Duration
	logger      *logrus.Entry

	present    *prometheus.GaugeVec
	transition *prometheus.GaugeVec

	mu       sync.Mutex
	lastSeen map[string]bool
}

// New creates a monitor for modules and registers its gauges
func New(fs vfs.FS, modules []*module.Module, opts Options) (*Monitor, error) {
	m := &Monitor{
		fs:          fs,
		modules:     modules,
		devicesRoot: opts.DevicesRoot,
		debounce:    opts.Debounce,
		logger:      pkg.WithField("component", "monitor"),
		lastSeen:    make(map[string]bool),
		present: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dpu_pci_present",
			Help: "Whether the DPU module's PCI function is enumerated (1) or not (0).",
		}, []string{"module"}),
		transition: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dpu_pci_transition",
			Help: "PCI transition state recorded for the DPU module.",
		}, []string{"module", "state"}),
	}
	if m.devicesRoot == "" {
		m.devicesRoot = sysfs.DefaultDevicesRoot
	}
	if m.debounce <= 0 {
		m.debounce = defaultDebounce
	}
	if opts.Registerer != nil {
		if err := opts.Registerer.Register(m.present); err != nil {
			return nil, fmt.Errorf("failed to register presence gauge: %w", err)
		}
		if err := opts.Registerer.Register(m.transition); err != nil {
			return nil, fmt.Errorf("failed to register transition gauge: %w", err)
		}
	}
	return m, nil
}

// Refresh recomputes every gauge from sysfs and the state store
func (m *Monitor) Refresh(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, mod := range m.modules {
		status := mod.Status(ctx)
		m.present.WithLabelValues(status.Name).Set(boolToFloat(status.Present))
		for _, state := range []types.TransitionState{types.StateDetaching, types.StateAttaching} {
			m.transition.WithLabelValues(status.Name, string(state)).Set(boolToFloat(status.Transition == state))
		}

		was, seen := m.lastSeen[status.Name]
		if seen && was != status.Present {
			logger := pkg.ForModule(status.Name).WithField("bus", status.BusInfo)
			if status.Present {
				logger.Info("module PCI function appeared")
			} else {
				logger.Info("module PCI function disappeared")
			}
		}
		m.lastSeen[status.Name] = status.Present
	}
}

// Run watches the devices directory until ctx is done. Bursts of events are
// collapsed into one refresh.
func (m *Monitor) Run(ctx context.Context) error {
	watchPath, err := m.fs.RawPath(m.devicesRoot)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(watchPath); err != nil {
		return fmt.Errorf("failed to watch %s: %w", watchPath, err)
	}
	m.logger.WithField("path", watchPath).Info("Starting PCI presence monitoring")

	m.Refresh(ctx)

	timer := time.NewTimer(m.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if m.relevant(watchPath, event) {
				timer.Reset(m.debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			m.logger.WithError(err).Error("file system monitor error")
		case <-timer.C:
			m.Refresh(ctx)
		case <-ctx.Done():
			m.logger.Info("Stopping PCI presence monitoring")
			return nil
		}
	}
}

// relevant reports whether an event touches the device of a known module
func (m *Monitor) relevant(watchPath string, event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	bus := sysfs.BusFromPath(watchPath, event.Name)
	if bus == "" {
		return false
	}
	for _, mod := range m.modules {
		if b, ok := mod.PCIBusFromPlatformJSON(); ok && b == bus {
			m.logger.WithFields(logrus.Fields{"module": mod.Name(), "bus": bus, "op": event.Op.String()}).Debug("PCI change detected")
			return true
		}
	}
	return false
}

func boolToFloat(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
