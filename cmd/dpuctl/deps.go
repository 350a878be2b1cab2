package main

import (
	"fmt"

	vfs "github.com/twpayne/go-vfs"

	"dpu-platform/internal/config"
	"dpu-platform/pkg"
	"dpu-platform/pkg/module"
	"dpu-platform/pkg/pcilock"
	"dpu-platform/pkg/platform"
	"dpu-platform/pkg/sensors"
	"dpu-platform/pkg/statedb"
	"dpu-platform/pkg/sysfs"
)

// newConnector opens the configured state store; nil for the none backend
func newConnector(c *config.Config) (statedb.Connector, error) {
	switch c.StateDB.Backend {
	case config.BackendRedis:
		return statedb.NewRedisConnector(statedb.RedisOptions{
			Address:  c.StateDB.Address,
			Password: c.StateDB.Password,
			DB:       c.StateDB.DB,
		}), nil
	case config.BackendBolt:
		conn, err := statedb.OpenBolt(c.StateDB.BoltPath, c.StateDB.Timeout)
		if err != nil {
			return nil, err
		}
		return conn, nil
	case config.BackendNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown state_db backend: %s", c.StateDB.Backend)
	}
}

// moduleFactory builds modules that share one filesystem and state store
type moduleFactory struct {
	cfg      *config.Config
	fs       vfs.FS
	recorder *statedb.Recorder
	runner   sensors.Runner
}

// newModuleFactory never fails on the state store: an unreachable store
// leaves transitions unrecorded but sysfs operations still run
func newModuleFactory(c *config.Config, fs vfs.FS) *moduleFactory {
	conn, err := newConnector(c)
	if err != nil {
		pkg.WithError(err).WithField("backend", c.StateDB.Backend).Warn("state store unavailable, transitions will not be recorded")
	}
	return &moduleFactory{
		cfg:      c,
		fs:       fs,
		recorder: statedb.NewRecorder(conn),
		runner:   sensors.RealRunner{},
	}
}

func (f *moduleFactory) module(name string) *module.Module {
	return module.New(name,
		module.WithPlatform(module.Unimplemented{}),
		module.WithFS(f.fs),
		module.WithDescriptorPath(f.cfg.PlatformJSON),
		module.WithLocker(pcilock.New(f.fs, f.cfg.LockDir)),
		module.WithRecorder(f.recorder),
		module.WithActuator(sysfs.NewActuator(f.fs, f.cfg.Sysfs.DevicesRoot, f.cfg.Sysfs.PCIRoot)),
		module.WithSensorGate(sensors.NewGate(f.fs, f.runner, sensors.Options{
			TemplateDir: f.cfg.Sensors.TemplateDir,
			ConfDir:     f.cfg.Sensors.ConfDir,
			Service:     f.cfg.Sensors.Service,
		})),
	)
}

// modules builds the named modules, or every module in the descriptor
func (f *moduleFactory) modules(names []string) ([]*module.Module, error) {
	if len(names) == 0 {
		desc, err := platform.Load(f.fs, f.cfg.PlatformJSON)
		if err != nil {
			return nil, err
		}
		names = desc.Modules()
	}
	var mods []*module.Module
	for _, name := range names {
		mods = append(mods, f.module(name))
	}
	return mods, nil
}

func (f *moduleFactory) Close() error {
	if conn := f.recorder.Connector(); conn != nil {
		return conn.Close()
	}
	return nil
}

// withoutStateDB returns a copy of c that does not connect to a state store
func withoutStateDB(c *config.Config) *config.Config {
	clone := *c
	clone.StateDB.Backend = config.BackendNone
	return &clone
}
