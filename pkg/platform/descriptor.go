// Package platform reads the platform description file (platform.json) that
// maps each DPU module to its PCI bus address.
package platform

import (
	"errors"
	"fmt"
	"sort"

	"github.com/tidwall/gjson"
	vfs "github.com/twpayne/go-vfs"
)

// DefaultPath is where SONiC installs the platform description
const DefaultPath = "/usr/share/sonic/platform/platform.json"

const (
	dpusKey    = "DPUS"
	busInfoKey = "bus_info"
)

var (
	// ErrModuleNotFound is returned when the descriptor has no entry for a module
	ErrModuleNotFound = errors.New("module not found in platform descriptor")
	// ErrInvalidDescriptor is returned when the descriptor is not valid JSON
	ErrInvalidDescriptor = errors.New("invalid platform descriptor")
)

// Descriptor is a parsed platform.json document
type Descriptor struct {
	raw []byte
}

// Parse validates data and wraps it in a Descriptor
func Parse(data []byte) (*Descriptor, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidDescriptor
	}
	return &Descriptor{raw: data}, nil
}

// Load reads and parses the descriptor at path
func Load(fs vfs.FS, path string) (*Descriptor, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read platform descriptor %s: %w", path, err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// BusInfo returns the bus_info of the named module
func (d *Descriptor) BusInfo(name string) (string, error) {
	result := gjson.GetBytes(d.raw, dpusKey+"."+gjson.Escape(name)+"."+busInfoKey)
	if !result.Exists() || result.Type != gjson.String || result.Str == "" {
		return "", fmt.Errorf("%s: %w", name, ErrModuleNotFound)
	}
	return result.Str, nil
}

// Modules returns the names of every DPU in the descriptor, sorted
func (d *Descriptor) Modules() []string {
	var names []string
	gjson.GetBytes(d.raw, dpusKey).ForEach(func(key, _ gjson.Result) bool {
		names = append(names, key.String())
		return true
	})
	sort.Strings(names)
	return names
}

// BusMap returns module name to bus address for every DPU that declares one
func (d *Descriptor) BusMap() map[string]string {
	buses := make(map[string]string)
	for _, name := range d.Modules() {
		if bus, err := d.BusInfo(name); err == nil {
			buses[name] = bus
		}
	}
	return buses
}
