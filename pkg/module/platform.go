package module

import (
	"context"
	"errors"
)

// ErrNotImplemented is returned by vendor hooks a platform does not provide.
// HandlePCIRemoval and HandlePCIRescan fall back to the platform descriptor
// when PCIBusInfo returns it.
var ErrNotImplemented = errors.New("not implemented")

// Platform is the set of hooks a vendor plugin supplies for a module
type Platform interface {
	// DPUID returns the numeric identifier of the DPU
	DPUID() (int, error)
	// RebootCause returns the cause of the last reboot and a description
	RebootCause() (string, string, error)
	// StateInfo returns vendor-specific state fields
	StateInfo() (map[string]string, error)
	// PCIBusInfo returns the PCI addresses that belong to the module
	PCIBusInfo() ([]string, error)
	// PCIDetach performs the vendor-specific hot-remove of one address
	PCIDetach(ctx context.Context, bus string) error
	// PCIReattach performs the vendor-specific re-attach of one address
	PCIReattach(ctx context.Context, bus string) error
}

// Unimplemented provides ErrNotImplemented for every hook. Vendor plugins
// embed it and override what they support.
type Unimplemented struct{}

func (Unimplemented) DPUID() (int, error) {
	return 0, ErrNotImplemented
}

func (Unimplemented) RebootCause() (string, string, error) {
	return "", "", ErrNotImplemented
}

func (Unimplemented) StateInfo() (map[string]string, error) {
	return nil, ErrNotImplemented
}

func (Unimplemented) PCIBusInfo() ([]string, error) {
	return nil, ErrNotImplemented
}

func (Unimplemented) PCIDetach(context.Context, string) error {
	return ErrNotImplemented
}

func (Unimplemented) PCIReattach(context.Context, string) error {
	return ErrNotImplemented
}
