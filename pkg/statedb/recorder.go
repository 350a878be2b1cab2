package statedb

import (
	"context"
	"sort"
	"strings"

	"dpu-platform/pkg"
	"dpu-platform/pkg/types"
)

// Recorder writes PCIE_DETACH_INFO entries. Every method is best effort:
// store failures are logged and never returned to the caller.
type Recorder struct {
	conn Connector
}

// NewRecorder creates a recorder; a nil connector turns it into a no-op
func NewRecorder(conn Connector) *Recorder {
	return &Recorder{conn: conn}
}

// Connector returns the underlying connector, nil when unconfigured
func (r *Recorder) Connector() Connector {
	if r == nil {
		return nil
	}
	return r.conn
}

// Record publishes the transition of bus. Detaching upserts the entry,
// attaching removes it.
func (r *Recorder) Record(ctx context.Context, bus string, state types.TransitionState) {
	entry := pkg.WithFields(map[string]interface{}{
		"bus":   bus,
		"state": string(state),
	})
	if !state.Valid() {
		entry.Warn("ignoring unknown transition state")
		return
	}
	if r == nil || r.conn == nil {
		entry.WithError(ErrNoConnector).Warn("skipping state store update")
		return
	}

	key := types.PCIeDetachKey(bus)
	switch state {
	case types.StateDetaching:
		if err := r.conn.HSet(ctx, key, types.FieldBusInfo, bus); err != nil {
			entry.WithError(err).Error("failed to record PCIe detach state")
			return
		}
		if err := r.conn.HSet(ctx, key, types.FieldDPUState, string(state)); err != nil {
			entry.WithError(err).Error("failed to record PCIe detach state")
			return
		}
	case types.StateAttaching:
		if err := r.conn.Delete(ctx, key); err != nil {
			entry.WithError(err).Error("failed to clear PCIe detach state")
			return
		}
	}
	entry.Debug("recorded PCIe transition")
}

// Lookup returns the entry for bus, if any
func (r *Recorder) Lookup(ctx context.Context, bus string) (types.StateEntry, bool) {
	if r == nil || r.conn == nil {
		return types.StateEntry{}, false
	}
	fields, err := r.conn.HGetAll(ctx, types.PCIeDetachKey(bus))
	if err != nil {
		pkg.WithError(err).WithField("bus", bus).Warn("failed to read PCIe detach state")
		return types.StateEntry{}, false
	}
	if len(fields) == 0 {
		return types.StateEntry{}, false
	}
	return types.StateEntry{
		BusInfo:  fields[types.FieldBusInfo],
		DPUState: types.TransitionState(fields[types.FieldDPUState]),
	}, true
}

// List returns every entry in the table sorted by bus address
func (r *Recorder) List(ctx context.Context) []types.StateEntry {
	if r == nil || r.conn == nil {
		return nil
	}
	prefix := types.PCIeDetachTable + types.TableSeparator
	keys, err := r.conn.Keys(ctx, prefix+"*")
	if err != nil {
		pkg.WithError(err).Warn("failed to list PCIe detach state")
		return nil
	}
	sort.Strings(keys)

	var entries []types.StateEntry
	for _, key := range keys {
		if e, ok := r.Lookup(ctx, strings.TrimPrefix(key, prefix)); ok {
			entries = append(entries, e)
		}
	}
	return entries
}
