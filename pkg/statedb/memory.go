package statedb

import (
	"context"
	"path"
	"sort"
	"sync"
)

// MemoryConnector is an in-process Connector for tests and dry runs
type MemoryConnector struct {
	mu     sync.Mutex
	hashes map[string]map[string]string
	calls  []string

	// Err, when set, is returned by every operation
	Err error
}

// NewMemoryConnector returns an empty store
func NewMemoryConnector() *MemoryConnector {
	return &MemoryConnector{hashes: make(map[string]map[string]string)}
}

func (m *MemoryConnector) HSet(_ context.Context, key, field, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "hset "+key+" "+field+" "+value)
	if m.Err != nil {
		return m.Err
	}
	if m.hashes[key] == nil {
		m.hashes[key] = make(map[string]string)
	}
	m.hashes[key][field] = value
	return nil
}

func (m *MemoryConnector) HGetAll(_ context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	fields := make(map[string]string, len(m.hashes[key]))
	for k, v := range m.hashes[key] {
		fields[k] = v
	}
	return fields, nil
}

func (m *MemoryConnector) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "del "+key)
	if m.Err != nil {
		return m.Err
	}
	delete(m.hashes, key)
	return nil
}

func (m *MemoryConnector) Keys(_ context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var keys []string
	for key := range m.hashes {
		if ok, _ := path.Match(pattern, key); ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryConnector) Close() error {
	return nil
}

// Calls returns the write operations issued so far, in order
func (m *MemoryConnector) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// SetErr changes the injected failure
func (m *MemoryConnector) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}
