package store

import (
	"sync"
	"time"
)

// Memory is an in-memory store for testing.
type Memory struct {
	mu       sync.RWMutex
	data     map[memKey][]Record
	metadata map[string]string
}

type memKey struct {
	name string
	kind string
}

// NewMemory creates a new in-memory store.
func NewMemory() *Memory {
	return &Memory{
		data:     make(map[memKey][]Record),
		metadata: make(map[string]string),
	}
}

// Get retrieves the latest version for (name, kind).
func (m *Memory) Get(name, kind string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs := m.data[memKey{name, kind}]
	if len(recs) == 0 {
		return nil, nil
	}
	r := recs[len(recs)-1]
	return &r, nil
}

// GetVersion retrieves a specific version for (name, kind).
func (m *Memory) GetVersion(name, kind string, version int) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.data[memKey{name, kind}] {
		if r.Version == version {
			return &r, nil
		}
	}
	return nil, nil
}

// Put stores a new version for (name, kind).
func (m *Memory) Put(name, kind, value string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memKey{name, kind}
	version := len(m.data[key]) + 1
	m.data[key] = append(m.data[key], Record{
		Name:    name,
		Kind:    kind,
		Version: version,
		Value:   value,
		Ts:      time.Now().UTC().Format(time.RFC3339),
	})
	return version, nil
}

// Versions returns all versions for (name, kind), newest first.
func (m *Memory) Versions(name, kind string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs := m.data[memKey{name, kind}]
	out := make([]Record, len(recs))
	for i, r := range recs {
		out[len(recs)-1-i] = r
	}
	return out, nil
}

// Delete removes every version for (name, kind).
func (m *Memory) Delete(name, kind string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, memKey{name, kind})
	return nil
}

// Close is a no-op for memory store.
func (m *Memory) Close() error {
	return nil
}

// GetMetadata retrieves a metadata value by key.
func (m *Memory) GetMetadata(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metadata[key], nil
}

// SetMetadata stores a metadata value by key.
func (m *Memory) SetMetadata(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metadata[key] = value
	return nil
}
