package resume

import "sync"

// KV is the key-value persistence collaborator all checkpoint data is
// serialized through. Implementations must be safe for concurrent use.
type KV interface {
	// Get returns the value for key and whether it was present
	Get(key string) (string, bool, error)
	// Set writes or replaces the value for key
	Set(key, value string) error
	// Remove deletes the key; removing an absent key is not an error
	Remove(key string) error
}

// Lister is an optional KV extension for enumerating stored keys
type Lister interface {
	// Keys returns all keys starting with the given prefix
	Keys(prefix string) ([]string, error)
}

// MemoryKV is an in-memory KV backed by a map. Used for tests and for
// runs where checkpoints should not outlive the process.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryKV creates an empty in-memory store
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

func (m *MemoryKV) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryKV) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryKV) Keys(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.data {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k)
		}
	}
	return keys, nil
}
