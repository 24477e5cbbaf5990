// Package prefs provides the durable client-local key/value storage used
// for user preferences. Implementations must tolerate absent or corrupt
// storage: callers fall back to defaults instead of failing startup.
package prefs

import "sync"

// Store is the persistence collaborator: Load reports whether the key was
// present, Save overwrites it.
type Store interface {
	Load(key string) (string, bool, error)
	Save(key, value string) error
}

// Memory is an in-process Store for tests and spectator sessions.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Load(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.values[key]
	return value, ok, nil
}

func (m *Memory) Save(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
