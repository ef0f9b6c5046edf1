// Package directory owns the in-memory driver directory: snapshot reads for
// match scans and per-driver status writes from the lifecycle controller.
package directory

import (
	"fmt"
	"sync"

	"github.com/example/privacy-dispatch/internal/models"
)

// Directory is the read/write surface the rest of the core depends on.
// Snapshot returns a consistent copy; a match scan never observes a
// mid-flight mutation.
type Directory interface {
	Snapshot() []models.Driver
	Get(id string) (models.Driver, bool)
	SetStatus(id string, status models.DriverStatus) error
}

// Memory keeps drivers in insertion order; ranking ties in the matcher break
// by this order, so it must be stable across snapshots.
type Memory struct {
	mu      sync.RWMutex
	ids     []string
	drivers map[string]models.Driver
}

func NewMemory(drivers []models.Driver) *Memory {
	m := &Memory{drivers: make(map[string]models.Driver, len(drivers))}
	for _, d := range drivers {
		if _, ok := m.drivers[d.ID]; ok {
			continue
		}
		m.ids = append(m.ids, d.ID)
		m.drivers[d.ID] = d
	}
	return m
}

func (m *Memory) Snapshot() []models.Driver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Driver, 0, len(m.ids))
	for _, id := range m.ids {
		out = append(out, m.drivers[id])
	}
	return out
}

func (m *Memory) Get(id string) (models.Driver, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.drivers[id]
	return d, ok
}

func (m *Memory) SetStatus(id string, status models.DriverStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[id]
	if !ok {
		return fmt.Errorf("unknown driver %q", id)
	}
	d.Status = status
	m.drivers[id] = d
	return nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}
