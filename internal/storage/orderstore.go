package storage

import (
	"strings"
	"sync"

	"github.com/example/privacy-dispatch/internal/models"
)

// OrderArchive is write-behind persistence for the order table. The
// in-memory store stays authoritative; archiving is best-effort.
type OrderArchive interface {
	SaveOrder(o *models.Order) error
	UpdateOrder(o *models.Order) error
}

type MemoryArchive struct {
	mu     sync.RWMutex
	orders map[string]models.Order
}

func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{orders: make(map[string]models.Order)}
}

func (m *MemoryArchive) SaveOrder(o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.OrderID] = *o
	return nil
}

func (m *MemoryArchive) UpdateOrder(o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.OrderID] = *o
	return nil
}

func (m *MemoryArchive) Get(id string) (models.Order, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	return o, ok
}

func joinTokens(tokens []string) string { return strings.Join(tokens, ",") }
