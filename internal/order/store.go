package order

import (
	"errors"
	"sync"
	"time"

	"github.com/example/privacy-dispatch/internal/models"
)

var (
	// ErrInvalidInput marks malformed create/accept requests.
	ErrInvalidInput = errors.New("invalid input")
	// ErrOrderNotFound marks references to an order id never created.
	ErrOrderNotFound = errors.New("order not found")
	// ErrAlreadyAccepted is returned to the losers of a competing accept.
	ErrAlreadyAccepted = errors.New("order already accepted")
	// ErrDuplicateOrder marks a create with an order id already in use.
	ErrDuplicateOrder = errors.New("order already exists")
	// ErrInvalidTransition marks a lifecycle event arriving out of order.
	ErrInvalidTransition = errors.New("invalid order transition")
)

// Store is the order table: insert-once, then per-key serialized updates.
// Distinct orders transition fully concurrently; two events for the same
// order never interleave.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

type entry struct {
	mu    sync.Mutex
	order models.Order
}

func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

func (s *Store) Create(o models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[o.OrderID]; ok {
		return ErrDuplicateOrder
	}
	s.entries[o.OrderID] = &entry{order: o}
	return nil
}

func (s *Store) Get(id string) (models.Order, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return models.Order{}, ErrOrderNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.order, nil
}

// Update applies fn to the order under its per-key lock. fn works on a copy;
// if it returns an error nothing is applied, so a rejected transition leaves
// no partial mutation behind.
func (s *Store) Update(id string, fn func(*models.Order) error) (models.Order, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return models.Order{}, ErrOrderNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	next := e.order
	if err := fn(&next); err != nil {
		return models.Order{}, err
	}
	next.UpdatedAt = time.Now()
	e.order = next
	return next, nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
