package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore implements Store using in-memory maps.
// All data is lost when the process exits.
type MemoryStore struct {
	// budgets maps budget ID to budget.
	budgets map[string]*Budget

	// byService maps the composite key (account:service) to budget ID.
	byService map[string]string

	mu sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		budgets:   make(map[string]*Budget),
		byService: make(map[string]string),
	}
}

// Save stores a copy of b.
func (m *MemoryStore) Save(_ context.Context, b *Budget) error {
	if err := validate(b); err != nil {
		return err
	}

	key := serviceKey(b.AccountID, b.Service)

	m.mu.Lock()
	defer m.mu.Unlock()

	if owner, ok := m.byService[key]; ok && owner != b.ID {
		return fmt.Errorf("%w: %s", ErrDuplicate, key)
	}
	if prev, ok := m.budgets[b.ID]; ok {
		delete(m.byService, serviceKey(prev.AccountID, prev.Service))
	}

	m.budgets[b.ID] = b.Clone()
	m.byService[key] = b.ID
	return nil
}

// Get returns a copy of the budget with the given ID.
func (m *MemoryStore) Get(_ context.Context, id string) (*Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.budgets[id].Clone(), nil
}

// FindByService resolves the (account, service) index.
func (m *MemoryStore) FindByService(_ context.Context, accountID, service string) (*Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byService[serviceKey(accountID, service)]
	if !ok {
		return nil, nil
	}
	return m.budgets[id].Clone(), nil
}

// List returns copies of the account's budgets.
func (m *MemoryStore) List(_ context.Context, accountID string) ([]*Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Budget
	for _, b := range m.budgets {
		if b.AccountID == accountID {
			out = append(out, b.Clone())
		}
	}
	sortBudgets(out)
	return out, nil
}

// Delete removes a budget.
func (m *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.budgets[id]
	if !ok {
		return false, nil
	}
	delete(m.budgets, id)
	delete(m.byService, serviceKey(b.AccountID, b.Service))
	return true, nil
}

// Clear removes every budget.
func (m *MemoryStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.budgets = make(map[string]*Budget)
	m.byService = make(map[string]string)
}

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() error {
	return nil
}

// serviceKey creates a composite key from account and service.
func serviceKey(accountID, service string) string {
	return accountID + ":" + service
}
