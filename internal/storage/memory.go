package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/prasenjit/go-hooks/internal/models"
)

// MemoryStorage implements Storage interface with in-memory storage
type MemoryStorage struct {
	mu         sync.RWMutex
	actionSets map[string]*models.ActionSet // keyed by ID
	variables  map[string]*models.Variable  // keyed by name, durable values only
}

// NewMemoryStorage creates a new in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		actionSets: make(map[string]*models.ActionSet),
		variables:  make(map[string]*models.Variable),
	}
}

// CreateActionSet stores a new action set
func (m *MemoryStorage) CreateActionSet(set *models.ActionSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.actionSets[set.ID]; exists {
		return fmt.Errorf("action set %s: %w", set.ID, ErrAlreadyExists)
	}

	m.actionSets[set.ID] = set
	return nil
}

// GetActionSet retrieves an action set by ID
func (m *MemoryStorage) GetActionSet(id string) (*models.ActionSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set, exists := m.actionSets[id]
	if !exists {
		return nil, fmt.Errorf("action set %s: %w", id, ErrNotFound)
	}

	return set, nil
}

// GetAllActionSets retrieves all action sets in creation order
func (m *MemoryStorage) GetAllActionSets() ([]*models.ActionSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sets := make([]*models.ActionSet, 0, len(m.actionSets))
	for _, set := range m.actionSets {
		sets = append(sets, set)
	}

	// Sort by creation time
	sortActionSets(sets)

	return sets, nil
}

// GetEnabledActionSets retrieves the enabled action sets in creation order,
// which is the order they run in
func (m *MemoryStorage) GetEnabledActionSets() ([]*models.ActionSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Filter enabled sets
	sets := make([]*models.ActionSet, 0)
	for _, set := range m.actionSets {
		if set.Enabled {
			sets = append(sets, set)
		}
	}

	// Sort by creation time
	sortActionSets(sets)

	return sets, nil
}

// UpdateActionSet replaces an existing action set
func (m *MemoryStorage) UpdateActionSet(set *models.ActionSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.actionSets[set.ID]; !exists {
		return fmt.Errorf("action set %s: %w", set.ID, ErrNotFound)
	}

	m.actionSets[set.ID] = set
	return nil
}

// DeleteActionSet deletes an action set
func (m *MemoryStorage) DeleteActionSet(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.actionSets[id]; !exists {
		return fmt.Errorf("action set %s: %w", id, ErrNotFound)
	}

	delete(m.actionSets, id)
	return nil
}

// GetVariable retrieves a durable variable by name
func (m *MemoryStorage) GetVariable(name string) (*models.Variable, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, exists := m.variables[name]
	if !exists {
		return nil, fmt.Errorf("variable %s: %w", name, ErrNotFound)
	}

	return v, nil
}

// GetAllVariables retrieves all durable variables sorted by name
func (m *MemoryStorage) GetAllVariables() ([]*models.Variable, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	vars := make([]*models.Variable, 0, len(m.variables))
	for _, v := range m.variables {
		vars = append(vars, v)
	}

	// Sort by name
	sort.Slice(vars, func(i, j int) bool {
		return vars[i].Name < vars[j].Name
	})

	return vars, nil
}

// SetVariable creates or replaces a durable variable
func (m *MemoryStorage) SetVariable(v *models.Variable) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Replaces any previous value
	m.variables[v.Name] = v
	return nil
}

// DeleteVariable deletes a durable variable
func (m *MemoryStorage) DeleteVariable(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.variables[name]; !exists {
		return fmt.Errorf("variable %s: %w", name, ErrNotFound)
	}

	delete(m.variables, name)
	return nil
}

// Close closes the storage (no-op for memory storage)
func (m *MemoryStorage) Close() error {
	return nil
}

// sortActionSets orders sets by creation time, oldest first
func sortActionSets(sets []*models.ActionSet) {
	sort.Slice(sets, func(i, j int) bool {
		// IDs break ties between sets created in the same instant
		if !sets[i].CreatedAt.Equal(sets[j].CreatedAt) {
			return sets[i].CreatedAt.Before(sets[j].CreatedAt)
		}
		return sets[i].ID < sets[j].ID
	})
}
