// Package variables keeps the values assigned by executed actions.
//
// Assigned values live in the session layer, which is lost on restart.
// Stored values are also written through to a storage.Storage and survive
// restarts. Lookups prefer the session layer.
package variables

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/prasenjit/go-hooks/internal/models"
	"github.com/prasenjit/go-hooks/internal/storage"
)

// ErrUnknownSignal is returned by Emit for signal kinds the store does not handle
var ErrUnknownSignal = errors.New("unknown signal")

// Store is an action.Sink and a template.Lookup
type Store struct {
	mu      sync.RWMutex
	session map[string]*models.Variable
	durable storage.Storage
	logger  *slog.Logger
}

// NewStore creates a store writing durable values to st
func NewStore(st storage.Storage, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		session: make(map[string]*models.Variable),
		durable: st,
		logger:  logger,
	}
}

// Emit applies a signal
func (s *Store) Emit(_ context.Context, signal models.Signal) error {
	switch signal.Kind {
	case models.SignalVariableUpdate:
		return s.Set(signal.Destination, signal.Value, false)
	case models.SignalVariableStore:
		return s.Set(signal.Destination, signal.Value, true)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownSignal, signal.Kind)
	}
}

// Set assigns a variable. Persistent values are written to storage as well.
func (s *Store) Set(name string, value any, persistent bool) error {
	v := &models.Variable{
		Name:       name,
		Value:      value,
		Persistent: persistent,
		UpdatedAt:  time.Now(),
	}

	if persistent {
		if err := s.durable.SetVariable(v); err != nil {
			return fmt.Errorf("failed to store variable %s: %w", name, err)
		}
	}

	s.mu.Lock()
	s.session[name] = v
	s.mu.Unlock()

	s.logger.Debug("variable set", "name", name, "persistent", persistent)
	return nil
}

// Get returns the current value of a variable
func (s *Store) Get(name string) (*models.Variable, bool) {
	s.mu.RLock()
	v, ok := s.session[name]
	s.mu.RUnlock()
	if ok {
		return v, true
	}

	v, err := s.durable.GetVariable(name)
	if err != nil {
		return nil, false
	}
	return v, true
}

// Lookup returns the value of a variable
func (s *Store) Lookup(name string) (any, bool) {
	v, ok := s.Get(name)
	if !ok {
		return nil, false
	}
	return v.Value, true
}

// List returns every known variable sorted by name. Session values shadow
// durable ones.
func (s *Store) List() ([]*models.Variable, error) {
	durable, err := s.durable.GetAllVariables()
	if err != nil {
		return nil, err
	}

	merged := make(map[string]*models.Variable, len(durable))
	for _, v := range durable {
		merged[v.Name] = v
	}

	s.mu.RLock()
	for name, v := range s.session {
		merged[name] = v
	}
	s.mu.RUnlock()

	out := make([]*models.Variable, 0, len(merged))
	for _, v := range merged {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Delete removes a variable from both layers. It returns an error wrapping
// storage.ErrNotFound when neither layer knows the name.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	_, inSession := s.session[name]
	delete(s.session, name)
	s.mu.Unlock()

	err := s.durable.DeleteVariable(name)
	if inSession && errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

// ClearSession drops every in-memory value. Durable values are kept.
func (s *Store) ClearSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = make(map[string]*models.Variable)
}
