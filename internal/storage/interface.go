package storage

import (
	"errors"

	"github.com/prasenjit/go-hooks/internal/models"
)

var (
	// ErrNotFound is wrapped by errors for records that do not exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is wrapped by errors for duplicate creates
	ErrAlreadyExists = errors.New("already exists")
)

// Storage defines the interface for data persistence
type Storage interface {
	// Action set operations
	CreateActionSet(set *models.ActionSet) error
	GetActionSet(id string) (*models.ActionSet, error)
	GetAllActionSets() ([]*models.ActionSet, error)
	GetEnabledActionSets() ([]*models.ActionSet, error)
	UpdateActionSet(set *models.ActionSet) error
	DeleteActionSet(id string) error

	// Durable variables
	GetVariable(name string) (*models.Variable, error)
	GetAllVariables() ([]*models.Variable, error)
	SetVariable(v *models.Variable) error
	DeleteVariable(name string) error

	// Utility
	Close() error
}
