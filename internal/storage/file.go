package storage

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/prasenjit/go-hooks/internal/models"
)

const (
	actionSetsDir = "actionsets"
	variablesDir  = "variables"
)

// FileStorage implements Storage with one JSON file per record. Records are
// served from memory and written through on every change.
type FileStorage struct {
	mu       sync.Mutex
	basePath string
	memory   *MemoryStorage
}

// NewFileStorage creates a file-based storage rooted at basePath and loads
// any records already there
func NewFileStorage(basePath string) (*FileStorage, error) {
	for _, dir := range []string{
		basePath,
		filepath.Join(basePath, actionSetsDir),
		filepath.Join(basePath, variablesDir),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fs := &FileStorage{
		basePath: basePath,
		memory:   NewMemoryStorage(),
	}

	err := loadDir(filepath.Join(basePath, actionSetsDir), func(set *models.ActionSet) {
		fs.memory.actionSets[set.ID] = set
	})
	if err != nil {
		return nil, err
	}

	err = loadDir(filepath.Join(basePath, variablesDir), func(v *models.Variable) {
		v.Persistent = true
		fs.memory.variables[v.Name] = v
	})
	if err != nil {
		return nil, err
	}

	return fs, nil
}

// loadDir decodes every .json file in dir. Unreadable files are skipped.
func loadDir[T any](dir string, add func(*T)) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}

		record := new(T)
		if err := json.Unmarshal(data, record); err != nil {
			continue
		}
		add(record)
	}

	return nil
}

// recordPath maps a record key to its file. Keys are escaped so variable
// names cannot leave the directory.
func (f *FileStorage) recordPath(dir, key string) string {
	return filepath.Join(f.basePath, dir, url.PathEscape(key)+".json")
}

func (f *FileStorage) save(dir, key string, record any) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := os.WriteFile(f.recordPath(dir, key), data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (f *FileStorage) remove(dir, key string) error {
	err := os.Remove(f.recordPath(dir, key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// CreateActionSet stores a new action set
func (f *FileStorage) CreateActionSet(set *models.ActionSet) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.memory.GetActionSet(set.ID); err == nil {
		return fmt.Errorf("action set %s: %w", set.ID, ErrAlreadyExists)
	}

	// Disk first so a failed write leaves memory untouched
	if err := f.save(actionSetsDir, set.ID, set); err != nil {
		return err
	}
	return f.memory.CreateActionSet(set)
}

// GetActionSet retrieves an action set by ID
func (f *FileStorage) GetActionSet(id string) (*models.ActionSet, error) {
	return f.memory.GetActionSet(id)
}

// GetAllActionSets retrieves all action sets
func (f *FileStorage) GetAllActionSets() ([]*models.ActionSet, error) {
	return f.memory.GetAllActionSets()
}

// GetEnabledActionSets retrieves all enabled action sets
func (f *FileStorage) GetEnabledActionSets() ([]*models.ActionSet, error) {
	return f.memory.GetEnabledActionSets()
}

// UpdateActionSet replaces an existing action set
func (f *FileStorage) UpdateActionSet(set *models.ActionSet) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.memory.GetActionSet(set.ID); err != nil {
		return err
	}

	if err := f.save(actionSetsDir, set.ID, set); err != nil {
		return err
	}
	return f.memory.UpdateActionSet(set)
}

// DeleteActionSet deletes an action set
func (f *FileStorage) DeleteActionSet(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.memory.GetActionSet(id); err != nil {
		return err
	}

	if err := f.remove(actionSetsDir, id); err != nil {
		return err
	}
	return f.memory.DeleteActionSet(id)
}

// GetVariable retrieves a durable variable by name
func (f *FileStorage) GetVariable(name string) (*models.Variable, error) {
	return f.memory.GetVariable(name)
}

// GetAllVariables retrieves all durable variables
func (f *FileStorage) GetAllVariables() ([]*models.Variable, error) {
	return f.memory.GetAllVariables()
}

// SetVariable creates or replaces a durable variable
func (f *FileStorage) SetVariable(v *models.Variable) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.save(variablesDir, v.Name, v); err != nil {
		return err
	}
	return f.memory.SetVariable(v)
}

// DeleteVariable deletes a durable variable
func (f *FileStorage) DeleteVariable(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.memory.GetVariable(name); err != nil {
		return err
	}

	if err := f.remove(variablesDir, name); err != nil {
		return err
	}
	return f.memory.DeleteVariable(name)
}

// Close closes the storage
func (f *FileStorage) Close() error {
	return nil
}
