package storage

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prasenjit/go-hooks/internal/models"
)

func newActionSet(id, name string, enabled bool, created time.Time) *models.ActionSet {
	return &models.ActionSet{
		ID:      id,
		Name:    name,
		Enabled: enabled,
		Actions: []models.Action{{
			Source:      "response.body.token",
			Action:      models.ActionAssignVariable,
			Destination: "token",
		}},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestNewMemoryStorage(t *testing.T) {
	s := NewMemoryStorage()
	if s == nil {
		t.Fatal("NewMemoryStorage returned nil")
	}
	if s.actionSets == nil || s.variables == nil {
		t.Fatal("Storage maps not initialized")
	}
}

func TestCreateActionSet(t *testing.T) {
	s := NewMemoryStorage()
	set := newActionSet("set-1", "Auth", true, time.Now())

	if err := s.CreateActionSet(set); err != nil {
		t.Fatalf("CreateActionSet failed: %v", err)
	}

	// Try to create duplicate
	err := s.CreateActionSet(set)
	if !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("Expected ErrAlreadyExists, got %v", err)
	}
}

func TestGetActionSet(t *testing.T) {
	s := NewMemoryStorage()
	_ = s.CreateActionSet(newActionSet("set-1", "Auth", true, time.Now()))

	result, err := s.GetActionSet("set-1")
	if err != nil {
		t.Fatalf("GetActionSet failed: %v", err)
	}
	if result.Name != "Auth" {
		t.Errorf("Expected name 'Auth', got '%s'", result.Name)
	}

	_, err = s.GetActionSet("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestGetEnabledActionSets(t *testing.T) {
	s := NewMemoryStorage()
	base := time.Now()

	_ = s.CreateActionSet(newActionSet("c", "third", true, base.Add(2*time.Second)))
	_ = s.CreateActionSet(newActionSet("a", "first", true, base))
	_ = s.CreateActionSet(newActionSet("b", "off", false, base.Add(time.Second)))

	all, _ := s.GetAllActionSets()
	if len(all) != 3 {
		t.Fatalf("Expected 3 action sets, got %d", len(all))
	}

	enabled, err := s.GetEnabledActionSets()
	if err != nil {
		t.Fatalf("GetEnabledActionSets failed: %v", err)
	}
	if len(enabled) != 2 {
		t.Fatalf("Expected 2 enabled action sets, got %d", len(enabled))
	}
	if enabled[0].ID != "a" || enabled[1].ID != "c" {
		t.Errorf("Expected creation order [a c], got [%s %s]", enabled[0].ID, enabled[1].ID)
	}
}

func TestUpdateAndDeleteActionSet(t *testing.T) {
	s := NewMemoryStorage()
	set := newActionSet("set-1", "Auth", true, time.Now())
	_ = s.CreateActionSet(set)

	updated := *set
	updated.Name = "Renamed"
	if err := s.UpdateActionSet(&updated); err != nil {
		t.Fatalf("UpdateActionSet failed: %v", err)
	}
	got, _ := s.GetActionSet("set-1")
	if got.Name != "Renamed" {
		t.Errorf("Expected updated name, got '%s'", got.Name)
	}

	if err := s.UpdateActionSet(newActionSet("missing", "x", true, time.Now())); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if err := s.DeleteActionSet("set-1"); err != nil {
		t.Fatalf("DeleteActionSet failed: %v", err)
	}
	if err := s.DeleteActionSet("set-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestVariables(t *testing.T) {
	s := NewMemoryStorage()

	_ = s.SetVariable(&models.Variable{Name: "b", Value: "2"})
	_ = s.SetVariable(&models.Variable{Name: "a", Value: float64(1)})
	_ = s.SetVariable(&models.Variable{Name: "b", Value: "3"})

	v, err := s.GetVariable("b")
	if err != nil {
		t.Fatalf("GetVariable failed: %v", err)
	}
	if v.Value != "3" {
		t.Errorf("Expected overwritten value '3', got %v", v.Value)
	}

	all, _ := s.GetAllVariables()
	if len(all) != 2 || all[0].Name != "a" {
		t.Errorf("Expected 2 variables sorted by name, got %+v", all)
	}

	if err := s.DeleteVariable("a"); err != nil {
		t.Fatalf("DeleteVariable failed: %v", err)
	}
	if _, err := s.GetVariable("a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteVariable("a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := NewMemoryStorage()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = s.SetVariable(&models.Variable{Name: "shared", Value: i})
		}(i)
		go func() {
			defer wg.Done()
			_, _ = s.GetAllVariables()
		}()
	}

	wg.Wait()

	if _, err := s.GetVariable("shared"); err != nil {
		t.Errorf("Expected shared variable, got %v", err)
	}
}
