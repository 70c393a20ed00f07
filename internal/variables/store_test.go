package variables

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prasenjit/go-hooks/internal/models"
	"github.com/prasenjit/go-hooks/internal/storage"
)

type failingStorage struct {
	*storage.MemoryStorage
}

func (failingStorage) SetVariable(*models.Variable) error {
	return errors.New("disk full")
}

func TestStore_Emit(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStorage()
	s := NewStore(st, nil)

	if err := s.Emit(ctx, models.Signal{Kind: models.SignalVariableUpdate, Destination: "page", Value: "2"}); err != nil {
		t.Fatalf("Emit update failed: %v", err)
	}
	if err := s.Emit(ctx, models.Signal{Kind: models.SignalVariableStore, Destination: "token", Value: "abc"}); err != nil {
		t.Fatalf("Emit store failed: %v", err)
	}

	value, ok := s.Lookup("page")
	if !ok || value != "2" {
		t.Errorf("Expected page '2', got %v (found %v)", value, ok)
	}

	// Updates stay in memory
	if _, err := st.GetVariable("page"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected page not to reach storage, got %v", err)
	}

	stored, err := st.GetVariable("token")
	if err != nil {
		t.Fatalf("Expected token in storage: %v", err)
	}
	if stored.Value != "abc" || !stored.Persistent {
		t.Errorf("Unexpected stored token: %+v", stored)
	}

	err = s.Emit(ctx, models.Signal{Kind: "variable-delete", Destination: "x"})
	if !errors.Is(err, ErrUnknownSignal) {
		t.Errorf("Expected ErrUnknownSignal, got %v", err)
	}
}

func TestStore_SessionShadowsDurable(t *testing.T) {
	st := storage.NewMemoryStorage()
	if err := st.SetVariable(&models.Variable{Name: "token", Value: "old", Persistent: true}); err != nil {
		t.Fatal(err)
	}
	s := NewStore(st, nil)

	if value, ok := s.Lookup("token"); !ok || value != "old" {
		t.Errorf("Expected durable 'old', got %v (found %v)", value, ok)
	}

	if err := s.Set("token", "new", false); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if value, _ := s.Lookup("token"); value != "new" {
		t.Errorf("Expected session 'new', got %v", value)
	}

	list, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 || list[0].Value != "new" {
		t.Errorf("Expected one shadowed variable, got %+v", list)
	}

	s.ClearSession()
	if value, _ := s.Lookup("token"); value != "old" {
		t.Errorf("Expected durable value after ClearSession, got %v", value)
	}
}

func TestStore_NilValue(t *testing.T) {
	s := NewStore(storage.NewMemoryStorage(), nil)
	if err := s.Emit(context.Background(), models.Signal{Kind: models.SignalVariableUpdate, Destination: "gone"}); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}

	value, ok := s.Lookup("gone")
	if !ok {
		t.Error("Expected nil variable to be found")
	}
	if value != nil {
		t.Errorf("Expected nil value, got %v", value)
	}
}

func TestStore_Delete(t *testing.T) {
	st := storage.NewMemoryStorage()
	s := NewStore(st, nil)

	if err := s.Set("session", 1, false); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("durable", 2, true); err != nil {
		t.Fatal(err)
	}

	if err := s.Delete("session"); err != nil {
		t.Errorf("Delete session failed: %v", err)
	}
	if err := s.Delete("durable"); err != nil {
		t.Errorf("Delete durable failed: %v", err)
	}
	if err := s.Delete("never"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if _, ok := s.Lookup("durable"); ok {
		t.Error("Expected durable to be gone")
	}
}

func TestStore_StorageFailure(t *testing.T) {
	s := NewStore(failingStorage{storage.NewMemoryStorage()}, nil)

	err := s.Emit(context.Background(), models.Signal{Kind: models.SignalVariableStore, Destination: "token", Value: "x"})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("Expected storage error, got %v", err)
	}

	// A failed store must not leave a session value
	if _, ok := s.Lookup("token"); ok {
		t.Error("Expected no session value after a failed store")
	}
}
