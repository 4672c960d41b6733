package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newBudget(id, account, service string, amount float64, created time.Time) *Budget {
	return &Budget{
		ID:              id,
		AccountID:       account,
		Service:         service,
		Amount:          amount,
		Currency:        "USD",
		Period:          "monthly",
		AlertThresholds: []float64{50, 80, 100},
		CreatedAt:       created,
		UpdatedAt:       created,
	}
}

// stores returns each backend under test.
func stores(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "budgets.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestStore_SaveAndGet(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if err := store.Save(ctx, newBudget("b-1", "acme", "amazons3", 500, baseTime)); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			got, err := store.Get(ctx, "b-1")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if got == nil {
				t.Fatal("Expected budget, got nil")
			}
			if got.Amount != 500 || got.Service != "amazons3" || got.Currency != "USD" {
				t.Errorf("Unexpected budget: %+v", got)
			}
			if len(got.AlertThresholds) != 3 || got.AlertThresholds[1] != 80 {
				t.Errorf("Expected thresholds [50 80 100], got %v", got.AlertThresholds)
			}
			if !got.CreatedAt.Equal(baseTime) {
				t.Errorf("Expected createdAt %v, got %v", baseTime, got.CreatedAt)
			}

			missing, err := store.Get(ctx, "nope")
			if err != nil || missing != nil {
				t.Errorf("Expected nil for missing budget, got %+v (err %v)", missing, err)
			}
		})
	}
}

func TestStore_FindByService(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store.Save(ctx, newBudget("b-1", "acme", "amazons3", 500, baseTime))
			store.Save(ctx, newBudget("b-2", "globex", "amazons3", 900, baseTime))

			got, err := store.FindByService(ctx, "globex", "amazons3")
			if err != nil {
				t.Fatalf("FindByService failed: %v", err)
			}
			if got == nil || got.ID != "b-2" {
				t.Errorf("Expected b-2, got %+v", got)
			}

			none, err := store.FindByService(ctx, "acme", "awslambda")
			if err != nil || none != nil {
				t.Errorf("Expected no match, got %+v (err %v)", none, err)
			}
		})
	}
}

func TestStore_ReplaceByID(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store.Save(ctx, newBudget("b-1", "acme", "amazons3", 500, baseTime))

			updated := newBudget("b-1", "acme", "amazons3", 750, baseTime)
			updated.UpdatedAt = baseTime.Add(time.Hour)
			if err := store.Save(ctx, updated); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			list, _ := store.List(ctx, "acme")
			if len(list) != 1 {
				t.Fatalf("Expected 1 budget after replace, got %d", len(list))
			}
			if list[0].Amount != 750 || !list[0].UpdatedAt.Equal(updated.UpdatedAt) {
				t.Errorf("Expected replaced budget, got %+v", list[0])
			}
		})
	}
}

func TestStore_RejectsDuplicatePair(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store.Save(ctx, newBudget("b-1", "acme", "amazons3", 500, baseTime))

			err := store.Save(ctx, newBudget("b-2", "acme", "amazons3", 100, baseTime))
			if !errors.Is(err, ErrDuplicate) {
				t.Errorf("Expected ErrDuplicate, got %v", err)
			}
		})
	}
}

func TestStore_ListOrdersByCreation(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store.Save(ctx, newBudget("b-2", "acme", "awslambda", 10, baseTime.Add(time.Minute)))
			store.Save(ctx, newBudget("b-1", "acme", "amazons3", 20, baseTime))
			store.Save(ctx, newBudget("b-3", "globex", "amazonec2", 30, baseTime))

			list, err := store.List(ctx, "acme")
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(list) != 2 {
				t.Fatalf("Expected 2 budgets, got %d", len(list))
			}
			if list[0].ID != "b-1" || list[1].ID != "b-2" {
				t.Errorf("Expected [b-1 b-2], got [%s %s]", list[0].ID, list[1].ID)
			}
		})
	}
}

func TestStore_Delete(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store.Save(ctx, newBudget("b-1", "acme", "amazons3", 500, baseTime))

			deleted, err := store.Delete(ctx, "b-1")
			if err != nil || !deleted {
				t.Fatalf("Expected delete to succeed, got %v (err %v)", deleted, err)
			}
			deleted, _ = store.Delete(ctx, "b-1")
			if deleted {
				t.Error("Expected second delete to report false")
			}

			// The pair is free again.
			if err := store.Save(ctx, newBudget("b-9", "acme", "amazons3", 1, baseTime)); err != nil {
				t.Errorf("Expected pair to be reusable after delete, got %v", err)
			}
		})
	}
}

func TestStore_ValidatesInput(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, b := range []*Budget{
				nil,
				newBudget("", "acme", "amazons3", 1, baseTime),
				newBudget("b-1", "", "amazons3", 1, baseTime),
				newBudget("b-1", "acme", "", 1, baseTime),
			} {
				if err := store.Save(ctx, b); err == nil {
					t.Errorf("Expected error for %+v", b)
				}
			}
		})
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.Save(ctx, newBudget("b-1", "acme", "amazons3", 500, baseTime))

	got, _ := store.Get(ctx, "b-1")
	got.Amount = 1
	got.AlertThresholds[0] = 1

	again, _ := store.Get(ctx, "b-1")
	if again.Amount != 500 || again.AlertThresholds[0] != 50 {
		t.Errorf("Expected stored budget to be unaffected, got %+v", again)
	}

	store.Clear()
	if list, _ := store.List(ctx, "acme"); len(list) != 0 {
		t.Errorf("Expected empty store after Clear, got %d", len(list))
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budgets.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	s.Save(ctx, newBudget("b-1", "acme", "amazons3", 500, baseTime))
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Expected second Close to be a no-op, got %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "b-1")
	if err != nil || got == nil {
		t.Fatalf("Expected persisted budget, got %+v (err %v)", got, err)
	}
	if got.Amount != 500 {
		t.Errorf("Expected amount 500, got %v", got.Amount)
	}
}

func TestNewSQLiteStore_EmptyPath(t *testing.T) {
	if _, err := NewSQLiteStore(""); err == nil {
		t.Error("Expected error for empty path")
	}
}
