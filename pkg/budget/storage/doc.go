// Package storage provides persistence backends for budgets.
//
// # Overview
//
// The Store interface is the swap point between the budget engine and where
// budgets live. Two implementations are provided:
//
//   - Memory: map keyed by budget ID plus an (account, service) index
//   - SQLite: file-based persistence for budgets across restarts
//
// Both enforce at most one budget per (account, service) pair. The engine
// performs the upsert itself by looking the pair up with FindByService and
// reusing the stored ID, so Save only ever inserts a new pair or replaces an
// existing ID.
//
// # Usage
//
//	store := storage.NewMemoryStore()
//	defer store.Close()
//
//	err := store.Save(ctx, &storage.Budget{
//	    ID:        "b-1",
//	    AccountID: "acme",
//	    Service:   "amazons3",
//	    Amount:    500,
//	})
//
//	b, err := store.FindByService(ctx, "acme", "amazons3")
//
// # Thread Safety
//
// All implementations are safe for concurrent use. Returned budgets are
// copies; mutating them does not affect stored state.
package storage
