package storage

import (
	"context"
	"errors"
	"sort"
	"time"
)

// ErrDuplicate is returned by Save when another budget already owns the
// (account, service) pair.
var ErrDuplicate = errors.New("budget already exists for account and service")

// Budget is a per-account, per-service spending threshold.
type Budget struct {
	ID              string    `json:"id"`
	AccountID       string    `json:"accountId"`
	Service         string    `json:"service"`
	Amount          float64   `json:"amount"`
	Currency        string    `json:"currency"`
	Period          string    `json:"period"`
	AlertThresholds []float64 `json:"alertThresholds"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Clone returns a deep copy of b.
func (b *Budget) Clone() *Budget {
	if b == nil {
		return nil
	}
	out := *b
	out.AlertThresholds = append([]float64(nil), b.AlertThresholds...)
	return &out
}

// Store defines the interface for budget persistence.
// Get and FindByService return (nil, nil) when no budget matches.
type Store interface {
	// Save inserts or replaces the budget with b.ID.
	Save(ctx context.Context, b *Budget) error

	// Get returns the budget with the given ID.
	Get(ctx context.Context, id string) (*Budget, error)

	// FindByService returns the account's budget for a service.
	FindByService(ctx context.Context, accountID, service string) (*Budget, error)

	// List returns the account's budgets ordered by creation time.
	List(ctx context.Context, accountID string) ([]*Budget, error)

	// Delete removes a budget and reports whether it existed.
	Delete(ctx context.Context, id string) (bool, error)

	// Close releases any resources held by the store.
	Close() error
}

func validate(b *Budget) error {
	if b == nil {
		return errors.New("budget cannot be nil")
	}
	if b.ID == "" {
		return errors.New("budget id cannot be empty")
	}
	if b.AccountID == "" {
		return errors.New("account id cannot be empty")
	}
	if b.Service == "" {
		return errors.New("service cannot be empty")
	}
	return nil
}

func sortBudgets(budgets []*Budget) {
	sort.SliceStable(budgets, func(i, j int) bool {
		if !budgets[i].CreatedAt.Equal(budgets[j].CreatedAt) {
			return budgets[i].CreatedAt.Before(budgets[j].CreatedAt)
		}
		return budgets[i].Service < budgets[j].Service
	})
}
