package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore implements Store using SQLite for persistence.
// The (account_id, service) pair is enforced unique by the schema.
type SQLiteStore struct {
	db        *sql.DB
	mu        sync.RWMutex
	closeOnce sync.Once

	saveStmt   *sql.Stmt
	getStmt    *sql.Stmt
	findStmt   *sql.Stmt
	listStmt   *sql.Stmt
	deleteStmt *sql.Stmt
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{db: db}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS budgets (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		service TEXT NOT NULL,
		amount REAL NOT NULL,
		currency TEXT NOT NULL,
		period TEXT NOT NULL,
		alert_thresholds TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		UNIQUE (account_id, service)
	);

	CREATE INDEX IF NOT EXISTS idx_budgets_account ON budgets(account_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

const budgetColumns = `id, account_id, service, amount, currency, period, alert_thresholds, created_at, updated_at`

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.saveStmt, err = s.db.Prepare(`
		INSERT INTO budgets (` + budgetColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			account_id = excluded.account_id,
			service = excluded.service,
			amount = excluded.amount,
			currency = excluded.currency,
			period = excluded.period,
			alert_thresholds = excluded.alert_thresholds,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare save statement: %w", err)
	}

	s.getStmt, err = s.db.Prepare(`SELECT ` + budgetColumns + ` FROM budgets WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare get statement: %w", err)
	}

	s.findStmt, err = s.db.Prepare(`SELECT ` + budgetColumns + ` FROM budgets WHERE account_id = ? AND service = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare find statement: %w", err)
	}

	s.listStmt, err = s.db.Prepare(`
		SELECT ` + budgetColumns + `
		FROM budgets
		WHERE account_id = ?
		ORDER BY created_at, service
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare list statement: %w", err)
	}

	s.deleteStmt, err = s.db.Prepare(`DELETE FROM budgets WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}

	return nil
}

// Save inserts or replaces the budget with b.ID.
func (s *SQLiteStore) Save(ctx context.Context, b *Budget) error {
	if err := validate(b); err != nil {
		return err
	}

	thresholds, err := json.Marshal(b.AlertThresholds)
	if err != nil {
		return fmt.Errorf("failed to marshal thresholds: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.saveStmt.ExecContext(ctx,
		b.ID,
		b.AccountID,
		b.Service,
		b.Amount,
		b.Currency,
		b.Period,
		string(thresholds),
		b.CreatedAt.UnixNano(),
		b.UpdatedAt.UnixNano(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s:%s", ErrDuplicate, b.AccountID, b.Service)
		}
		return fmt.Errorf("failed to save budget: %w", err)
	}

	return nil
}

// Get returns the budget with the given ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return scanBudget(s.getStmt.QueryRowContext(ctx, id))
}

// FindByService returns the account's budget for a service.
func (s *SQLiteStore) FindByService(ctx context.Context, accountID, service string) (*Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return scanBudget(s.findStmt.QueryRowContext(ctx, accountID, service))
}

// List returns the account's budgets ordered by creation time.
func (s *SQLiteStore) List(ctx context.Context, accountID string) ([]*Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.listStmt.QueryContext(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []*Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return budgets, nil
}

// Delete removes a budget and reports whether it existed.
func (s *SQLiteStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.deleteStmt.ExecContext(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete budget: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return n > 0, nil
}

// Close releases the prepared statements and the database handle.
// Close is idempotent and safe to call multiple times.
func (s *SQLiteStore) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		for _, stmt := range []*sql.Stmt{s.saveStmt, s.getStmt, s.findStmt, s.listStmt, s.deleteStmt} {
			if stmt != nil {
				stmt.Close()
			}
		}
		closeErr = s.db.Close()
	})

	return closeErr
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBudget(row rowScanner) (*Budget, error) {
	var (
		b          Budget
		thresholds string
		createdAt  int64
		updatedAt  int64
	)

	err := row.Scan(
		&b.ID,
		&b.AccountID,
		&b.Service,
		&b.Amount,
		&b.Currency,
		&b.Period,
		&thresholds,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan budget: %w", err)
	}

	if err := json.Unmarshal([]byte(thresholds), &b.AlertThresholds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal thresholds: %w", err)
	}
	b.CreatedAt = time.Unix(0, createdAt).UTC()
	b.UpdatedAt = time.Unix(0, updatedAt).UTC()

	return &b, nil
}
