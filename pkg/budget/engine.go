package budget

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"mercator-hq/saturn/pkg/budget/storage"
	"mercator-hq/saturn/pkg/costs"
	"mercator-hq/saturn/pkg/telemetry/metrics"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Options configures an Engine.
type Options struct {
	// Store holds budgets. Default: a new MemoryStore.
	Store storage.Store

	// DefaultThresholds apply when a saved budget has no thresholds.
	// Default: DefaultThresholds
	DefaultThresholds []float64

	// DefaultCurrency applies when a saved budget has no currency.
	// Default: "USD"
	DefaultCurrency string

	// DefaultPeriod applies when a saved budget has no period.
	// Default: "monthly"
	DefaultPeriod string

	Logger  *slog.Logger
	Metrics *metrics.Collector

	// Now and NewID override the clock and ID source. Intended for tests.
	Now   func() time.Time
	NewID func() string
}

// Engine stores budgets and evaluates costs against them.
// It is safe for concurrent use.
type Engine struct {
	store      storage.Store
	thresholds []float64
	currency   string
	period     string
	now        func() time.Time
	newID      func() string
	logger     *slog.Logger
	metrics    *metrics.Collector

	// mu serializes budget upserts and guards notifications.
	mu            sync.Mutex
	notifications []*Notification
}

// NewEngine creates a budget engine.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		store:      opts.Store,
		thresholds: opts.DefaultThresholds,
		currency:   opts.DefaultCurrency,
		period:     opts.DefaultPeriod,
		now:        opts.Now,
		newID:      opts.NewID,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}

	if e.store == nil {
		e.store = storage.NewMemoryStore()
	}
	if len(e.thresholds) == 0 {
		e.thresholds = DefaultThresholds
	}
	if e.currency == "" {
		e.currency = costs.DefaultCurrency
	}
	if e.period == "" {
		e.period = "monthly"
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.logger = e.logger.With("component", "budget")

	return e
}

// SaveBudget upserts a budget keyed by (account, service). An existing
// budget for the pair keeps its ID and creation time; UpdatedAt always moves
// forward.
func (e *Engine) SaveBudget(ctx context.Context, in Input) (*Budget, error) {
	service := costs.NormalizeService(in.Service)
	if in.AccountID == "" || service == "" {
		return nil, fmt.Errorf("account and service are required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	existing, err := e.store.FindByService(ctx, in.AccountID, service)
	if err != nil {
		return nil, fmt.Errorf("failed to look up budget: %w", err)
	}

	now := e.now().UTC()
	b := &Budget{
		ID:              e.newID(),
		AccountID:       in.AccountID,
		Service:         service,
		Amount:          in.Amount,
		Currency:        lo.Ternary(in.Currency == "", e.currency, in.Currency),
		Period:          lo.Ternary(in.Period == "", e.period, in.Period),
		AlertThresholds: append([]float64(nil), in.AlertThresholds...),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if len(b.AlertThresholds) == 0 {
		b.AlertThresholds = append([]float64(nil), e.thresholds...)
	}
	if existing != nil {
		b.ID = existing.ID
		b.CreatedAt = existing.CreatedAt
		if !now.After(existing.UpdatedAt) {
			b.UpdatedAt = existing.UpdatedAt.Add(time.Nanosecond)
		}
	}

	if err := e.store.Save(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to save budget: %w", err)
	}

	e.logger.Info("budget saved",
		"budget_id", b.ID,
		"account_id", b.AccountID,
		"service", b.Service,
		"amount", b.Amount,
		"updated", existing != nil,
	)
	return b, nil
}

// GetBudget returns a budget by ID, or nil.
func (e *Engine) GetBudget(ctx context.Context, id string) (*Budget, error) {
	return e.store.Get(ctx, id)
}

// ListBudgets returns the account's budgets.
func (e *Engine) ListBudgets(ctx context.Context, accountID string) ([]*Budget, error) {
	budgets, err := e.store.List(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if budgets == nil {
		budgets = []*Budget{}
	}
	return budgets, nil
}

// DeleteBudget removes a budget and reports whether it existed.
func (e *Engine) DeleteBudget(ctx context.Context, id string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	deleted, err := e.store.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete budget: %w", err)
	}
	if deleted {
		e.logger.Info("budget deleted", "budget_id", id)
	}
	return deleted, nil
}

// CalculateUtilization evaluates each service against the account's budget
// for it. Services without a budget are reported as safe with zero values.
func (e *Engine) CalculateUtilization(ctx context.Context, services []costs.ServiceCost, accountID string) ([]Utilization, error) {
	out := make([]Utilization, 0, len(services))

	for _, svc := range services {
		u := Utilization{
			Service:     svc.Service,
			DisplayName: svc.DisplayName,
			CurrentCost: svc.TotalCost,
			AlertLevel:  AlertSafe,
		}

		b, err := e.store.FindByService(ctx, accountID, svc.Service)
		if err != nil {
			return nil, fmt.Errorf("failed to look up budget for %s: %w", svc.Service, err)
		}
		if b != nil {
			u.BudgetID = b.ID
			u.BudgetAmount = b.Amount
			u.UtilizationPercentage = costs.Percentage(svc.TotalCost, b.Amount)
			u.AlertLevel = Level(u.UtilizationPercentage, b.AlertThresholds)
			if b.Amount <= 0 && svc.TotalCost > 0 {
				// Any spend against a zero budget is over it; the percentage stays 0.
				u.AlertLevel = AlertOverBudget
			}
			projected := Project(svc)
			u.ProjectedCost = &projected

			e.metrics.UpdateBudgetUtilization(accountID, svc.Service, u.UtilizationPercentage)
		}

		out = append(out, u)
	}

	return out, nil
}

// GenerateAlerts appends a notification for every non-safe utilization
// whose budget still exists, and returns the new notifications.
func (e *Engine) GenerateAlerts(ctx context.Context, utilizations []Utilization) ([]*Notification, error) {
	var created []*Notification

	for _, u := range utilizations {
		if u.AlertLevel == AlertSafe || u.BudgetID == "" {
			continue
		}

		b, err := e.store.Get(ctx, u.BudgetID)
		if err != nil {
			return created, fmt.Errorf("failed to look up budget %s: %w", u.BudgetID, err)
		}
		if b == nil {
			continue
		}

		n := &Notification{
			ID:        e.newID(),
			BudgetID:  b.ID,
			Service:   u.Service,
			Message:   alertMessage(u),
			Severity:  severity(u.AlertLevel),
			Timestamp: e.now().UTC(),
		}
		created = append(created, n)

		e.metrics.RecordAlert(string(n.Severity))
		e.logger.Warn("budget alert",
			"budget_id", b.ID,
			"account_id", b.AccountID,
			"service", u.Service,
			"level", u.AlertLevel,
			"utilization", u.UtilizationPercentage,
		)
	}

	e.mu.Lock()
	e.notifications = append(e.notifications, created...)
	e.mu.Unlock()

	return lo.Map(created, func(n *Notification, _ int) *Notification {
		out := *n
		return &out
	}), nil
}

// AcknowledgeNotification marks a notification as acknowledged and reports
// whether it exists. Acknowledging twice is harmless.
func (e *Engine) AcknowledgeNotification(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, n := range e.notifications {
		if n.ID == id {
			n.Acknowledged = true
			return true
		}
	}
	return false
}

// GetNotifications returns copies of the notifications whose budget belongs
// to the account, oldest first.
func (e *Engine) GetNotifications(ctx context.Context, accountID string) ([]Notification, error) {
	budgets, err := e.store.List(ctx, accountID)
	if err != nil {
		return nil, err
	}
	owned := make(map[string]struct{}, len(budgets))
	for _, b := range budgets {
		owned[b.ID] = struct{}{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	out := []Notification{}
	for _, n := range e.notifications {
		if _, ok := owned[n.BudgetID]; ok {
			out = append(out, *n)
		}
	}
	return out, nil
}

// ClearNotifications drops every notification.
func (e *Engine) ClearNotifications() {
	e.mu.Lock()
	e.notifications = nil
	e.mu.Unlock()
}

// Close closes the underlying store.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Level maps a utilization percentage to an alert level. Missing threshold
// positions fall back to DefaultThresholds.
func Level(percentage float64, thresholds []float64) AlertLevel {
	switch {
	case percentage >= 100:
		return AlertOverBudget
	case percentage >= thresholdAt(thresholds, 2):
		return AlertCritical
	case percentage >= thresholdAt(thresholds, 1):
		return AlertWarning
	case percentage >= thresholdAt(thresholds, 0):
		return AlertWarning
	default:
		return AlertSafe
	}
}

func thresholdAt(thresholds []float64, i int) float64 {
	if i < len(thresholds) {
		return thresholds[i]
	}
	return DefaultThresholds[i]
}

// Project extrapolates a service's cost to the end of a 30-day month from
// the mean day-over-day delta of its last seven daily points.
func Project(svc costs.ServiceCost) float64 {
	n := len(svc.DailyCosts)
	if n < 2 {
		return svc.TotalCost
	}

	recent := svc.DailyCosts[max(0, n-ProjectionWindow):]
	var sum float64
	for i := 1; i < len(recent); i++ {
		sum += recent[i].Cost - recent[i-1].Cost
	}
	meanDelta := sum / float64(len(recent)-1)

	return svc.TotalCost + meanDelta*float64(ProjectionDays-n)
}

func severity(level AlertLevel) Severity {
	if level == AlertCritical || level == AlertOverBudget {
		return SeverityCritical
	}
	return SeverityWarning
}

func alertMessage(u Utilization) string {
	name := strings.ToUpper(lo.Ternary(u.DisplayName != "", u.DisplayName, u.Service))

	// Percentages round half up.
	pct := math.Round(u.UtilizationPercentage)

	switch {
	case u.AlertLevel == AlertOverBudget && u.BudgetAmount <= 0:
		return fmt.Sprintf("%s has exceeded budget with no amount allocated! Current: $%.2f, Budget: $%.2f",
			name, u.CurrentCost, u.BudgetAmount)
	case u.AlertLevel == AlertOverBudget:
		return fmt.Sprintf("%s has exceeded budget by %.0f%%! Current: $%.2f, Budget: $%.2f",
			name, pct-100, u.CurrentCost, u.BudgetAmount)
	case u.AlertLevel == AlertCritical:
		return fmt.Sprintf("%s is at %.0f%% of budget and close to the limit. Current: $%.2f, Budget: $%.2f",
			name, pct, u.CurrentCost, u.BudgetAmount)
	default:
		return fmt.Sprintf("%s has used %.0f%% of budget. Current: $%.2f, Budget: $%.2f",
			name, pct, u.CurrentCost, u.BudgetAmount)
	}
}
