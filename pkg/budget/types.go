package budget

import (
	"time"

	"mercator-hq/saturn/pkg/budget/storage"
)

// Budget is a per-account, per-service spending threshold.
type Budget = storage.Budget

// DefaultThresholds are the alert breakpoints used when a budget has none.
var DefaultThresholds = []float64{50, 80, 100}

// ProjectionDays is the month length assumed by cost projections.
const ProjectionDays = 30

// ProjectionWindow is how many trailing daily points feed the projection.
const ProjectionWindow = 7

// AlertLevel classifies a utilization.
type AlertLevel string

const (
	AlertSafe       AlertLevel = "safe"
	AlertWarning    AlertLevel = "warning"
	AlertCritical   AlertLevel = "critical"
	AlertOverBudget AlertLevel = "over_budget"
)

// Severity is the severity of a notification.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Input is the caller-supplied part of a budget.
type Input struct {
	AccountID       string    `json:"accountId"`
	Service         string    `json:"service"`
	Amount          float64   `json:"amount"`
	Currency        string    `json:"currency"`
	Period          string    `json:"period"`
	AlertThresholds []float64 `json:"alertThresholds"`
}

// Utilization is the derived spend of one service against its budget.
// It is computed per request and never stored.
type Utilization struct {
	// BudgetID is empty when the service has no budget.
	BudgetID              string     `json:"budgetId,omitempty"`
	Service               string     `json:"service"`
	DisplayName           string     `json:"displayName"`
	CurrentCost           float64    `json:"currentCost"`
	BudgetAmount          float64    `json:"budgetAmount"`
	UtilizationPercentage float64    `json:"utilizationPercentage"`
	AlertLevel            AlertLevel `json:"alertLevel"`
	ProjectedCost         *float64   `json:"projectedCost,omitempty"`
}

// Notification records a non-safe utilization.
type Notification struct {
	ID           string    `json:"id"`
	BudgetID     string    `json:"budgetId"`
	Service      string    `json:"service"`
	Message      string    `json:"message"`
	Severity     Severity  `json:"severity"`
	Timestamp    time.Time `json:"timestamp"`
	Acknowledged bool      `json:"acknowledged"`
}
