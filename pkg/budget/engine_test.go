package budget

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"mercator-hq/saturn/pkg/costs"
)

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time { return c.t }

func newTestEngine(clock *testClock) *Engine {
	n := 0
	return NewEngine(Options{
		Now: clock.now,
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
	})
}

func daily(values ...float64) []costs.DailyCost {
	out := make([]costs.DailyCost, len(values))
	for i, v := range values {
		out[i] = costs.DailyCost{Date: fmt.Sprintf("2024-03-%02d", i+1), Cost: v}
	}
	return out
}

func TestSaveBudget_UpsertPreservesIdentity(t *testing.T) {
	clock := &testClock{t: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}
	e := newTestEngine(clock)
	ctx := context.Background()

	first, err := e.SaveBudget(ctx, Input{AccountID: "acme", Service: "Amazon S3", Amount: 100})
	if err != nil {
		t.Fatalf("SaveBudget failed: %v", err)
	}
	if first.Service != "amazons3" {
		t.Errorf("Expected normalized service amazons3, got %s", first.Service)
	}
	if first.Currency != "USD" || first.Period != "monthly" || len(first.AlertThresholds) != 3 {
		t.Errorf("Expected defaults applied, got %+v", first)
	}

	// Same clock reading: UpdatedAt must still advance.
	second, err := e.SaveBudget(ctx, Input{AccountID: "acme", Service: "amazons3", Amount: 250})
	if err != nil {
		t.Fatalf("SaveBudget failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("Expected ID %s to be preserved, got %s", first.ID, second.ID)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("Expected createdAt to be preserved")
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Errorf("Expected updatedAt %v to be after %v", second.UpdatedAt, first.UpdatedAt)
	}
	if second.Amount != 250 {
		t.Errorf("Expected amount 250, got %v", second.Amount)
	}

	budgets, _ := e.ListBudgets(ctx, "acme")
	if len(budgets) != 1 {
		t.Errorf("Expected exactly 1 budget, got %d", len(budgets))
	}
}

func TestSaveBudget_RequiresAccountAndService(t *testing.T) {
	e := newTestEngine(&testClock{t: time.Now()})

	if _, err := e.SaveBudget(context.Background(), Input{Service: "s3"}); err == nil {
		t.Error("Expected error without account")
	}
	if _, err := e.SaveBudget(context.Background(), Input{AccountID: "acme", Service: " - "}); err == nil {
		t.Error("Expected error for empty normalized service")
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		pct        float64
		thresholds []float64
		want       AlertLevel
	}{
		{0, nil, AlertSafe},
		{49.9, nil, AlertSafe},
		{50, nil, AlertWarning},
		{79, nil, AlertWarning},
		{80, nil, AlertWarning},
		{99.99, nil, AlertWarning},
		{100, nil, AlertOverBudget},
		{120, nil, AlertOverBudget},
		{90, []float64{50, 70, 90}, AlertCritical},
		{75, []float64{50, 70, 90}, AlertWarning},
		{30, []float64{25}, AlertWarning},
		{85, []float64{25}, AlertWarning},
	}

	for _, tt := range tests {
		if got := Level(tt.pct, tt.thresholds); got != tt.want {
			t.Errorf("Level(%v, %v): expected %s, got %s", tt.pct, tt.thresholds, tt.want, got)
		}
	}
}

func TestProject(t *testing.T) {
	tests := []struct {
		name string
		svc  costs.ServiceCost
		want float64
	}{
		{"no daily points", costs.ServiceCost{TotalCost: 40}, 40},
		{"single point", costs.ServiceCost{TotalCost: 40, DailyCosts: daily(40)}, 40},
		// deltas 1,1 over 3 points: 6 + 1*27
		{"linear growth", costs.ServiceCost{TotalCost: 6, DailyCosts: daily(1, 2, 3)}, 33},
		// only the last seven points count: deltas all 0 after the spike
		{"trailing window", costs.ServiceCost{TotalCost: 170, DailyCosts: daily(100, 10, 10, 10, 10, 10, 10, 10)}, 170},
		{"flat", costs.ServiceCost{TotalCost: 50, DailyCosts: daily(10, 10, 10, 10, 10)}, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Project(tt.svc); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Expected projection %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCalculateUtilization_OverBudgetAlert(t *testing.T) {
	e := newTestEngine(&testClock{t: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)})
	ctx := context.Background()

	b, _ := e.SaveBudget(ctx, Input{AccountID: "acme", Service: "amazonec2", Amount: 1000, AlertThresholds: []float64{50, 80, 100}})

	services := []costs.ServiceCost{
		{Service: "amazonec2", DisplayName: "Amazon EC2", TotalCost: 1200},
		{Service: "amazons3", DisplayName: "Amazon S3", TotalCost: 30},
	}
	utils, err := e.CalculateUtilization(ctx, services, "acme")
	if err != nil {
		t.Fatalf("CalculateUtilization failed: %v", err)
	}
	if len(utils) != 2 {
		t.Fatalf("Expected 2 utilizations, got %d", len(utils))
	}

	ec2 := utils[0]
	if ec2.UtilizationPercentage != 120 || ec2.AlertLevel != AlertOverBudget {
		t.Errorf("Expected 120%% over_budget, got %v %s", ec2.UtilizationPercentage, ec2.AlertLevel)
	}
	if ec2.BudgetID != b.ID || ec2.BudgetAmount != 1000 {
		t.Errorf("Unexpected budget match: %+v", ec2)
	}
	if ec2.ProjectedCost == nil || *ec2.ProjectedCost != 1200 {
		t.Errorf("Expected projection equal to current cost without daily data, got %v", ec2.ProjectedCost)
	}

	s3 := utils[1]
	if s3.BudgetID != "" || s3.BudgetAmount != 0 || s3.UtilizationPercentage != 0 || s3.AlertLevel != AlertSafe || s3.ProjectedCost != nil {
		t.Errorf("Expected unbudgeted service to be safe with zero values, got %+v", s3)
	}

	alerts, err := e.GenerateAlerts(ctx, utils)
	if err != nil {
		t.Fatalf("GenerateAlerts failed: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(alerts))
	}
	if alerts[0].Severity != SeverityCritical {
		t.Errorf("Expected critical severity, got %s", alerts[0].Severity)
	}
	if !strings.Contains(alerts[0].Message, "exceeded budget") {
		t.Errorf("Expected message to mention exceeded budget, got %q", alerts[0].Message)
	}
	if !strings.Contains(alerts[0].Message, "AMAZON EC2") || !strings.Contains(alerts[0].Message, "20%") {
		t.Errorf("Expected upper-cased name and 20%% overage, got %q", alerts[0].Message)
	}
	if !strings.Contains(alerts[0].Message, "$1200.00") || !strings.Contains(alerts[0].Message, "$1000.00") {
		t.Errorf("Expected current and budget amounts, got %q", alerts[0].Message)
	}
}

func TestGenerateAlerts_SeverityAndAppend(t *testing.T) {
	e := newTestEngine(&testClock{t: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)})
	ctx := context.Background()

	e.SaveBudget(ctx, Input{AccountID: "acme", Service: "awslambda", Amount: 100, AlertThresholds: []float64{50, 70, 90}})
	e.SaveBudget(ctx, Input{AccountID: "acme", Service: "amazons3", Amount: 100})

	utils, _ := e.CalculateUtilization(ctx, []costs.ServiceCost{
		{Service: "awslambda", TotalCost: 95},
		{Service: "amazons3", TotalCost: 60},
	}, "acme")

	alerts, _ := e.GenerateAlerts(ctx, utils)
	if len(alerts) != 2 {
		t.Fatalf("Expected 2 notifications, got %d", len(alerts))
	}
	if alerts[0].Severity != SeverityCritical || alerts[1].Severity != SeverityWarning {
		t.Errorf("Expected [critical warning], got [%s %s]", alerts[0].Severity, alerts[1].Severity)
	}
	if !strings.Contains(alerts[0].Message, "AWSLAMBDA") || !strings.Contains(alerts[0].Message, "95%") {
		t.Errorf("Unexpected critical message: %q", alerts[0].Message)
	}

	// No deduplication across calls.
	e.GenerateAlerts(ctx, utils)
	notes, _ := e.GetNotifications(ctx, "acme")
	if len(notes) != 4 {
		t.Errorf("Expected 4 notifications after two calls, got %d", len(notes))
	}
}

func TestNotifications_AcknowledgeAndScope(t *testing.T) {
	e := newTestEngine(&testClock{t: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)})
	ctx := context.Background()

	acme, _ := e.SaveBudget(ctx, Input{AccountID: "acme", Service: "amazonec2", Amount: 10})
	e.SaveBudget(ctx, Input{AccountID: "globex", Service: "amazonec2", Amount: 10})

	for _, account := range []string{"acme", "globex"} {
		utils, _ := e.CalculateUtilization(ctx, []costs.ServiceCost{{Service: "amazonec2", TotalCost: 20}}, account)
		e.GenerateAlerts(ctx, utils)
	}

	notes, _ := e.GetNotifications(ctx, "acme")
	if len(notes) != 1 || notes[0].BudgetID != acme.ID {
		t.Fatalf("Expected only acme's notification, got %+v", notes)
	}

	if !e.AcknowledgeNotification(notes[0].ID) {
		t.Error("Expected acknowledge to find the notification")
	}
	if !e.AcknowledgeNotification(notes[0].ID) {
		t.Error("Expected acknowledge to be idempotent")
	}
	if e.AcknowledgeNotification("missing") {
		t.Error("Expected acknowledge of unknown id to report false")
	}

	notes, _ = e.GetNotifications(ctx, "acme")
	if !notes[0].Acknowledged {
		t.Error("Expected notification to be acknowledged")
	}

	deleted, _ := e.DeleteBudget(ctx, acme.ID)
	if !deleted {
		t.Fatal("Expected budget to be deleted")
	}
	notes, _ = e.GetNotifications(ctx, "acme")
	if len(notes) != 0 {
		t.Errorf("Expected notifications of deleted budget to be hidden, got %d", len(notes))
	}

	e.ClearNotifications()
	if notes, _ := e.GetNotifications(ctx, "globex"); len(notes) != 0 {
		t.Errorf("Expected no notifications after clear, got %d", len(notes))
	}
}

func TestGenerateAlerts_SkipsDeletedBudget(t *testing.T) {
	e := newTestEngine(&testClock{t: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)})
	ctx := context.Background()

	b, _ := e.SaveBudget(ctx, Input{AccountID: "acme", Service: "amazonec2", Amount: 10})
	utils, _ := e.CalculateUtilization(ctx, []costs.ServiceCost{{Service: "amazonec2", TotalCost: 20}}, "acme")
	e.DeleteBudget(ctx, b.ID)

	alerts, err := e.GenerateAlerts(ctx, utils)
	if err != nil {
		t.Fatalf("GenerateAlerts failed: %v", err)
	}
	if len(alerts) != 0 {
		t.Errorf("Expected no alerts for a deleted budget, got %d", len(alerts))
	}
}

func TestAlertMessage_RoundsHalfUp(t *testing.T) {
	tests := []struct {
		name string
		u    Utilization
		want string
	}{
		{"warning", Utilization{Service: "amazons3", UtilizationPercentage: 82.5, AlertLevel: AlertWarning}, "used 83%"},
		{"critical", Utilization{Service: "amazons3", UtilizationPercentage: 96.5, AlertLevel: AlertCritical}, "at 97%"},
		{"over budget", Utilization{Service: "amazons3", UtilizationPercentage: 112.5, AlertLevel: AlertOverBudget, BudgetAmount: 100}, "by 13%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := alertMessage(tt.u); !strings.Contains(got, tt.want) {
				t.Errorf("Expected message to contain %q, got %q", tt.want, got)
			}
		})
	}
}

func TestCalculateUtilization_ZeroBudget(t *testing.T) {
	e := newTestEngine(&testClock{t: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)})
	ctx := context.Background()

	if _, err := e.SaveBudget(ctx, Input{AccountID: "acme", Service: "amazons3", Amount: 0}); err != nil {
		t.Fatalf("SaveBudget failed: %v", err)
	}
	if _, err := e.SaveBudget(ctx, Input{AccountID: "acme", Service: "awslambda", Amount: 0}); err != nil {
		t.Fatalf("SaveBudget failed: %v", err)
	}

	utils, err := e.CalculateUtilization(ctx, []costs.ServiceCost{
		{Service: "amazons3", TotalCost: 12},
		{Service: "awslambda", TotalCost: 0},
	}, "acme")
	if err != nil {
		t.Fatalf("CalculateUtilization failed: %v", err)
	}

	if utils[0].AlertLevel != AlertOverBudget {
		t.Errorf("Expected over_budget for spend against a zero budget, got %s", utils[0].AlertLevel)
	}
	if utils[0].UtilizationPercentage != 0 || math.IsInf(utils[0].UtilizationPercentage, 0) {
		t.Errorf("Expected a finite zero percentage, got %v", utils[0].UtilizationPercentage)
	}
	if utils[1].AlertLevel != AlertSafe {
		t.Errorf("Expected safe for no spend against a zero budget, got %s", utils[1].AlertLevel)
	}

	alerts, _ := e.GenerateAlerts(ctx, utils)
	if len(alerts) != 1 || alerts[0].Severity != SeverityCritical {
		t.Fatalf("Expected 1 critical notification, got %+v", alerts)
	}
	if !strings.Contains(alerts[0].Message, "exceeded budget") || strings.Contains(alerts[0].Message, "-100%") {
		t.Errorf("Unexpected zero budget message: %q", alerts[0].Message)
	}
}
