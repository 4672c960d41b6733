package aggregate

import (
	"fmt"
	"math"
	"testing"

	"mercator-hq/saturn/pkg/costs"
	"mercator-hq/saturn/pkg/costs/ingest"
)

func series(costsPerDay ...float64) []costs.DailyCost {
	out := make([]costs.DailyCost, len(costsPerDay))
	for i, c := range costsPerDay {
		out[i] = costs.DailyCost{Date: fmt.Sprintf("2024-01-%02d", i+1), Cost: c}
	}
	return out
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name  string
		daily []costs.DailyCost
		want  costs.Trend
	}{
		{"empty", nil, costs.TrendStable},
		{"single point", series(10), costs.TrendStable},
		{"seven days then seven higher", series(append(repeat(10, 7), repeat(15, 7)...)...), costs.TrendIncreasing},
		{"seven days then seven lower", series(append(repeat(10, 7), repeat(5, 7)...)...), costs.TrendDecreasing},
		{"within threshold", series(append(repeat(10, 7), repeat(10.9, 7)...)...), costs.TrendStable},
		{"short older window", series(10, 20, 20, 20, 20, 20, 20, 20), costs.TrendIncreasing},
		{"seven points only", series(repeat(10, 7)...), costs.TrendStable},
		{"older mean zero", series(append(repeat(0, 7), repeat(5, 7)...)...), costs.TrendStable},
		{"only last fourteen count", series(append(repeat(100, 5), append(repeat(10, 7), repeat(10, 7)...)...)...), costs.TrendStable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyTrend(tt.daily); got != tt.want {
				t.Errorf("Expected trend %s, got %s", tt.want, got)
			}
		})
	}
}

func testBatch() *ingest.Batch {
	return &ingest.Batch{
		Services: []costs.ServiceCost{
			{Service: "amazonec2", DisplayName: "Amazon EC2", TotalCost: 100, Currency: "USD"},
			{Service: "amazons3", DisplayName: "Amazon S3", TotalCost: 10, Currency: "USD"},
		},
		Regional: []ingest.Observation{
			{Service: "amazonec2", Key: "us-east-1", Cost: 30},
			{Service: "amazonec2", Key: "eu-west-1", Cost: 50},
			{Service: "amazonec2", Key: "us-east-1", Cost: 10},
			{Service: "amazonec2", Key: "ap-south-1", Cost: 0.004},
		},
		Tags: []ingest.Observation{
			{Service: "amazonec2", Key: "team", Value: "web", Cost: 60},
			{Service: "amazonec2", Key: "team", Value: "data", Cost: 40},
		},
		Daily: []ingest.Observation{
			{Service: "amazonec2", Key: "2024-01-02", Cost: 20},
			{Service: "amazonec2", Key: "2024-01-01", Cost: 30},
			{Service: "amazonec2", Key: "2024-01-02", Cost: 50},
			{Service: "amazons3", Key: "2024-01-01", Cost: 10},
		},
	}
}

func TestAggregate_Regions(t *testing.T) {
	out := Aggregate(testBatch())
	ec2 := out[0]

	if len(ec2.Regions) != 2 {
		t.Fatalf("Expected 2 regions (sub-cent dropped), got %d", len(ec2.Regions))
	}
	if ec2.Regions[0].Region != "eu-west-1" || ec2.Regions[0].Cost != 50 {
		t.Errorf("Expected eu-west-1 50 first, got %+v", ec2.Regions[0])
	}
	if ec2.Regions[1].Cost != 40 {
		t.Errorf("Expected us-east-1 summed to 40, got %v", ec2.Regions[1].Cost)
	}

	sum := 0.0
	for _, r := range ec2.Regions {
		sum += r.Cost
		if math.Abs(r.Percentage-r.Cost/ec2.TotalCost*100) > 1e-9 {
			t.Errorf("Percentage mismatch for %s: %v", r.Region, r.Percentage)
		}
	}
	if sum > ec2.TotalCost+1e-9 {
		t.Errorf("Regional sum %v exceeds total %v", sum, ec2.TotalCost)
	}

	s3 := out[1]
	if s3.Regions == nil || len(s3.Regions) != 0 {
		t.Errorf("Expected empty non-nil regions for S3, got %v", s3.Regions)
	}
}

func TestAggregate_TagsAndDaily(t *testing.T) {
	out := Aggregate(testBatch())
	ec2 := out[0]

	if len(ec2.Tags) != 2 || ec2.Tags[0].Value != "web" || math.Abs(ec2.Tags[0].Percentage-60) > 1e-9 {
		t.Errorf("Unexpected tags: %+v", ec2.Tags)
	}

	if len(ec2.DailyCosts) != 2 {
		t.Fatalf("Expected 2 unique dates, got %d", len(ec2.DailyCosts))
	}
	if ec2.DailyCosts[0].Date != "2024-01-01" || ec2.DailyCosts[1].Cost != 70 {
		t.Errorf("Expected ascending dates with repeated dates summed, got %+v", ec2.DailyCosts)
	}
	if ec2.Trend != costs.TrendStable {
		t.Errorf("Expected stable trend with two points, got %s", ec2.Trend)
	}
}

func TestAggregate_DoesNotMutateBatch(t *testing.T) {
	batch := testBatch()
	Aggregate(batch)

	if len(batch.Services[0].Regions) != 0 {
		t.Error("Expected batch services to remain untouched")
	}
}

func TestAggregate_Nil(t *testing.T) {
	if out := Aggregate(nil); out == nil || len(out) != 0 {
		t.Errorf("Expected empty slice, got %v", out)
	}
}

func TestAggregate_FromCSV(t *testing.T) {
	n := ingest.NewNormalizer(nil, nil)
	data := "Service,BlendedCost,Region,Date\n"
	for i := 1; i <= 14; i++ {
		cost := 10.0
		if i > 7 {
			cost = 15
		}
		data += fmt.Sprintf("Amazon EC2,%.2f,us-east-1,2024-01-%02d\n", cost, i)
	}

	batch, err := n.FromCSV([]byte(data))
	if err != nil {
		t.Fatalf("FromCSV failed: %v", err)
	}
	out := Aggregate(batch)

	if len(out) != 1 {
		t.Fatalf("Expected 1 service, got %d", len(out))
	}
	if out[0].Trend != costs.TrendIncreasing {
		t.Errorf("Expected increasing trend, got %s", out[0].Trend)
	}
	if len(out[0].Regions) != 1 || out[0].Regions[0].Percentage != 100 {
		t.Errorf("Expected single region at 100%%, got %+v", out[0].Regions)
	}
}

func TestAggregate_CreditRowCapsRegions(t *testing.T) {
	n := ingest.NewNormalizer(nil, nil)
	batch, err := n.FromCSV([]byte("Service,Region,BlendedCost\nAmazon EC2,us-east-1,10\nAmazon EC2,,-5\n"))
	if err != nil {
		t.Fatalf("FromCSV failed: %v", err)
	}
	out := Aggregate(batch)

	if len(out) != 1 {
		t.Fatalf("Expected 1 service, got %d", len(out))
	}
	ec2 := out[0]
	if math.Abs(ec2.TotalCost-5) > 1e-9 {
		t.Fatalf("Expected total 5 after credit, got %v", ec2.TotalCost)
	}

	sum := 0.0
	for _, r := range ec2.Regions {
		sum += r.Cost
		if r.Percentage > 100+1e-9 {
			t.Errorf("Expected percentage <= 100 for %s, got %v", r.Region, r.Percentage)
		}
	}
	if sum > ec2.TotalCost+1e-9 {
		t.Errorf("Expected region sum <= total %.2f, got %.2f", ec2.TotalCost, sum)
	}
	if len(ec2.Regions) != 1 || math.Abs(ec2.Regions[0].Percentage-100) > 1e-9 {
		t.Errorf("Expected us-east-1 scaled to 100%%, got %+v", ec2.Regions)
	}
}

func TestAggregate_BreakdownDisagreesWithTotal(t *testing.T) {
	batch := &ingest.Batch{
		Services: []costs.ServiceCost{
			{Service: "amazonec2", TotalCost: 50},
			{Service: "amazons3", TotalCost: -2},
		},
		Regional: []ingest.Observation{
			{Service: "amazonec2", Key: "us-east-1", Cost: 60},
			{Service: "amazonec2", Key: "eu-west-1", Cost: 40},
			{Service: "amazons3", Key: "us-east-1", Cost: 3},
		},
		Tags: []ingest.Observation{
			{Service: "amazonec2", Key: "team", Value: "web", Cost: 80},
			{Service: "amazonec2", Key: "team", Value: "data", Cost: 20},
			{Service: "amazonec2", Key: "env", Value: "prod", Cost: 30},
		},
	}
	out := Aggregate(batch)
	ec2, s3 := out[0], out[1]

	if len(ec2.Regions) != 2 || math.Abs(ec2.Regions[0].Cost-30) > 1e-9 || math.Abs(ec2.Regions[1].Cost-20) > 1e-9 {
		t.Errorf("Expected regions scaled to 30 and 20, got %+v", ec2.Regions)
	}

	tags := make(map[string]float64)
	for _, tag := range ec2.Tags {
		tags[tag.Key+"="+tag.Value] = tag.Cost
	}
	if math.Abs(tags["team=web"]-40) > 1e-9 || math.Abs(tags["team=data"]-10) > 1e-9 {
		t.Errorf("Expected team tags scaled to 40 and 10, got %v", tags)
	}
	if math.Abs(tags["env=prod"]-30) > 1e-9 {
		t.Errorf("Expected env tag within total to stay 30, got %v", tags["env=prod"])
	}

	if len(s3.Regions) != 0 {
		t.Errorf("Expected no regions for a net-credit service, got %+v", s3.Regions)
	}
}
