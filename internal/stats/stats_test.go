package stats

import (
	"testing"
	"time"

	"github.com/apiprobe/apiprobe/internal/models"
)

func result(category string, status models.Status, totalMs int64, start time.Time) models.TestResult {
	return models.TestResult{
		EndpointName: "endpoint",
		Category:     category,
		Status:       status,
		TotalTimeMs:  totalMs,
		RequestStart: start,
		ResponseEnd:  start.Add(time.Duration(totalMs) * time.Millisecond),
	}
}

func TestAggregateEmpty(t *testing.T) {
	s := Aggregate(nil)

	if s.TotalRequests != 0 || s.SuccessRate != 0 || s.ErrorRate != 0 {
		t.Errorf("expected all-zero stats, got %+v", s)
	}
	if s.Throughput != 0 {
		t.Errorf("Throughput = %v, want 0", s.Throughput)
	}
	if s.Categories == nil || len(s.Categories) != 0 {
		t.Errorf("expected empty non-nil category map, got %v", s.Categories)
	}
}

func TestAggregateRatesSumToHundred(t *testing.T) {
	base := time.Now()
	results := []models.TestResult{
		result("users", models.StatusSuccess, 100, base),
		result("users", models.StatusError, 200, base.Add(time.Second)),
		result("orders", models.StatusTimeout, 300, base.Add(2*time.Second)),
	}

	s := Aggregate(results)

	if s.SuccessRate+s.ErrorRate != 100 {
		t.Errorf("rates sum to %v, want 100", s.SuccessRate+s.ErrorRate)
	}
	if s.SuccessfulRequests != 1 || s.FailedRequests != 2 {
		t.Errorf("counts = %d/%d, want 1/2", s.SuccessfulRequests, s.FailedRequests)
	}
}

func TestAggregateResponseTimes(t *testing.T) {
	base := time.Now()
	results := []models.TestResult{
		result("a", models.StatusSuccess, 100, base),
		result("a", models.StatusSuccess, 200, base.Add(time.Second)),
		result("a", models.StatusSuccess, 600, base.Add(2*time.Second)),
	}

	s := Aggregate(results)

	if s.MinResponseTimeMs != 100 {
		t.Errorf("MinResponseTimeMs = %d, want 100", s.MinResponseTimeMs)
	}
	if s.MaxResponseTimeMs != 600 {
		t.Errorf("MaxResponseTimeMs = %d, want 600", s.MaxResponseTimeMs)
	}
	if s.AverageResponseTimeMs != 300 {
		t.Errorf("AverageResponseTimeMs = %v, want 300", s.AverageResponseTimeMs)
	}
}

func TestAggregateThroughput(t *testing.T) {
	base := time.Now()

	// 3 results spanning a 5-second window
	results := []models.TestResult{
		result("a", models.StatusSuccess, 100, base),
		result("a", models.StatusSuccess, 100, base.Add(2*time.Second)),
		result("a", models.StatusSuccess, 100, base.Add(5*time.Second)),
	}

	s := Aggregate(results)

	if s.Throughput != 0.6 {
		t.Errorf("Throughput = %v, want 0.6", s.Throughput)
	}
}

func TestAggregateZeroSpanThroughput(t *testing.T) {
	base := time.Now()
	results := []models.TestResult{
		result("a", models.StatusSuccess, 100, base),
		result("a", models.StatusSuccess, 100, base),
	}

	s := Aggregate(results)

	if s.Throughput != 0 {
		t.Errorf("Throughput = %v, want 0 for zero time span", s.Throughput)
	}
}

func TestAggregatePerCategory(t *testing.T) {
	base := time.Now()
	results := []models.TestResult{
		result("users", models.StatusSuccess, 100, base),
		result("users", models.StatusError, 300, base.Add(time.Second)),
		result("orders", models.StatusSuccess, 50, base.Add(2*time.Second)),
	}

	s := Aggregate(results)

	users := s.Categories["users"]
	if users.Total != 2 || users.Successful != 1 || users.Failed != 1 {
		t.Errorf("users category = %+v", users)
	}
	if users.AverageTimeMs != 200 {
		t.Errorf("users AverageTimeMs = %v, want 200", users.AverageTimeMs)
	}

	orders := s.Categories["orders"]
	if orders.Total != 1 || orders.AverageTimeMs != 50 {
		t.Errorf("orders category = %+v", orders)
	}
}

func TestAggregateIsReinvokable(t *testing.T) {
	base := time.Now()
	results := []models.TestResult{
		result("a", models.StatusSuccess, 100, base),
		result("a", models.StatusError, 200, base.Add(time.Second)),
		result("b", models.StatusSuccess, 300, base.Add(3*time.Second)),
	}

	// Aggregating any prefix must not disturb later aggregations
	for n := 0; n <= len(results); n++ {
		Aggregate(results[:n])
	}

	s := Aggregate(results)
	if s.TotalRequests != 3 || s.SuccessfulRequests != 2 {
		t.Errorf("final aggregation disturbed: %+v", s)
	}
}
