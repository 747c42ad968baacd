// Package stats aggregates completed test results into session-level
// statistics. Aggregation is a pure projection: it can be re-invoked at
// any point with any prefix of a result sequence, which is how both live
// progress and post-hoc export are produced.
package stats

import (
	"time"

	"github.com/apiprobe/apiprobe/internal/models"
)

// CategoryStats holds per-category counters and timing
type CategoryStats struct {
	Total         int     `json:"total"`
	Successful    int     `json:"successful"`
	Failed        int     `json:"failed"`
	AverageTimeMs float64 `json:"averageTimeMs"`
}

// Statistics is derived from a result sequence and never persisted on its own
type Statistics struct {
	TotalRequests      int     `json:"totalRequests"`
	SuccessfulRequests int     `json:"successfulRequests"`
	FailedRequests     int     `json:"failedRequests"`
	SuccessRate        float64 `json:"successRate"`
	ErrorRate          float64 `json:"errorRate"`

	// Round-trip time, request start to response end
	MinResponseTimeMs     int64   `json:"minResponseTimeMs"`
	AverageResponseTimeMs float64 `json:"averageResponseTimeMs"`
	MaxResponseTimeMs     int64   `json:"maxResponseTimeMs"`

	// Completed requests per second over the observed time span
	Throughput float64 `json:"throughput"`

	Categories map[string]CategoryStats `json:"categories"`
}

// Aggregate computes statistics over a sequence of completed test results.
// An empty input yields all-zero statistics with an empty category map.
func Aggregate(results []models.TestResult) Statistics {
	s := Statistics{
		Categories: make(map[string]CategoryStats),
	}
	if len(results) == 0 {
		return s
	}

	s.TotalRequests = len(results)

	var totalTime int64
	var earliest, latest time.Time

	categoryTimes := make(map[string]int64)

	for i, r := range results {
		if r.Succeeded() {
			s.SuccessfulRequests++
		} else {
			s.FailedRequests++
		}

		totalTime += r.TotalTimeMs
		if i == 0 || r.TotalTimeMs < s.MinResponseTimeMs {
			s.MinResponseTimeMs = r.TotalTimeMs
		}
		if r.TotalTimeMs > s.MaxResponseTimeMs {
			s.MaxResponseTimeMs = r.TotalTimeMs
		}

		if i == 0 || r.RequestStart.Before(earliest) {
			earliest = r.RequestStart
		}
		if i == 0 || r.RequestStart.After(latest) {
			latest = r.RequestStart
		}

		cat := s.Categories[r.Category]
		cat.Total++
		if r.Succeeded() {
			cat.Successful++
		} else {
			cat.Failed++
		}
		s.Categories[r.Category] = cat
		categoryTimes[r.Category] += r.TotalTimeMs
	}

	s.SuccessRate = float64(s.SuccessfulRequests) / float64(s.TotalRequests) * 100
	s.ErrorRate = float64(s.FailedRequests) / float64(s.TotalRequests) * 100
	s.AverageResponseTimeMs = float64(totalTime) / float64(s.TotalRequests)

	// Zero span means all results share a timestamp; throughput is 0
	// rather than infinite.
	if span := latest.Sub(earliest).Seconds(); span > 0 {
		s.Throughput = float64(s.TotalRequests) / span
	}

	for name, cat := range s.Categories {
		cat.AverageTimeMs = float64(categoryTimes[name]) / float64(cat.Total)
		s.Categories[name] = cat
	}

	return s
}
