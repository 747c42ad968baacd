package models

import "time"

// Status represents the outcome of a single endpoint test
type Status string

const (
	// StatusSuccess indicates a 2xx response was received
	StatusSuccess Status = "success"
	// StatusError indicates a transport or HTTP-level failure
	StatusError Status = "error"
	// StatusTimeout indicates no response arrived within the configured duration
	StatusTimeout Status = "timeout"
	// StatusPending indicates the test has not completed yet
	StatusPending Status = "pending"
)

// TestResult represents the result of testing a single API endpoint.
// A TestResult is created exactly once per executed test and never
// mutated afterwards.
type TestResult struct {
	// Endpoint details
	EndpointName string `json:"endpointName"`
	Method       string `json:"method"`
	Path         string `json:"path"`
	Category     string `json:"category"`

	// Timing
	RequestStart   time.Time `json:"requestStart"`
	ResponseEnd    time.Time `json:"responseEnd"`
	RequestTimeMs  int64     `json:"requestTimeMs"`
	ResponseTimeMs int64     `json:"responseTimeMs"`
	TotalTimeMs    int64     `json:"totalTimeMs"`

	// Outcome
	Status     Status `json:"status"`
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error,omitempty"`

	// Payloads
	RawResponse      string `json:"rawResponse,omitempty"`
	ExpectedResponse any    `json:"expectedResponse,omitempty"`
	RequestSize      int    `json:"requestSize"`
	ResponseSize     int    `json:"responseSize"`

	// Structural similarity between expected and actual response, 0-100
	AccuracyPercentage float64 `json:"accuracyPercentage"`
}

// Succeeded reports whether the test completed with a 2xx response
func (r TestResult) Succeeded() bool {
	return r.Status == StatusSuccess
}
