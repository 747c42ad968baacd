package models

import "time"

// SessionStatus represents the lifecycle state of a test session
type SessionStatus string

const (
	// SessionRunning indicates tests are being executed
	SessionRunning SessionStatus = "running"
	// SessionPaused indicates the session stopped issuing new requests but can resume
	SessionPaused SessionStatus = "paused"
	// SessionCompleted indicates every selected endpoint produced a result
	SessionCompleted SessionStatus = "completed"
	// SessionFailed indicates a non-recoverable orchestration error occurred
	SessionFailed SessionStatus = "failed"
)

// TestConfig holds the configuration for a test session. It is copied by
// value into each TestSession at creation so later edits do not
// retroactively alter a running session's record.
type TestConfig struct {
	BaseURL     string            `json:"baseUrl" mapstructure:"base_url"`
	TimeoutMs   int               `json:"timeoutMs" mapstructure:"timeout_ms"`
	Retries     int               `json:"retries" mapstructure:"retries"`
	Concurrency int               `json:"concurrency" mapstructure:"concurrency"`
	AuthToken   string            `json:"authToken,omitempty" mapstructure:"auth_token"`
	Headers     map[string]string `json:"headers,omitempty" mapstructure:"headers"`

	// Feature toggles
	AudioCapture      bool `json:"audioCapture" mapstructure:"audio_capture"`
	ValidateResponses bool `json:"validateResponses" mapstructure:"validate_responses"`
	Persistence       bool `json:"persistence" mapstructure:"persistence"`
	ResumeOnFailure   bool `json:"resumeOnFailure" mapstructure:"resume_on_failure"`
}

// Timeout returns the per-request timeout as a duration, defaulting to 30s
func (c TestConfig) Timeout() time.Duration {
	if c.TimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// TestSession represents one run of the harness over a selection of endpoints
type TestSession struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	StartedAt time.Time     `json:"startedAt"`
	EndedAt   *time.Time    `json:"endedAt,omitempty"`
	Status    SessionStatus `json:"status"`

	TotalTests      int `json:"totalTests"`
	CompletedTests  int `json:"completedTests"`
	SuccessfulTests int `json:"successfulTests"`
	FailedTests     int `json:"failedTests"`

	Results []TestResult `json:"results"`
	Config  TestConfig   `json:"config"`
}

// AddResult appends a test result and updates the session counts
func (s *TestSession) AddResult(result TestResult) {
	s.Results = append(s.Results, result)
	s.CompletedTests++
	if result.Succeeded() {
		s.SuccessfulTests++
	} else {
		s.FailedTests++
	}
}

// RecountFromResults recomputes the completed/success/failure counts by
// filtering result statuses. Used when reconstructing a session from a
// persisted checkpoint, where cached totals are not trusted.
func (s *TestSession) RecountFromResults() {
	s.CompletedTests = len(s.Results)
	s.SuccessfulTests = 0
	s.FailedTests = 0
	for _, r := range s.Results {
		if r.Succeeded() {
			s.SuccessfulTests++
		} else {
			s.FailedTests++
		}
	}
}
