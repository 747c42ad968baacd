package models

import "time"

// ResumeData is the persisted checkpoint that lets an interrupted test
// session continue. It is written after each completed test when
// persistence is enabled, read once at resume time, and deleted on
// successful completion.
//
// Invariant: LastCompletedIndex <= len(PartialResults).
type ResumeData struct {
	SessionID          string       `json:"sessionId"`
	LastCompletedIndex int          `json:"lastCompletedIndex"`
	SavedAt            time.Time    `json:"savedAt"`
	Config             TestConfig   `json:"config"`
	PartialResults     []TestResult `json:"partialResults"`
}

// Valid reports whether the checkpoint satisfies its structural invariant
func (d *ResumeData) Valid() bool {
	return d.SessionID != "" &&
		d.LastCompletedIndex >= 0 &&
		d.LastCompletedIndex <= len(d.PartialResults)
}
