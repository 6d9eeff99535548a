package orchestrator

import (
	"time"

	"github.com/aidanlsb/lorecheck/internal/issue"
)

// ValidatorReport is the settled outcome of one registered validator.
type ValidatorReport struct {
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	IsValid      bool               `json:"isValid"`
	Skipped      bool               `json:"skipped,omitempty"`
	Issues       []issue.Issue      `json:"issues"`
	Warnings     []issue.Issue      `json:"warnings"`
	CountsByKind map[issue.Kind]int `json:"countsByKind,omitempty"`
	Details      any                `json:"details,omitempty"`
	DurationMs   int64              `json:"durationMs"`
	// Error is set when the validator failed to complete (error, panic,
	// timeout or cancellation).
	Error string `json:"error,omitempty"`
}

// Failed reports whether the validator ran and did not pass.
func (r *ValidatorReport) Failed() bool {
	return !r.Skipped && !r.IsValid
}

// Summary aggregates a run.
type Summary struct {
	Total      int   `json:"total"`
	Passed     int   `json:"passed"`
	Failed     int   `json:"failed"`
	Skipped    int   `json:"skipped"`
	Errors     int   `json:"errors"`
	Warnings   int   `json:"warnings"`
	DurationMs int64 `json:"durationMs"`
	IsValid    bool  `json:"isValid"`
}

// Report is the aggregated result of one run. Validators appear in
// registration order regardless of completion order.
type Report struct {
	Summary    Summary           `json:"summary"`
	Validators []ValidatorReport `json:"validators"`
	StartedAt  time.Time         `json:"startedAt"`
	Mode       string            `json:"mode"`
}

// Validator returns the report of a named validator.
func (r *Report) Validator(name string) (*ValidatorReport, bool) {
	for i := range r.Validators {
		if r.Validators[i].Name == name {
			return &r.Validators[i], true
		}
	}
	return nil, false
}

// aggregate accumulates totals. Warnings never flip the status.
func aggregate(reports []ValidatorReport, elapsed time.Duration) Summary {
	s := Summary{DurationMs: elapsed.Milliseconds()}
	for _, r := range reports {
		if r.Skipped {
			s.Skipped++
			continue
		}
		s.Total++
		if r.IsValid {
			s.Passed++
		} else {
			s.Failed++
		}
		s.Errors += len(r.Issues)
		s.Warnings += len(r.Warnings)
	}
	s.IsValid = s.Failed == 0
	return s
}
