// Package report renders orchestrator results as console text, JSON,
// Markdown and HTML, and writes timestamped report artifacts.
package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/aidanlsb/lorecheck/internal/orchestrator"
	"github.com/aidanlsb/lorecheck/internal/quality"
)

// Run is one finished validation run plus the identity of the content it
// checked.
type Run struct {
	ID          string
	Root        string
	Fingerprint string
	Report      *orchestrator.Report
}

// NewRun assigns a fresh run id.
func NewRun(root, fingerprint string, rep *orchestrator.Report) *Run {
	return &Run{
		ID:          uuid.NewString(),
		Root:        root,
		Fingerprint: fingerprint,
		Report:      rep,
	}
}

// StartedAt returns the run start time.
func (r *Run) StartedAt() time.Time {
	return r.Report.StartedAt
}

// Quality returns the quality validator's report, or nil when the
// validator was skipped or failed.
func (r *Run) Quality() *quality.Report {
	for _, v := range r.Report.Validators {
		if q, ok := v.Details.(quality.Report); ok {
			return &q
		}
	}
	return nil
}

// Status is "pass" or "fail".
func (r *Run) Status() string {
	if r.Report.Summary.IsValid {
		return "pass"
	}
	return "fail"
}
