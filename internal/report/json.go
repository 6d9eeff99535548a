package report

import (
	"encoding/json"
	"time"

	"github.com/aidanlsb/lorecheck/internal/orchestrator"
	"github.com/aidanlsb/lorecheck/internal/quality"
)

// Document is the JSON shape of a run.
type Document struct {
	RunID       string                         `json:"runId"`
	StartedAt   time.Time                      `json:"startedAt"`
	Root        string                         `json:"root,omitempty"`
	Fingerprint string                         `json:"fingerprint"`
	Mode        string                         `json:"mode"`
	Summary     orchestrator.Summary           `json:"summary"`
	Validators  []orchestrator.ValidatorReport `json:"validators"`
	Quality     *quality.Report                `json:"quality,omitempty"`
}

// NewDocument builds the JSON shape of r.
func NewDocument(r *Run) Document {
	return Document{
		RunID:       r.ID,
		StartedAt:   r.StartedAt().UTC(),
		Root:        r.Root,
		Fingerprint: r.Fingerprint,
		Mode:        r.Report.Mode,
		Summary:     r.Report.Summary,
		Validators:  r.Report.Validators,
		Quality:     r.Quality(),
	}
}

// JSON renders r as indented JSON with a trailing newline.
func JSON(r *Run) ([]byte, error) {
	data, err := json.MarshalIndent(NewDocument(r), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
