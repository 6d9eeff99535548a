package quality

import (
	"context"

	"github.com/aidanlsb/lorecheck/internal/issue"
	"github.com/aidanlsb/lorecheck/internal/snapshot"
)

// Validator scores a snapshot and, when MinScore is set, fails on any
// type with entities scoring below it.
type Validator struct {
	snap     *snapshot.Snapshot
	opts     Options
	minScore float64
}

// NewValidator creates a quality validator. A minScore of zero never fails.
func NewValidator(snap *snapshot.Snapshot, opts Options, minScore float64) *Validator {
	return &Validator{snap: snap, opts: opts, minScore: minScore}
}

// Validate computes the report and attaches it as the result details.
func (v *Validator) Validate(ctx context.Context) (issue.Result, error) {
	if err := ctx.Err(); err != nil {
		return issue.Result{}, err
	}

	report := Score(v.snap, v.opts)

	var issues []issue.Issue
	if v.minScore > 0 {
		for _, s := range report.Types {
			if s.Total == 0 || s.Score >= v.minScore {
				continue
			}
			decl, _ := v.snap.Schema.Entity(s.Type)
			issues = append(issues, issue.Errorf(issue.QualityThreshold,
				"%s quality score %.2f is below the minimum %.2f", s.Type, s.Score, v.minScore).
				In(decl.Document).On(s.Type, "", ""))
		}
	}

	res := issue.NewResult(issues)
	res.Details = report
	return res, nil
}
