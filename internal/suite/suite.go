// Package suite wires the default validators into an orchestrator.
package suite

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aidanlsb/lorecheck/internal/check"
	"github.com/aidanlsb/lorecheck/internal/content"
	"github.com/aidanlsb/lorecheck/internal/issue"
	"github.com/aidanlsb/lorecheck/internal/orchestrator"
	"github.com/aidanlsb/lorecheck/internal/quality"
	"github.com/aidanlsb/lorecheck/internal/redundancy"
	"github.com/aidanlsb/lorecheck/internal/snapshot"
)

// Validator names, in registration order.
const (
	Documents  = "documents"
	Identity   = "identity"
	References = "references"
	Redundancy = "redundancy"
	Quality    = "quality"
)

// ErrUnknownValidator is returned when a selection names a validator that
// is not part of the suite.
var ErrUnknownValidator = errors.New("unknown validator")

// Options configures the default validators.
type Options struct {
	// MinScore fails the quality validator when a type scores below it.
	MinScore float64
	// FuzzyUsage adds the free-text usage walk to quality ranking.
	FuzzyUsage bool
	// Enabled overrides the enabled flag per validator name. Names not
	// present are enabled.
	Enabled map[string]bool
}

type entry struct {
	name        string
	description string
	build       func(opts Options) orchestrator.Validator
}

var entries = []entry{
	{
		name:        Documents,
		description: "required documents load and parse",
		build:       func(Options) orchestrator.Validator { return orchestrator.Func(validateDocuments) },
	},
	{
		name:        Identity,
		description: "ids present and unique within each entity type",
		build:       func(Options) orchestrator.Validator { return orchestrator.Func(validateIdentity) },
	},
	{
		name:        References,
		description: "references resolve, mirror and reach every orphan-ruled entity",
		build: func(Options) orchestrator.Validator {
			return orchestrator.Func(func(ctx context.Context, snap *snapshot.Snapshot) (issue.Result, error) {
				return check.NewValidator(snap).Validate(ctx)
			})
		},
	},
	{
		name:        Redundancy,
		description: "framework cross-references, redundancy ratio and versions",
		build: func(Options) orchestrator.Validator {
			return orchestrator.Func(func(ctx context.Context, snap *snapshot.Snapshot) (issue.Result, error) {
				return redundancy.NewValidator(snap).Validate(ctx)
			})
		},
	},
	{
		name:        Quality,
		description: "per-type completeness, distribution and top entities",
		build: func(opts Options) orchestrator.Validator {
			return orchestrator.Func(func(ctx context.Context, snap *snapshot.Snapshot) (issue.Result, error) {
				return quality.NewValidator(snap, quality.Options{FuzzyUsage: opts.FuzzyUsage}, opts.MinScore).Validate(ctx)
			})
		},
	},
}

// Names returns the validator names in registration order.
func Names() []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names
}

// Describe returns the description of a validator.
func Describe(name string) (string, bool) {
	for _, e := range entries {
		if e.name == name {
			return e.description, true
		}
	}
	return "", false
}

// Register adds every default validator to o.
func Register(o *orchestrator.Orchestrator, opts Options) error {
	for _, e := range entries {
		enabled := true
		if v, ok := opts.Enabled[e.name]; ok {
			enabled = v
		}
		if err := o.Register(e.name, e.description, e.build(opts), enabled); err != nil {
			return err
		}
	}
	return nil
}

// Select merges config enable flags with --only and --skip. only wins over
// the config; skip wins over both.
func Select(configured map[string]bool, only, skip []string) (map[string]bool, error) {
	known := make(map[string]bool, len(entries))
	for _, e := range entries {
		known[e.name] = true
	}
	var unknown []string
	for _, name := range append(append([]string{}, only...), skip...) {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	for name := range configured {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: %s (known: %s)", ErrUnknownValidator,
			strings.Join(unknown, ", "), strings.Join(Names(), ", "))
	}

	enabled := make(map[string]bool, len(entries))
	for _, e := range entries {
		enabled[e.name] = true
		if v, ok := configured[e.name]; ok {
			enabled[e.name] = v
		}
	}
	if len(only) > 0 {
		for name := range enabled {
			enabled[name] = false
		}
		for _, name := range only {
			enabled[name] = true
		}
	}
	for _, name := range skip {
		enabled[name] = false
	}
	return enabled, nil
}

// DocumentStatus is the documents validator's detail payload.
type DocumentStatus struct {
	Loaded  []string `json:"loaded"`
	Missing []string `json:"missing,omitempty"`
	Corrupt []string `json:"corrupt,omitempty"`
}

// validateDocuments fails on required documents that could not be loaded.
// An unreadable optional document is a warning; an absent one is silent.
func validateDocuments(ctx context.Context, snap *snapshot.Snapshot) (issue.Result, error) {
	if err := ctx.Err(); err != nil {
		return issue.Result{}, err
	}

	required := snap.Schema.RequiredDocuments()
	status := DocumentStatus{Loaded: snap.DocumentNames()}

	var issues []issue.Issue
	for _, err := range snap.LoadErrors() {
		var le *content.LoadError
		if !errors.As(err, &le) {
			continue
		}
		if le.Kind == content.LoadMissing {
			status.Missing = append(status.Missing, le.Name)
		} else {
			status.Corrupt = append(status.Corrupt, le.Name)
		}

		switch {
		case required[le.Name]:
			issues = append(issues, issue.Errorf(issue.DataLoad, "required %v", err).In(le.Name))
		case le.Kind != content.LoadMissing:
			issues = append(issues, issue.Warnf(issue.DataLoad, "%v", err).In(le.Name))
		}
	}

	res := issue.NewResult(issues)
	res.Details = status
	return res, nil
}

// validateIdentity reports ids that are missing or declared twice within a
// type, plus items that could not be read as entities.
func validateIdentity(ctx context.Context, snap *snapshot.Snapshot) (issue.Result, error) {
	if err := ctx.Err(); err != nil {
		return issue.Result{}, err
	}

	issues := append([]issue.Issue{}, snap.Collections.Problems()...)
	for _, dup := range snap.Index.Duplicates() {
		positions := make([]string, len(dup.Entities))
		for i, e := range dup.Entities {
			positions[i] = fmt.Sprintf("%d", e.Position)
		}
		first := dup.Entities[0]
		issues = append(issues, issue.Errorf(issue.DuplicateID,
			"duplicate %s id %s at positions %s in %s",
			dup.Type, dup.ID, strings.Join(positions, ", "), first.Document).
			In(first.Document).On(dup.Type, dup.ID, ""))
	}

	counts := make(map[string]int)
	for _, t := range snap.Collections.Types() {
		counts[t] = len(snap.Collections.Entities(t))
	}

	res := issue.NewResult(issues)
	res.Details = counts
	return res, nil
}

// New builds an orchestrator with the default validators registered.
func New(opts Options, orchOpts ...orchestrator.Option) (*orchestrator.Orchestrator, error) {
	o := orchestrator.New(orchOpts...)
	if err := Register(o, opts); err != nil {
		return nil, err
	}
	return o, nil
}
