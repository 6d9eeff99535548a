// Package check validates entity-to-entity references: existence,
// bidirectional mirroring and orphan status.
package check

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aidanlsb/lorecheck/internal/issue"
	"github.com/aidanlsb/lorecheck/internal/model"
	"github.com/aidanlsb/lorecheck/internal/resolver"
	"github.com/aidanlsb/lorecheck/internal/schema"
	"github.com/aidanlsb/lorecheck/internal/snapshot"
)

// MissingRef groups every occurrence of one unresolved token.
type MissingRef struct {
	Token      string   `json:"token"`
	TargetType string   `json:"targetType"`
	Sources    []string `json:"sources"` // "type id.field", up to maxSources
	Count      int      `json:"count"`
}

const maxSources = 5

// Summary is the detail payload attached to a reference validation result.
type Summary struct {
	Tokens      int            `json:"tokens"`
	Resolved    int            `json:"resolved"`
	ByVia       map[string]int `json:"byVia"`
	MissingRefs []*MissingRef  `json:"missingRefs,omitempty"`
}

// Validator checks references over one snapshot. A Validator accumulates
// state while it runs; create one per run.
type Validator struct {
	snap    *snapshot.Snapshot
	schema  *schema.Schema
	index   *resolver.Index
	summary Summary
	missing map[string]*MissingRef // Keyed by target type and token to dedupe
}

// NewValidator creates a reference validator over a snapshot.
func NewValidator(snap *snapshot.Snapshot) *Validator {
	return &Validator{
		snap:    snap,
		schema:  snap.Schema,
		index:   snap.Index,
		summary: Summary{ByVia: make(map[string]int)},
		missing: make(map[string]*MissingRef),
	}
}

// Validate runs the existence, bidirectional and orphan checks. It covers
// every entity on every run. Unresolved, ambiguous and orphan references
// are errors; bidirectional mismatches are warnings.
func (v *Validator) Validate(ctx context.Context) (issue.Result, error) {
	var issues []issue.Issue

	existence, err := v.CheckExistence(ctx)
	if err != nil {
		return issue.Result{}, err
	}
	issues = append(issues, existence...)
	issues = append(issues, v.CheckBidirectional()...)
	issues = append(issues, v.CheckOrphans()...)

	res := issue.NewResult(issues)
	v.summary.MissingRefs = v.MissingRefs()
	res.Details = v.summary
	return res, nil
}

// CheckExistence resolves every token of every declared reference field.
func (v *Validator) CheckExistence(ctx context.Context) ([]issue.Issue, error) {
	var issues []issue.Issue

	for _, typeName := range v.schema.EntityTypes() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		decl, _ := v.schema.Entity(typeName)

		for _, e := range v.snap.Collections.Entities(typeName) {
			for _, field := range decl.ReferenceFields() {
				raw, ok := e.Field(field)
				if !ok {
					continue
				}
				target := decl.References[field]
				for _, tok := range model.Tokens(raw) {
					issues = append(issues, v.checkToken(e, field, target, tok)...)
				}
			}
		}
	}

	return issues, nil
}

func (v *Validator) checkToken(e *model.Entity, field, target string, tok model.Token) []issue.Issue {
	v.summary.Tokens++
	res := v.index.Resolve(tok, target)

	switch {
	case res.Ambiguous:
		return []issue.Issue{issue.Errorf(issue.AmbiguousReference,
			"ambiguous %s %s referenced by %s (matches: %s)",
			target, tok, e.ID, strings.Join(res.Matches, ", ")).
			In(e.Document).On(e.Type, e.ID, field).WithToken(tok.String())}
	case !res.Resolved():
		v.trackMissingRef(e, field, target, tok.String())
		return []issue.Issue{issue.Errorf(issue.UnresolvedReference,
			"unresolved %s %s referenced by %s", target, tok, e.ID).
			In(e.Document).On(e.Type, e.ID, field).WithToken(tok.String())}
	}

	v.summary.Resolved++
	v.summary.ByVia[res.Via.String()]++
	return nil
}

// trackMissingRef records an unresolved token for the summary.
func (v *Validator) trackMissingRef(e *model.Entity, field, target, token string) {
	key := target + "\x00" + token
	source := fmt.Sprintf("%s %s.%s", e.Type, e.ID, field)

	if existing, ok := v.missing[key]; ok {
		existing.Count++
		// Keep up to maxSources example locations
		if len(existing.Sources) < maxSources {
			existing.Sources = append(existing.Sources, source)
		}
		return
	}

	v.missing[key] = &MissingRef{
		Token:      token,
		TargetType: target,
		Sources:    []string{source},
		Count:      1,
	}
}

// MissingRefs returns all unresolved tokens collected during validation,
// sorted by target type and token.
func (v *Validator) MissingRefs() []*MissingRef {
	refs := make([]*MissingRef, 0, len(v.missing))
	for _, ref := range v.missing {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].TargetType != refs[j].TargetType {
			return refs[i].TargetType < refs[j].TargetType
		}
		return refs[i].Token < refs[j].Token
	})
	return refs
}

// CheckBidirectional confirms that every declared pair mirrors in both
// directions. A symmetric pair (the same field on both sides) is checked
// once. Tokens that do not resolve are skipped here; the existence check
// reports them.
func (v *Validator) CheckBidirectional() []issue.Issue {
	var issues []issue.Issue
	for _, pair := range v.schema.Bidirectional {
		issues = append(issues, v.checkMirror(pair.Source, pair.Target)...)
		if !pair.Symmetric() {
			issues = append(issues, v.checkMirror(pair.Target, pair.Source)...)
		}
	}
	return issues
}

// checkMirror verifies that for every from-entity referencing a to-entity
// through from.Field, the to-entity references it back through to.Field.
func (v *Validator) checkMirror(from, to schema.FieldRef) []issue.Issue {
	var issues []issue.Issue

	for _, e := range v.snap.Collections.Entities(from.Type) {
		for _, targetID := range v.resolvedTargets(e, from.Field, to.Type) {
			target, ok := v.index.Lookup(to.Type, targetID)
			if !ok {
				continue
			}
			if containsID(v.resolvedTargets(target, to.Field, from.Type), e.ID) {
				continue
			}
			issues = append(issues, issue.Warnf(issue.BidirectionalMismatch,
				"%s %s lists %s %s in %s, but %s %s does not list %s in %s",
				from.Type, e.ID, to.Type, targetID, from.Field,
				to.Type, targetID, e.ID, to.Field).
				In(e.Document).On(e.Type, e.ID, from.Field).WithToken(targetID))
		}
	}

	return issues
}

// resolvedTargets returns the distinct ids a field resolves to, in order.
func (v *Validator) resolvedTargets(e *model.Entity, field, targetType string) []string {
	raw, ok := e.Field(field)
	if !ok {
		return nil
	}
	var ids []string
	seen := make(map[string]bool)
	for _, tok := range model.Tokens(raw) {
		res := v.index.Resolve(tok, targetType)
		if !res.Resolved() || seen[res.ID] {
			continue
		}
		seen[res.ID] = true
		ids = append(ids, res.ID)
	}
	return ids
}

// CheckOrphans reports entities of an orphan-checked type that no entity
// references through the declared fields, and, for exclusive rules,
// entities referenced by more than one entity.
func (v *Validator) CheckOrphans() []issue.Issue {
	var issues []issue.Issue

	for _, rule := range v.schema.Orphans {
		referrers := make(map[string][]string)
		for _, via := range rule.Via {
			for _, src := range v.snap.Collections.Entities(via.Type) {
				for _, id := range v.resolvedTargets(src, via.Field, rule.Type) {
					referrers[id] = appendUnique(referrers[id], src.Label())
				}
			}
		}

		for _, id := range v.index.IDs(rule.Type) {
			e, _ := v.index.Lookup(rule.Type, id)
			refs := referrers[id]
			switch {
			case len(refs) == 0:
				issues = append(issues, issue.Errorf(issue.OrphanReference,
					"orphan %s %s is not referenced by %s", rule.Type, id, joinRefs(rule.Via)).
					In(e.Document).On(rule.Type, id, ""))
			case rule.Exclusive && len(refs) > 1:
				sort.Strings(refs)
				issues = append(issues, issue.Errorf(issue.ExclusiveReference,
					"%s %s is referenced by %d entities (%s), expected exactly one",
					rule.Type, id, len(refs), strings.Join(refs, ", ")).
					In(e.Document).On(rule.Type, id, ""))
			}
		}
	}

	return issues
}

func joinRefs(refs []schema.FieldRef) string {
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = r.String()
	}
	return strings.Join(parts, " or ")
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func appendUnique(list []string, s string) []string {
	if containsID(list, s) {
		return list
	}
	return append(list, s)
}
