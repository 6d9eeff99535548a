// Package redundancy validates the controlled-redundancy architecture of
// framework documents: redundancy blocks, referenced files, cross-reference
// paths and their dependency graph, the duplication ratio and version
// agreement.
package redundancy

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aidanlsb/lorecheck/internal/content"
	"github.com/aidanlsb/lorecheck/internal/issue"
	"github.com/aidanlsb/lorecheck/internal/model"
	"github.com/aidanlsb/lorecheck/internal/schema"
	"github.com/aidanlsb/lorecheck/internal/snapshot"
)

// Block keys inside a controlled-redundancy block.
const (
	ReferencedFilesKey = "referenced_files"
	CrossReferencesKey = "cross_references"
)

// MarkerPrefix introduces a usage marker for a cross-reference declaration
// in a document's text: "$xref:poem_titles".
const MarkerPrefix = "$xref:"

// Declaration is one named cross-reference.
type Declaration struct {
	Document string
	Name     string
	Path     string
}

// Key identifies a declaration across documents: "doc#name".
func (d *Declaration) Key() string {
	return d.Document + "#" + d.Name
}

// GroupReport summarizes one framework group.
type GroupReport struct {
	Name            string            `json:"name"`
	Documents       []string          `json:"documents"`
	Declarations    int               `json:"declarations"`
	RedundantFields int               `json:"redundantFields"`
	TotalFields     int               `json:"totalFields"`
	Ratio           float64           `json:"ratio"`
	RatioMin        float64           `json:"ratioMin"`
	RatioMax        float64           `json:"ratioMax"`
	Versions        map[string]string `json:"versions,omitempty"`
}

// Validator checks every framework group of a snapshot.
type Validator struct {
	snap *snapshot.Snapshot
}

// NewValidator creates a redundancy validator.
func NewValidator(snap *snapshot.Snapshot) *Validator {
	return &Validator{snap: snap}
}

// frameworkDoc is a framework document with its parsed redundancy block.
type frameworkDoc struct {
	name         string
	doc          *content.Document
	group        *schema.FrameworkDecl
	block        map[string]any
	referenced   []string
	declarations []*Declaration
}

// Validate runs every redundancy check. With no framework groups declared
// the result is trivially valid.
func (v *Validator) Validate(ctx context.Context) (issue.Result, error) {
	var issues []issue.Issue
	var reports []GroupReport

	var docs []*frameworkDoc
	for i := range v.snap.Schema.Frameworks {
		group := &v.snap.Schema.Frameworks[i]
		for _, name := range group.Documents {
			fd, problems := v.parseDocument(name, group)
			issues = append(issues, problems...)
			if fd != nil {
				docs = append(docs, fd)
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return issue.Result{}, err
	}

	res := newResolver(v.snap, docs)
	issues = append(issues, res.resolveAll()...)
	issues = append(issues, checkUsage(docs)...)

	for i := range v.snap.Schema.Frameworks {
		group := &v.snap.Schema.Frameworks[i]
		report, problems := v.checkGroup(group, docs, res)
		issues = append(issues, problems...)
		reports = append(reports, report)
	}

	result := issue.NewResult(issues)
	result.Details = reports
	return result, nil
}

func (v *Validator) parseDocument(name string, group *schema.FrameworkDecl) (*frameworkDoc, []issue.Issue) {
	doc, ok := v.snap.Document(name)
	if !ok {
		msg := fmt.Sprintf("framework document %s could not be loaded", name)
		if err, failed := v.snap.LoadError(name); failed {
			msg = fmt.Sprintf("framework document %s could not be loaded: %v", name, err)
		}
		return nil, []issue.Issue{issue.Errorf(issue.DataLoad, "%s", msg).In(name)}
	}

	fd := &frameworkDoc{name: name, doc: doc, group: group}
	blockKey := group.BlockField()

	root := doc.Root()
	block, ok := root[blockKey].(map[string]any)
	if !ok {
		return fd, []issue.Issue{issue.Errorf(issue.MissingRedundancy,
			"framework document %s has no %s block", name, blockKey).In(name)}
	}
	fd.block = block

	var problems []issue.Issue
	malformed := func(format string, args ...any) {
		problems = append(problems, issue.Errorf(issue.MissingRedundancy,
			"framework document %s: "+format, append([]any{name}, args...)...).In(name))
	}

	switch files := block[ReferencedFilesKey].(type) {
	case nil:
		malformed("%s block has no %s list", blockKey, ReferencedFilesKey)
	case []any:
		for _, f := range files {
			s, ok := f.(string)
			if !ok || strings.TrimSpace(s) == "" {
				malformed("%s entry %s is not a document name", ReferencedFilesKey, model.Describe(f))
				continue
			}
			fd.referenced = append(fd.referenced, strings.TrimSpace(s))
		}
	default:
		malformed("%s must be a list of document names", ReferencedFilesKey)
	}

	switch refs := block[CrossReferencesKey].(type) {
	case nil:
		malformed("%s block has no %s map", blockKey, CrossReferencesKey)
	case map[string]any:
		names := make([]string, 0, len(refs))
		for n := range refs {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			path, ok := refs[n].(string)
			if !ok || strings.TrimSpace(path) == "" {
				problems = append(problems, issue.Errorf(issue.DanglingPath,
					"cross-reference %s in %s has no path (got %s)", n, name, model.Describe(refs[n])).
					In(name).WithToken(n))
				continue
			}
			fd.declarations = append(fd.declarations, &Declaration{Document: name, Name: n, Path: strings.TrimSpace(path)})
		}
	default:
		malformed("%s must map names to paths", CrossReferencesKey)
	}

	for _, ref := range fd.referenced {
		if !v.snap.HasDocument(ref) {
			problems = append(problems, issue.Errorf(issue.MissingReferencedFile,
				"framework document %s references missing file %s", name, ref).In(name).WithToken(ref))
		}
	}

	return fd, problems
}

// checkUsage warns about declarations whose marker never appears in the
// declaring document outside its redundancy block.
func checkUsage(docs []*frameworkDoc) []issue.Issue {
	var issues []issue.Issue
	for _, fd := range docs {
		if len(fd.declarations) == 0 {
			continue
		}
		used := make(map[string]bool)
		skip := map[string]bool{fd.group.BlockField(): true}
		content.VisitStrings(fd.doc.Data, skip, func(s string) {
			for _, d := range fd.declarations {
				if !used[d.Name] && hasMarker(s, d.Name) {
					used[d.Name] = true
				}
			}
		})
		for _, d := range fd.declarations {
			if !used[d.Name] {
				issues = append(issues, issue.Warnf(issue.DanglingDeclaration,
					"cross-reference %s in %s is declared but never used (no %s%s marker)",
					d.Name, fd.name, MarkerPrefix, d.Name).In(fd.name).WithToken(d.Name))
			}
		}
	}
	return issues
}

// hasMarker reports whether s contains "$xref:<name>" not followed by
// another name character.
func hasMarker(s, name string) bool {
	marker := MarkerPrefix + name
	for {
		idx := strings.Index(s, marker)
		if idx < 0 {
			return false
		}
		end := idx + len(marker)
		if end == len(s) || !isNameChar(s[end]) {
			return true
		}
		s = s[end:]
	}
}

func isNameChar(c byte) bool {
	return c == '_' || c == '-' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
