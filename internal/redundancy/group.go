package redundancy

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/aidanlsb/lorecheck/internal/content"
	"github.com/aidanlsb/lorecheck/internal/issue"
	"github.com/aidanlsb/lorecheck/internal/schema"
)

// versionPattern is the accepted framework version format.
var versionPattern = regexp.MustCompile(`^\d+\.\d+(\.\d+)?$`)

// ValidVersion reports whether s is a well-formed framework version.
func ValidVersion(s string) bool {
	return versionPattern.MatchString(s)
}

// checkGroup computes the redundancy ratio of one framework group and
// checks version agreement across its documents.
func (v *Validator) checkGroup(group *schema.FrameworkDecl, docs []*frameworkDoc, res *pathResolver) (GroupReport, []issue.Issue) {
	var issues []issue.Issue
	lo, hi := group.RatioBounds()
	report := GroupReport{
		Name:      group.Name,
		Documents: append([]string(nil), group.Documents...),
		RatioMin:  lo,
		RatioMax:  hi,
		Versions:  make(map[string]string),
	}

	members := make(map[string]bool)
	var groupDocs []*frameworkDoc
	for _, fd := range docs {
		if fd.group == group && !members[fd.name] {
			members[fd.name] = true
			groupDocs = append(groupDocs, fd)
		}
	}

	issues = append(issues, checkVersions(group, groupDocs, report.Versions)...)

	// Total fields: the group's own documents without their redundancy
	// blocks, plus every distinct referenced file.
	counted := make(map[string]bool)
	for _, fd := range groupDocs {
		counted[fd.name] = true
		report.TotalFields += countWithout(fd.doc.Data, group.BlockField())
	}
	for _, fd := range groupDocs {
		for _, ref := range fd.referenced {
			if counted[ref] {
				continue
			}
			counted[ref] = true
			if doc, ok := v.snap.Document(ref); ok {
				report.TotalFields += content.CountLeaves(doc.Data)
			}
		}
	}

	blockKey := group.BlockField()
	report.RedundantFields, report.Declarations = res.redundantLeaves(members, func(doc string, path []string) bool {
		if !counted[doc] {
			return false
		}
		// A member's own redundancy block is excluded from its total.
		return !members[doc] || len(path) == 0 || path[0] != blockKey
	})
	if report.TotalFields > 0 {
		report.Ratio = float64(report.RedundantFields) / float64(report.TotalFields)
		if report.Ratio < lo || report.Ratio > hi {
			issues = append(issues, issue.Warnf(issue.RedundancyRatio,
				"framework %s redundancy ratio %.3f (%d of %d fields) is outside [%.2f, %.2f]",
				group.Name, report.Ratio, report.RedundantFields, report.TotalFields, lo, hi).
				In(firstDoc(group)))
		}
	}

	return report, issues
}

// checkVersions requires a well-formed version string in every document
// and warns once when the group's documents disagree.
func checkVersions(group *schema.FrameworkDecl, docs []*frameworkDoc, versions map[string]string) []issue.Issue {
	var issues []issue.Issue
	key := group.VersionField()

	for _, fd := range docs {
		raw, present := fd.doc.Root()[key]
		s, isString := raw.(string)
		switch {
		case !present || raw == nil:
			issues = append(issues, issue.Errorf(issue.VersionFormat,
				"framework document %s has no %s", fd.name, key).In(fd.name))
		case !isString:
			issues = append(issues, issue.Errorf(issue.VersionFormat,
				"framework document %s: %s must be a string, got %v", fd.name, key, raw).In(fd.name))
		case !ValidVersion(strings.TrimSpace(s)):
			issues = append(issues, issue.Errorf(issue.VersionFormat,
				"framework document %s: %s %q is not of the form N.N or N.N.N", fd.name, key, s).
				In(fd.name).WithToken(s))
		default:
			versions[fd.name] = strings.TrimSpace(s)
		}
	}

	distinct := make(map[string]bool)
	for _, ver := range versions {
		distinct[ver] = true
	}
	if len(distinct) > 1 {
		names := make([]string, 0, len(versions))
		for name := range versions {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, len(names))
		for i, name := range names {
			parts[i] = fmt.Sprintf("%s=%s", name, versions[name])
		}
		issues = append(issues, issue.Warnf(issue.VersionMismatch,
			"framework %s documents disagree on %s: %s", group.Name, key, strings.Join(parts, ", ")).
			In(firstDoc(group)))
	}

	return issues
}

func countWithout(data any, blockKey string) int {
	root, ok := data.(map[string]any)
	if !ok {
		return content.CountLeaves(data)
	}
	n := 0
	for k, v := range root {
		if k == blockKey {
			continue
		}
		n += content.CountLeaves(v)
	}
	return n
}

func firstDoc(group *schema.FrameworkDecl) string {
	if len(group.Documents) == 0 {
		return ""
	}
	return group.Documents[0]
}
