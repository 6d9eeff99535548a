package redundancy

import (
	"fmt"
	"strings"

	"github.com/aidanlsb/lorecheck/internal/content"
	"github.com/aidanlsb/lorecheck/internal/issue"
	"github.com/aidanlsb/lorecheck/internal/snapshot"
)

// target is what the head segment of a path names.
type target struct {
	alias *Declaration
	doc   string
}

// resolved is the outcome of resolving one declaration.
type resolved struct {
	values []any
	// direct is true when the path starts at a document rather than at
	// another declaration. Only direct results carry doc and located.
	direct  bool
	doc     string
	located []content.Located
	ok      bool
}

// pathResolver resolves cross-reference paths structurally. Declarations
// are looked up by name in the declaring document first, then in other
// framework documents in declaration order.
type pathResolver struct {
	snap    *snapshot.Snapshot
	docs    []*frameworkDoc
	byDoc   map[string]map[string]*Declaration
	order   []*Declaration
	results map[string]*resolved
	edges   map[string][]string
	cyclic  map[string]bool
}

func newResolver(snap *snapshot.Snapshot, docs []*frameworkDoc) *pathResolver {
	r := &pathResolver{
		snap:    snap,
		docs:    docs,
		byDoc:   make(map[string]map[string]*Declaration),
		results: make(map[string]*resolved),
		edges:   make(map[string][]string),
	}
	for _, fd := range docs {
		if _, dup := r.byDoc[fd.name]; dup {
			continue
		}
		decls := make(map[string]*Declaration, len(fd.declarations))
		for _, d := range fd.declarations {
			decls[d.Name] = d
			r.order = append(r.order, d)
		}
		r.byDoc[fd.name] = decls
	}
	return r
}

// lookupHead decides what the first path segment of d names: a declaration
// in the same document, a document, or a declaration elsewhere.
func (r *pathResolver) lookupHead(d *Declaration, head string) (target, bool) {
	if alias, ok := r.byDoc[d.Document][head]; ok {
		return target{alias: alias}, true
	}
	if r.snap.HasDocument(head) {
		return target{doc: head}, true
	}
	for _, fd := range r.docs {
		if fd.name == d.Document {
			continue
		}
		if alias, ok := r.byDoc[fd.name][head]; ok {
			return target{alias: alias}, true
		}
	}
	return target{}, false
}

// resolveAll builds the alias graph, reports its cycles, then resolves
// every declaration outside a cycle.
func (r *pathResolver) resolveAll() []issue.Issue {
	var issues []issue.Issue

	for _, d := range r.order {
		r.edges[d.Key()] = nil
		segments := content.SplitPath(d.Path)
		if len(segments) == 0 {
			continue
		}
		if t, ok := r.lookupHead(d, segments[0]); ok && t.alias != nil {
			r.edges[d.Key()] = append(r.edges[d.Key()], t.alias.Key())
		}
	}

	cycles := findCycles(r.edges)
	r.cyclic = inCycle(cycles)
	for _, c := range cycles {
		doc := strings.SplitN(c[0], "#", 2)[0]
		path := append(append([]string(nil), c...), c[0])
		i := issue.Errorf(issue.CircularCrossRef,
			"circular cross-reference: %s", strings.Join(path, " -> ")).In(doc)
		i.Path = path
		issues = append(issues, i)
	}

	for _, d := range r.order {
		if r.cyclic[d.Key()] {
			continue
		}
		if res := r.resolve(d, nil); !res.ok {
			issues = append(issues, r.danglingIssue(d))
		}
	}

	return issues
}

// resolve resolves d, memoizing results. chain guards against cycles that
// were already reported.
func (r *pathResolver) resolve(d *Declaration, chain map[string]bool) *resolved {
	if res, ok := r.results[d.Key()]; ok {
		return res
	}
	if r.cyclic[d.Key()] || chain[d.Key()] {
		return &resolved{}
	}
	if chain == nil {
		chain = make(map[string]bool)
	}
	chain[d.Key()] = true

	res := &resolved{}
	segments := content.SplitPath(d.Path)
	if len(segments) > 0 {
		if t, ok := r.lookupHead(d, segments[0]); ok {
			switch {
			case t.alias != nil:
				base := r.resolve(t.alias, chain)
				if base.ok {
					var values []any
					for _, v := range base.values {
						values = append(values, content.Walk(v, segments[1:])...)
					}
					res.values = values
				}
			default:
				if doc, loaded := r.snap.Document(t.doc); loaded {
					res.located = content.WalkPaths(doc.Data, segments[1:])
					for _, l := range res.located {
						res.values = append(res.values, l.Value)
					}
					res.direct = true
					res.doc = t.doc
				}
			}
		}
	}
	res.ok = len(res.values) > 0

	r.results[d.Key()] = res
	return res
}

func (r *pathResolver) danglingIssue(d *Declaration) issue.Issue {
	segments := content.SplitPath(d.Path)
	var reason string
	switch {
	case len(segments) == 0:
		reason = "path is empty"
	default:
		t, ok := r.lookupHead(d, segments[0])
		switch {
		case !ok:
			reason = fmt.Sprintf("%s is neither a document nor a declaration", segments[0])
		case t.alias != nil && r.cyclic[t.alias.Key()]:
			reason = fmt.Sprintf("it depends on circular declaration %s", t.alias.Key())
		case t.alias != nil && !r.results[t.alias.Key()].ok:
			reason = fmt.Sprintf("declaration %s does not resolve", t.alias.Key())
		case t.alias == nil && !r.isLoaded(t.doc):
			reason = fmt.Sprintf("document %s could not be loaded", t.doc)
		default:
			reason = "no value exists at that path"
		}
	}
	return issue.Errorf(issue.DanglingPath,
		"cross-reference %s in %s: path %q does not resolve (%s)", d.Name, d.Document, d.Path, reason).
		In(d.Document).WithToken(d.Name)
}

func (r *pathResolver) isLoaded(name string) bool {
	_, ok := r.snap.Document(name)
	return ok
}

// redundantLeaves counts the distinct leaves reached by direct
// declarations of the given documents. A leaf is identified by its document
// and concrete path, so overlapping declarations count it once. counted
// reports whether a leaf belongs to the group's field total; leaves outside
// it are ignored so the count never exceeds the total. Alias declarations
// select subsets of data already reached through their base.
func (r *pathResolver) redundantLeaves(docs map[string]bool, counted func(doc string, path []string) bool) (fields, decls int) {
	seen := make(map[string]bool)
	for _, d := range r.order {
		if !docs[d.Document] {
			continue
		}
		decls++
		res, ok := r.results[d.Key()]
		if !ok || !res.ok || !res.direct {
			continue
		}
		for _, l := range res.located {
			content.VisitLeaves(l.Value, l.Path, func(path []string) {
				if !counted(res.doc, path) {
					return
				}
				key := res.doc + "\x00" + strings.Join(path, "\x00")
				if !seen[key] {
					seen[key] = true
					fields++
				}
			})
		}
	}
	return fields, decls
}
