// Package extract turns raw documents into typed entity collections.
package extract

import (
	"sort"
	"strings"

	"github.com/aidanlsb/lorecheck/internal/content"
	"github.com/aidanlsb/lorecheck/internal/issue"
	"github.com/aidanlsb/lorecheck/internal/model"
	"github.com/aidanlsb/lorecheck/internal/schema"
)

// Collection is the flattened entity list of one type, in document order.
type Collection struct {
	Type     string
	Document string
	Entities []*model.Entity
}

// Collections holds every extracted collection keyed by entity type.
type Collections struct {
	byType   map[string]*Collection
	problems []issue.Issue
}

// Extract builds a collection for every entity type declared by the schema.
// Types whose document is absent (nil or missing from docs) get an empty
// collection; the load failure is reported elsewhere.
func Extract(docs map[string]*content.Document, s *schema.Schema) *Collections {
	c := &Collections{byType: make(map[string]*Collection)}
	for _, typeName := range s.EntityTypes() {
		decl, _ := s.Entity(typeName)
		c.byType[typeName] = c.extractType(typeName, decl, docs[decl.Document])
	}
	issue.Sort(c.problems)
	return c
}

// Get returns the collection of a type.
func (c *Collections) Get(typeName string) (*Collection, bool) {
	col, ok := c.byType[typeName]
	return col, ok
}

// Entities returns the entities of a type, or nil.
func (c *Collections) Entities(typeName string) []*model.Entity {
	if col, ok := c.byType[typeName]; ok {
		return col.Entities
	}
	return nil
}

// Types returns the extracted type names, sorted.
func (c *Collections) Types() []string {
	types := make([]string, 0, len(c.byType))
	for t := range c.byType {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Count returns the total number of extracted entities.
func (c *Collections) Count() int {
	n := 0
	for _, col := range c.byType {
		n += len(col.Entities)
	}
	return n
}

// Problems returns the structural problems found while extracting:
// MalformedEntity warnings and MissingId errors.
func (c *Collections) Problems() []issue.Issue {
	return c.problems
}

func (c *Collections) extractType(typeName string, decl *schema.EntityDecl, doc *content.Document) *Collection {
	col := &Collection{Type: typeName, Document: decl.Document}
	if doc == nil {
		return col
	}

	raw, ok := doc.LookupOne(decl.Path)
	if !ok {
		c.problem(issue.Warnf(issue.MalformedEntity,
			"collection path %q for %s not found in document %s", decl.Path, typeName, doc.Name).
			In(doc.Name).On(typeName, "", ""))
		return col
	}

	switch decl.Shape {
	case schema.ShapeGrouped:
		groups, ok := raw.(map[string]any)
		if !ok {
			c.shapeMismatch(typeName, decl, doc, "an object of groups")
			return col
		}
		position := 0
		for _, group := range sortedKeys(groups) {
			items, ok := groups[group].([]any)
			if !ok {
				c.problem(issue.Warnf(issue.MalformedEntity,
					"%s group %q in %s is not an array", typeName, group, doc.Name).
					In(doc.Name).On(typeName, "", ""))
				continue
			}
			for _, item := range items {
				c.add(col, typeName, decl, doc, item, position, "", group)
				position++
			}
		}

	case schema.ShapeMap:
		items, ok := raw.(map[string]any)
		if !ok {
			c.shapeMismatch(typeName, decl, doc, "an object keyed by id")
			return col
		}
		for i, key := range sortedKeys(items) {
			c.add(col, typeName, decl, doc, items[key], i, key, "")
		}

	default:
		items, ok := raw.([]any)
		if !ok {
			c.shapeMismatch(typeName, decl, doc, "an array")
			return col
		}
		for i, item := range items {
			c.add(col, typeName, decl, doc, item, i, "", "")
		}
	}

	return col
}

// add appends one item. position is the item's index in the flattened
// source collection, counting items that are skipped.
func (c *Collections) add(col *Collection, typeName string, decl *schema.EntityDecl, doc *content.Document, item any, position int, key, group string) {
	fields, ok := item.(map[string]any)
	if !ok {
		c.problem(issue.Warnf(issue.MalformedEntity,
			"%s item %d in %s is not an object: %s", typeName, position, doc.Name, model.Describe(item)).
			In(doc.Name).On(typeName, "", ""))
		return
	}

	id := strings.TrimSpace(model.ScalarString(fields[decl.IDField]))
	if id == "" {
		id = key
	}
	if id == "" {
		c.problem(issue.Errorf(issue.MissingID,
			"%s item %d in %s has no %s", typeName, position, doc.Name, decl.IDField).
			In(doc.Name).On(typeName, "", decl.IDField))
		return
	}

	e := &model.Entity{
		Type:     typeName,
		ID:       id,
		Title:    titleOf(fields, decl),
		Aliases:  aliasesOf(fields, decl.AliasesField),
		Category: strings.TrimSpace(model.ScalarString(fields[decl.CategoryField])),
		Document: doc.Name,
		Position: position,
		Fields:   fields,
	}
	if e.Category == "" && group != "" {
		e.Category = group
		e.Fields = withField(fields, decl.CategoryField, group)
	}
	col.Entities = append(col.Entities, e)
}

func (c *Collections) shapeMismatch(typeName string, decl *schema.EntityDecl, doc *content.Document, want string) {
	c.problem(issue.Warnf(issue.MalformedEntity,
		"%s collection at %q in %s should be %s", typeName, decl.Path, doc.Name, want).
		In(doc.Name).On(typeName, "", ""))
}

func (c *Collections) problem(i issue.Issue) {
	c.problems = append(c.problems, i)
}

// withField returns a shallow copy of fields with key set, leaving the
// document's own map untouched.
func withField(fields map[string]any, key string, value any) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out[key] = value
	return out
}

func titleOf(fields map[string]any, decl *schema.EntityDecl) string {
	for _, f := range decl.TitleFields() {
		if s := strings.TrimSpace(model.ScalarString(fields[f])); s != "" {
			return s
		}
	}
	return ""
}

func aliasesOf(fields map[string]any, field string) []string {
	if field == "" {
		return nil
	}
	var aliases []string
	switch v := fields[field].(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			aliases = append(aliases, s)
		}
	case []any:
		for _, item := range v {
			if s := strings.TrimSpace(model.ScalarString(item)); s != "" {
				aliases = append(aliases, s)
			}
		}
	}
	return aliases
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
