package quality

import (
	"github.com/aidanlsb/lorecheck/internal/content"
	"github.com/aidanlsb/lorecheck/internal/model"
	"github.com/aidanlsb/lorecheck/internal/snapshot"
)

// Usage counts inbound mentions per entity, keyed by "type:id".
type Usage map[string]int

// Count returns the usage of one entity.
func (u Usage) Count(typeName, id string) int {
	return u[typeName+":"+id]
}

// Add merges other into u.
func (u Usage) Add(other Usage) {
	for k, v := range other {
		u[k] += v
	}
}

// DeclaredUsage counts, for every entity, the distinct entities that
// reference it through a declared reference field.
func DeclaredUsage(snap *snapshot.Snapshot) Usage {
	usage := make(Usage)
	for _, typeName := range snap.Schema.EntityTypes() {
		decl, _ := snap.Schema.Entity(typeName)
		for _, e := range snap.Collections.Entities(typeName) {
			counted := make(map[string]bool)
			for _, field := range decl.ReferenceFields() {
				raw, ok := e.Field(field)
				if !ok {
					continue
				}
				target := decl.References[field]
				for _, tok := range model.Tokens(raw) {
					res := snap.Index.Resolve(tok, target)
					if !res.Resolved() {
						continue
					}
					key := target + ":" + res.ID
					if counted[key] {
						continue
					}
					counted[key] = true
					usage[key]++
				}
			}
		}
	}
	return usage
}

// FuzzyUsage walks every string in every document and counts exact id
// matches and normalized title matches for every type. It catches ad hoc
// mentions outside declared reference fields, at the cost of also
// counting an entity's own id and title.
func FuzzyUsage(snap *snapshot.Snapshot) Usage {
	usage := make(Usage)
	types := snap.Schema.EntityTypes()

	for _, name := range snap.DocumentNames() {
		doc, _ := snap.Document(name)
		content.VisitStrings(doc.Data, nil, func(s string) {
			for _, typeName := range types {
				if snap.Index.Exists(typeName, s) {
					usage[typeName+":"+s]++
					continue
				}
				for _, id := range snap.Index.MatchTitle(typeName, s) {
					usage[typeName+":"+id]++
				}
			}
		})
	}
	return usage
}
