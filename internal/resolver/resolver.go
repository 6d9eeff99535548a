// Package resolver builds per-type lookup tables over extracted entities and
// resolves reference tokens to canonical ids.
package resolver

import (
	"sort"

	"github.com/aidanlsb/lorecheck/internal/extract"
	"github.com/aidanlsb/lorecheck/internal/model"
	"github.com/aidanlsb/lorecheck/internal/slugs"
)

// Via records which lookup table produced a resolution.
type Via int

const (
	// ViaNone means the token did not resolve.
	ViaNone Via = iota
	// ViaObjectID is an embedded object's authoritative id.
	ViaObjectID
	// ViaID is a direct id match.
	ViaID
	// ViaSlug is an id match after slugification ("p-1" -> "P-1"). Only
	// used when the schema sets normalization.slug_ids.
	ViaSlug
	// ViaTitle is a normalized title or alias match.
	ViaTitle
)

func (v Via) String() string {
	switch v {
	case ViaObjectID:
		return "object-id"
	case ViaID:
		return "id"
	case ViaSlug:
		return "slug"
	case ViaTitle:
		return "title"
	default:
		return "none"
	}
}

// Resolution is the outcome of resolving one token.
type Resolution struct {
	// ID is the canonical id (empty if unresolved).
	ID string

	// Via names the lookup that matched.
	Via Via

	// Ambiguous is true if the token matches more than one entity.
	Ambiguous bool

	// Matches contains all matching ids, sorted (for ambiguous tokens).
	Matches []string
}

// Resolved reports whether the token named exactly one entity.
func (r Resolution) Resolved() bool {
	return r.ID != "" && !r.Ambiguous
}

// Duplicate is an id declared more than once within one type.
type Duplicate struct {
	Type     string
	ID       string
	Entities []*model.Entity
}

type typeIndex struct {
	ids    map[string]*model.Entity
	all    map[string][]*model.Entity
	slugs  map[string][]string
	titles map[string][]string
	order  []string
}

// Index resolves reference tokens against the entities of a snapshot. An
// Index is read-only after Build and safe for concurrent use.
type Index struct {
	normalizer *Normalizer
	types      map[string]*typeIndex
}

// Build indexes every collection. The first occurrence of a duplicated id
// is the one lookups return.
func Build(cols *extract.Collections, normalizer *Normalizer) *Index {
	ix := &Index{
		normalizer: normalizer,
		types:      make(map[string]*typeIndex),
	}

	for _, typeName := range cols.Types() {
		ti := &typeIndex{
			ids:    make(map[string]*model.Entity),
			all:    make(map[string][]*model.Entity),
			slugs:  make(map[string][]string),
			titles: make(map[string][]string),
		}

		for _, e := range cols.Entities(typeName) {
			ti.all[e.ID] = append(ti.all[e.ID], e)
			if _, seen := ti.ids[e.ID]; seen {
				continue
			}
			ti.ids[e.ID] = e
			ti.order = append(ti.order, e.ID)

			if key := slugs.Key(e.ID); normalizer.slugIDs && key != "" {
				ti.slugs[key] = append(ti.slugs[key], e.ID)
			}

			// Build normalized title map from title and aliases
			titled := make(map[string]bool)
			for _, text := range append([]string{e.Title}, e.Aliases...) {
				key := normalizer.Key(text)
				if key == "" || titled[key] {
					continue
				}
				titled[key] = true
				ti.titles[key] = append(ti.titles[key], e.ID)
			}
		}

		ix.types[typeName] = ti
	}

	return ix
}

// Resolve resolves a token against a target type. Order: an embedded
// object's id, then a direct id, then the normalized title table. With
// normalization.slug_ids the slug of the id is tried before titles. An
// object id is authoritative: when it does not exist the token is
// unresolved even if its display name would match.
func (ix *Index) Resolve(tok model.Token, targetType string) Resolution {
	ti, ok := ix.types[targetType]
	if !ok {
		return Resolution{}
	}

	switch tok.Kind {
	case model.TokenObject:
		if _, ok := ti.ids[tok.ID]; ok {
			return Resolution{ID: tok.ID, Via: ViaObjectID}
		}
		return Resolution{}
	case model.TokenString:
		if _, ok := ti.ids[tok.Text]; ok {
			return Resolution{ID: tok.Text, Via: ViaID}
		}
		if ix.normalizer.slugIDs {
			if res, ok := pick(ti.slugs[slugs.Key(tok.Text)], ViaSlug); ok {
				return res
			}
		}
		return ix.resolveTitle(ti, tok.Text)
	case model.TokenNamed:
		return ix.resolveTitle(ti, tok.Text)
	default:
		return Resolution{}
	}
}

// ResolveString resolves a bare string token.
func (ix *Index) ResolveString(text, targetType string) Resolution {
	tok, ok := model.ParseToken(text)
	if !ok {
		return Resolution{}
	}
	return ix.Resolve(tok, targetType)
}

func (ix *Index) resolveTitle(ti *typeIndex, text string) Resolution {
	key := ix.normalizer.Key(text)
	if key == "" {
		return Resolution{}
	}
	res, _ := pick(ti.titles[key], ViaTitle)
	return res
}

func pick(matches []string, via Via) (Resolution, bool) {
	switch len(matches) {
	case 0:
		return Resolution{}, false
	case 1:
		return Resolution{ID: matches[0], Via: via}, true
	default:
		sorted := append([]string(nil), matches...)
		sort.Strings(sorted)
		return Resolution{Via: via, Ambiguous: true, Matches: sorted}, true
	}
}

// MatchTitle returns the ids whose normalized title or alias equals text.
func (ix *Index) MatchTitle(targetType, text string) []string {
	ti, ok := ix.types[targetType]
	if !ok {
		return nil
	}
	return ti.titles[ix.normalizer.Key(text)]
}

// Lookup returns the entity with the given id.
func (ix *Index) Lookup(typeName, id string) (*model.Entity, bool) {
	ti, ok := ix.types[typeName]
	if !ok {
		return nil, false
	}
	e, ok := ti.ids[id]
	return e, ok
}

// Exists checks if an id exists within a type.
func (ix *Index) Exists(typeName, id string) bool {
	_, ok := ix.Lookup(typeName, id)
	return ok
}

// IDs returns the distinct ids of a type in document order.
func (ix *Index) IDs(typeName string) []string {
	ti, ok := ix.types[typeName]
	if !ok {
		return nil
	}
	return append([]string(nil), ti.order...)
}

// Duplicates returns every id declared more than once, sorted by type and id.
func (ix *Index) Duplicates() []Duplicate {
	var dups []Duplicate
	for typeName, ti := range ix.types {
		for id, entities := range ti.all {
			if len(entities) > 1 {
				dups = append(dups, Duplicate{Type: typeName, ID: id, Entities: entities})
			}
		}
	}
	sort.Slice(dups, func(i, j int) bool {
		if dups[i].Type != dups[j].Type {
			return dups[i].Type < dups[j].Type
		}
		return dups[i].ID < dups[j].ID
	})
	return dups
}
