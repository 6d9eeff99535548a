// Package schema declares the validation rules applied to a content root:
// entity collections, reference fields, mirrored field pairs, orphan rules,
// title normalization, framework groups and quality tables.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// CurrentSchemaVersion is the latest schema format version.
const CurrentSchemaVersion = 1

// Schema is the complete rule set loaded from lorecheck.yaml.
type Schema struct {
	Version       int                    `yaml:"version,omitempty"`
	Entities      map[string]*EntityDecl `yaml:"entities"`
	Bidirectional []PairDecl             `yaml:"bidirectional,omitempty"`
	Orphans       []OrphanDecl           `yaml:"orphans,omitempty"`
	Normalization Normalization          `yaml:"normalization,omitempty"`
	Frameworks    []FrameworkDecl        `yaml:"frameworks,omitempty"`
}

// Shape is the JSON layout of an entity collection.
type Shape string

const (
	// ShapeList is an array of objects.
	ShapeList Shape = "list"
	// ShapeGrouped is an object of category -> array of objects.
	ShapeGrouped Shape = "grouped"
	// ShapeMap is an object of id -> object.
	ShapeMap Shape = "map"
)

// EntityDecl declares where an entity type lives and which of its fields
// hold references.
type EntityDecl struct {
	// Document is the logical document name holding the collection.
	Document string `yaml:"document"`
	// Path is the dotted path to the collection inside the document.
	// Empty means the document root.
	Path  string `yaml:"path,omitempty"`
	Shape Shape  `yaml:"shape,omitempty"`

	IDField       string `yaml:"id_field,omitempty"`
	TitleField    string `yaml:"title_field,omitempty"`
	AliasesField  string `yaml:"aliases_field,omitempty"`
	CategoryField string `yaml:"category_field,omitempty"`

	// Required marks the document as mandatory: a load failure fails the run.
	Required bool `yaml:"required,omitempty"`

	// References maps a field name to the entity type it references.
	References map[string]string `yaml:"references,omitempty"`

	Quality *QualityDecl `yaml:"quality,omitempty"`
}

// ReferenceFields returns the declared reference field names, sorted.
func (e *EntityDecl) ReferenceFields() []string {
	fields := make([]string, 0, len(e.References))
	for f := range e.References {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// TitleFields returns the fields consulted for an entity's title, in order.
func (e *EntityDecl) TitleFields() []string {
	if e.TitleField != "" {
		return []string{e.TitleField}
	}
	return []string{"title", "name"}
}

// QualityDecl is the per-type configuration table for quality scoring.
type QualityDecl struct {
	Required     []string `yaml:"required,omitempty"`
	Optional     []string `yaml:"optional,omitempty"`
	Distribution []string `yaml:"distribution,omitempty"`
	RankBy       string   `yaml:"rank_by,omitempty"`
	TopN         int      `yaml:"top_n,omitempty"`
}

// FieldRef addresses a field of an entity type, written "type.field".
type FieldRef struct {
	Type  string
	Field string
}

// ParseFieldRef parses "type.field".
func ParseFieldRef(s string) (FieldRef, error) {
	s = strings.TrimSpace(s)
	idx := strings.Index(s, ".")
	if idx <= 0 || idx == len(s)-1 {
		return FieldRef{}, fmt.Errorf("invalid field reference %q (expected type.field)", s)
	}
	return FieldRef{Type: s[:idx], Field: s[idx+1:]}, nil
}

func (f FieldRef) String() string {
	return f.Type + "." + f.Field
}

// UnmarshalYAML reads a "type.field" scalar.
func (f *FieldRef) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("line %d: field reference must be a string", value.Line)
	}
	parsed, err := ParseFieldRef(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*f = parsed
	return nil
}

// MarshalYAML writes the "type.field" form.
func (f FieldRef) MarshalYAML() (interface{}, error) {
	return f.String(), nil
}

// PairDecl declares two fields expected to mirror each other.
type PairDecl struct {
	Source FieldRef `yaml:"source"`
	Target FieldRef `yaml:"target"`
}

// Symmetric reports whether both sides are the same field (a self-relation
// such as term.related_terms).
func (p PairDecl) Symmetric() bool {
	return p.Source == p.Target
}

func (p PairDecl) String() string {
	return p.Source.String() + " <-> " + p.Target.String()
}

// OrphanDecl declares that every entity of Type must be referenced through
// at least one of the Via fields. Exclusive additionally requires exactly
// one referencing entity.
type OrphanDecl struct {
	Type      string     `yaml:"type"`
	Via       []FieldRef `yaml:"via"`
	Exclusive bool       `yaml:"exclusive,omitempty"`
}

// Normalization declares title normalization for loose textual references.
type Normalization struct {
	// Rules are applied in order before case and punctuation folding.
	Rules []NormalizationRule `yaml:"rules,omitempty"`
	// Variants maps a known variant spelling to its canonical title.
	Variants map[string]string `yaml:"variants,omitempty"`
	// SlugIDs lets a string token match an id after slugification
	// ("p-1" -> "P-1"). Off unless declared.
	SlugIDs bool `yaml:"slug_ids,omitempty"`
}

// NormalizationRule is one regular-expression rewrite.
type NormalizationRule struct {
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

// Default redundancy settings.
const (
	DefaultVersionKey = "version"
	DefaultBlockKey   = "controlled_redundancy"
	DefaultRatioMin   = 0.05
	DefaultRatioMax   = 0.30
)

// FrameworkDecl declares a group of framework documents that must share a
// version and carry controlled-redundancy blocks.
type FrameworkDecl struct {
	Name       string   `yaml:"name"`
	Documents  []string `yaml:"documents"`
	VersionKey string   `yaml:"version_key,omitempty"`
	BlockKey   string   `yaml:"block_key,omitempty"`
	RatioMin   *float64 `yaml:"ratio_min,omitempty"`
	RatioMax   *float64 `yaml:"ratio_max,omitempty"`
}

// VersionField returns the key holding the version string.
func (f *FrameworkDecl) VersionField() string {
	if f.VersionKey == "" {
		return DefaultVersionKey
	}
	return f.VersionKey
}

// BlockField returns the key holding the controlled-redundancy block.
func (f *FrameworkDecl) BlockField() string {
	if f.BlockKey == "" {
		return DefaultBlockKey
	}
	return f.BlockKey
}

// RatioBounds returns the accepted redundancy ratio interval.
func (f *FrameworkDecl) RatioBounds() (float64, float64) {
	lo, hi := DefaultRatioMin, DefaultRatioMax
	if f.RatioMin != nil {
		lo = *f.RatioMin
	}
	if f.RatioMax != nil {
		hi = *f.RatioMax
	}
	return lo, hi
}

// EntityTypes returns the declared entity type names, sorted.
func (s *Schema) EntityTypes() []string {
	names := make([]string, 0, len(s.Entities))
	for name := range s.Entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entity returns the declaration of an entity type.
func (s *Schema) Entity(name string) (*EntityDecl, bool) {
	decl, ok := s.Entities[name]
	return decl, ok && decl != nil
}

// Documents returns every document named by the schema, sorted and deduplicated.
func (s *Schema) Documents() []string {
	seen := make(map[string]struct{})
	for _, decl := range s.Entities {
		if decl != nil && decl.Document != "" {
			seen[decl.Document] = struct{}{}
		}
	}
	for _, fw := range s.Frameworks {
		for _, doc := range fw.Documents {
			seen[doc] = struct{}{}
		}
	}
	docs := make([]string, 0, len(seen))
	for doc := range seen {
		docs = append(docs, doc)
	}
	sort.Strings(docs)
	return docs
}

// RequiredDocuments returns the documents of entity types marked required.
func (s *Schema) RequiredDocuments() map[string]bool {
	required := make(map[string]bool)
	for _, decl := range s.Entities {
		if decl != nil && decl.Required {
			required[decl.Document] = true
		}
	}
	return required
}

// FrameworkDocuments returns the set of documents belonging to any framework group.
func (s *Schema) FrameworkDocuments() map[string]bool {
	docs := make(map[string]bool)
	for _, fw := range s.Frameworks {
		for _, doc := range fw.Documents {
			docs[doc] = true
		}
	}
	return docs
}

// applyDefaults fills unset declaration fields.
func (s *Schema) applyDefaults() {
	if s.Version == 0 {
		s.Version = CurrentSchemaVersion
	}
	for name, decl := range s.Entities {
		if decl == nil {
			decl = &EntityDecl{}
			s.Entities[name] = decl
		}
		if decl.Shape == "" {
			decl.Shape = ShapeList
		}
		if decl.IDField == "" {
			decl.IDField = "id"
		}
		if decl.CategoryField == "" {
			decl.CategoryField = "category"
		}
		if decl.References == nil {
			decl.References = make(map[string]string)
		}
	}
	if s.Normalization.Variants == nil {
		s.Normalization.Variants = make(map[string]string)
	}
}
