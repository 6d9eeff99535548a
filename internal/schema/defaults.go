package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// defaultSchemaYAML is both the built-in schema and the file written by
// `lorecheck schema init`.
const defaultSchemaYAML = `# lorecheck validation schema
#
# entities:      where each entity type lives and which fields reference other types
# bidirectional: field pairs expected to mirror each other (mismatch = warning)
# orphans:       types that must be referenced through one of the listed fields
# normalization: ordered rewrite rules and variant spellings for title matching
# frameworks:    document groups with controlled-redundancy blocks and one shared version

version: 1

entities:
  poem:
    document: poems
    path: poems
    shape: list
    title_field: title
    aliases_field: aliases
    required: true
    references:
      characters: character
      themes: theme
      locations: scene
    quality:
      required: [id, title]
      optional: [author, dynasty, form, body, importance]
      distribution: [dynasty, form]
      rank_by: importance
      top_n: 5

  character:
    document: characters
    path: characters
    shape: grouped
    title_field: name
    aliases_field: aliases
    references:
      poems: poem
    quality:
      required: [id, name]
      optional: [description, category, role, importance]
      distribution: [category]
      rank_by: importance
      top_n: 5

  theme:
    document: themes
    path: themes
    shape: list
    title_field: name
    references:
      poems: poem
    quality:
      required: [id, name]
      optional: [description, category, frequency]
      distribution: [category]
      rank_by: frequency
      top_n: 5

  scene:
    document: scenes
    path: scenes
    shape: list
    title_field: name
    references:
      poem_id: poem
      characters: character
    quality:
      required: [id, name, poem_id]
      optional: [description, type]
      distribution: [type]
      rank_by: importance
      top_n: 5

  term:
    document: terminology
    path: terms
    shape: list
    title_field: term
    references:
      related_terms: term
    quality:
      required: [id, term, definition]
      optional: [category, usage, examples]
      distribution: [category, usage]
      rank_by: frequency
      top_n: 10

  theory:
    document: theory
    path: constructs
    shape: list
    title_field: name
    references:
      related_terms: term
      themes: theme
    quality:
      required: [id, name, description]
      optional: [category, related_terms]
      distribution: [category]
      rank_by: importance
      top_n: 5

  layer:
    document: reading_layers
    path: layers
    shape: list
    title_field: name
    references:
      poems: poem
    quality:
      required: [id, name, description]
      optional: [level, poems]
      distribution: [level]
      rank_by: level
      top_n: 5

  mapping:
    document: mappings
    path: mappings
    shape: list
    title_field: name
    references:
      poem_id: poem
      terms: term
    quality:
      required: [id, source, target]
      optional: [type, description]
      distribution: [type]
      rank_by: importance
      top_n: 5

bidirectional:
  - source: poem.characters
    target: character.poems
  - source: scene.poem_id
    target: poem.locations

orphans:
  - type: scene
    via: [poem.locations]
    exclusive: true
`

// Default returns the built-in schema.
func Default() *Schema {
	s, err := decode([]byte(defaultSchemaYAML))
	if err != nil {
		panic(fmt.Sprintf("built-in schema is invalid: %v", err))
	}
	return s
}

// DefaultYAML returns the commented YAML form of the built-in schema.
func DefaultYAML() string {
	return defaultSchemaYAML
}

func decode(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s.Entities == nil {
		s.Entities = make(map[string]*EntityDecl)
	}
	s.applyDefaults()
	return &s, nil
}
