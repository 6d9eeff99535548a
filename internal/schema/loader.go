package schema

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the schema file looked up in the content root.
const FileName = "lorecheck.yaml"

// Load loads the schema from a content root's lorecheck.yaml.
// Returns the built-in schema if the file doesn't exist.
func Load(root string) (*Schema, error) {
	schemaPath := filepath.Join(root, FileName)

	data, err := os.ReadFile(schemaPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read schema file %s: %w", schemaPath, err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema file %s: %w", schemaPath, err)
	}
	return s, nil
}

// Parse decodes schema YAML. Sections that are omitted fall back to the
// built-in defaults: no entities means the default entity set, and when the
// default entities are used, omitted bidirectional and orphan sections use
// the default rules too. The result is validated.
func Parse(data []byte) (*Schema, error) {
	s, err := decode(data)
	if err != nil {
		return nil, err
	}

	if len(s.Entities) == 0 {
		def := Default()
		s.Entities = def.Entities
		if s.Bidirectional == nil {
			s.Bidirectional = def.Bidirectional
		}
		if s.Orphans == nil {
			s.Orphans = def.Orphans
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Marshal encodes a schema as YAML.
func Marshal(s *Schema) ([]byte, error) {
	return yaml.Marshal(s)
}

// CreateDefault writes the default lorecheck.yaml into root. It refuses to
// overwrite an existing file.
func CreateDefault(root string) (string, error) {
	schemaPath := filepath.Join(root, FileName)
	if _, err := os.Stat(schemaPath); err == nil {
		return schemaPath, fmt.Errorf("schema file already exists: %s", schemaPath)
	}

	if err := os.WriteFile(schemaPath, []byte(defaultSchemaYAML), 0644); err != nil {
		return "", fmt.Errorf("failed to write schema file: %w", err)
	}
	return schemaPath, nil
}
