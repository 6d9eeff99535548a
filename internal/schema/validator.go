package schema

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrSchemaInvalid is matched by every *ValidationError.
var ErrSchemaInvalid = errors.New("schema invalid")

// ValidationError lists every problem found in a schema.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("schema invalid: %s", strings.Join(e.Problems, "; "))
}

// Is makes errors.Is(err, ErrSchemaInvalid) true.
func (e *ValidationError) Is(target error) bool {
	return target == ErrSchemaInvalid
}

// Validate checks that the schema is internally consistent. It returns a
// *ValidationError listing every problem, or nil.
func (s *Schema) Validate() error {
	var problems []string
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	for _, name := range s.EntityTypes() {
		decl := s.Entities[name]
		if decl.Document == "" {
			addf("entity %s: document is required", name)
		}
		switch decl.Shape {
		case ShapeList, ShapeGrouped, ShapeMap:
		default:
			addf("entity %s: unknown shape %q", name, decl.Shape)
		}
		for _, field := range decl.ReferenceFields() {
			target := decl.References[field]
			if _, ok := s.Entity(target); !ok {
				addf("entity %s: reference field %s targets unknown type %q", name, field, target)
			}
		}
		if q := decl.Quality; q != nil && q.TopN < 0 {
			addf("entity %s: quality.top_n must not be negative", name)
		}
	}

	for _, pair := range s.Bidirectional {
		for _, ref := range []FieldRef{pair.Source, pair.Target} {
			if msg := s.checkFieldRef(ref); msg != "" {
				addf("bidirectional %s: %s", pair, msg)
			}
		}
		if pair.Source.Type != "" && pair.Target.Type != "" {
			if s.referenceTarget(pair.Source) != "" && s.referenceTarget(pair.Source) != pair.Target.Type {
				addf("bidirectional %s: %s references %s, not %s",
					pair, pair.Source, s.referenceTarget(pair.Source), pair.Target.Type)
			}
			if s.referenceTarget(pair.Target) != "" && s.referenceTarget(pair.Target) != pair.Source.Type {
				addf("bidirectional %s: %s references %s, not %s",
					pair, pair.Target, s.referenceTarget(pair.Target), pair.Source.Type)
			}
		}
	}

	for _, orphan := range s.Orphans {
		if _, ok := s.Entity(orphan.Type); !ok {
			addf("orphans: unknown type %q", orphan.Type)
		}
		if len(orphan.Via) == 0 {
			addf("orphans %s: via must list at least one field", orphan.Type)
		}
		for _, via := range orphan.Via {
			if msg := s.checkFieldRef(via); msg != "" {
				addf("orphans %s: %s", orphan.Type, msg)
				continue
			}
			if target := s.referenceTarget(via); target != orphan.Type {
				addf("orphans %s: %s references %s, not %s", orphan.Type, via, target, orphan.Type)
			}
		}
	}

	for i, rule := range s.Normalization.Rules {
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			addf("normalization rule %d: invalid pattern %q: %v", i+1, rule.Pattern, err)
		}
	}

	names := make(map[string]bool)
	for i, fw := range s.Frameworks {
		label := fw.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
			addf("framework %s: name is required", label)
		} else if names[fw.Name] {
			addf("framework %s: duplicate name", label)
		}
		names[fw.Name] = true
		if len(fw.Documents) == 0 {
			addf("framework %s: documents must not be empty", label)
		}
		lo, hi := fw.RatioBounds()
		if lo < 0 || hi > 1 || lo > hi {
			addf("framework %s: ratio bounds [%g, %g] are invalid", label, lo, hi)
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func (s *Schema) checkFieldRef(ref FieldRef) string {
	decl, ok := s.Entity(ref.Type)
	if !ok {
		return fmt.Sprintf("unknown type %q", ref.Type)
	}
	if _, ok := decl.References[ref.Field]; !ok {
		return fmt.Sprintf("%s is not a declared reference field", ref)
	}
	return ""
}

// referenceTarget returns the type a declared reference field points at.
func (s *Schema) referenceTarget(ref FieldRef) string {
	decl, ok := s.Entity(ref.Type)
	if !ok {
		return ""
	}
	return decl.References[ref.Field]
}

// ReferenceTarget returns the entity type referenced by a "type.field".
func (s *Schema) ReferenceTarget(ref FieldRef) (string, bool) {
	target := s.referenceTarget(ref)
	return target, target != ""
}
