package content

import (
	"errors"
	"fmt"
)

// ErrDataLoad is matched by every *LoadError via errors.Is.
var ErrDataLoad = errors.New("data load error")

// LoadErrorKind classifies why a document could not be loaded.
type LoadErrorKind string

const (
	LoadMissing LoadErrorKind = "missing"
	LoadCorrupt LoadErrorKind = "corrupt"
	LoadInvalid LoadErrorKind = "invalid"
)

// LoadError reports a document that is missing or cannot be parsed.
type LoadError struct {
	Name string
	Kind LoadErrorKind
	Err  error
}

func (e *LoadError) Error() string {
	switch e.Kind {
	case LoadMissing:
		return fmt.Sprintf("document %q not found", e.Name)
	case LoadCorrupt:
		return fmt.Sprintf("document %q is not valid JSON: %v", e.Name, e.Err)
	default:
		return fmt.Sprintf("document %q: %v", e.Name, e.Err)
	}
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrDataLoad) true for every LoadError.
func (e *LoadError) Is(target error) bool {
	return target == ErrDataLoad
}

// IsMissing reports whether err is a LoadError for a document that does not exist.
func IsMissing(err error) bool {
	var le *LoadError
	return errors.As(err, &le) && le.Kind == LoadMissing
}
