// Package issue defines the validation issue taxonomy shared by every validator.
package issue

import (
	"fmt"
	"sort"
	"strings"
)

// Level indicates the severity of an issue.
type Level int

const (
	LevelError Level = iota
	LevelWarning
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarning:
		return "WARN"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the level as "error" or "warning".
func (l Level) MarshalText() ([]byte, error) {
	switch l {
	case LevelError:
		return []byte("error"), nil
	case LevelWarning:
		return []byte("warning"), nil
	default:
		return nil, fmt.Errorf("unknown issue level %d", int(l))
	}
}

// UnmarshalText decodes "error" or "warning".
func (l *Level) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "error":
		*l = LevelError
	case "warning", "warn":
		*l = LevelWarning
	default:
		return fmt.Errorf("unknown issue level %q", string(text))
	}
	return nil
}

// Kind names the class of an issue. Values are stable and appear in reports.
type Kind string

const (
	DataLoad              Kind = "DataLoadError"
	DuplicateID           Kind = "DuplicateIdError"
	MissingID             Kind = "MissingId"
	MalformedEntity       Kind = "MalformedEntity"
	UnresolvedReference   Kind = "UnresolvedReferenceError"
	AmbiguousReference    Kind = "AmbiguousReferenceError"
	OrphanReference       Kind = "OrphanReferenceError"
	ExclusiveReference    Kind = "ExclusiveReferenceError"
	BidirectionalMismatch Kind = "BidirectionalMismatchWarning"
	MissingRedundancy     Kind = "MissingRedundancyBlockError"
	MissingReferencedFile Kind = "MissingReferencedFileError"
	DanglingPath          Kind = "DanglingCrossReferencePathError"
	DanglingDeclaration   Kind = "DanglingDeclarationWarning"
	CircularCrossRef      Kind = "CircularCrossReferenceError"
	RedundancyRatio       Kind = "RedundancyRatioWarning"
	VersionFormat         Kind = "VersionFormatError"
	VersionMismatch       Kind = "VersionMismatchWarning"
	QualityThreshold      Kind = "QualityThresholdError"
	ValidatorFailure      Kind = "ValidatorFailure"
	ValidatorTimeout      Kind = "ValidatorTimeout"
)

// Issue is a single finding. Location fields are optional and only set when
// they apply to the finding.
type Issue struct {
	Level      Level    `json:"level"`
	Kind       Kind     `json:"kind"`
	Message    string   `json:"message"`
	Document   string   `json:"document,omitempty"`
	EntityType string   `json:"entityType,omitempty"`
	EntityID   string   `json:"entityId,omitempty"`
	Field      string   `json:"field,omitempty"`
	Token      string   `json:"token,omitempty"`
	Path       []string `json:"path,omitempty"`
}

// Errorf builds an error-level issue.
func Errorf(kind Kind, format string, args ...any) Issue {
	return Issue{Level: LevelError, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Warnf builds a warning-level issue.
func Warnf(kind Kind, format string, args ...any) Issue {
	return Issue{Level: LevelWarning, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// In sets the document on a copy of the issue.
func (i Issue) In(document string) Issue {
	i.Document = document
	return i
}

// On sets the entity location on a copy of the issue.
func (i Issue) On(entityType, entityID, field string) Issue {
	i.EntityType = entityType
	i.EntityID = entityID
	i.Field = field
	return i
}

// WithToken sets the offending token on a copy of the issue.
func (i Issue) WithToken(token string) Issue {
	i.Token = token
	return i
}

// IsError reports whether the issue is error-level.
func (i Issue) IsError() bool {
	return i.Level == LevelError
}

func (i Issue) String() string {
	return fmt.Sprintf("%s [%s] %s", i.Level, i.Kind, i.Message)
}

// Sort orders issues by kind, document, entity type, entity id, field, token
// and finally message, so output is stable across runs.
func Sort(issues []Issue) {
	sort.SliceStable(issues, func(a, b int) bool {
		x, y := issues[a], issues[b]
		if x.Kind != y.Kind {
			return x.Kind < y.Kind
		}
		if x.Document != y.Document {
			return x.Document < y.Document
		}
		if x.EntityType != y.EntityType {
			return x.EntityType < y.EntityType
		}
		if x.EntityID != y.EntityID {
			return x.EntityID < y.EntityID
		}
		if x.Field != y.Field {
			return x.Field < y.Field
		}
		if x.Token != y.Token {
			return x.Token < y.Token
		}
		return x.Message < y.Message
	})
}

// CountByKind tallies issues per kind.
func CountByKind(issues []Issue) map[Kind]int {
	counts := make(map[Kind]int)
	for _, i := range issues {
		counts[i.Kind]++
	}
	return counts
}
