package model

import "strings"

// TokenKind classifies a reference token.
type TokenKind int

const (
	// TokenString is a bare string: an id or free text.
	TokenString TokenKind = iota
	// TokenObject is an embedded object carrying an authoritative id.
	TokenObject
	// TokenNamed is an embedded object without an id; its name is free text.
	TokenNamed
	// TokenInvalid is a value that can never resolve (number, bool, nested array).
	TokenInvalid
)

func (k TokenKind) String() string {
	switch k {
	case TokenString:
		return "string"
	case TokenObject:
		return "object"
	case TokenNamed:
		return "named"
	default:
		return "invalid"
	}
}

// Token is one entry of a reference field.
type Token struct {
	Kind TokenKind
	// ID is set for TokenObject.
	ID string
	// Text is the string for TokenString, or the display name for objects.
	Text string
	// Raw is the decoded JSON value the token came from.
	Raw any
}

// String returns the token as it should appear in messages.
func (t Token) String() string {
	switch t.Kind {
	case TokenObject:
		return t.ID
	case TokenString, TokenNamed:
		return t.Text
	default:
		return Describe(t.Raw)
	}
}

// Tokens splits a reference field value into tokens. A scalar value is a
// one-token sequence; nulls and empty strings are skipped.
func Tokens(v any) []Token {
	switch val := v.(type) {
	case nil:
		return nil
	case []any:
		tokens := make([]Token, 0, len(val))
		for _, item := range val {
			if tok, ok := ParseToken(item); ok {
				tokens = append(tokens, tok)
			}
		}
		return tokens
	default:
		if tok, ok := ParseToken(val); ok {
			return []Token{tok}
		}
		return nil
	}
}

// ParseToken classifies a single value. It returns false for values that
// carry no reference at all (null, blank strings).
func ParseToken(v any) (Token, bool) {
	switch val := v.(type) {
	case nil:
		return Token{}, false
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return Token{}, false
		}
		return Token{Kind: TokenString, Text: s, Raw: v}, true
	case map[string]any:
		id := strings.TrimSpace(ScalarString(val["id"]))
		name := strings.TrimSpace(ScalarString(val["name"]))
		if name == "" {
			name = strings.TrimSpace(ScalarString(val["title"]))
		}
		if id != "" {
			return Token{Kind: TokenObject, ID: id, Text: name, Raw: v}, true
		}
		if name != "" {
			return Token{Kind: TokenNamed, Text: name, Raw: v}, true
		}
		return Token{Kind: TokenInvalid, Raw: v}, true
	default:
		return Token{Kind: TokenInvalid, Raw: v}, true
	}
}
