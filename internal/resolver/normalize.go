package resolver

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/aidanlsb/lorecheck/internal/schema"
)

type rewriteRule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Normalizer folds loose textual references into comparable title keys.
// Rewrite rules run first, in declaration order, then the text is
// NFKC-normalized, case-folded and stripped of everything that is not a
// letter or digit. Variant spellings map onto their canonical key.
type Normalizer struct {
	rules    []rewriteRule
	variants map[string]string
	slugIDs  bool
}

// NewNormalizer compiles the declared normalization table.
func NewNormalizer(decl schema.Normalization) (*Normalizer, error) {
	n := &Normalizer{
		variants: make(map[string]string, len(decl.Variants)),
		slugIDs:  decl.SlugIDs,
	}

	for i, rule := range decl.Rules {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("normalization rule %d: %w", i+1, err)
		}
		n.rules = append(n.rules, rewriteRule{pattern: re, replacement: rule.Replacement})
	}

	for variant, canonical := range decl.Variants {
		from, to := n.fold(variant), n.fold(canonical)
		if from == "" || to == "" || from == to {
			continue
		}
		n.variants[from] = to
	}

	return n, nil
}

// Key returns the comparable key for a title. Empty means the text carries
// no letters or digits and cannot match anything.
func (n *Normalizer) Key(text string) string {
	key := n.fold(text)
	if canonical, ok := n.variants[key]; ok {
		return canonical
	}
	return key
}

func (n *Normalizer) fold(text string) string {
	for _, rule := range n.rules {
		text = rule.pattern.ReplaceAllString(text, rule.replacement)
	}
	text = cases.Fold().String(norm.NFKC.String(text))

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
