// Package slugs provides the canonical slug form used to match ids that
// differ only in case, spacing or punctuation.
package slugs

import (
	"strings"

	goslug "github.com/gosimple/slug"
)

// Key converts an id or title to its slug form: "Quiet Night" -> "quiet-night".
// Strings that slugify to nothing fall back to a lowercased, dash-joined form.
func Key(s string) string {
	s = strings.TrimSpace(s)
	slugged := goslug.Make(s)
	if slugged == "" {
		slugged = strings.ToLower(strings.Join(strings.Fields(s), "-"))
	}
	return slugged
}
