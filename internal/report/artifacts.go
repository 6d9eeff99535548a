package report

import (
	"fmt"
	"path/filepath"

	"github.com/aidanlsb/lorecheck/internal/atomicfile"
	"github.com/aidanlsb/lorecheck/internal/slugs"
)

// TimestampLayout names artifacts; it sorts lexically by time.
const TimestampLayout = "20060102T150405Z"

// ArtifactOptions controls which artifacts are written.
type ArtifactOptions struct {
	// HTML also writes the goldmark-rendered page.
	HTML bool
	// Label is slugified and appended to the base name.
	Label string
}

// BaseName returns "lorecheck-<UTC timestamp>[-<label>]".
func BaseName(r *Run, label string) string {
	name := "lorecheck-" + r.StartedAt().UTC().Format(TimestampLayout)
	if key := slugs.Key(label); key != "" {
		name += "-" + key
	}
	return name
}

// WriteArtifacts writes the JSON and Markdown reports (and optionally
// HTML) into dir. Either every artifact is written or none is.
func WriteArtifacts(dir string, r *Run, opts ArtifactOptions) ([]string, error) {
	base := filepath.Join(dir, BaseName(r, opts.Label))

	data, err := JSON(r)
	if err != nil {
		return nil, fmt.Errorf("render json report: %w", err)
	}
	md := Markdown(r)

	files := map[string][]byte{
		base + ".json": data,
		base + ".md":   md,
	}
	if opts.HTML {
		page, err := HTML(md, "lorecheck report "+r.ID)
		if err != nil {
			return nil, err
		}
		files[base+".html"] = page
	}

	return atomicfile.WriteSet(files, 0o644)
}
