package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// outputFormat selects how the check report is rendered on stdout.
type outputFormat string

const (
	formatConsole  outputFormat = "console"
	formatJSON     outputFormat = "json"
	formatMarkdown outputFormat = "markdown"
)

var _ pflag.Value = (*outputFormat)(nil)

var outputFormats = []outputFormat{formatConsole, formatJSON, formatMarkdown}

// String implements pflag.Value.
func (f *outputFormat) String() string {
	if *f == "" {
		return string(formatConsole)
	}
	return string(*f)
}

// Set implements pflag.Value.
func (f *outputFormat) Set(v string) error {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "md" {
		v = string(formatMarkdown)
	}
	for _, known := range outputFormats {
		if v == string(known) {
			*f = known
			return nil
		}
	}
	names := make([]string, len(outputFormats))
	for i, known := range outputFormats {
		names[i] = string(known)
	}
	return fmt.Errorf("must be one of: %s", strings.Join(names, ", "))
}

// Type implements pflag.Value.
func (f *outputFormat) Type() string {
	return "format"
}
