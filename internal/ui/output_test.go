package ui

import "testing"

func TestStatusSymbol(t *testing.T) {
	tests := []struct {
		name     string
		valid    bool
		skipped  bool
		warnings int
		want     string
	}{
		{name: "pass", valid: true, want: SymbolSuccess},
		{name: "pass with warnings", valid: true, warnings: 2, want: SymbolWarning},
		{name: "fail", valid: false, warnings: 2, want: SymbolError},
		{name: "skipped", skipped: true, want: SymbolSkipped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusSymbol(tt.valid, tt.skipped, tt.warnings); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestErrorWarningCounts(t *testing.T) {
	tests := []struct {
		errors, warnings int
		want             string
	}{
		{0, 0, ""},
		{1, 0, "(1 error)"},
		{0, 3, "(3 warnings)"},
		{2, 1, "(2 errors, 1 warning)"},
	}
	for _, tt := range tests {
		if got := ErrorWarningCounts(tt.errors, tt.warnings); got != tt.want {
			t.Errorf("ErrorWarningCounts(%d, %d) = %q, want %q", tt.errors, tt.warnings, got, tt.want)
		}
	}
}
