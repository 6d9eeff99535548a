package ui

import "testing"

func TestNormalizeAccentColor(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{input: "", ok: false},
		{input: "Off", ok: false},
		{input: "default", ok: false},
		{input: "39", want: "39", ok: true},
		{input: " 0 ", want: "0", ok: true},
		{input: "300", ok: false},
		{input: "#A78BFA", want: "#a78bfa", ok: true},
		{input: "#f0a", want: "#ff00aa", ok: true},
		{input: "#12345", ok: false},
		{input: "#ggg", ok: false},
		{input: "purple", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := normalizeAccentColor(tt.input)
			if ok != tt.ok || got != tt.want {
				t.Errorf("normalizeAccentColor(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestConfigureTheme(t *testing.T) {
	origAccent, origColor, origTheme := Accent, accentColor, codeTheme
	t.Cleanup(func() {
		Accent, accentColor, codeTheme = origAccent, origColor, origTheme
	})

	ConfigureTheme("#0af")
	if got, ok := AccentColor(); !ok || got != "#00aaff" {
		t.Errorf("AccentColor() = %q, %v; want #00aaff", got, ok)
	}

	ConfigureTheme("none")
	if got, ok := AccentColor(); ok {
		t.Errorf("AccentColor() = %q after disabling", got)
	}

	ConfigureCodeTheme("  dracula ")
	if codeTheme != "dracula" {
		t.Errorf("codeTheme = %q, want dracula", codeTheme)
	}
	ConfigureCodeTheme("")
	if codeTheme != "dracula" {
		t.Errorf("empty theme replaced codeTheme with %q", codeTheme)
	}
}
