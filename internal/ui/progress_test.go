package ui

import (
	"bytes"
	"testing"
)

func TestProgressSilentOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, NewDisplayContextWithWidth(80), 3)
	p.Start()
	p.SetStatus("Running(batch 1 of 1)")
	p.Settle()
	p.Stop()

	if buf.Len() != 0 {
		t.Fatalf("expected no output off a terminal, got %q", buf.String())
	}
}
