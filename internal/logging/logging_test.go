package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		verbose, quiet bool
		want           slog.Level
	}{
		{false, false, slog.LevelWarn},
		{true, false, slog.LevelDebug},
		{false, true, slog.LevelError},
		{true, true, slog.LevelDebug},
	}
	for _, tt := range tests {
		if got := LevelFor(tt.verbose, tt.quiet); got != tt.want {
			t.Errorf("LevelFor(%v, %v) = %v, want %v", tt.verbose, tt.quiet, got, tt.want)
		}
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn)
	logger.Info("hidden")
	logger.Warn("shown", "document", "poems")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "document=poems") {
		t.Errorf("expected warning with attrs, got %q", out)
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := WithRunID(context.Background(), "run-42")
	FromContext(ctx, base).Info("hello")
	if !strings.Contains(buf.String(), "run_id=run-42") {
		t.Errorf("expected run id attr, got %q", buf.String())
	}
}
