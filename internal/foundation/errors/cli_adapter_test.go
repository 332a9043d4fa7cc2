package errors

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("bad flag").Build(), expected: 2},
		{name: "not found", err: NotFoundError("no such file").Build(), expected: 3},
		{name: "config", err: ConfigError("bad config").Build(), expected: 7},
		{name: "git", err: GitError("clone failed").Build(), expected: 8},
		{name: "render", err: RenderError("render failed").Build(), expected: 11},
		{name: "wrapped filesystem", err: fmt.Errorf("ctx: %w", FileSystemError("write").Build()), expected: 11},
		{name: "canceled", err: CanceledError("interrupted").Build(), expected: 130},
		{name: "internal", err: NewError(CategoryInternal, "bug").Fatal().Build(), expected: 10},
		{name: "unclassified", err: errors.New("unknown"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, slog.Default())
	verbose := NewCLIErrorAdapter(true, slog.Default())

	cfgErr := ConfigError("source.dir is required").WithContext("path", "docsite.yaml").Build()
	if got, want := quiet.FormatError(cfgErr), "Error: source.dir is required (docsite.yaml)"; got != want {
		t.Errorf("FormatError() = %q, want %q", got, want)
	}

	internal := NewError(CategoryInternal, "nil engine").Fatal().Build()
	if got := quiet.FormatError(internal); !strings.Contains(got, "use -v") {
		t.Errorf("expected hint to use -v, got %q", got)
	}
	if got := verbose.FormatError(internal); !strings.Contains(got, "[internal:fatal] nil engine") {
		t.Errorf("verbose output should include the full error, got %q", got)
	}
	if got := quiet.FormatError(nil); got != "" {
		t.Errorf("expected empty string for nil error, got %q", got)
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var logs, out bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.out = &out
	code := -1
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(RenderError("render page").WithCause(errors.New("boom")).Build())

	if code != 11 {
		t.Errorf("exit code = %d, want 11", code)
	}
	if !strings.Contains(out.String(), "render page") {
		t.Errorf("expected message on output, got %q", out.String())
	}
	if !strings.Contains(logs.String(), "category=render") || !strings.Contains(logs.String(), "cause=boom") {
		t.Errorf("expected structured log attributes, got %q", logs.String())
	}

	code = -1
	adapter.HandleError(nil)
	if code != -1 {
		t.Error("nil error must not exit")
	}
}
