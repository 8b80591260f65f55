package errors

import (
	"bytes"
	"errors"
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
		{name: "not found", err: NotFoundError("missing pages dir").Build(), expected: 3},
		{name: "config", err: ConfigError("bad config").Build(), expected: 7},
		{name: "template", err: TemplateError("parse failed").Build(), expected: 11},
		{name: "bundle", err: BundleError("esbuild failed").Build(), expected: 11},
		{name: "runtime", err: RuntimeError("listen failed").Build(), expected: 12},
		{name: "unclassified", err: errors.New("boom"), expected: 1},
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

	userErr := ConfigError("exclude must be a list").WithField("exclude").Build()
	if got := quiet.FormatError(userErr); !strings.Contains(got, "field=exclude") {
		t.Errorf("user-facing errors should be shown without -v, got %q", got)
	}

	internal := InternalError("nil descriptor").Build()
	if got := quiet.FormatError(internal); !strings.Contains(got, "use -v") {
		t.Errorf("internal errors should be summarised, got %q", got)
	}

	verbose := NewCLIErrorAdapter(true, slog.Default())
	if got := verbose.FormatError(internal); !strings.Contains(got, "nil descriptor") {
		t.Errorf("verbose mode should print details, got %q", got)
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var out, logs bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.out = &out
	code := -1
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(NotFoundError("pages directory does not exist").WithPath("src/pages").Build())

	if code != 3 {
		t.Errorf("expected exit code 3, got %d", code)
	}
	if !strings.Contains(out.String(), "path=src/pages") {
		t.Errorf("expected path in output, got %q", out.String())
	}
}
