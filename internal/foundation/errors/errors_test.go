package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "site.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		if err.Message() != "invalid configuration" {
			t.Errorf("expected message 'invalid configuration', got %s", err.Message())
		}

		file, exists := err.Context().GetString("file")
		if !exists || file != "site.yaml" {
			t.Errorf("expected context file=site.yaml, got %v", file)
		}
	})

	t.Run("Config error names the field", func(t *testing.T) {
		err := ConfigError("pages must be a list of page names").WithField("pages").Build()

		if !IsConfig(err) {
			t.Error("expected config category")
		}
		if got := FieldOf(err); got != "pages" {
			t.Errorf("expected field pages, got %q", got)
		}
		if got := err.Error(); got != "[config:fatal] pages must be a list of page names (field=pages)" {
			t.Errorf("unexpected message %q", got)
		}
		if err.RetryStrategy() != RetryUserAction {
			t.Errorf("expected user action, got %s", err.RetryStrategy())
		}
		if !err.IsFatal() {
			t.Error("expected config error to be fatal")
		}
	})

	t.Run("Detection through wrapping", func(t *testing.T) {
		base := NotFoundError("pages directory does not exist").WithPath("src/pages").Build()
		wrapped := fmt.Errorf("discover pages: %w", base)

		if !IsNotFound(wrapped) {
			t.Error("expected not-found category through %w chain")
		}
		if GetCategory(errors.New("plain")) != CategoryInternal {
			t.Error("plain errors classify as internal")
		}
	})
}

func TestErrorBuilder(t *testing.T) {
	originalErr := errors.New("open src/pages/about/about.html: no such file")
	err := WrapError(originalErr, CategoryTemplate, "template missing").
		Warning().
		WithPath("src/pages/about/about.html").
		Build()

	if err.Severity() != SeverityWarning {
		t.Errorf("expected severity %s, got %s", SeverityWarning, err.Severity())
	}
	if err.RetryStrategy() != RetryNever {
		t.Errorf("expected retry strategy %s, got %s", RetryNever, err.RetryStrategy())
	}
	if !errors.Is(err, originalErr) {
		t.Error("expected error to wrap original error")
	}

	withCtx := err.WithContext("page", "about")
	if _, ok := err.Context().Get("page"); ok {
		t.Error("WithContext must not mutate the receiver")
	}
	if page, _ := withCtx.Context().GetString("page"); page != "about" {
		t.Errorf("expected page context, got %q", page)
	}
}

func TestErrorContext_Merge(t *testing.T) {
	var nilCtx ErrorContext
	other := ErrorContext{"a": 1}
	if got := nilCtx.Merge(other); got["a"] != 1 {
		t.Errorf("merge into nil context lost values: %v", got)
	}
	merged := ErrorContext{"a": 1, "b": 2}.Merge(ErrorContext{"b": 3})
	if merged["a"] != 1 || merged["b"] != 3 {
		t.Errorf("unexpected merge result: %v", merged)
	}
}
