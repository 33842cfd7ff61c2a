package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeEmptyRoot, "no Python module in /tmp/x")
		if err.Error() != "[EMPTY_ROOT] no Python module in /tmp/x" {
			t.Errorf("unexpected message %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("original error")
		err := Wrap(original, CodeIO, "read dir failed")
		expected := "[IO_ERROR] read dir failed: original error"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
		if !errors.Is(err, original) {
			t.Error("expected wrapped error to unwrap to original")
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeParse, "bad source")
		if !IsCode(err, CodeParse) {
			t.Error("expected IsCode to return true for CodeParse")
		}
		if IsCode(err, CodeIO) {
			t.Error("expected IsCode to return false for CodeIO")
		}
	})

	t.Run("IsCodeThroughFmtWrap", func(t *testing.T) {
		err := fmt.Errorf("walk: %w", New(CodeInvalidPath, "not utf-8"))
		if !IsCode(err, CodeInvalidPath) {
			t.Error("expected IsCode to see through fmt wrapping")
		}
		if CodeOf(err) != CodeInvalidPath {
			t.Errorf("expected CodeOf INVALID_PATH, got %q", CodeOf(err))
		}
	})

	t.Run("WithPath", func(t *testing.T) {
		err := WithPath(fs.ErrNotExist, CodeIO, "read file", "pkg/mod.py")
		if !strings.Contains(err.Error(), "pkg/mod.py") {
			t.Errorf("expected path in message, got %s", err.Error())
		}
		if !errors.Is(err, fs.ErrNotExist) {
			t.Error("expected fs.ErrNotExist in chain")
		}
	})

	t.Run("AddContextOnPlainError", func(t *testing.T) {
		err := AddContext(errors.New("boom"), CtxOperation, "walk")
		if CodeOf(err) != CodeInternal {
			t.Errorf("expected INTERNAL_ERROR, got %q", CodeOf(err))
		}
	})

	t.Run("CodeOfForeignError", func(t *testing.T) {
		if CodeOf(errors.New("plain")) != "" {
			t.Error("expected empty code for non-domain error")
		}
	})
}
