package shared

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestLogger(t *testing.T) {
	t.Run("writes to the given writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		logger.Info("hello", "key", "value")

		if !strings.Contains(buf.String(), "hello") {
			t.Errorf("expected log output to contain message, got %q", buf.String())
		}
		if !strings.Contains(buf.String(), "key=value") {
			t.Errorf("expected log output to contain key/value pair, got %q", buf.String())
		}
	})

	t.Run("child logger carries fields", func(t *testing.T) {
		var buf bytes.Buffer
		child := WithLogger(NewLogger(&buf), "component", "fetcher")
		child.Info("page")

		if !strings.Contains(buf.String(), "component=fetcher") {
			t.Errorf("expected child fields in output, got %q", buf.String())
		}
	})

	t.Run("level filtering", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		SetLogLevel(logger, log.WarnLevel)
		logger.Info("hidden")

		if buf.Len() != 0 {
			t.Errorf("expected info to be filtered at warn level, got %q", buf.String())
		}
	})
}

func TestParseLogLevel(t *testing.T) {
	tc := []struct {
		in   string
		want log.Level
	}{
		{"debug", log.DebugLevel},
		{" WARN ", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"", log.InfoLevel},
		{"nonsense", log.InfoLevel},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLogLevel(tt.in); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected distinct ids")
	}
	if len(a) != 36 {
		t.Errorf("expected uuid string of length 36, got %d", len(a))
	}
}

func TestTypedErrors(t *testing.T) {
	tc := []struct {
		name     string
		err      error
		sentinel error
		contains string
	}{
		{"fetch", &FetchError{Page: 2, Retrieved: 50, Err: errors.New("boom")}, ErrFetchFailed, "page 2 after 50 items"},
		{"duplicate name", &DuplicateNameError{Name: "Tech"}, ErrDuplicateName, `"Tech"`},
		{"invalid category", &InvalidCategoryError{CategoryID: 7}, ErrInvalidCategory, "category 7"},
		{"already categorized", &AlreadyCategorizedError{ChannelID: "UC_abc"}, ErrAlreadyCategorized, "UC_abc"},
		{"not found", &NotFoundError{Resource: "category", ID: int64(3)}, ErrNotFound, "category not found: 3"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("operation: %w", tt.err)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("expected %v to match sentinel %v", wrapped, tt.sentinel)
			}
			if !strings.Contains(tt.err.Error(), tt.contains) {
				t.Errorf("expected %q to contain %q", tt.err.Error(), tt.contains)
			}
		})
	}

	t.Run("fetch error unwraps cause", func(t *testing.T) {
		err := &FetchError{Page: 1, Err: ErrPageLimitExceeded}
		if !errors.Is(err, ErrPageLimitExceeded) {
			t.Error("expected FetchError to unwrap to its cause")
		}
	})
}
