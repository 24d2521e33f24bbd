package errors

import (
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
		{name: "validation", err: ValidationError("no input files").Build(), expected: 2},
		{name: "config", err: ConfigError("output directory does not exist").Build(), expected: 7},
		{name: "scan", err: ScanError("unterminated comment").Build(), expected: 11},
		{name: "convert", err: ConvertError("pandoc failed").Build(), expected: 11},
		{name: "filesystem", err: FileSystemError("write failed").Build(), expected: 11},
		{name: "events", err: EventsError("publish failed").Build(), expected: 8},
		{name: "internal", err: InternalError("bug").Build(), expected: 10},
		{name: "wrapped config", err: fmt.Errorf("generate: %w", ConfigError("bad").Build()), expected: 7},
		{name: "unclassified", err: errors.New("unknown error"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := adapter.ExitCodeFor(tt.err)
			if got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	tests := []struct {
		name     string
		verbose  bool
		err      error
		contains string
	}{
		{"nil", false, nil, ""},
		{"unclassified", false, errors.New("boom"), "Error: boom"},
		{"config message", false, ConfigError("output directory does not exist").Build(), "Error: output directory does not exist"},
		{"cause included", false, WrapError(errors.New("permission denied"), CategoryFileSystem, "write index").Build(), "write index: permission denied"},
		{"internal hidden", false, InternalError("nil renderer").Build(), "use -v for details"},
		{"verbose context", true, ScanError("unterminated").WithLocation("a.js", 3).Build(), "file=a.js line=3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewCLIErrorAdapter(tt.verbose, nil).FormatError(tt.err)
			if tt.contains == "" {
				if got != "" {
					t.Errorf("FormatError() = %q, want empty", got)
				}
				return
			}
			if !strings.Contains(got, tt.contains) {
				t.Errorf("FormatError() = %q, want it to contain %q", got, tt.contains)
			}
		})
	}
}

func TestSlogLevelFromSeverity(t *testing.T) {
	if slogLevelFromSeverity(SeverityWarning) != slog.LevelWarn {
		t.Error("expected warning to map to slog warn")
	}
	if slogLevelFromSeverity(SeverityFatal) != slog.LevelError {
		t.Error("expected fatal to map to slog error")
	}
}
