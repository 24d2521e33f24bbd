// Package convert turns the markdown written in doc comments into
// reStructuredText.
//
// Two backends exist: Pandoc runs the pandoc binary once per call, and Native
// renders a goldmark AST directly. Both satisfy Converter, so callers and tests
// can substitute a Func.
package convert

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Converter converts UTF-8 markdown into UTF-8 reStructuredText.
type Converter interface {
	Convert(ctx context.Context, markdown string) (string, error)
}

// Func adapts a plain function to Converter.
type Func func(ctx context.Context, markdown string) (string, error)

// Convert calls f.
func (f Func) Convert(ctx context.Context, markdown string) (string, error) {
	return f(ctx, markdown)
}

// Backend names a converter implementation.
type Backend string

const (
	BackendPandoc Backend = "pandoc"
	BackendNative Backend = "native"
)

// ErrUnknownBackend is returned by New for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown converter backend")

// Options selects and tunes a backend.
type Options struct {
	Backend    Backend
	PandocPath string
	// Timeout bounds a single conversion. Zero means no limit.
	Timeout time.Duration
}

// New builds the converter described by opts.
func New(opts Options) (Converter, error) {
	var c Converter
	switch opts.Backend {
	case BackendPandoc, "":
		c = NewPandoc(opts.PandocPath)
	case BackendNative:
		c = NewNative()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
	return WithTimeout(c, opts.Timeout), nil
}

type timeoutConverter struct {
	next    Converter
	timeout time.Duration
}

// WithTimeout bounds every call to c by d. A non-positive d returns c as is.
func WithTimeout(c Converter, d time.Duration) Converter {
	if d <= 0 {
		return c
	}
	return &timeoutConverter{next: c, timeout: d}
}

func (t *timeoutConverter) Convert(ctx context.Context, markdown string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	out, err := t.next.Convert(ctx, markdown)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("conversion timed out after %s: %w", t.timeout, err)
	}
	return out, err
}
