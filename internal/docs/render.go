package docs

import (
	"context"
	"fmt"
	"strings"

	"github.com/Aeva/whisperscope/internal/convert"
	"github.com/Aeva/whisperscope/internal/rst"
)

// Style selects how a fragment with a hint is introduced.
type Style string

const (
	// StyleSection renders the name as a "-" section header followed by an
	// emphasized signature line.
	StyleSection Style = "section"
	// StyleDirective renders a domain directive such as
	// ".. js:function:: draw(ctx)" with the body indented under it.
	StyleDirective Style = "directive"
)

// DefaultDirective is the directive used by StyleDirective.
const DefaultDirective = "js:function"

// RenderError reports a fragment that could not be converted.
type RenderError struct {
	File string
	Line int
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s:%d: %v", e.File, e.Line, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Renderer turns fragments into reStructuredText.
type Renderer struct {
	Converter convert.Converter
	Style     Style
	Directive string
}

// NewRenderer returns a section-style renderer using c.
func NewRenderer(c convert.Converter) *Renderer {
	return &Renderer{Converter: c, Style: StyleSection, Directive: DefaultDirective}
}

// Render converts one fragment. A fragment with an empty hint renders as its
// converted body alone.
func (r *Renderer) Render(ctx context.Context, f Fragment) (string, error) {
	if f.Hint == "" {
		out, err := r.convert(ctx, f, f.Body)
		if err != nil {
			return "", err
		}
		return out + "\n\n", nil
	}

	name, options := f.Signature()
	if r.Style == StyleDirective {
		return r.directive(ctx, f, name, options)
	}

	sig := "*" + escapeMarkdown(name) + "*"
	if options != "" {
		sig += " **" + escapeMarkdown(options) + "**"
	}
	out, err := r.convert(ctx, f, sig+"\n\n"+f.Body)
	if err != nil {
		return "", err
	}
	return rst.Header(name, "-") + out, nil
}

func (r *Renderer) directive(ctx context.Context, f Fragment, name, options string) (string, error) {
	directive := r.Directive
	if directive == "" {
		directive = DefaultDirective
	}
	head := fmt.Sprintf(".. %s:: %s%s\n", directive, strings.TrimSpace(name), options)
	if strings.TrimSpace(f.Body) == "" {
		return head, nil
	}
	out, err := r.convert(ctx, f, f.Body)
	if err != nil {
		return "", err
	}
	return head + "\n" + rst.Indent(strings.TrimRight(out, "\n"), 4) + "\n", nil
}

func (r *Renderer) convert(ctx context.Context, f Fragment, markdown string) (string, error) {
	out, err := r.Converter.Convert(ctx, markdown)
	if err != nil {
		return "", &RenderError{File: f.File, Line: f.Line, Err: err}
	}
	return out, nil
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
