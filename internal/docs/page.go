package docs

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/Aeva/whisperscope/internal/rst"
)

// ErrorPolicy decides what a page does when a fragment fails to render.
type ErrorPolicy string

const (
	// PolicySkip leaves the fragment out and keeps rendering the page.
	PolicySkip ErrorPolicy = "skip"
	// PolicyAbort stops at the first failing fragment.
	PolicyAbort ErrorPolicy = "abort"
)

// Page is the reference page for one source file.
type Page struct {
	Source    string
	Title     string
	DocPath   string
	Fragments []Fragment
}

// NewPage builds the page for source holding fragments in order.
func NewPage(source string, fragments []Fragment) *Page {
	return &Page{
		Source:    source,
		Title:     filepath.Base(source),
		DocPath:   DocPathFor(source),
		Fragments: fragments,
	}
}

// DocPathFor returns the output file name for source: its base name with the
// last extension replaced by ".rst".
func DocPathFor(source string) string {
	base := filepath.Base(source)
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base + ".rst"
}

// DocName is the toctree entry for the page.
func (p *Page) DocName() string {
	return strings.TrimSuffix(p.DocPath, ".rst")
}

// Render renders the page. Under PolicySkip failing fragments are left out and
// returned as skipped; under PolicyAbort the first failure is returned as err.
func (p *Page) Render(ctx context.Context, r *Renderer, policy ErrorPolicy) (out string, skipped []*RenderError, err error) {
	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(rst.Header(p.Title, "="))
	b.WriteString("\n")

	for _, f := range p.Fragments {
		if err := ctx.Err(); err != nil {
			return "", skipped, err
		}
		s, err := r.Render(ctx, f)
		if err != nil {
			var rerr *RenderError
			if !errors.As(err, &rerr) {
				rerr = &RenderError{File: f.File, Line: f.Line, Err: err}
			}
			if policy == PolicyAbort {
				return "", skipped, rerr
			}
			skipped = append(skipped, rerr)
			continue
		}
		b.WriteString(s)
		b.WriteString("\n\n")
	}
	return b.String(), skipped, nil
}
