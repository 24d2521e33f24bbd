// Package docs selects the comments flagged for export and renders them as
// reStructuredText pages.
package docs

import (
	"strings"

	"github.com/Aeva/whisperscope/internal/comment"
)

// DefaultMarker flags a comment for export when it starts the first line.
const DefaultMarker = "[+]"

// Fragment is the documentation view of a flagged comment.
type Fragment struct {
	File string
	Line int
	// Hint is the text after the marker on the first line.
	Hint string
	// Body is the rest of the comment, one line per line.
	Body string
}

// Signature splits the hint into a name and an optional parenthesized
// options part.
func (f Fragment) Signature() (name, options string) {
	return SplitHint(f.Hint)
}

// SplitHint splits "draw(ctx)" into "draw" and "(ctx)". Without a '(' the
// whole hint is the name.
func SplitHint(hint string) (name, options string) {
	if i := strings.IndexByte(hint, '('); i >= 0 {
		return hint[:i], hint[i:]
	}
	return hint, ""
}

// Flagged reports whether a reflowed block is marked for export: it has more
// than one line and the first starts with marker.
func Flagged(b comment.Block, marker string) bool {
	return len(b.Lines) > 1 && strings.HasPrefix(b.Lines[0], marker)
}

// Extract returns the fragment for a flagged block.
func Extract(b comment.Block, marker string) (Fragment, bool) {
	if !Flagged(b, marker) {
		return Fragment{}, false
	}
	first := b.Lines[0]
	hint := first[strings.Index(first, marker)+len(marker):]
	return Fragment{
		File: b.File,
		Line: b.Line,
		Hint: strings.TrimSpace(hint),
		Body: strings.Join(b.Lines[1:], "\n"),
	}, true
}

// Select returns the fragments of the flagged blocks, in order.
func Select(blocks []comment.Block, marker string) []Fragment {
	var out []Fragment
	for _, b := range blocks {
		if f, ok := Extract(b, marker); ok {
			out = append(out, f)
		}
	}
	return out
}
