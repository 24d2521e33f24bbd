package docs

import "github.com/Aeva/whisperscope/internal/rst"

const (
	// IndexFile is the name of the generated table of contents.
	IndexFile         = "index.rst"
	DefaultIndexTitle = "API Reference"
	DefaultMaxDepth   = 2
)

// Index is the table of contents over the generated pages.
type Index struct {
	Title    string
	MaxDepth int
	// Entries are toctree document names, in page order.
	Entries []string
}

// NewIndex returns an index over pages with the default title and depth.
func NewIndex(pages []*Page) Index {
	ix := Index{Title: DefaultIndexTitle, MaxDepth: DefaultMaxDepth}
	for _, p := range pages {
		ix.Entries = append(ix.Entries, p.DocName())
	}
	return ix
}

// Render returns the contents of index.rst.
func (ix Index) Render() string {
	title := ix.Title
	if title == "" {
		title = DefaultIndexTitle
	}
	depth := ix.MaxDepth
	if depth <= 0 {
		depth = DefaultMaxDepth
	}
	return "\n\n" + rst.Header(title, "=") + "\n" + rst.Toctree(ix.Entries, depth)
}
