package convert

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/Aeva/whisperscope/internal/rst"
)

// headingAdornments are used for headings inside a fragment body. Page and
// fragment titles already use "=" and "-".
var headingAdornments = []string{"~", "^", `"`, "'", "`", "+"}

// Native renders markdown to reStructuredText in process, without pandoc.
// It covers the CommonMark constructs that appear in doc comments:
// paragraphs, headings, emphasis, code, links, images, lists, block quotes
// and thematic breaks. Inline HTML is dropped; HTML blocks become raw
// directives.
type Native struct {
	md goldmark.Markdown
}

// NewNative returns a Native converter.
func NewNative() *Native {
	return &Native{md: goldmark.New()}
}

// Convert implements Converter.
func (n *Native) Convert(ctx context.Context, markdown string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	source := []byte(markdown)
	root := n.md.Parser().Parse(text.NewReader(source))
	w := &rstWriter{source: source}
	out := w.blocks(root)
	if out == "" {
		return "", nil
	}
	return out + "\n", nil
}

type rstWriter struct {
	source []byte
}

func (w *rstWriter) blocks(parent ast.Node) string {
	var parts []string
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		if s := w.block(c); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

func (w *rstWriter) block(n ast.Node) string {
	switch n := n.(type) {
	case *ast.Paragraph:
		if img, ok := soleImage(n); ok {
			return w.image(img)
		}
		return w.inlines(n)
	case *ast.TextBlock:
		return w.inlines(n)
	case *ast.Heading:
		level := min(max(n.Level, 1), len(headingAdornments))
		return strings.TrimSuffix(rst.Header(w.inlines(n), headingAdornments[level-1]), "\n")
	case *ast.FencedCodeBlock:
		return literal(string(n.Language(w.source)), w.lines(n))
	case *ast.CodeBlock:
		return literal("", w.lines(n))
	case *ast.Blockquote:
		return rst.Indent(w.blocks(n), 4)
	case *ast.List:
		return w.list(n)
	case *ast.ThematicBreak:
		return "----"
	case *ast.HTMLBlock:
		body := w.lines(n)
		if n.HasClosure() {
			body += string(n.ClosureLine.Value(w.source))
		}
		return ".. raw:: html\n\n" + rst.Indent(strings.TrimRight(body, "\n"), 3)
	default:
		if n.Type() == ast.TypeBlock || n.Type() == ast.TypeDocument {
			return w.blocks(n)
		}
		return w.inlines(n)
	}
}

func (w *rstWriter) lines(n ast.Node) string {
	var b bytes.Buffer
	segs := n.Lines()
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		b.Write(seg.Value(w.source))
	}
	return b.String()
}

func literal(lang, code string) string {
	code = strings.TrimRight(code, "\n")
	if lang != "" {
		return ".. code-block:: " + lang + "\n\n" + rst.Indent(code, 3)
	}
	return "::\n\n" + rst.Indent(code, 3)
}

func (w *rstWriter) list(l *ast.List) string {
	var items []string
	num := l.Start
	for c := l.FirstChild(); c != nil; c = c.NextSibling() {
		marker := "- "
		if l.IsOrdered() {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}
		items = append(items, hang(marker, w.blocks(c)))
	}
	sep := "\n"
	if !l.IsTight {
		sep = "\n\n"
	}
	return strings.Join(items, sep)
}

// hang puts marker before the first line of body and aligns the remaining
// lines under the text.
func hang(marker, body string) string {
	pad := strings.Repeat(" ", len(marker))
	lines := strings.Split(body, "\n")
	for i, l := range lines {
		switch {
		case i == 0:
			lines[i] = strings.TrimRight(marker+l, " ")
		case l != "":
			lines[i] = pad + l
		}
	}
	return strings.Join(lines, "\n")
}

func soleImage(p *ast.Paragraph) (*ast.Image, bool) {
	if p.ChildCount() != 1 {
		return nil, false
	}
	img, ok := p.FirstChild().(*ast.Image)
	return img, ok
}

func (w *rstWriter) image(img *ast.Image) string {
	out := ".. image:: " + string(img.Destination)
	if alt := strings.TrimSpace(w.inlineChildren(img)); alt != "" {
		out += "\n   :alt: " + alt
	}
	return out
}

func (w *rstWriter) inlines(parent ast.Node) string {
	return strings.TrimRight(w.inlineChildren(parent), " \n")
}

func (w *rstWriter) inlineChildren(parent ast.Node) string {
	var b strings.Builder
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		w.inline(&b, c)
	}
	return b.String()
}

func (w *rstWriter) inline(b *strings.Builder, n ast.Node) {
	switch n := n.(type) {
	case *ast.Text:
		value := n.Segment.Value(w.source)
		if n.IsRaw() {
			b.Write(value)
		} else {
			b.WriteString(escapeText(value))
		}
		if n.SoftLineBreak() || n.HardLineBreak() {
			b.WriteByte('\n')
		}
	case *ast.String:
		if n.IsRaw() || n.IsCode() {
			b.Write(n.Value)
		} else {
			b.WriteString(rst.Escape(string(n.Value)))
		}
	case *ast.Emphasis:
		mark := "*"
		if n.Level >= 2 {
			mark = "**"
		}
		if inner := strings.TrimSpace(w.inlineChildren(n)); inner != "" {
			b.WriteString(mark + inner + mark)
		}
	case *ast.CodeSpan:
		b.WriteString("``")
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				b.Write(t.Segment.Value(w.source))
			case *ast.String:
				b.Write(t.Value)
			}
		}
		b.WriteString("``")
	case *ast.Link:
		dest := string(n.Destination)
		label := strings.TrimSpace(w.inlineChildren(n))
		if label == "" {
			label = dest
		}
		fmt.Fprintf(b, "`%s <%s>`__", label, dest)
	case *ast.AutoLink:
		b.Write(n.URL(w.source))
	case *ast.Image:
		b.WriteString(strings.TrimSpace(w.inlineChildren(n)))
	case *ast.RawHTML:
		// dropped
	default:
		b.WriteString(w.inlineChildren(n))
	}
}

// escapeText turns a markdown text segment into literal text and escapes it
// for reStructuredText.
func escapeText(segment []byte) string {
	v := util.UnescapePunctuations(segment)
	v = util.ResolveNumericReferences(v)
	v = util.ResolveEntityNames(v)
	return rst.Escape(string(v))
}
