package comment

import (
	"errors"
	"fmt"
	"strings"
)

// Style records how a comment was delimited.
type Style int

const (
	// StyleBlock is a /* ... */ comment.
	StyleBlock Style = iota
	// StyleLineRun is a run of consecutive // comments.
	StyleLineRun
)

func (s Style) String() string {
	switch s {
	case StyleBlock:
		return "block"
	case StyleLineRun:
		return "line"
	default:
		return fmt.Sprintf("Style(%d)", int(s))
	}
}

// ErrMissingMarker is returned by Reflow when a line does not start with the
// delimiter its style requires.
var ErrMissingMarker = errors.New("comment delimiter missing")

// Block is one comment found in a source file.
type Block struct {
	File  string
	Line  int
	Style Style
	Lines []string

	consumed int
}

// EndLine is the line after the last physical line the comment spans.
func (b Block) EndLine() int {
	return b.Line + b.consumed
}

// Text joins the lines of the block.
func (b Block) Text() string {
	return strings.Join(b.Lines, "\n")
}

func (b *Block) add(line string) {
	b.Lines = append(b.Lines, line)
	b.consumed++
}

// Reflow strips the delimiters and the incidental indentation from a freshly
// scanned block and returns the normalized copy. The receiver is not
// modified. Reflow expects the delimiters to still be present; it cannot be
// applied twice.
func (b Block) Reflow(syn Syntax) (Block, error) {
	out := b
	out.Lines = nil
	if len(b.Lines) == 0 {
		return out, nil
	}

	lines := make([]string, len(b.Lines))
	copy(lines, b.Lines)

	var noise NoiseSet
	switch b.Style {
	case StyleBlock:
		noise = BlockNoise
		rest, ok := strings.CutPrefix(lines[0], syn.BlockOpen)
		if !ok || syn.BlockOpen == "" {
			return Block{}, fmt.Errorf("%w: %s:%d does not open with %q", ErrMissingMarker, b.File, b.Line, syn.BlockOpen)
		}
		lines[0] = rest
		if last := len(lines) - 1; strings.TrimSpace(lines[last]) == "" {
			lines = lines[:last]
		}
	case StyleLineRun:
		noise = LineNoise
		for i, line := range lines {
			rest, ok := strings.CutPrefix(line, syn.Line)
			if !ok || syn.Line == "" {
				return Block{}, fmt.Errorf("%w: %s:%d does not start with %q", ErrMissingMarker, b.File, b.Line+i, syn.Line)
			}
			lines[i] = rest
		}
	default:
		return Block{}, fmt.Errorf("unknown comment style %v", b.Style)
	}

	cut := FindIndentation(signal(lines, noise), noise)
	for _, line := range lines {
		if cut >= len(line) {
			line = ""
		} else {
			line = line[cut:]
		}
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			if len(out.Lines) == 0 {
				continue
			}
			line = ""
		}
		out.Lines = append(out.Lines, line)
	}

	// With a single line there is no neighbour to measure indentation
	// against, so the gap after the delimiter is trimmed directly.
	if len(out.Lines) == 1 {
		out.Lines[0] = trimLone(out.Lines[0], b.Style)
	}
	return out, nil
}

// signal drops the lines that say nothing about indentation, so that a bare
// "*" separator between paragraphs does not hide the gutter of its
// neighbours.
func signal(lines []string, noise NoiseSet) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l != "" && !noise.only(l) {
			out = append(out, l)
		}
	}
	return out
}

// trimLone trims the text of a one-line comment, including the extra stars of
// a /** note */ opener.
func trimLone(line string, style Style) string {
	line = strings.TrimLeft(line, " \t")
	if style != StyleBlock {
		return line
	}
	stars := strings.TrimLeft(line, "*")
	if stars == "" {
		return ""
	}
	if stars != line && (stars[0] == ' ' || stars[0] == '\t') {
		return strings.TrimLeft(stars, " \t")
	}
	return line
}
