package comment

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrUnterminatedComment is matched by errors.Is for a block comment that is
// still open at the end of the input.
var ErrUnterminatedComment = errors.New("unterminated block comment")

// UnterminatedError reports the file and line where an unterminated block
// comment starts.
type UnterminatedError struct {
	File string
	Line int
}

func (e *UnterminatedError) Error() string {
	return fmt.Sprintf("unterminated block comment in file %s on line %d", e.File, e.Line)
}

// Is matches ErrUnterminatedComment.
func (e *UnterminatedError) Is(target error) bool {
	return target == ErrUnterminatedComment
}

type stateKind int

const (
	stateOutside stateKind = iota
	stateInBlock
	stateInLineRun
)

func (k stateKind) String() string {
	switch k {
	case stateOutside:
		return "outside"
	case stateInBlock:
		return "in-block"
	case stateInLineRun:
		return "in-line-run"
	default:
		return "unknown"
	}
}

// state is the scanner position. open is nil exactly when kind is
// stateOutside.
type state struct {
	kind stateKind
	open *Block
}

// Scanner splits source text into comment blocks, one line at a time.
// A Scanner is not safe for concurrent use; scan each file with its own.
type Scanner struct {
	file   string
	syntax Syntax
	line   int
	st     state
	blocks []Block
}

// NewScanner returns a Scanner for the named file.
func NewScanner(file string, syn Syntax) *Scanner {
	return &Scanner{file: file, syntax: syn}
}

// Feed consumes the next physical line of input.
func (s *Scanner) Feed(raw string) {
	s.line++
	line := strings.TrimSpace(raw)

	switch s.st.kind {
	case stateInBlock:
		if i := strings.Index(line, s.syntax.BlockClose); i >= 0 {
			s.st.open.add(line[:i])
			s.emit()
			return
		}
		s.st.open.add(line)
		return
	case stateInLineRun:
		if strings.HasPrefix(line, s.syntax.Line) {
			s.st.open.add(line)
			return
		}
		s.emit()
	}

	s.outside(line)
}

func (s *Scanner) outside(line string) {
	switch {
	case s.syntax.hasBlocks() && strings.HasPrefix(line, s.syntax.BlockOpen):
		s.begin(StyleBlock, stateInBlock)
		body := line[len(s.syntax.BlockOpen):]
		if i := strings.Index(body, s.syntax.BlockClose); i >= 0 {
			s.st.open.add(line[:len(s.syntax.BlockOpen)+i])
			s.emit()
			return
		}
		s.st.open.add(line)
	case s.syntax.hasLines() && strings.HasPrefix(line, s.syntax.Line):
		s.begin(StyleLineRun, stateInLineRun)
		s.st.open.add(line)
	}
}

func (s *Scanner) begin(style Style, kind stateKind) {
	s.st = state{
		kind: kind,
		open: &Block{File: s.file, Line: s.line, Style: style},
	}
}

func (s *Scanner) emit() {
	s.blocks = append(s.blocks, *s.st.open)
	s.st = state{}
}

// Finish ends the input and returns the blocks in source order. A block
// comment left open is an error and no blocks are returned.
func (s *Scanner) Finish() ([]Block, error) {
	switch s.st.kind {
	case stateInBlock:
		return nil, &UnterminatedError{File: s.file, Line: s.st.open.Line}
	case stateInLineRun:
		s.emit()
	}
	blocks := s.blocks
	s.blocks = nil
	return blocks, nil
}

// Scan feeds every line of r and returns the raw blocks.
func (s *Scanner) Scan(r io.Reader) ([]Block, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		s.Feed(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", s.file, err)
	}
	return s.Finish()
}

// Parse scans r and reflows every block it finds.
func Parse(r io.Reader, file string, syn Syntax) ([]Block, error) {
	raw, err := NewScanner(file, syn).Scan(r)
	if err != nil {
		return nil, err
	}
	blocks := make([]Block, 0, len(raw))
	for _, b := range raw {
		nb, err := b.Reflow(syn)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, nb)
	}
	return blocks, nil
}

// ParseFile opens path and parses its comments.
func ParseFile(path string, syn Syntax) ([]Block, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	return Parse(f, path, syn)
}
