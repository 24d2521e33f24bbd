package comment

import "errors"

// Syntax holds the comment delimiters of a source language. An empty marker
// disables that comment form.
type Syntax struct {
	BlockOpen  string `yaml:"block_open" json:"block_open"`
	BlockClose string `yaml:"block_close" json:"block_close"`
	Line       string `yaml:"line" json:"line"`
}

// CStyle is the delimiter set shared by JavaScript, C, Go and friends.
var CStyle = Syntax{BlockOpen: "/*", BlockClose: "*/", Line: "//"}

// Validate checks that the syntax can be scanned unambiguously.
func (s Syntax) Validate() error {
	if s.BlockOpen == "" && s.Line == "" {
		return errors.New("comment syntax defines neither block nor line comments")
	}
	if (s.BlockOpen == "") != (s.BlockClose == "") {
		return errors.New("block comments need both an open and a close marker")
	}
	if s.BlockOpen != "" && s.BlockOpen == s.Line {
		return errors.New("block open marker and line marker must differ")
	}
	return nil
}

func (s Syntax) hasBlocks() bool { return s.BlockOpen != "" && s.BlockClose != "" }
func (s Syntax) hasLines() bool  { return s.Line != "" }
