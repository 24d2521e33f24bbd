package comment

import "strings"

// NoiseSet is the set of characters that carry no meaning when measuring the
// indentation shared by the lines of a comment.
type NoiseSet string

const (
	// LineNoise is used for consecutive line comments.
	LineNoise NoiseSet = " \t"
	// BlockNoise also treats the '*' continuation gutter of block comments as
	// indentation.
	BlockNoise NoiseSet = " \t*"
)

func (n NoiseSet) contains(c byte) bool {
	return strings.IndexByte(string(n), c) >= 0
}

// only reports whether every character of s is noise.
func (n NoiseSet) only(s string) bool {
	for i := 0; i < len(s); i++ {
		if !n.contains(s[i]) {
			return false
		}
	}
	return true
}

// CommonPrefix returns how many leading characters lhs and rhs share. With a
// non-empty noise set the run also stops at the first character that is not
// noise, so only shared indentation is counted.
func CommonPrefix(lhs, rhs string, noise NoiseSet) int {
	n := min(len(lhs), len(rhs))
	common := 0
	for i := 0; i < n; i++ {
		if lhs[i] != rhs[i] {
			break
		}
		if noise != "" && !noise.contains(lhs[i]) {
			break
		}
		common++
	}
	return common
}

// FindIndentation returns the indentation shared by lines: the smallest
// CommonPrefix over all adjacent pairs. Pairs where either line is empty or
// made only of noise are ignored. Fewer than two lines, or no usable pair,
// yields 0.
func FindIndentation(lines []string, noise NoiseSet) int {
	if len(lines) < 2 {
		return 0
	}
	best := -1
	for i := 1; i < len(lines); i++ {
		lhs, rhs := lines[i-1], lines[i]
		if lhs == "" || rhs == "" {
			continue
		}
		if noise.only(lhs) || noise.only(rhs) {
			continue
		}
		if c := CommonPrefix(lhs, rhs, noise); best < 0 || c < best {
			best = c
		}
	}
	if best < 0 {
		return 0
	}
	return best
}
