package build

import (
	"fmt"
	"time"

	"github.com/Aeva/whisperscope/internal/metrics"
)

// PageResult describes one written page.
type PageResult struct {
	Source    string
	DocPath   string
	Fragments int
	Cached    bool
}

// FileError is a failure scoped to one source file. Line is the comment line
// when known, 0 otherwise.
type FileError struct {
	File string
	Line int
	Err  error
}

func (e FileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e FileError) Unwrap() error { return e.Err }

// Report is the outcome of one Run.
type Report struct {
	BuildID   string
	OutputDir string
	// Files is the number of source files after resolution.
	Files int
	// Pages lists the written pages in input order.
	Pages []PageResult
	// Undocumented lists files without flagged comments.
	Undocumented []string
	// Skipped lists inputs that were not existing regular files.
	Skipped   []string
	Errors    []FileError
	Comments  int
	Fragments int
	CacheHits int
	Duration  time.Duration
}

// Failed reports whether any file or fragment failed.
func (r *Report) Failed() bool {
	return len(r.Errors) > 0
}

// PagePaths returns the written page file names in order.
func (r *Report) PagePaths() []string {
	out := make([]string, 0, len(r.Pages))
	for _, p := range r.Pages {
		out = append(out, p.DocPath)
	}
	return out
}

// Outcome maps the report to a metrics label.
func (r *Report) Outcome() metrics.BuildOutcomeLabel {
	switch {
	case len(r.Errors) > 0 && len(r.Pages) == 0:
		return metrics.BuildOutcomeFailed
	case len(r.Errors) > 0:
		return metrics.BuildOutcomeWarning
	default:
		return metrics.BuildOutcomeSuccess
	}
}
