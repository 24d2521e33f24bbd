package commands

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/Aeva/whisperscope/internal/comment"
	"github.com/Aeva/whisperscope/internal/config"
	"github.com/Aeva/whisperscope/internal/docs"
	foundationerrors "github.com/Aeva/whisperscope/internal/foundation/errors"
	"github.com/Aeva/whisperscope/internal/sources"
)

// ScanCmd implements the 'scan' command.
type ScanCmd struct {
	Paths   []string `arg:"" name:"path" help:"Source files or directories"`
	Format  string   `name:"format" short:"f" help:"Output format (text or json)" enum:"text,json" default:"text"`
	Flagged bool     `name:"flagged" help:"Only list comments flagged for export"`
	Marker  string   `name:"marker" help:"Marker that flags a comment for export"`
}

// BlockInfo is one listed comment.
type BlockInfo struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	EndLine int    `json:"end_line"`
	Style   string `json:"style"`
	Flagged bool   `json:"flagged"`
	Hint    string `json:"hint,omitempty"`
	Text    string `json:"text"`
}

func (s *ScanCmd) Run(glob *Global, root *CLI) error {
	cfg, err := loadConfig(root, Overrides{Marker: s.Marker, Workers: -1})
	if err != nil {
		return err
	}
	out := io.Writer(os.Stdout)
	if glob != nil && glob.Out != nil {
		out = glob.Out
	}

	files, _ := sources.Resolve(s.Paths, cfg.Extensions)
	if len(files) == 0 {
		return foundationerrors.ValidationError("no files to parse").
			WithContext("inputs", len(s.Paths)).
			Build()
	}

	infos, failures := collectBlocks(files, cfg, s.Flagged)
	switch s.Format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if infos == nil {
			infos = []BlockInfo{}
		}
		if err := enc.Encode(infos); err != nil {
			return foundationerrors.InternalError("failed to encode blocks").WithCause(err).Build()
		}
	default:
		printBlocks(out, infos)
	}

	for _, f := range failures {
		_, _ = color.New(color.FgRed).Fprintf(out, "%s\n", f.Error())
	}
	if len(failures) > 0 {
		return failures[0]
	}
	return nil
}

func collectBlocks(files []string, cfg *config.Config, flaggedOnly bool) ([]BlockInfo, []error) {
	var (
		infos    []BlockInfo
		failures []error
	)
	for _, path := range files {
		blocks, err := comment.ParseFile(path, cfg.Syntax)
		if err != nil {
			b := foundationerrors.ScanError("failed to scan file").WithCause(err)
			line := 0
			var unterminated *comment.UnterminatedError
			if stderrors.As(err, &unterminated) {
				line = unterminated.Line
			}
			failures = append(failures, b.WithLocation(path, line).Build())
			continue
		}
		for _, blk := range blocks {
			info := BlockInfo{
				File:    path,
				Line:    blk.Line,
				EndLine: blk.EndLine() - 1,
				Style:   blk.Style.String(),
				Flagged: docs.Flagged(blk, cfg.Marker),
				Text:    blk.Text(),
			}
			if flaggedOnly && !info.Flagged {
				continue
			}
			if frag, ok := docs.Extract(blk, cfg.Marker); ok {
				info.Hint = frag.Hint
			}
			infos = append(infos, info)
		}
	}
	return infos, failures
}

func printBlocks(w io.Writer, infos []BlockInfo) {
	loc := color.New(color.FgCyan)
	flag := color.New(color.FgGreen, color.Bold)
	dim := color.New(color.Faint)
	for _, b := range infos {
		_, _ = loc.Fprintf(w, "%s:%d-%d", b.File, b.Line, b.EndLine)
		_, _ = fmt.Fprintf(w, " %-5s", b.Style)
		if b.Flagged {
			_, _ = flag.Fprint(w, " flagged")
			if b.Hint != "" {
				_, _ = fmt.Fprintf(w, " %s", b.Hint)
			}
		} else {
			first, _, _ := strings.Cut(b.Text, "\n")
			_, _ = dim.Fprintf(w, " %s", first)
		}
		_, _ = fmt.Fprintln(w)
	}
}
