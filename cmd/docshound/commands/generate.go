package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/Aeva/whisperscope/internal/build"
)

// GenerateCmd implements the 'generate' command.
type GenerateCmd struct {
	Args []string `arg:"" name:"path" help:"Source files or directories, followed by the output directory"`

	Overrides `embed:""`
}

func (g *GenerateCmd) Run(glob *Global, root *CLI) error {
	inputs, out, err := splitOutput(g.Args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(root, g.Overrides)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s, err := newSession(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := s.gen.Run(ctx, inputs, out)
	s.flushMetrics()
	if err != nil {
		return err
	}
	printSummary(glob, report)
	return reportError(report)
}

func printSummary(glob *Global, r *build.Report) {
	if glob == nil || glob.Out == nil {
		return
	}
	_, _ = fmt.Fprintf(glob.Out, "%d page(s) from %d file(s) in %s (%d fragment(s), %d cached)\n",
		len(r.Pages), r.Files, r.OutputDir, r.Fragments, r.CacheHits)
	for _, e := range r.Errors {
		_, _ = fmt.Fprintf(glob.Out, "  error: %s\n", e.Error())
	}
}
