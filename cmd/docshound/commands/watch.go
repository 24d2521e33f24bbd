package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/Aeva/whisperscope/internal/logfields"
	"github.com/Aeva/whisperscope/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Args []string `arg:"" name:"path" help:"Source files or directories, followed by the output directory"`

	Overrides `embed:""`
}

func (w *WatchCmd) Run(glob *Global, root *CLI) error {
	inputs, out, err := splitOutput(w.Args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(root, w.Overrides)
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

	regen := func(ctx context.Context, reason string) error {
		report, err := s.gen.Run(ctx, inputs, out)
		s.flushMetrics()
		if err != nil {
			return err
		}
		printSummary(glob, report)
		if rerr := reportError(report); rerr != nil {
			// Broken sources are reported and watching goes on.
			slog.Warn("Generation finished with errors",
				slog.String("reason", reason),
				logfields.BuildID(report.BuildID),
				logfields.Error(rerr))
		}
		return nil
	}

	watcher, err := watch.New(inputs, watch.Options{
		Extensions: cfg.Extensions,
		Ignore:     out,
		Debounce:   cfg.Watch.Debounce,
		Resync:     cfg.Watch.Resync,
	}, regen)
	if err != nil {
		return err
	}
	return watcher.Run(ctx)
}
