package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/Aeva/whisperscope/internal/build"
	"github.com/Aeva/whisperscope/internal/cache"
	"github.com/Aeva/whisperscope/internal/config"
	"github.com/Aeva/whisperscope/internal/convert"
	"github.com/Aeva/whisperscope/internal/docs"
	"github.com/Aeva/whisperscope/internal/events"
	foundationerrors "github.com/Aeva/whisperscope/internal/foundation/errors"
	"github.com/Aeva/whisperscope/internal/logfields"
	"github.com/Aeva/whisperscope/internal/metrics"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
	// Out receives command output that is not logging.
	Out io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"docshound.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Generate GenerateCmd `cmd:"" default:"withargs" help:"Generate reference pages from flagged comments (default)"`
	Scan     ScanCmd     `cmd:"" help:"List the comment blocks found in source files"`
	Watch    WatchCmd    `cmd:"" help:"Regenerate reference pages whenever sources change"`
	Init     InitCmd     `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// Overrides are the generation settings that can come from flags.
type Overrides struct {
	Converter   string `name:"converter" help:"Markdown converter backend (pandoc or native)"`
	Marker      string `name:"marker" help:"Marker that flags a comment for export"`
	Style       string `name:"style" help:"Page layout (section or directive)"`
	Workers     int    `name:"workers" help:"Files processed in parallel (0 = number of CPUs)" default:"-1"`
	NoCache     bool   `name:"no-cache" help:"Do not read or write the render cache"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics to this file after the run"`
}

func (o Overrides) apply(cfg *config.Config) error {
	if o.Converter != "" {
		cfg.Convert.Backend = convert.Backend(strings.ToLower(o.Converter))
	}
	if o.Marker != "" {
		cfg.Marker = o.Marker
	}
	if o.Style != "" {
		cfg.Render.Style = docs.Style(strings.ToLower(o.Style))
	}
	if o.Workers >= 0 {
		cfg.Build.Workers = o.Workers
	}
	if o.NoCache {
		cfg.Build.Cache = ""
	}
	if o.MetricsFile != "" {
		cfg.Build.MetricsFile = o.MetricsFile
	}
	return config.ValidateConfig(cfg)
}

// loadConfig reads the configuration named by the root flags and applies
// the command line overrides.
func loadConfig(root *CLI, o Overrides) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		if _, ok := foundationerrors.AsClassified(err); ok {
			return nil, err
		}
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to load configuration").
			WithContext("path", root.Config).
			Build()
	}
	if err := o.apply(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// session owns the collaborators of a Generator for the lifetime of one
// command.
type session struct {
	gen       *build.Generator
	cache     *cache.Cache
	publisher events.Publisher
	recorder  *metrics.PrometheusRecorder
	metrics   string
}

func newSession(cfg *config.Config) (*session, error) {
	conv, err := convert.New(cfg.ConverterOptions())
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "invalid converter").
			WithContext("field", "convert.backend").
			Build()
	}

	s := &session{metrics: cfg.Build.MetricsFile}
	opts := []build.Option{}

	if s.metrics != "" {
		s.recorder = metrics.NewPrometheusRecorder(nil)
		opts = append(opts, build.WithRecorder(s.recorder))
	}

	if cfg.Build.Cache != "" {
		c, err := cache.Open(cfg.Build.Cache)
		if err != nil {
			return nil, foundationerrors.WrapError(err, foundationerrors.CategoryCache, "failed to open render cache").
				WithContext("path", cfg.Build.Cache).
				Build()
		}
		s.cache = c
		opts = append(opts, build.WithCache(c))
	}

	pub, err := events.New(cfg.Events.NATSURL, cfg.Events.Subject)
	if err != nil {
		// Announcing is optional; generation goes ahead without it.
		slog.Warn("Events disabled", logfields.Subject(cfg.Events.Subject), logfields.Error(err))
		pub = events.Noop{}
	}
	s.publisher = pub
	opts = append(opts, build.WithPublisher(pub))

	slog.Debug("Generator ready",
		logfields.Converter(string(cfg.Convert.Backend)),
		logfields.Style(string(cfg.Render.Style)),
		slog.Bool("cache", s.cache != nil),
		slog.Bool("events", cfg.Events.NATSURL != ""))

	s.gen = build.NewGenerator(cfg, conv, opts...)
	return s, nil
}

// flushMetrics writes the metrics textfile if one is configured.
func (s *session) flushMetrics() {
	if s.recorder == nil {
		return
	}
	if err := metrics.WriteTextfile(s.metrics, s.recorder.Registry()); err != nil {
		slog.Warn("Failed to write metrics file", logfields.Path(s.metrics), logfields.Error(err))
	}
}

func (s *session) Close() {
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			slog.Warn("Failed to close render cache", logfields.Error(err))
		}
	}
	if err := s.publisher.Close(); err != nil {
		slog.Warn("Failed to close event publisher", logfields.Error(err))
	}
}

// splitOutput separates "<src>... <out>" positionals.
func splitOutput(args []string) (inputs []string, out string, err error) {
	if len(args) < 2 {
		return nil, "", foundationerrors.ValidationError("expected at least one source and an output directory").
			WithContext("args", len(args)).
			Build()
	}
	return args[:len(args)-1], args[len(args)-1], nil
}

// reportError turns a report with failures into a classified error so the
// command exits non-zero.
func reportError(r *build.Report) error {
	if !r.Failed() {
		return nil
	}
	first := r.Errors[0]
	cat := foundationerrors.CategoryRender
	if c, ok := foundationerrors.AsClassified(first.Err); ok {
		cat = c.Category()
	}
	b := foundationerrors.NewError(cat, fmt.Sprintf("%d file(s) failed, first: %s", len(r.Errors), first.Error())).
		WithLocation(first.File, first.Line).
		WithContext("pages", len(r.Pages))
	return b.Build()
}
