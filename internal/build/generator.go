package build

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/Aeva/whisperscope/internal/cache"
	"github.com/Aeva/whisperscope/internal/comment"
	"github.com/Aeva/whisperscope/internal/config"
	"github.com/Aeva/whisperscope/internal/convert"
	"github.com/Aeva/whisperscope/internal/docs"
	"github.com/Aeva/whisperscope/internal/events"
	foundationerrors "github.com/Aeva/whisperscope/internal/foundation/errors"
	"github.com/Aeva/whisperscope/internal/logfields"
	"github.com/Aeva/whisperscope/internal/metrics"
	"github.com/Aeva/whisperscope/internal/sources"
	"github.com/Aeva/whisperscope/internal/version"
)

// Generator turns source files into reference pages.
type Generator struct {
	cfg       *config.Config
	converter convert.Converter
	recorder  metrics.Recorder
	cache     *cache.Cache
	publisher events.Publisher
	settings  string
}

// Option configures a Generator.
type Option func(*Generator)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(g *Generator) { g.recorder = r }
}

// WithCache enables the render cache.
func WithCache(c *cache.Cache) Option {
	return func(g *Generator) { g.cache = c }
}

// WithPublisher sets where the run announcement goes.
func WithPublisher(p events.Publisher) Option {
	return func(g *Generator) { g.publisher = p }
}

// NewGenerator returns a Generator for cfg using conv for markdown.
func NewGenerator(cfg *config.Config, conv convert.Converter, opts ...Option) *Generator {
	g := &Generator{
		cfg:       cfg,
		converter: conv,
		recorder:  metrics.NoopRecorder{},
		publisher: events.Noop{},
	}
	for _, opt := range opts {
		opt(g)
	}
	g.settings = settingsFingerprint(cfg)
	return g
}

// settingsFingerprint serializes everything that changes the rendered page
// for a given source text.
func settingsFingerprint(cfg *config.Config) string {
	data, err := yaml.Marshal(struct {
		Version   string         `yaml:"version"`
		Marker    string         `yaml:"marker"`
		Syntax    comment.Syntax `yaml:"syntax"`
		Style     docs.Style     `yaml:"style"`
		Directive string         `yaml:"directive"`
		Backend   string         `yaml:"backend"`
	}{
		Version:   version.Version,
		Marker:    cfg.Marker,
		Syntax:    cfg.Syntax,
		Style:     cfg.Render.Style,
		Directive: cfg.Render.Directive,
		Backend:   string(cfg.Convert.Backend),
	})
	if err != nil {
		return fmt.Sprintf("%+v", cfg)
	}
	return string(bytes.TrimSuffix(data, []byte("\n")))
}

type fileResult struct {
	source    string
	page      *docs.Page
	text      string
	comments  int
	fragments int
	cached    bool
	errs      []FileError
}

// Run generates pages for inputs into outDir. Failures of single files are
// collected in the report and do not stop the run; the returned error is
// reserved for problems that prevent generation altogether.
func (g *Generator) Run(ctx context.Context, inputs []string, outDir string) (*Report, error) {
	start := time.Now()
	report := &Report{BuildID: uuid.NewString(), OutputDir: outDir}

	if info, err := os.Stat(outDir); err != nil || !info.IsDir() {
		return report, foundationerrors.ConfigError("output directory does not exist").
			WithContext("path", outDir).
			Build()
	}

	files, skipped := sources.Resolve(inputs, g.cfg.Extensions)
	report.Skipped = skipped
	for _, s := range skipped {
		slog.Warn("Skipping input that is not a source file", logfields.Path(s))
	}
	if len(files) == 0 {
		return report, foundationerrors.ValidationError("no files to parse").
			WithContext("inputs", len(inputs)).
			Build()
	}
	report.Files = len(files)

	workers := g.cfg.Build.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	slog.Info("Generating reference pages",
		logfields.BuildID(report.BuildID),
		logfields.Files(len(files)),
		logfields.Workers(workers),
		logfields.Path(outDir))

	renderer := &docs.Renderer{
		Converter: g.instrument(g.converter),
		Style:     g.cfg.Render.Style,
		Directive: g.cfg.Render.Directive,
	}

	// Each goroutine writes only its own slot.
	results := make([]fileResult, len(files))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(min(workers, len(files)))
	for i, path := range files {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = g.processFile(gctx, renderer, path)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		g.recorder.IncBuildOutcome(metrics.BuildOutcomeCanceled)
		return report, err
	}
	if err := ctx.Err(); err != nil {
		g.recorder.IncBuildOutcome(metrics.BuildOutcomeCanceled)
		return report, err
	}

	if err := g.writePages(report, results, outDir); err != nil {
		return report, err
	}

	report.Duration = time.Since(start)
	g.recorder.ObserveBuildDuration(report.Duration)
	g.recorder.IncBuildOutcome(report.Outcome())
	slog.Info("Generation finished",
		logfields.BuildID(report.BuildID),
		slog.Int("pages", len(report.Pages)),
		logfields.Fragments(report.Fragments),
		slog.Int("errors", len(report.Errors)),
		logfields.DurationMS(float64(report.Duration.Milliseconds())))

	g.announce(ctx, report)
	return report, nil
}

func (g *Generator) writePages(report *Report, results []fileResult, outDir string) error {
	written := make(map[string]string)
	var pages []*docs.Page
	for _, res := range results {
		report.Comments += res.comments
		report.Fragments += res.fragments
		report.Errors = append(report.Errors, res.errs...)
		if res.cached {
			report.CacheHits++
		}
		if res.page == nil {
			if len(res.errs) == 0 {
				report.Undocumented = append(report.Undocumented, res.source)
			}
			continue
		}
		if prev, dup := written[res.page.DocPath]; dup {
			err := foundationerrors.ValidationError("page name already used").
				WithContext("page", res.page.DocPath).
				WithContext("previous", prev).
				Build()
			slog.Warn("Skipping page with a duplicate name", logfields.File(res.source), logfields.Page(res.page.DocPath), slog.String("previous", prev))
			report.Errors = append(report.Errors, FileError{File: res.source, Err: err})
			continue
		}

		target := filepath.Join(outDir, res.page.DocPath)
		if err := os.WriteFile(target, []byte(res.text), 0o644); err != nil {
			return foundationerrors.FileSystemError("failed to write page").
				WithCause(err).
				WithContext("path", target).
				Build()
		}
		written[res.page.DocPath] = res.source
		pages = append(pages, res.page)
		g.recorder.IncPagesWritten()
		report.Pages = append(report.Pages, PageResult{
			Source:    res.source,
			DocPath:   res.page.DocPath,
			Fragments: res.fragments,
			Cached:    res.cached,
		})
		slog.Debug("Wrote page", logfields.Page(target), logfields.Fragments(res.fragments), logfields.CacheHit(res.cached))
	}

	index := docs.NewIndex(pages)
	index.Title = g.cfg.Render.IndexTitle
	index.MaxDepth = g.cfg.Render.MaxDepth
	target := filepath.Join(outDir, docs.IndexFile)
	if err := os.WriteFile(target, []byte(index.Render()), 0o644); err != nil {
		return foundationerrors.FileSystemError("failed to write index").
			WithCause(err).
			WithContext("path", target).
			Build()
	}
	return nil
}

// processFile scans and renders one file. Its errors are returned in the
// result, never as a failure of the whole run.
func (g *Generator) processFile(ctx context.Context, r *docs.Renderer, path string) fileResult {
	start := time.Now()
	res := fileResult{source: path}

	data, err := os.ReadFile(path)
	if err != nil {
		res.errs = append(res.errs, g.fileError(path, 0,
			foundationerrors.FileSystemError("failed to read source").
				WithCause(err).
				WithSeverity(foundationerrors.SeverityError).
				WithLocation(path, 0).
				Build()))
		g.recorder.IncFileResult(metrics.ResultFailed)
		return res
	}

	key := ""
	if g.cache != nil {
		key = cache.Key(g.settings, filepath.Base(path), string(data))
		if entry, ok := g.lookup(ctx, key); ok {
			res.cached = true
			res.comments = entry.Comments
			res.fragments = entry.Fragments
			g.recorder.AddComments(entry.Comments)
			if entry.Fragments > 0 {
				res.page = docs.NewPage(path, nil)
				res.text = entry.Page
			}
			g.recorder.IncFileResult(metrics.ResultSkipped)
			return res
		}
	}

	blocks, err := comment.Parse(bytes.NewReader(data), path, g.cfg.Syntax)
	if err != nil {
		line := 0
		var unterminated *comment.UnterminatedError
		if stderrors.As(err, &unterminated) {
			line = unterminated.Line
		}
		res.errs = append(res.errs, g.fileError(path, line,
			foundationerrors.ScanError("failed to scan comments").
				WithCause(err).
				WithLocation(path, line).
				Build()))
		g.recorder.IncFileResult(metrics.ResultFailed)
		return res
	}

	frags := docs.Select(blocks, g.cfg.Marker)
	res.comments = len(blocks)
	res.fragments = len(frags)
	g.recorder.AddComments(len(blocks))
	g.recorder.AddFragments(len(frags))
	slog.Debug("Scanned file", logfields.File(path), logfields.Comments(len(blocks)), logfields.Fragments(len(frags)), logfields.Since(start))

	if len(frags) == 0 {
		g.recorder.IncFileResult(metrics.ResultSuccess)
		g.store(ctx, key, cache.Entry{Source: path, Comments: len(blocks)})
		return res
	}

	page := docs.NewPage(path, frags)
	text, failed, err := page.Render(ctx, r, g.cfg.Render.OnConvertError)
	for _, rerr := range failed {
		slog.Warn("Skipping fragment that failed to render",
			logfields.File(rerr.File), logfields.Line(rerr.Line), logfields.Error(rerr.Err))
		res.errs = append(res.errs, g.convertError(rerr))
	}
	if err != nil {
		var rerr *docs.RenderError
		if stderrors.As(err, &rerr) {
			res.errs = append(res.errs, g.convertError(rerr))
		} else {
			res.errs = append(res.errs, g.fileError(path, 0, err))
		}
		g.recorder.IncFileResult(metrics.ResultFailed)
		return res
	}

	res.page = page
	res.text = text
	if len(failed) == 0 {
		g.recorder.IncFileResult(metrics.ResultSuccess)
		g.store(ctx, key, cache.Entry{Source: path, Page: text, Comments: len(blocks), Fragments: len(frags)})
	} else {
		g.recorder.IncFileResult(metrics.ResultFailed)
	}
	return res
}

func (g *Generator) fileError(path string, line int, err error) FileError {
	slog.Error("Failed to process file", logfields.File(path), logfields.Line(line), logfields.Error(err))
	return FileError{File: path, Line: line, Err: err}
}

func (g *Generator) convertError(rerr *docs.RenderError) FileError {
	err := foundationerrors.ConvertError("failed to convert fragment").
		WithCause(rerr.Err).
		WithLocation(rerr.File, rerr.Line).
		Build()
	return FileError{File: rerr.File, Line: rerr.Line, Err: err}
}

func (g *Generator) lookup(ctx context.Context, key string) (cache.Entry, bool) {
	entry, ok, err := g.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("Render cache lookup failed", logfields.Error(err))
		return cache.Entry{}, false
	}
	g.recorder.IncCacheResult(ok)
	return entry, ok
}

func (g *Generator) store(ctx context.Context, key string, e cache.Entry) {
	if g.cache == nil || key == "" {
		return
	}
	if err := g.cache.Put(ctx, key, e); err != nil {
		slog.Warn("Render cache update failed", logfields.File(e.Source), logfields.Error(err))
	}
}

// instrument times every conversion.
func (g *Generator) instrument(c convert.Converter) convert.Converter {
	backend := string(g.cfg.Convert.Backend)
	return convert.Func(func(ctx context.Context, markdown string) (string, error) {
		start := time.Now()
		out, err := c.Convert(ctx, markdown)
		g.recorder.ObserveConvertDuration(backend, time.Since(start), err == nil)
		return out, err
	})
}

func (g *Generator) announce(ctx context.Context, report *Report) {
	err := g.publisher.Publish(ctx, events.Generated{
		BuildID:    report.BuildID,
		OutputDir:  report.OutputDir,
		Pages:      report.PagePaths(),
		Fragments:  report.Fragments,
		Failed:     len(report.Errors),
		DurationMS: report.Duration.Milliseconds(),
	})
	if err != nil {
		classified := foundationerrors.EventsError("failed to publish generation event").
			WithCause(err).
			WithContext("build_id", report.BuildID).
			Build()
		slog.Warn("Failed to publish generation event", logfields.BuildID(report.BuildID), logfields.Error(classified))
	}
}
