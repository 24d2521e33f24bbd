package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aeva/whisperscope/internal/cache"
	"github.com/Aeva/whisperscope/internal/comment"
	"github.com/Aeva/whisperscope/internal/config"
	"github.com/Aeva/whisperscope/internal/convert"
	"github.com/Aeva/whisperscope/internal/docs"
	"github.com/Aeva/whisperscope/internal/events"
	foundationerrors "github.com/Aeva/whisperscope/internal/foundation/errors"
	"github.com/Aeva/whisperscope/internal/metrics"
)

const circleSrc = `// [+] area(r)
// Area of a circle.
function area(r) { return Math.PI * r * r; }
`

const plainSrc = `// helper, not exported
function helper() {}
`

var echo = convert.Func(func(_ context.Context, md string) (string, error) {
	return md + "\n", nil
})

type fixture struct {
	src string
	out string
}

func newFixture(t *testing.T, files map[string]string) fixture {
	t.Helper()
	f := fixture{src: t.TempDir(), out: t.TempDir()}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(f.src, name), []byte(body), 0o600))
	}
	return f
}

func (f fixture) path(name string) string { return filepath.Join(f.src, name) }

func (f fixture) read(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.out, name))
	require.NoError(t, err)
	return string(data)
}

func TestRunOnlyDocumentedFilesGetPages(t *testing.T) {
	f := newFixture(t, map[string]string{
		"zeta.js":  circleSrc,
		"plain.js": plainSrc,
		"alpha.js": "/**\n * [+] alpha()\n * First letter.\n */\n",
	})
	g := NewGenerator(config.Default(), echo)

	report, err := g.Run(context.Background(), []string{f.path("zeta.js"), f.path("plain.js"), f.path("alpha.js")}, f.out)
	require.NoError(t, err)
	assert.False(t, report.Failed())
	assert.NotEmpty(t, report.BuildID)
	assert.Equal(t, 3, report.Files)
	assert.Equal(t, []string{"zeta.rst", "alpha.rst"}, report.PagePaths())
	assert.Equal(t, []string{f.path("plain.js")}, report.Undocumented)
	assert.Equal(t, 2, report.Fragments)
	assert.Equal(t, 3, report.Comments)

	assert.Equal(t, "\n\nzeta.js\n=======\n\narea\n----\n*area* **(r)**\n\nArea of a circle.\n\n\n", f.read(t, "zeta.rst"))
	_, err = os.Stat(filepath.Join(f.out, "plain.rst"))
	assert.True(t, os.IsNotExist(err))

	want := "\n\nAPI Reference\n=============\n\n.. toctree::\n   :maxdepth: 2\n\n   zeta\n   alpha\n"
	assert.Equal(t, want, f.read(t, docs.IndexFile))
}

func TestRunDirectoryInput(t *testing.T) {
	f := newFixture(t, map[string]string{"circle.js": circleSrc, "README.md": "// [+] x\n// y\n"})
	report, err := NewGenerator(config.Default(), echo).Run(context.Background(), []string{f.src}, f.out)
	require.NoError(t, err)
	assert.Equal(t, []string{"circle.rst"}, report.PagePaths())
}

func TestRunIndexTitleAndDepth(t *testing.T) {
	f := newFixture(t, map[string]string{"circle.js": circleSrc})
	cfg := config.Default()
	cfg.Render.IndexTitle = "Shapes"
	cfg.Render.MaxDepth = 1
	_, err := NewGenerator(cfg, echo).Run(context.Background(), []string{f.path("circle.js")}, f.out)
	require.NoError(t, err)
	assert.Equal(t, "\n\nShapes\n======\n\n.. toctree::\n   :maxdepth: 1\n\n   circle\n", f.read(t, docs.IndexFile))
}

func TestRunMissingOutputDir(t *testing.T) {
	f := newFixture(t, map[string]string{"circle.js": circleSrc})
	_, err := NewGenerator(config.Default(), echo).Run(context.Background(), []string{f.path("circle.js")}, filepath.Join(f.out, "missing"))
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConfig))
	assert.Contains(t, err.Error(), "output directory does not exist")
}

func TestRunOutputPathIsFile(t *testing.T) {
	f := newFixture(t, map[string]string{"circle.js": circleSrc})
	_, err := NewGenerator(config.Default(), echo).Run(context.Background(), []string{f.path("circle.js")}, f.path("circle.js"))
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConfig))
}

func TestRunNoInputs(t *testing.T) {
	f := newFixture(t, nil)
	report, err := NewGenerator(config.Default(), echo).Run(context.Background(), []string{f.path("gone.js")}, f.out)
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryValidation))
	assert.Equal(t, []string{f.path("gone.js")}, report.Skipped)
}

func TestRunUnterminatedCommentIsFileScoped(t *testing.T) {
	f := newFixture(t, map[string]string{
		"broken.js": "var a;\n/* oops\nmore text\n",
		"circle.js": circleSrc,
	})
	report, err := NewGenerator(config.Default(), echo).Run(context.Background(), []string{f.path("broken.js"), f.path("circle.js")}, f.out)
	require.NoError(t, err)
	assert.True(t, report.Failed())
	assert.Equal(t, []string{"circle.rst"}, report.PagePaths())
	assert.Empty(t, report.Undocumented)

	require.Len(t, report.Errors, 1)
	fe := report.Errors[0]
	assert.Equal(t, f.path("broken.js"), fe.File)
	assert.Equal(t, 2, fe.Line)
	assert.ErrorIs(t, fe, comment.ErrUnterminatedComment)
	assert.True(t, foundationerrors.HasCategory(fe.Err, foundationerrors.CategoryScan))
	assert.Contains(t, fe.Error(), "broken.js:2")
}

var errPandoc = errors.New("pandoc exploded")

func failOn(marker string) convert.Converter {
	return convert.Func(func(ctx context.Context, md string) (string, error) {
		if strings.Contains(md, marker) {
			return "", errPandoc
		}
		return echo(ctx, md)
	})
}

func TestRunSkipsFailedFragments(t *testing.T) {
	src := "// [+] good()\n// Fine.\n\n// [+] bad()\n// BROKEN body.\n"
	f := newFixture(t, map[string]string{"mixed.js": src})

	report, err := NewGenerator(config.Default(), failOn("BROKEN")).Run(context.Background(), []string{f.path("mixed.js")}, f.out)
	require.NoError(t, err)
	assert.Equal(t, []string{"mixed.rst"}, report.PagePaths())
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 4, report.Errors[0].Line)
	assert.ErrorIs(t, report.Errors[0], errPandoc)
	assert.True(t, foundationerrors.HasCategory(report.Errors[0].Err, foundationerrors.CategoryConvert))

	page := f.read(t, "mixed.rst")
	assert.Contains(t, page, "Fine.")
	assert.NotContains(t, page, "BROKEN")
}

func TestRunAbortPolicyDropsThePage(t *testing.T) {
	src := "// [+] good()\n// Fine.\n\n// [+] bad()\n// BROKEN body.\n"
	f := newFixture(t, map[string]string{"mixed.js": src, "circle.js": circleSrc})
	cfg := config.Default()
	cfg.Render.OnConvertError = docs.PolicyAbort

	report, err := NewGenerator(cfg, failOn("BROKEN")).Run(context.Background(), []string{f.path("mixed.js"), f.path("circle.js")}, f.out)
	require.NoError(t, err)
	assert.Equal(t, []string{"circle.rst"}, report.PagePaths())
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 4, report.Errors[0].Line)
}

func TestRunDuplicatePageNames(t *testing.T) {
	f := newFixture(t, nil)
	for _, dir := range []string{"a", "b"} {
		require.NoError(t, os.MkdirAll(filepath.Join(f.src, dir), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(f.src, dir, "util.js"), []byte(circleSrc), 0o600))
	}
	first, second := filepath.Join(f.src, "a", "util.js"), filepath.Join(f.src, "b", "util.js")

	report, err := NewGenerator(config.Default(), echo).Run(context.Background(), []string{first, second}, f.out)
	require.NoError(t, err)
	assert.Equal(t, []string{"util.rst"}, report.PagePaths())
	assert.Equal(t, first, report.Pages[0].Source)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, second, report.Errors[0].File)
}

func TestRunUsesCache(t *testing.T) {
	f := newFixture(t, map[string]string{"circle.js": circleSrc, "plain.js": plainSrc})
	c, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	var calls atomic.Int32
	counting := convert.Func(func(ctx context.Context, md string) (string, error) {
		calls.Add(1)
		return echo(ctx, md)
	})
	g := NewGenerator(config.Default(), counting, WithCache(c))
	inputs := []string{f.path("circle.js"), f.path("plain.js")}

	first, err := g.Run(context.Background(), inputs, f.out)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Zero(t, first.CacheHits)
	page := f.read(t, "circle.rst")

	require.NoError(t, os.Remove(filepath.Join(f.out, "circle.rst")))
	second, err := g.Run(context.Background(), inputs, f.out)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "cached files are not converted again")
	assert.Equal(t, 2, second.CacheHits)
	assert.Equal(t, []string{"circle.rst"}, second.PagePaths())
	assert.True(t, second.Pages[0].Cached)
	assert.Equal(t, []string{f.path("plain.js")}, second.Undocumented)
	assert.Equal(t, page, f.read(t, "circle.rst"))

	require.NoError(t, os.WriteFile(f.path("circle.js"), []byte(circleSrc+"\n// [+] more()\n// Extra.\n"), 0o600))
	third, err := g.Run(context.Background(), inputs, f.out)
	require.NoError(t, err)
	assert.Equal(t, 1, third.CacheHits)
	assert.Equal(t, 2, third.Fragments)
}

func TestRunCacheKeyIncludesFileName(t *testing.T) {
	f := newFixture(t, map[string]string{"foo.js": circleSrc})
	c, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer func() { _ = c.Close() }()
	g := NewGenerator(config.Default(), echo, WithCache(c))

	_, err = g.Run(context.Background(), []string{f.path("foo.js")}, f.out)
	require.NoError(t, err)
	assert.Contains(t, f.read(t, "foo.rst"), "foo.js")

	require.NoError(t, os.Rename(f.path("foo.js"), f.path("bar.js")))
	report, err := g.Run(context.Background(), []string{f.path("bar.js")}, f.out)
	require.NoError(t, err)
	assert.Zero(t, report.CacheHits)
	page := f.read(t, "bar.rst")
	assert.Contains(t, page, "bar.js")
	assert.NotContains(t, page, "foo.js")
}

func TestRunCachedFilesKeepCommentCount(t *testing.T) {
	f := newFixture(t, map[string]string{"circle.js": circleSrc, "plain.js": plainSrc})
	c, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer func() { _ = c.Close() }()
	g := NewGenerator(config.Default(), echo, WithCache(c))
	inputs := []string{f.path("circle.js"), f.path("plain.js")}

	cold, err := g.Run(context.Background(), inputs, f.out)
	require.NoError(t, err)
	require.Equal(t, 2, cold.Comments)

	warm, err := g.Run(context.Background(), inputs, f.out)
	require.NoError(t, err)
	assert.Equal(t, 2, warm.CacheHits)
	assert.Equal(t, cold.Comments, warm.Comments)
	assert.Equal(t, cold.Fragments, warm.Fragments)
}

type countingRecorder struct {
	metrics.NoopRecorder
	pages     atomic.Int32
	fragments atomic.Int32
	outcome   atomic.Value
}

func (r *countingRecorder) IncPagesWritten()  { r.pages.Add(1) }
func (r *countingRecorder) AddFragments(n int) { r.fragments.Add(int32(n)) }
func (r *countingRecorder) IncBuildOutcome(o metrics.BuildOutcomeLabel) {
	r.outcome.Store(o)
}

type capturePublisher struct {
	mu   sync.Mutex
	sent []events.Generated
}

func (p *capturePublisher) Publish(_ context.Context, e events.Generated) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, e)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func TestRunRecordsMetricsAndPublishes(t *testing.T) {
	f := newFixture(t, map[string]string{"circle.js": circleSrc, "plain.js": plainSrc})
	rec := &countingRecorder{}
	pub := &capturePublisher{}

	report, err := NewGenerator(config.Default(), echo, WithRecorder(rec), WithPublisher(pub)).
		Run(context.Background(), []string{f.path("circle.js"), f.path("plain.js")}, f.out)
	require.NoError(t, err)

	assert.Equal(t, int32(1), rec.pages.Load())
	assert.Equal(t, int32(1), rec.fragments.Load())
	assert.Equal(t, metrics.BuildOutcomeSuccess, rec.outcome.Load())

	require.Len(t, pub.sent, 1)
	assert.Equal(t, report.BuildID, pub.sent[0].BuildID)
	assert.Equal(t, []string{"circle.rst"}, pub.sent[0].Pages)
	assert.Equal(t, f.out, pub.sent[0].OutputDir)
}

func TestRunCanceled(t *testing.T) {
	f := newFixture(t, map[string]string{"circle.js": circleSrc})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewGenerator(config.Default(), echo).Run(ctx, []string{f.path("circle.js")}, f.out)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSettingsFingerprintTracksRenderSettings(t *testing.T) {
	a := config.Default()
	b := config.Default()
	assert.Equal(t, settingsFingerprint(a), settingsFingerprint(b))

	b.Render.Style = docs.StyleDirective
	assert.NotEqual(t, settingsFingerprint(a), settingsFingerprint(b))

	c := config.Default()
	c.Build.Workers = 8
	assert.Equal(t, settingsFingerprint(a), settingsFingerprint(c))
}
