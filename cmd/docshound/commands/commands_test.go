package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aeva/whisperscope/internal/build"
	foundationerrors "github.com/Aeva/whisperscope/internal/foundation/errors"
)

const shapesSrc = `/** [+] circle(r)
 * Draws a circle of radius *r*.
 */
function circle(r) {}

// plain comment
`

// run parses args like the docshound binary and runs the selected command
// inside a fresh working directory.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("docshound"),
		kong.Exit(func(int) { t.Fatalf("unexpected exit for %v", args) }),
		kong.Vars{"version": "test"},
	)
	require.NoError(t, err)

	ctx, err := parser.Parse(args)
	require.NoError(t, err)

	var out bytes.Buffer
	err = ctx.Run(&Global{Out: &out}, &cli)
	return out.String(), err
}

func workspace(t *testing.T) (src, out string) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	src = filepath.Join(dir, "src")
	out = filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(src, 0o755))
	require.NoError(t, os.Mkdir(out, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "shapes.js"), []byte(shapesSrc), 0o644))
	return src, out
}

func TestGenerateWritesPages(t *testing.T) {
	src, out := workspace(t)

	stdout, err := run(t, "generate", "--converter", "native", "--no-cache", src, out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 page(s) from 1 file(s)")

	page, err := os.ReadFile(filepath.Join(out, "shapes.rst"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "shapes.js\n=========")
	assert.Contains(t, string(page), "circle\n------")

	index, err := os.ReadFile(filepath.Join(out, "index.rst"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "   shapes\n")
}

func TestGenerateIsDefaultCommand(t *testing.T) {
	src, out := workspace(t)
	cfg := "convert:\n  backend: native\nbuild:\n  cache: \"\"\n"
	require.NoError(t, os.WriteFile("docshound.yaml", []byte(cfg), 0o644))

	_, err := run(t, filepath.Join(src, "shapes.js"), out)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "shapes.rst"))
}

func TestGenerateMissingOutputDir(t *testing.T) {
	src, out := workspace(t)

	_, err := run(t, "generate", "--converter", "native", "--no-cache", src, filepath.Join(out, "nope"))
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConfig))
	assert.Equal(t, 7, foundationerrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestGenerateNeedsOutputArgument(t *testing.T) {
	src, _ := workspace(t)

	_, err := run(t, "generate", src)
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryValidation))
}

func TestGenerateRejectsUnknownConverter(t *testing.T) {
	src, out := workspace(t)

	_, err := run(t, "generate", "--converter", "troff", src, out)
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConfig))
}

func TestGenerateFailsOnBrokenSource(t *testing.T) {
	src, out := workspace(t)
	require.NoError(t, os.WriteFile(filepath.Join(src, "broken.js"), []byte("/* [+] never closed\n"), 0o644))

	stdout, err := run(t, "generate", "--converter", "native", "--no-cache", src, out)
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryScan))
	assert.Contains(t, stdout, "broken.js")
	// The healthy file still produced its page.
	assert.FileExists(t, filepath.Join(out, "shapes.rst"))
}

func TestGenerateWritesMetricsFile(t *testing.T) {
	src, out := workspace(t)
	metricsFile := filepath.Join(t.TempDir(), "docshound.prom")

	_, err := run(t, "generate", "--converter", "native", "--no-cache", "--metrics-file", metricsFile, src, out)
	require.NoError(t, err)

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "docshound_pages_written_total 1")
}

func TestGenerateUsesCache(t *testing.T) {
	src, out := workspace(t)

	_, err := run(t, "generate", "--converter", "native", src, out)
	require.NoError(t, err)
	assert.FileExists(t, ".docshound-cache.db")

	stdout, err := run(t, "generate", "--converter", "native", src, out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 cached")
}

func TestScanJSON(t *testing.T) {
	src, _ := workspace(t)

	stdout, err := run(t, "scan", "--format", "json", src)
	require.NoError(t, err)

	var blocks []BlockInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &blocks))
	require.Len(t, blocks, 2)
	assert.Equal(t, 1, blocks[0].Line)
	assert.Equal(t, 3, blocks[0].EndLine)
	assert.Equal(t, "block", blocks[0].Style)
	assert.True(t, blocks[0].Flagged)
	assert.Equal(t, "circle(r)", blocks[0].Hint)
	assert.False(t, blocks[1].Flagged)
	assert.Equal(t, "line", blocks[1].Style)
	assert.Equal(t, "plain comment", blocks[1].Text)
}

func TestScanFlaggedText(t *testing.T) {
	src, _ := workspace(t)

	stdout, err := run(t, "scan", "--flagged", src)
	require.NoError(t, err)
	assert.Contains(t, stdout, "shapes.js:1-3")
	assert.Contains(t, stdout, "flagged circle(r)")
	assert.NotContains(t, stdout, "plain comment")
}

func TestScanReportsUnterminated(t *testing.T) {
	src, _ := workspace(t)
	require.NoError(t, os.WriteFile(filepath.Join(src, "broken.js"), []byte("x\n/* open\n"), 0o644))

	_, err := run(t, "scan", src)
	require.Error(t, err)
	classified, ok := foundationerrors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, foundationerrors.CategoryScan, classified.Category())
	line, _ := classified.Context().Get("line")
	assert.Equal(t, 2, line)
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	stdout, err := run(t, "init")
	require.NoError(t, err)
	assert.Contains(t, stdout, "docshound.yaml")
	assert.FileExists(t, filepath.Join(dir, "docshound.yaml"))

	_, err = run(t, "init")
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConfig))

	_, err = run(t, "init", "--force")
	require.NoError(t, err)
}

func TestReportError(t *testing.T) {
	assert.NoError(t, reportError(&build.Report{}))

	err := reportError(&build.Report{Errors: []build.FileError{{
		File: "a.js",
		Line: 3,
		Err:  foundationerrors.ConvertError("pandoc failed").Build(),
	}}})
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConvert))
	assert.Contains(t, err.Error(), "a.js:3")
}
