package commands

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bookbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

const testBookConfig = `site:
  title: Test Book
build:
  workers: 2
history:
  enabled: true
`

func writeBook(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	base := map[string]string{
		"bookbuilder.yaml":         testBookConfig,
		"manuscript/chapters.yaml": "- id: intro\n  title: Introduction\n- id: usage\n  title: Usage\n",
		"manuscript/index.md":      "# Test Book\n\n<div id=\"chapter-index\"></div>\n",
		"manuscript/01-intro.md":   "# Introduction\n\nHello.\n",
		"manuscript/02-usage.md":   "# Usage\n\nMore.\n",
	}
	for k, v := range files {
		base[k] = v
	}
	for name, content := range base {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

func testGlobal() (*Global, *bytes.Buffer) {
	var out bytes.Buffer
	return &Global{Logger: slog.Default(), Out: &out, LogOutput: &bytes.Buffer{}}, &out
}

func TestBuildCmd_WritesBook(t *testing.T) {
	dir := writeBook(t, nil)
	g, out := testGlobal()
	root := &CLI{Config: filepath.Join(dir, "bookbuilder.yaml")}

	require.NoError(t, (&BuildCmd{}).Run(g, root))

	assert.FileExists(t, filepath.Join(dir, "_book", "intro.html"))
	assert.FileExists(t, filepath.Join(dir, "_book", "usage.html"))
	assert.FileExists(t, filepath.Join(dir, "_book", "manifest.json"))
	assert.Contains(t, out.String(), "Built 3 pages")
	assert.Contains(t, out.String(), "success")
}

func TestBuildCmd_OutputOverride(t *testing.T) {
	dir := writeBook(t, nil)
	g, _ := testGlobal()
	root := &CLI{Config: filepath.Join(dir, "bookbuilder.yaml")}
	alt := filepath.Join(dir, "public")

	require.NoError(t, (&BuildCmd{Output: alt, Workers: 1}).Run(g, root))

	assert.FileExists(t, filepath.Join(alt, "index.html"))
	assert.NoDirExists(t, filepath.Join(dir, "_book"))
}

func TestBuildCmd_NegativeWorkers(t *testing.T) {
	dir := writeBook(t, nil)
	g, _ := testGlobal()
	root := &CLI{Config: filepath.Join(dir, "bookbuilder.yaml")}

	err := (&BuildCmd{Workers: -1}).Run(g, root)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestBuildCmd_MissingChapterReported(t *testing.T) {
	dir := writeBook(t, map[string]string{
		"manuscript/chapters.yaml": "- id: intro\n  title: Introduction\n- id: appendix\n  title: Appendix\n",
	})
	g, out := testGlobal()
	root := &CLI{Config: filepath.Join(dir, "bookbuilder.yaml")}

	err := (&BuildCmd{}).Run(g, root)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryMetadata))
	assert.Contains(t, out.String(), `missing page for chapter "appendix"`)
}

func TestInitCmd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bookbuilder.yaml")
	g, out := testGlobal()
	root := &CLI{Config: path}

	require.NoError(t, (&InitCmd{}).Run(g, root))
	assert.Contains(t, out.String(), "Wrote "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "My Book", cfg.Site.Title)

	err = (&InitCmd{}).Run(g, root)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))

	require.NoError(t, (&InitCmd{Force: true}).Run(g, root))
}

func TestChaptersCmd(t *testing.T) {
	dir := writeBook(t, nil)
	g, out := testGlobal()
	root := &CLI{Config: filepath.Join(dir, "bookbuilder.yaml")}

	require.NoError(t, (&ChaptersCmd{}).Run(g, root))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "ORDINAL")
	assert.Contains(t, lines[1], "intro")
	assert.Contains(t, lines[1], "Introduction")
	assert.Contains(t, lines[2], "usage")
	assert.Contains(t, lines[3], "2 chapters")
}

func TestChaptersCmd_MalformedFile(t *testing.T) {
	dir := writeBook(t, map[string]string{"manuscript/chapters.yaml": "- id: [\n"})
	g, _ := testGlobal()
	root := &CLI{Config: filepath.Join(dir, "bookbuilder.yaml")}

	err := (&ChaptersCmd{}).Run(g, root)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryMetadata))
}

func TestStepsCmd(t *testing.T) {
	dir := writeBook(t, nil)
	root := &CLI{Config: filepath.Join(dir, "bookbuilder.yaml")}

	t.Run("text", func(t *testing.T) {
		g, out := testGlobal()
		require.NoError(t, (&StepsCmd{Format: "text"}).Run(g, root))
		assert.Contains(t, out.String(), "navigation")
		assert.Contains(t, out.String(), "footnotes")
		assert.NotContains(t, out.String(), "livereload")
	})

	t.Run("unknown format", func(t *testing.T) {
		g, _ := testGlobal()
		err := (&StepsCmd{Format: "dot"}).Run(g, root)
		assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
	})

	t.Run("mermaid to file", func(t *testing.T) {
		g, out := testGlobal()
		target := filepath.Join(dir, "pipeline.mmd")
		require.NoError(t, (&StepsCmd{Format: "MMD", Output: target}).Run(g, root))
		assert.Empty(t, out.String())
		data, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Contains(t, string(data), "graph TD")
	})
}

func TestHistoryCmd(t *testing.T) {
	dir := writeBook(t, nil)
	root := &CLI{Config: filepath.Join(dir, "bookbuilder.yaml")}

	g, out := testGlobal()
	require.NoError(t, (&HistoryCmd{Limit: 10}).Run(g, root))
	assert.Contains(t, out.String(), "No builds recorded.")

	require.NoError(t, (&BuildCmd{}).Run(g, root))
	require.NoError(t, (&BuildCmd{}).Run(g, root))

	g, out = testGlobal()
	require.NoError(t, (&HistoryCmd{Limit: 1}).Run(g, root))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "success")
}

func TestHistoryCmd_Disabled(t *testing.T) {
	dir := writeBook(t, map[string]string{"bookbuilder.yaml": "site:\n  title: Test Book\n"})
	g, out := testGlobal()
	root := &CLI{Config: filepath.Join(dir, "bookbuilder.yaml")}

	require.NoError(t, (&HistoryCmd{}).Run(g, root))
	assert.Contains(t, out.String(), "disabled")
}

func TestLogLevelPrecedence(t *testing.T) {
	t.Setenv("BOOKBUILDER_LOG_LEVEL", "warn")

	assert.Equal(t, slog.LevelDebug, (&CLI{Verbose: true}).logLevel(config.LogLevelError))
	assert.Equal(t, slog.LevelWarn, (&CLI{}).logLevel(config.LogLevelError))

	t.Setenv("BOOKBUILDER_LOG_LEVEL", "")
	assert.Equal(t, slog.LevelError, (&CLI{}).logLevel(config.LogLevelError))
}
