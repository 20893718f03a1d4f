package page

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

func mustParse(t *testing.T, markup string) *Page {
	t.Helper()
	p, err := Parse("chapters/01_intro.md", "intro", "chapters/intro.html", strings.NewReader(markup))
	require.NoError(t, err)
	return p
}

func TestRequire_MissingSelectorIsConfigError(t *testing.T) {
	p := mustParse(t, `<html><body><div id="content"></div></body></html>`)

	sel, err := p.Require("#content", "test")
	require.NoError(t, err)
	assert.Equal(t, 1, sel.Length())

	_, err = p.Require("#toc", "sidebar_toc")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	assert.True(t, ferrors.IsFatal(err))
	assert.Contains(t, err.Error(), "selector=#toc")
	assert.Contains(t, err.Error(), "page=chapters/01_intro.md")
}

func TestCounters(t *testing.T) {
	p := &Page{}
	_, ok := p.Count("footnotes")
	assert.False(t, ok)
	p.SetCount("footnotes", 2)
	n, ok := p.Count("footnotes")
	assert.True(t, ok)
	assert.Equal(t, 2, n)
}

func TestRender_IsStable(t *testing.T) {
	markup := `<!DOCTYPE html><html><head><title>x</title></head><body><p class="a" id="b">hi</p></body></html>`
	first, err := mustParse(t, markup).Render()
	require.NoError(t, err)
	second, err := mustParse(t, markup).Render()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(string(first), "<!DOCTYPE html>"))
	assert.Contains(t, string(first), `<p class="a" id="b">hi</p>`)
}

func TestTemplate(t *testing.T) {
	tpl, err := CompileTemplate("entry", `<li><a href="{{.Href}}">{{.Title}}</a></li>`)
	require.NoError(t, err)
	assert.Equal(t, "entry", tpl.Name())

	out, err := tpl.Execute(map[string]string{"Href": "a.html", "Title": "Fish & Chips"})
	require.NoError(t, err)
	assert.Equal(t, `<li><a href="a.html">Fish &amp; Chips</a></li>`, out)

	_, err = tpl.Execute(map[string]string{"Href": "a.html"})
	require.Error(t, err, "missing keys must fail")

	_, err = CompileTemplate("broken", `{{if}}`)
	require.Error(t, err)

	assert.Panics(t, func() { MustCompileTemplate("broken", `{{end}}`) })
}

func TestLayout_Assemble(t *testing.T) {
	layout, err := LoadLayout("", "#content")
	require.NoError(t, err)

	p, err := layout.Assemble("chapters/02_arith.md", "arith", "chapters/arith.html", "Arithmetic", "<h1>Arithmetic</h1><p>1 + 1</p>")
	require.NoError(t, err)

	assert.Equal(t, "Arithmetic", p.Title)
	assert.Equal(t, "Arithmetic", p.Find("head > title").Text())
	assert.Equal(t, "1 + 1", p.Find("#content p").Text())
	assert.Equal(t, 1, p.Find("#toc").Length())
	assert.Equal(t, 1, p.Find("#footnotes").Length())

	// Each assembly starts from a fresh tree.
	p2, err := layout.Assemble("b.md", "b", "b.html", "B", "<p>other</p>")
	require.NoError(t, err)
	assert.Equal(t, 0, p2.Find("#content h1").Length())
}

func TestLayout_CustomFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.html")
	require.NoError(t, os.WriteFile(path, []byte(`<html><head></head><body><main class="body"></main></body></html>`), 0o600))

	layout, err := LoadLayout(path, "main.body")
	require.NoError(t, err)
	p, err := layout.Assemble("a.md", "a", "a.html", "Title A", "<p>x</p>")
	require.NoError(t, err)
	assert.Equal(t, "Title A", p.Find("head > title").Text())
	assert.Equal(t, "x", p.Find("main.body p").Text())

	missing, err := LoadLayout(path, "#content")
	require.NoError(t, err)
	_, err = missing.Assemble("a.md", "a", "a.html", "A", "")
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))

	_, err = LoadLayout(filepath.Join(dir, "nope.html"), "#content")
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestHeadingText(t *testing.T) {
	assert.Equal(t, "Functions", HeadingText("<p>x</p><h1> Functions </h1><h1>Other</h1>"))
	assert.Equal(t, "", HeadingText("<p>no heading</p>"))
}

func TestMergeTitle(t *testing.T) {
	assert.Equal(t, "Lists | Book", mergeTitle("{title} | Book", "Lists"))
	assert.Equal(t, "Lists", mergeTitle("Book", "Lists"))
}
