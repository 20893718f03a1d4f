package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_HeadingsGetIDs(t *testing.T) {
	out, err := New(Options{}).Render("page.md", []byte("# Lists\n\n## Pattern matching\n"))
	require.NoError(t, err)
	assert.Contains(t, out, `<h1 id="lists">Lists</h1>`)
	assert.Contains(t, out, `<h2 id="pattern-matching">Pattern matching</h2>`)
}

func TestRender_PassesRawFootnoteMarkers(t *testing.T) {
	out, err := New(Options{}).Render("page.md", []byte("Text<fn>A note</fn> continues.\n"))
	require.NoError(t, err)
	assert.Contains(t, out, "<fn>A note</fn>")
}

func TestRender_FencedCodeKeepsLanguageClass(t *testing.T) {
	out, err := New(Options{}).Render("page.md", []byte("```ocaml\nlet x = 1\n```\n"))
	require.NoError(t, err)
	assert.Contains(t, out, `<code class="language-ocaml">`)
}

func TestRender_GFMTable(t *testing.T) {
	out, err := New(Options{}).Render("page.md", []byte("| a | b |\n|---|---|\n| 1 | 2 |\n"))
	require.NoError(t, err)
	assert.Contains(t, out, "<table>")
}

func TestRender_RewriteLinks(t *testing.T) {
	src := []byte("[next](lists.md#cons) [web](https://example.com/a.md) [img](fig.png)\n")

	out, err := New(Options{RewriteLinks: true}).Render("page.md", src)
	require.NoError(t, err)
	assert.Contains(t, out, `href="lists.html#cons"`)
	assert.Contains(t, out, `href="https://example.com/a.md"`)
	assert.Contains(t, out, `href="fig.png"`)

	out, err = New(Options{}).Render("page.md", src)
	require.NoError(t, err)
	assert.Contains(t, out, `href="lists.md#cons"`)
}

type pageMap map[string]string

func (m pageMap) Resolve(_, target string) (string, bool) {
	href, ok := m[target]
	return href, ok
}

func TestRender_RewriteLinksThroughResolver(t *testing.T) {
	pages := pageMap{"part/02_lists.md": "../part/sequences.html"}
	r := New(Options{RewriteLinks: true, Pages: pages})

	out, err := r.Render("intro/01_start.md", []byte("[lists](../part/02_lists.md#cons) [other](other.md)\n"))
	require.NoError(t, err)
	assert.Contains(t, out, `href="../part/sequences.html#cons"`)
	assert.Contains(t, out, `href="other.html"`)
}

func TestRewriteDestination(t *testing.T) {
	cases := map[string]string{
		"a.md":                   "a.html",
		"../part/b.MD":           "../part/b.html",
		"a.md#x":                 "a.html#x",
		"02-functions.md":        "functions.html",
		"part/00_Preface.md#top": "part/preface.html#top",
		"#local":                 "#local",
		"/abs.md":                "/abs.md",
		"http://x.org/a.md":      "http://x.org/a.md",
		"mailto:me@x.org":        "mailto:me@x.org",
		"notes.txt":              "notes.txt",
		"":                       "",
	}
	for in, want := range cases {
		assert.Equal(t, want, RewriteDestination(in), in)
	}
}

func TestLinks(t *testing.T) {
	got := Links([]byte("See [a](a.md), ![f](f.png) and <https://x.org>.\n"))
	assert.Equal(t, []string{"a.md", "f.png", "https://x.org"}, got)
}
