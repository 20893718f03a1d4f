package steps

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bookbuilder/internal/chapters"
	"git.home.luguber.info/inful/bookbuilder/internal/config"
	"git.home.luguber.info/inful/bookbuilder/internal/page"
)

const threeChapters = `
- id: preface
  title: Preface
- id: arithmetic
  title: Arithmetic
- id: functions
  title: Functions
`

const testLayout = `<!DOCTYPE html><html><head><title>t</title></head><body>
<ul id="toc"></ul>
<div id="page-toc"></div>
<article id="content">%s</article>
<section id="footnotes-section"><h2>Notes</h2><ol id="footnotes"></ol></section>
</body></html>`

func testIndex(t *testing.T, yaml string) *chapters.Index {
	t.Helper()
	idx, err := chapters.Parse([]byte(yaml), "chapters.yaml")
	require.NoError(t, err)
	return idx
}

func testPage(t *testing.T, id, body string) *page.Page {
	t.Helper()
	html := strings.Replace(testLayout, "%s", body, 1)
	p, err := page.Parse(id+".md", id, id+".html", strings.NewReader(html))
	require.NoError(t, err)
	return p
}

func testEnv(t *testing.T, yaml string) *Env {
	t.Helper()
	idx := testIndex(t, yaml)
	cat := Catalog{}
	for _, r := range idx.Records() {
		cat[r.ID] = r.ID + ".html"
	}
	return &Env{Index: idx, Catalog: cat, SiteTitle: "The Book"}
}

func defaultSteps() config.StepsConfig {
	var cfg config.Config
	config.ApplyDefaults(&cfg)
	return cfg.Steps
}

func texts(sel *goquery.Selection) []string {
	out := make([]string, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, strings.TrimSpace(s.Text()))
	})
	return out
}
