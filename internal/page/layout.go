package page

import (
	"bytes"
	_ "embed"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

//go:embed assets/layout.html
var defaultLayout []byte

// DefaultLayout returns the built-in page layout.
func DefaultLayout() []byte {
	out := make([]byte, len(defaultLayout))
	copy(out, defaultLayout)
	return out
}

// Layout is the site template every page body is placed into.
type Layout struct {
	source          []byte
	contentSelector string
}

// LoadLayout reads a layout file, or returns the built-in layout when path is empty.
func LoadLayout(path, contentSelector string) (*Layout, error) {
	if path == "" {
		return &Layout{source: DefaultLayout(), contentSelector: contentSelector}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read layout").
			Fatal().
			WithContext("path", path).
			Build()
	}
	return &Layout{source: data, contentSelector: contentSelector}, nil
}

// Assemble parses a fresh copy of the layout, places body into the content
// container and sets the document title.
func (l *Layout) Assemble(sourcePath, id, outputPath, title, body string) (*Page, error) {
	p, err := Parse(sourcePath, id, outputPath, bytes.NewReader(l.source))
	if err != nil {
		return nil, err
	}
	content, err := p.Require(l.contentSelector, "layout")
	if err != nil {
		return nil, err
	}
	content.First().SetHtml(body)

	p.Title = title
	if title != "" {
		titleSel := p.Find("head > title")
		if titleSel.Length() == 0 {
			p.Find("head").AppendHtml("<title></title>")
			titleSel = p.Find("head > title")
		}
		titleSel.SetText(mergeTitle(titleSel.Text(), title))
	}
	return p, nil
}

// mergeTitle fills a "{title}" placeholder in the layout's <title> or
// replaces the title entirely.
func mergeTitle(layoutTitle, title string) string {
	if strings.Contains(layoutTitle, "{title}") {
		return strings.ReplaceAll(layoutTitle, "{title}", title)
	}
	return title
}

// HeadingText returns the text of the first h1 inside the content fragment.
func HeadingText(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}
