package page

import (
	"bytes"
	"io"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

// Page is one document moving through the build.
type Page struct {
	// SourcePath is the slash-separated path relative to the source root.
	SourcePath string
	// ID is the normalized identifier used for chapter lookup.
	ID string
	// OutputPath is the slash-separated path relative to the output root.
	OutputPath string
	// Title is the resolved page title.
	Title string

	Doc *goquery.Document

	counters map[string]int
}

// New wraps an already parsed document.
func New(sourcePath, id, outputPath string, doc *goquery.Document) *Page {
	return &Page{
		SourcePath: sourcePath,
		ID:         id,
		OutputPath: outputPath,
		Doc:        doc,
		counters:   make(map[string]int),
	}
}

// Parse reads a complete HTML document.
func Parse(sourcePath, id, outputPath string, r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryBuild, "failed to parse page markup").
			WithPage(sourcePath).
			Build()
	}
	return New(sourcePath, id, outputPath, doc), nil
}

// Find returns all nodes matching selector. The selection may be empty.
func (p *Page) Find(selector string) *goquery.Selection {
	return p.Doc.Find(selector)
}

// Require returns the nodes matching selector or a configuration error when
// nothing matches. A missing required container is a structural layout
// defect, not something a step may skip.
func (p *Page) Require(selector, step string) (*goquery.Selection, error) {
	sel := p.Doc.Find(selector)
	if sel.Length() == 0 {
		return nil, ferrors.ConfigError("required container selector matched no node").
			WithPage(p.SourcePath).
			WithSelector(selector).
			WithStep(step).
			Build()
	}
	return sel, nil
}

// SetCount records a per-page counter for later steps and reporting.
func (p *Page) SetCount(name string, n int) {
	if p.counters == nil {
		p.counters = make(map[string]int)
	}
	p.counters[name] = n
}

// Count returns a counter set by an earlier step.
func (p *Page) Count(name string) (int, bool) {
	n, ok := p.counters[name]
	return n, ok
}

// Render serializes the page tree.
func (p *Page) Render() ([]byte, error) {
	var buf bytes.Buffer
	for _, n := range p.Doc.Nodes {
		if err := html.Render(&buf, n); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryBuild, "failed to render page").
				WithPage(p.SourcePath).
				Build()
		}
	}
	return buf.Bytes(), nil
}
