package steps

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"git.home.luguber.info/inful/bookbuilder/internal/chapters"
	"git.home.luguber.info/inful/bookbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/page"
)

// ChapterEntry is the template data for one chapter list item.
type ChapterEntry struct {
	ID      string
	Title   string
	Ordinal int
	Href    string
	// Current is true on the entry for the page being rendered.
	Current bool
}

// ChapterList renders the whole chapter index into a container, one entry
// per record in ordinal order.
type ChapterList struct {
	name     string
	selector string
	tpl      *page.Template
	pages    map[string]bool
	clear    bool
}

// NewChapterList builds a chapter list step from its configuration record.
func NewChapterList(name string, cfg config.ChapterListStep) (*ChapterList, error) {
	tpl, err := page.CompileTemplate(name, cfg.Template)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid chapter list template").
			WithStep(name).
			Fatal().
			Build()
	}
	var pages map[string]bool
	if len(cfg.Pages) > 0 {
		pages = make(map[string]bool, len(cfg.Pages))
		for _, id := range cfg.Pages {
			pages[chapters.CanonicalID(id)] = true
		}
	}
	return &ChapterList{
		name:     name,
		selector: cfg.Selector,
		tpl:      tpl,
		pages:    pages,
		clear:    cfg.ClearsContainer(),
	}, nil
}

func (c *ChapterList) Name() string { return c.name }

func (c *ChapterList) Stage() Stage { return StageStructure }

func (c *ChapterList) Dependencies() Dependencies { return Dependencies{} }

func (c *ChapterList) Apply(_ context.Context, p *page.Page, env *Env) error {
	if c.pages != nil && !c.pages[p.ID] {
		removeEmpty(p.Find(c.selector))
		return nil
	}
	matches, err := p.Require(c.selector, c.name)
	if err != nil {
		return err
	}
	// A container placed in the page body precedes the layout's own.
	container := matches.First()
	removeEmpty(matches.Slice(1, goquery.ToEnd))

	var sb strings.Builder
	for _, r := range env.Index.Records() {
		item, err := c.tpl.Execute(ChapterEntry{
			ID:      r.ID,
			Title:   r.Title,
			Ordinal: r.Ordinal,
			Href:    env.Catalog.HrefOr(p.OutputPath, r.ID, "#"),
			Current: r.ID == p.ID,
		})
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryConfig, "chapter list template failed").
				WithChapter(r.ID).
				Fatal().
				Build()
		}
		sb.WriteString(item)
	}

	if c.clear {
		container.Empty()
	}
	container.AppendHtml(sb.String())
	return nil
}

func removeEmpty(sel *goquery.Selection) {
	sel.Each(func(_ int, s *goquery.Selection) {
		if s.Children().Length() == 0 && strings.TrimSpace(s.Text()) == "" {
			s.Remove()
		}
	})
}
