package steps

import (
	"context"

	"git.home.luguber.info/inful/bookbuilder/internal/chapters"
	"git.home.luguber.info/inful/bookbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/page"
)

// IndexPageID is the id of the book's front page, the target of "up" links.
const IndexPageID = "index"

// Link is one navigation target.
type Link struct {
	ID    string
	Title string
	Href  string
}

// NavigationData is the template data for the navigation fragment. Absent
// links are nil.
type NavigationData struct {
	Prev *Link
	Up   *Link
	Next *Link
}

// Navigation inserts previous / up / next links before and after the page
// body. Pages that are not chapters get no navigation.
type Navigation struct {
	selector string
	tpl      *page.Template
}

// NewNavigation builds the navigation step.
func NewNavigation(cfg config.NavigationStep) (*Navigation, error) {
	tpl, err := page.CompileTemplate(NameNavigation, cfg.Template)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid navigation template").Fatal().Build()
	}
	return &Navigation{selector: cfg.Selector, tpl: tpl}, nil
}

func (n *Navigation) Name() string { return NameNavigation }

func (n *Navigation) Stage() Stage { return StageNavigation }

// Dependencies: the chapter lists must be in place first so that a body
// selector matching inside them sees the final tree.
func (n *Navigation) Dependencies() Dependencies {
	return Dependencies{MustRunAfter: []string{NameSidebarTOC, NameChapterIndex}}
}

func (n *Navigation) Apply(_ context.Context, p *page.Page, env *Env) error {
	prev, next, ok := env.Index.Neighbors(p.ID)
	if !ok {
		return nil
	}
	body, err := p.Require(n.selector, NameNavigation)
	if err != nil {
		return err
	}

	data := NavigationData{
		Prev: n.link(p, env, prev),
		Next: n.link(p, env, next),
	}
	if p.ID != IndexPageID {
		if href, ok := env.Catalog.Href(p.OutputPath, IndexPageID); ok {
			title := env.SiteTitle
			if rec, found := env.Index.Find(IndexPageID); found {
				title = rec.Title
			}
			if title == "" {
				title = "Contents"
			}
			data.Up = &Link{ID: IndexPageID, Title: title, Href: href}
		}
	}

	frag, err := n.tpl.Execute(data)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "navigation template failed").Fatal().Build()
	}
	body.First().BeforeHtml(frag)
	body.First().AfterHtml(frag)
	return nil
}

func (n *Navigation) link(p *page.Page, env *Env, r *chapters.Record) *Link {
	if r == nil {
		return nil
	}
	return &Link{
		ID:    r.ID,
		Title: r.Title,
		Href:  env.Catalog.HrefOr(p.OutputPath, r.ID, "#"),
	}
}
