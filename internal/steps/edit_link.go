package steps

import (
	"context"
	"strings"

	"git.home.luguber.info/inful/bookbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/page"
)

// EditLinkData is the template data for the edit link.
type EditLinkData struct {
	URL string
}

// EditLink appends a link to the page source in the repository web UI.
type EditLink struct {
	base     string
	selector string
	tpl      *page.Template
}

// NewEditLink builds the step. base is the URL source paths are appended to.
func NewEditLink(cfg config.EditLinkStep, base string) (*EditLink, error) {
	if base == "" {
		return nil, ferrors.ConfigError("edit link base URL is empty").WithStep(NameEditLink).Build()
	}
	tpl, err := page.CompileTemplate(NameEditLink, cfg.Template)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid edit link template").Fatal().Build()
	}
	return &EditLink{base: strings.TrimSuffix(base, "/"), selector: cfg.Selector, tpl: tpl}, nil
}

func (e *EditLink) Name() string { return NameEditLink }

func (e *EditLink) Stage() Stage { return StageStructure }

func (e *EditLink) Dependencies() Dependencies { return Dependencies{} }

func (e *EditLink) Apply(_ context.Context, p *page.Page, _ *Env) error {
	container, err := p.Require(e.selector, NameEditLink)
	if err != nil {
		return err
	}
	frag, err := e.tpl.Execute(EditLinkData{URL: e.base + "/" + p.SourcePath})
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "edit link template failed").Fatal().Build()
	}
	container.First().AppendHtml(frag)
	return nil
}
