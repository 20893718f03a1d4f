package steps

import (
	"context"
	"fmt"
	"html/template"

	"github.com/PuerkitoBio/goquery"

	"git.home.luguber.info/inful/bookbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/page"
)

// FootnoteCount is the page counter holding the number of relocated notes.
const FootnoteCount = "footnotes"

// FootnoteData is the template data for a note and its reference.
type FootnoteData struct {
	Number int
	// Content is the inner markup of the original element.
	Content template.HTML
	RefID   string
	NoteID  string
}

// Footnotes moves inline note elements into a numbered list and leaves a
// numbered reference in their place.
type Footnotes struct {
	selector  string
	container string
	note      *page.Template
	ref       *page.Template
}

// NewFootnotes builds the relocation step.
func NewFootnotes(cfg config.FootnotesStep) (*Footnotes, error) {
	note, err := page.CompileTemplate("footnote_note", cfg.NoteTemplate)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid footnote template").Fatal().Build()
	}
	ref, err := page.CompileTemplate("footnote_ref", cfg.RefTemplate)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid footnote reference template").Fatal().Build()
	}
	return &Footnotes{selector: cfg.Selector, container: cfg.Container, note: note, ref: ref}, nil
}

func (f *Footnotes) Name() string { return NameFootnotes }

func (f *Footnotes) Stage() Stage { return StageContent }

func (f *Footnotes) Dependencies() Dependencies { return Dependencies{} }

func (f *Footnotes) Apply(_ context.Context, p *page.Page, _ *Env) error {
	notes := p.Find(f.selector)
	p.SetCount(FootnoteCount, notes.Length())
	if notes.Length() == 0 {
		return nil
	}

	container, err := p.Require(f.container, NameFootnotes)
	if err != nil {
		return err
	}
	container = container.First()

	var applyErr error
	notes.EachWithBreak(func(i int, s *goquery.Selection) bool {
		content, err := s.Html()
		if err != nil {
			applyErr = err
			return false
		}
		data := FootnoteData{
			Number:  i + 1,
			Content: template.HTML(content), //nolint:gosec // authored manuscript markup
			RefID:   fmt.Sprintf("fnref-%d", i+1),
			NoteID:  fmt.Sprintf("fn-%d", i+1),
		}
		item, err := f.note.Execute(data)
		if err != nil {
			applyErr = err
			return false
		}
		ref, err := f.ref.Execute(data)
		if err != nil {
			applyErr = err
			return false
		}
		container.AppendHtml(item)
		s.ReplaceWithHtml(ref)
		return true
	})
	if applyErr != nil {
		return ferrors.WrapError(applyErr, ferrors.CategoryConfig, "footnote template failed").Fatal().Build()
	}
	return nil
}

// FootnotesCleanup removes the empty notes container (and its wrapper) from
// pages without footnotes.
type FootnotesCleanup struct {
	container string
	wrapper   string
}

// NewFootnotesCleanup builds the cleanup step.
func NewFootnotesCleanup(cfg config.FootnotesStep) *FootnotesCleanup {
	return &FootnotesCleanup{container: cfg.Container, wrapper: cfg.Wrapper}
}

func (c *FootnotesCleanup) Name() string { return NameFootnotesCleanup }

func (c *FootnotesCleanup) Stage() Stage { return StageContent }

func (c *FootnotesCleanup) Dependencies() Dependencies {
	return Dependencies{MustRunAfter: []string{NameFootnotes}}
}

func (c *FootnotesCleanup) Apply(_ context.Context, p *page.Page, _ *Env) error {
	if n, _ := p.Count(FootnoteCount); n > 0 {
		return nil
	}
	if c.wrapper != "" {
		p.Find(c.wrapper).Remove()
	}
	p.Find(c.container).Remove()
	return nil
}
