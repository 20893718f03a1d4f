package steps

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"git.home.luguber.info/inful/bookbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
	"git.home.luguber.info/inful/bookbuilder/internal/page"
)

// HeadingEntry is the template data for one in-page TOC item.
type HeadingEntry struct {
	Level int
	ID    string
	Text  string
}

// PageTOC lists the page's section headings in a container. Headings without
// an id get a slug id so the entries can link to them.
type PageTOC struct {
	container   string
	scope       string
	headings    string
	minHeadings int
	tpl         *page.Template
}

// NewPageTOC builds the in-page table of contents step.
func NewPageTOC(cfg config.PageTOCStep) (*PageTOC, error) {
	tpl, err := page.CompileTemplate(NamePageTOC, cfg.Template)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid page toc template").Fatal().Build()
	}
	return &PageTOC{
		container:   cfg.Container,
		scope:       cfg.Scope,
		headings:    strings.Join(cfg.Headings, ", "),
		minHeadings: cfg.MinHeadings,
		tpl:         tpl,
	}, nil
}

func (t *PageTOC) Name() string { return NamePageTOC }

func (t *PageTOC) Stage() Stage { return StageStructure }

// Dependencies: footnote references must be final before heading text is read.
func (t *PageTOC) Dependencies() Dependencies {
	return Dependencies{MustRunAfter: []string{NameFootnotes}}
}

func (t *PageTOC) Apply(_ context.Context, p *page.Page, env *Env) error {
	container := p.Find(t.container)
	if container.Length() == 0 {
		env.logger().Debug("Page has no TOC container", logfields.Page(p.SourcePath), logfields.Selector(t.container))
		return nil
	}

	found := p.Find(t.scope).Find(t.headings)
	if found.Length() < t.minHeadings || found.Length() == 0 {
		container.Remove()
		return nil
	}

	used := make(map[string]bool)
	p.Find("[id]").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("id")
		used[id] = true
	})

	var sb strings.Builder
	var execErr error
	found.EachWithBreak(func(_ int, h *goquery.Selection) bool {
		text := strings.TrimSpace(h.Text())
		id, ok := h.Attr("id")
		if !ok || id == "" {
			id = uniqueSlug(Slugify(text), used)
			h.SetAttr("id", id)
		}
		level, _ := strconv.Atoi(strings.TrimPrefix(goquery.NodeName(h), "h"))
		item, err := t.tpl.Execute(HeadingEntry{Level: level, ID: id, Text: text})
		if err != nil {
			execErr = err
			return false
		}
		sb.WriteString(item)
		return true
	})
	if execErr != nil {
		return ferrors.WrapError(execErr, ferrors.CategoryConfig, "page toc template failed").Fatal().Build()
	}

	container.Empty()
	container.AppendHtml(sb.String())
	return nil
}

// Slugify lower-cases s and joins its letters and digits with hyphens.
func Slugify(s string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	if sb.Len() == 0 {
		return "section"
	}
	return sb.String()
}

func uniqueSlug(slug string, used map[string]bool) string {
	candidate := slug
	for n := 1; used[candidate]; n++ {
		candidate = slug + "-" + strconv.Itoa(n)
	}
	used[candidate] = true
	return candidate
}
