package steps

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"git.home.luguber.info/inful/bookbuilder/internal/config"
	"git.home.luguber.info/inful/bookbuilder/internal/external"
	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/page"
)

// Highlight pipes code samples through an external highlighter and replaces
// the enclosing pre with its HTML output. A failed sample keeps its original
// markup.
type Highlight struct {
	selector  string
	languages map[string]bool
	command   []string
	timeout   time.Duration
}

// NewHighlight builds the highlighting step.
func NewHighlight(cfg config.HighlightStep) *Highlight {
	return &Highlight{
		selector:  cfg.Selector,
		languages: languageSet(cfg.Languages),
		command:   cfg.Command,
		timeout:   cfg.Timeout,
	}
}

func (h *Highlight) Name() string { return NameHighlight }

func (h *Highlight) Stage() Stage { return StageContent }

// Dependencies: samples are validated before their markup is replaced.
func (h *Highlight) Dependencies() Dependencies {
	return Dependencies{MustRunAfter: []string{NameCodeCheck}}
}

func (h *Highlight) Apply(ctx context.Context, p *page.Page, env *Env) error {
	type sample struct {
		index int
		lang  string
		code  *goquery.Selection
	}
	var samples []sample
	p.Find(h.selector).Each(func(i int, code *goquery.Selection) {
		if lang := codeLanguage(code); h.languages[lang] {
			samples = append(samples, sample{index: i + 1, lang: lang, code: code})
		}
	})

	var failures []error
	for _, s := range samples {
		if err := ctx.Err(); err != nil {
			return err
		}
		text := s.code.Text()
		argv := external.Expand(h.command, map[string]string{"lang": s.lang})
		res, err := env.runner().Run(ctx, external.Command{
			Args:    argv,
			Stdin:   strings.NewReader(text),
			Timeout: h.timeout,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failures = append(failures, ferrors.ExternalToolError("highlighter failed").
				WithCause(err).
				WithPage(p.SourcePath).
				WithStep(NameHighlight).
				WithContext("sample", s.index).
				WithContext("first_line", firstLine(text)).
				Build())
			continue
		}
		enclosingPre(s.code).ReplaceWithHtml(string(res.Stdout))
	}
	return errors.Join(failures...)
}
