package steps

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"git.home.luguber.info/inful/bookbuilder/internal/config"
	"git.home.luguber.info/inful/bookbuilder/internal/external"
	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/page"
)

// CodeCheck runs every code sample in a checked language through an external
// validator. Each failing sample yields one external tool error; all
// samples are checked before the step returns.
type CodeCheck struct {
	selector  string
	languages map[string]bool
	skipClass string
	command   []string
	extension string
	timeout   time.Duration
}

// NewCodeCheck builds the sample validation step.
func NewCodeCheck(cfg config.CodeCheckStep) *CodeCheck {
	return &CodeCheck{
		selector:  cfg.Selector,
		languages: languageSet(cfg.Languages),
		skipClass: cfg.SkipClass,
		command:   cfg.Command,
		extension: cfg.Extension,
		timeout:   cfg.Timeout,
	}
}

func (c *CodeCheck) Name() string { return NameCodeCheck }

func (c *CodeCheck) Stage() Stage { return StageContent }

func (c *CodeCheck) Dependencies() Dependencies { return Dependencies{} }

type codeSample struct {
	index int
	lang  string
	text  string
}

func (c *CodeCheck) Apply(ctx context.Context, p *page.Page, env *Env) error {
	var samples []codeSample
	p.Find(c.selector).Each(func(i int, code *goquery.Selection) {
		lang := codeLanguage(code)
		if !c.languages[lang] || hasClass(code, c.skipClass) {
			return
		}
		samples = append(samples, codeSample{index: i + 1, lang: lang, text: code.Text()})
	})

	var failures []error
	for _, s := range samples {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.check(ctx, p, env, s); err != nil {
			if !ferrors.HasCategory(err, ferrors.CategoryExternalTool) {
				return err
			}
			failures = append(failures, err)
		}
	}
	return errors.Join(failures...)
}

func (c *CodeCheck) check(ctx context.Context, p *page.Page, env *Env, s codeSample) error {
	f, err := os.CreateTemp("", "bookbuilder-sample-*"+c.extension)
	if err != nil {
		return ferrors.FileSystemError("failed to create sample file").WithCause(err).Build()
	}
	defer os.Remove(f.Name())
	if _, err := f.WriteString(s.text); err != nil {
		_ = f.Close()
		return ferrors.FileSystemError("failed to write sample file").WithCause(err).Build()
	}
	if err := f.Close(); err != nil {
		return ferrors.FileSystemError("failed to write sample file").WithCause(err).Build()
	}

	argv := external.Expand(c.command, map[string]string{"file": f.Name(), "lang": s.lang})
	if _, err := env.runner().Run(ctx, external.Command{Args: argv, Timeout: c.timeout}); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ferrors.ExternalToolError("code sample failed validation").
			WithCause(err).
			WithPage(p.SourcePath).
			WithStep(NameCodeCheck).
			WithContext("sample", s.index).
			WithContext("first_line", firstLine(s.text)).
			WithContext("command", strings.Join(c.command, " ")).
			Build()
	}
	return nil
}
