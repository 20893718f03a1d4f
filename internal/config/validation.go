package config

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"

	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/page"
)

// Validate checks the whole configuration. Defaults must already be applied.
// Step templates and selectors are compiled here so that page steps never
// see malformed configuration.
func Validate(cfg *Config) error {
	v := &configurationValidator{config: cfg}
	return v.validate()
}

type configurationValidator struct {
	config *Config
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateSource(); err != nil {
		return err
	}
	if err := cv.validateBuild(); err != nil {
		return err
	}
	if err := cv.validateLogging(); err != nil {
		return err
	}
	if err := cv.validateSteps(); err != nil {
		return err
	}
	if cv.config.Preview.Port < 0 || cv.config.Preview.Port > 65535 {
		return invalid("preview.port", fmt.Sprintf("port %d out of range", cv.config.Preview.Port))
	}
	return nil
}

func (cv *configurationValidator) validateSource() error {
	src := cv.config.Source
	if strings.TrimSpace(src.Directory) == "" {
		return invalid("source.directory", "must not be empty")
	}
	if strings.TrimSpace(src.Chapters) == "" {
		return invalid("source.chapters", "must not be empty")
	}
	if err := checkSelector("source.content", src.Content); err != nil {
		return err
	}
	for _, ext := range src.Extensions {
		if ext != ".md" && ext != ".html" {
			return invalid("source.extensions", fmt.Sprintf("unsupported extension %q (supported: .md, .html)", ext))
		}
	}
	if strings.TrimSpace(cv.config.Output.Directory) == "" {
		return invalid("output.directory", "must not be empty")
	}
	return nil
}

func (cv *configurationValidator) validateBuild() error {
	if cv.config.Build.Workers < 1 {
		return invalid("build.workers", fmt.Sprintf("must be positive, got %d", cv.config.Build.Workers))
	}
	return nil
}

func (cv *configurationValidator) validateLogging() error {
	if _, err := ParseLogLevel(cv.config.Logging.Level); err != nil {
		return invalid("logging.level", err.Error())
	}
	if _, err := ParseLogFormat(cv.config.Logging.Format); err != nil {
		return invalid("logging.format", err.Error())
	}
	return nil
}

func (cv *configurationValidator) validateSteps() error {
	s := cv.config.Steps

	for _, list := range []struct {
		name string
		step ChapterListStep
	}{{"sidebar_toc", s.SidebarTOC}, {"chapter_index", s.ChapterIndex}} {
		if !list.step.IsEnabled() {
			continue
		}
		if err := checkSelector("steps."+list.name+".selector", list.step.Selector); err != nil {
			return err
		}
		if err := checkTemplate("steps."+list.name+".template", list.step.Template); err != nil {
			return err
		}
	}

	if s.Navigation.IsEnabled() {
		if err := checkSelector("steps.navigation.selector", s.Navigation.Selector); err != nil {
			return err
		}
		if err := checkTemplate("steps.navigation.template", s.Navigation.Template); err != nil {
			return err
		}
	}

	if s.Footnotes.IsEnabled() {
		if err := checkSelector("steps.footnotes.selector", s.Footnotes.Selector); err != nil {
			return err
		}
		if err := checkSelector("steps.footnotes.container", s.Footnotes.Container); err != nil {
			return err
		}
		if s.Footnotes.Wrapper != "" {
			if err := checkSelector("steps.footnotes.wrapper", s.Footnotes.Wrapper); err != nil {
				return err
			}
		}
		if err := checkTemplate("steps.footnotes.note_template", s.Footnotes.NoteTemplate); err != nil {
			return err
		}
		if err := checkTemplate("steps.footnotes.ref_template", s.Footnotes.RefTemplate); err != nil {
			return err
		}
	}

	if s.PageTOC.IsEnabled() {
		if err := checkSelector("steps.page_toc.container", s.PageTOC.Container); err != nil {
			return err
		}
		if err := checkSelector("steps.page_toc.scope", s.PageTOC.Scope); err != nil {
			return err
		}
		if err := checkTemplate("steps.page_toc.template", s.PageTOC.Template); err != nil {
			return err
		}
		for _, h := range s.PageTOC.Headings {
			if !isHeadingTag(h) {
				return invalid("steps.page_toc.headings", fmt.Sprintf("%q is not a heading tag", h))
			}
		}
		if s.PageTOC.MinHeadings < 0 {
			return invalid("steps.page_toc.min_headings", "must not be negative")
		}
	}

	if s.EditLink.IsEnabled() {
		if err := checkSelector("steps.edit_link.selector", s.EditLink.Selector); err != nil {
			return err
		}
		if err := checkTemplate("steps.edit_link.template", s.EditLink.Template); err != nil {
			return err
		}
	}

	if s.CodeCheck.IsEnabled() {
		if err := checkSelector("steps.code_check.selector", s.CodeCheck.Selector); err != nil {
			return err
		}
		if len(s.CodeCheck.Command) == 0 {
			return invalid("steps.code_check.command", "required when the step is enabled")
		}
		if !containsPlaceholder(s.CodeCheck.Command, "{file}") {
			return invalid("steps.code_check.command", "must reference the sample with {file}")
		}
	}

	if s.Highlight.IsEnabled() {
		if err := checkSelector("steps.highlight.selector", s.Highlight.Selector); err != nil {
			return err
		}
		if len(s.Highlight.Command) == 0 {
			return invalid("steps.highlight.command", "required when the step is enabled")
		}
	}
	return nil
}

func checkSelector(field, sel string) error {
	if strings.TrimSpace(sel) == "" {
		return invalid(field, "selector must not be empty")
	}
	if _, err := cascadia.Compile(sel); err != nil {
		return invalid(field, fmt.Sprintf("invalid selector %q: %v", sel, err))
	}
	return nil
}

func checkTemplate(field, text string) error {
	if strings.TrimSpace(text) == "" {
		return invalid(field, "template must not be empty")
	}
	if _, err := page.CompileTemplate(field, text); err != nil {
		return invalid(field, err.Error())
	}
	return nil
}

func containsPlaceholder(argv []string, placeholder string) bool {
	for _, a := range argv {
		if strings.Contains(a, placeholder) {
			return true
		}
	}
	return false
}

func isHeadingTag(tag string) bool {
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	return false
}

func invalid(field, msg string) error {
	return ferrors.ConfigError("invalid configuration: "+field+": "+msg).
		WithContext("field", field).
		Build()
}
