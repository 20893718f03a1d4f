package config

import "time"

// Built-in step templates.
const (
	DefaultSidebarTOCTemplate   = `<li{{if .Current}} class="current"{{end}}><a href="{{.Href}}">{{.Title}}</a></li>`
	DefaultChapterIndexTemplate = `<li><a href="{{.Href}}"><span class="ordinal">{{.Ordinal}}.</span> {{.Title}}</a></li>`
	DefaultNavigationTemplate   = `<nav class="chapter-nav">` +
		`{{with .Prev}}<a class="prev" rel="prev" href="{{.Href}}">&larr; {{.Title}}</a>{{end}}` +
		`{{with .Up}}<a class="up" rel="up" href="{{.Href}}">{{.Title}}</a>{{end}}` +
		`{{with .Next}}<a class="next" rel="next" href="{{.Href}}">{{.Title}} &rarr;</a>{{end}}` +
		`</nav>`
	DefaultNoteTemplate     = `<li id="{{.NoteID}}">{{.Content}} <a class="footnote-back" href="#{{.RefID}}">&#8617;</a></li>`
	DefaultRefTemplate      = `<sup class="footnote-ref"><a id="{{.RefID}}" href="#{{.NoteID}}">{{.Number}}</a></sup>`
	DefaultPageTOCTemplate  = `<li class="toc-{{.Level}}"><a href="#{{.ID}}">{{.Text}}</a></li>`
	DefaultEditLinkTemplate = `<p class="edit-link"><a href="{{.URL}}">Edit this page</a></p>`
)

// ApplyDefaults fills unset fields. It never overrides explicit values.
func ApplyDefaults(cfg *Config) {
	if cfg.Site.Title == "" {
		cfg.Site.Title = "Untitled"
	}
	if cfg.Source.Directory == "" {
		cfg.Source.Directory = "manuscript"
	}
	if cfg.Source.Chapters == "" {
		cfg.Source.Chapters = "chapters.yaml"
	}
	if cfg.Source.Content == "" {
		cfg.Source.Content = "#content"
	}
	if len(cfg.Source.Extensions) == 0 {
		cfg.Source.Extensions = []string{".md", ".html"}
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = "_book"
	}
	if cfg.Output.Clean == nil {
		cfg.Output.Clean = boolPtr(true)
	}
	if cfg.Build.Workers == 0 {
		cfg.Build.Workers = 4
	}
	if cfg.Build.RewriteLinks == nil {
		cfg.Build.RewriteLinks = boolPtr(true)
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = string(LogLevelInfo)
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = string(LogFormatText)
	}
	if cfg.History.Path == "" {
		cfg.History.Path = ".bookbuilder/history.db"
	}
	if cfg.Preview.Port == 0 {
		cfg.Preview.Port = 3000
	}
	applyStepDefaults(&cfg.Steps)
}

func applyStepDefaults(s *StepsConfig) {
	defaultOn(&s.SidebarTOC.Toggle)
	defaultString(&s.SidebarTOC.Selector, "#toc")
	defaultString(&s.SidebarTOC.Template, DefaultSidebarTOCTemplate)

	defaultOn(&s.ChapterIndex.Toggle)
	defaultString(&s.ChapterIndex.Selector, "#chapter-index")
	defaultString(&s.ChapterIndex.Template, DefaultChapterIndexTemplate)
	if s.ChapterIndex.Pages == nil {
		s.ChapterIndex.Pages = []string{"index"}
	}

	defaultOn(&s.Navigation.Toggle)
	defaultString(&s.Navigation.Selector, "#content")
	defaultString(&s.Navigation.Template, DefaultNavigationTemplate)

	defaultOn(&s.Footnotes.Toggle)
	defaultString(&s.Footnotes.Selector, "fn")
	defaultString(&s.Footnotes.Container, "#footnotes")
	defaultString(&s.Footnotes.Wrapper, "#footnotes-section")
	defaultString(&s.Footnotes.NoteTemplate, DefaultNoteTemplate)
	defaultString(&s.Footnotes.RefTemplate, DefaultRefTemplate)

	defaultOn(&s.PageTOC.Toggle)
	defaultString(&s.PageTOC.Container, "#page-toc")
	defaultString(&s.PageTOC.Scope, "#content")
	defaultString(&s.PageTOC.Template, DefaultPageTOCTemplate)
	if len(s.PageTOC.Headings) == 0 {
		s.PageTOC.Headings = []string{"h2", "h3"}
	}
	if s.PageTOC.MinHeadings == 0 {
		s.PageTOC.MinHeadings = 2
	}

	defaultOff(&s.EditLink.Toggle)
	defaultString(&s.EditLink.Selector, "#content")
	defaultString(&s.EditLink.Template, DefaultEditLinkTemplate)

	defaultOff(&s.CodeCheck.Toggle)
	defaultString(&s.CodeCheck.Selector, "pre > code")
	if len(s.CodeCheck.Languages) == 0 {
		s.CodeCheck.Languages = []string{"ocaml"}
	}
	defaultString(&s.CodeCheck.SkipClass, "no-check")
	defaultString(&s.CodeCheck.Extension, ".ml")
	if s.CodeCheck.Timeout == 0 {
		s.CodeCheck.Timeout = 30 * time.Second
	}

	defaultOff(&s.Highlight.Toggle)
	defaultString(&s.Highlight.Selector, "pre > code")
	if len(s.Highlight.Languages) == 0 {
		s.Highlight.Languages = []string{"ocaml"}
	}
	if s.Highlight.Timeout == 0 {
		s.Highlight.Timeout = 30 * time.Second
	}
}

func defaultOn(t *Toggle) {
	if t.Enabled == nil {
		t.Enabled = boolPtr(true)
	}
}

func defaultOff(t *Toggle) {
	if t.Enabled == nil {
		t.Enabled = boolPtr(false)
	}
}

func defaultString(s *string, v string) {
	if *s == "" {
		*s = v
	}
}

func boolPtr(b bool) *bool { return &b }
