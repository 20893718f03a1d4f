package config

import "time"

// StepsConfig holds one typed record per page step.
type StepsConfig struct {
	SidebarTOC   ChapterListStep `yaml:"sidebar_toc"`
	ChapterIndex ChapterListStep `yaml:"chapter_index"`
	Navigation   NavigationStep  `yaml:"navigation"`
	Footnotes    FootnotesStep   `yaml:"footnotes"`
	PageTOC      PageTOCStep     `yaml:"page_toc"`
	EditLink     EditLinkStep    `yaml:"edit_link"`
	CodeCheck    CodeCheckStep   `yaml:"code_check"`
	Highlight    HighlightStep   `yaml:"highlight"`
}

// Toggle is embedded by every step record. A nil Enabled means the step's
// default applies.
type Toggle struct {
	Enabled *bool `yaml:"enabled,omitempty"`
}

// IsEnabled reports whether the step runs.
func (t Toggle) IsEnabled() bool { return t.Enabled != nil && *t.Enabled }

// ChapterListStep renders the chapter index into a container.
type ChapterListStep struct {
	Toggle   `yaml:",inline"`
	Selector string   `yaml:"selector"`
	Template string   `yaml:"template"`
	Pages    []string `yaml:"pages,omitempty"`
	Clear    *bool    `yaml:"clear,omitempty"`
}

// ClearsContainer reports whether existing children are removed first.
func (c ChapterListStep) ClearsContainer() bool { return c.Clear == nil || *c.Clear }

// NavigationStep inserts previous/up/next links around the body.
type NavigationStep struct {
	Toggle   `yaml:",inline"`
	Selector string `yaml:"selector"`
	Template string `yaml:"template"`
}

// FootnotesStep moves inline notes into a numbered list.
type FootnotesStep struct {
	Toggle       `yaml:",inline"`
	Selector     string `yaml:"selector"`
	Container    string `yaml:"container"`
	Wrapper      string `yaml:"wrapper"`
	NoteTemplate string `yaml:"note_template"`
	RefTemplate  string `yaml:"ref_template"`
}

// PageTOCStep builds an in-page table of contents from headings.
type PageTOCStep struct {
	Toggle    `yaml:",inline"`
	Container string `yaml:"container"`
	// Scope limits which headings are collected.
	Scope       string   `yaml:"scope"`
	Headings    []string `yaml:"headings,omitempty"`
	MinHeadings int      `yaml:"min_headings"`
	Template    string   `yaml:"template"`
}

// EditLinkStep adds an "edit this page" link.
type EditLinkStep struct {
	Toggle `yaml:",inline"`
	// BaseURL is the URL the page's repository-relative path is appended to.
	// When empty it is derived from the repository's origin remote.
	BaseURL  string `yaml:"base_url,omitempty"`
	Branch   string `yaml:"branch,omitempty"`
	Selector string `yaml:"selector"`
	Template string `yaml:"template"`
}

// CodeCheckStep validates code samples with an external command.
type CodeCheckStep struct {
	Toggle    `yaml:",inline"`
	Selector  string   `yaml:"selector"`
	Languages []string `yaml:"languages,omitempty"`
	SkipClass string   `yaml:"skip_class"`
	// Command is an argv list. {file} is replaced with the sample path.
	Command   []string      `yaml:"command,omitempty"`
	Extension string        `yaml:"extension"`
	Timeout   time.Duration `yaml:"timeout"`
}

// HighlightStep replaces code samples with highlighter output.
type HighlightStep struct {
	Toggle    `yaml:",inline"`
	Selector  string   `yaml:"selector"`
	Languages []string `yaml:"languages,omitempty"`
	// Command is an argv list reading the sample on stdin. {lang} is replaced
	// with the sample language.
	Command []string      `yaml:"command,omitempty"`
	Timeout time.Duration `yaml:"timeout"`
}
