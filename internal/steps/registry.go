package steps

import (
	"git.home.luguber.info/inful/bookbuilder/internal/config"
)

// Options adjust the pipeline built from configuration.
type Options struct {
	// EditBase is the URL prefix for edit links. Required when the edit link
	// step is enabled and no base_url is configured.
	EditBase string
	// Extra steps appended to the configured ones (for example LiveReload).
	Extra []Step
}

// FromConfig constructs the enabled steps and orders them.
func FromConfig(cfg config.StepsConfig, opts Options) (*Pipeline, error) {
	var list []Step

	if cfg.SidebarTOC.IsEnabled() {
		s, err := NewChapterList(NameSidebarTOC, cfg.SidebarTOC)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	if cfg.ChapterIndex.IsEnabled() {
		s, err := NewChapterList(NameChapterIndex, cfg.ChapterIndex)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	if cfg.Navigation.IsEnabled() {
		s, err := NewNavigation(cfg.Navigation)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	if cfg.Footnotes.IsEnabled() {
		s, err := NewFootnotes(cfg.Footnotes)
		if err != nil {
			return nil, err
		}
		list = append(list, s, NewFootnotesCleanup(cfg.Footnotes))
	}
	if cfg.PageTOC.IsEnabled() {
		s, err := NewPageTOC(cfg.PageTOC)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	if cfg.EditLink.IsEnabled() {
		base := cfg.EditLink.BaseURL
		if base == "" {
			base = opts.EditBase
		}
		s, err := NewEditLink(cfg.EditLink, base)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	if cfg.CodeCheck.IsEnabled() {
		list = append(list, NewCodeCheck(cfg.CodeCheck))
	}
	if cfg.Highlight.IsEnabled() {
		list = append(list, NewHighlight(cfg.Highlight))
	}
	list = append(list, opts.Extra...)

	return BuildPipeline(list)
}
