package steps

import (
	"context"
	"log/slog"
	"path"
	"strings"

	"git.home.luguber.info/inful/bookbuilder/internal/chapters"
	"git.home.luguber.info/inful/bookbuilder/internal/external"
	"git.home.luguber.info/inful/bookbuilder/internal/page"
)

// Stage is a major phase of the per-page pipeline.
type Stage string

const (
	// StageContent rewrites the page body (footnotes, code samples).
	StageContent Stage = "content"
	// StageStructure fills layout containers (chapter lists, page TOC, edit links).
	StageStructure Stage = "structure"
	// StageNavigation inserts links between chapters.
	StageNavigation Stage = "navigation"
	// StageFinalize runs last (preview script injection).
	StageFinalize Stage = "finalize"
)

// StageOrder defines the execution order of stages.
var StageOrder = []Stage{StageContent, StageStructure, StageNavigation, StageFinalize}

// StageIndex returns the position of stage in StageOrder, or -1.
func StageIndex(stage Stage) int {
	for i, s := range StageOrder {
		if s == stage {
			return i
		}
	}
	return -1
}

// Step names.
const (
	NameSidebarTOC       = "sidebar_toc"
	NameChapterIndex     = "chapter_index"
	NameNavigation       = "navigation"
	NameFootnotes        = "footnotes"
	NameFootnotesCleanup = "footnotes_cleanup"
	NamePageTOC          = "page_toc"
	NameEditLink         = "edit_link"
	NameCodeCheck        = "code_check"
	NameHighlight        = "highlight"
	NameLiveReload       = "livereload"
)

// knownSteps are the built-in names. A dependency on a known step that is
// disabled is ignored; a dependency on an unknown name is an error.
var knownSteps = map[string]bool{
	NameSidebarTOC:       true,
	NameChapterIndex:     true,
	NameNavigation:       true,
	NameFootnotes:        true,
	NameFootnotesCleanup: true,
	NamePageTOC:          true,
	NameEditLink:         true,
	NameCodeCheck:        true,
	NameHighlight:        true,
	NameLiveReload:       true,
}

// Dependencies declares ordering constraints.
type Dependencies struct {
	MustRunAfter  []string
	MustRunBefore []string
}

// Step transforms one page.
type Step interface {
	Name() string
	Stage() Stage
	Dependencies() Dependencies
	Apply(ctx context.Context, p *page.Page, env *Env) error
}

// Env is the build-wide state shared read-only by all pages.
type Env struct {
	Index   *chapters.Index
	Catalog Catalog
	// SiteTitle labels the "up" link to the book's index page.
	SiteTitle string
	// Strict turns external tool failures into build failures.
	Strict bool
	Runner external.Runner
	Logger *slog.Logger
}

func (e *Env) logger() *slog.Logger {
	if e == nil || e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func (e *Env) runner() external.Runner {
	if e == nil || e.Runner == nil {
		return external.ExecRunner{}
	}
	return e.Runner
}

// Catalog maps page ids to output paths (slash separated, relative to the
// output root).
type Catalog map[string]string

// Href returns the link from the page written at from to page id, relative
// to from's directory.
func (c Catalog) Href(from, id string) (string, bool) {
	target, ok := c[id]
	if !ok {
		return "", false
	}
	return relativeHref(from, target), true
}

// HrefOr is Href with a fallback for ids without a page.
func (c Catalog) HrefOr(from, id, fallback string) string {
	if h, ok := c.Href(from, id); ok {
		return h
	}
	return fallback
}

func relativeHref(from, target string) string {
	fromDir := path.Dir(path.Clean(from))
	target = path.Clean(target)
	if fromDir == "." {
		return target
	}

	fromParts := strings.Split(fromDir, "/")
	targetParts := strings.Split(target, "/")
	i := 0
	for i < len(fromParts) && i < len(targetParts)-1 && fromParts[i] == targetParts[i] {
		i++
	}
	var sb strings.Builder
	for range fromParts[i:] {
		sb.WriteString("../")
	}
	sb.WriteString(strings.Join(targetParts[i:], "/"))
	return sb.String()
}
