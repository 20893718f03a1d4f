package steps

import (
	"context"

	"git.home.luguber.info/inful/bookbuilder/internal/page"
)

// LiveReload appends the preview server's reload script to <body>. It is only
// part of the pipeline when serving.
type LiveReload struct {
	scriptPath string
}

// NewLiveReload builds the step; scriptPath is the URL of the client script.
func NewLiveReload(scriptPath string) *LiveReload {
	return &LiveReload{scriptPath: scriptPath}
}

func (l *LiveReload) Name() string { return NameLiveReload }

func (l *LiveReload) Stage() Stage { return StageFinalize }

func (l *LiveReload) Dependencies() Dependencies { return Dependencies{} }

func (l *LiveReload) Apply(_ context.Context, p *page.Page, _ *Env) error {
	body := p.Find("body")
	if body.Find(`script[data-livereload]`).Length() > 0 {
		return nil
	}
	body.AppendHtml(`<script data-livereload src="` + l.scriptPath + `"></script>`)
	return nil
}
