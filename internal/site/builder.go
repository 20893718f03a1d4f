package site

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/bookbuilder/internal/chapters"
	"git.home.luguber.info/inful/bookbuilder/internal/config"
	"git.home.luguber.info/inful/bookbuilder/internal/external"
	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/gitinfo"
	"git.home.luguber.info/inful/bookbuilder/internal/history"
	"git.home.luguber.info/inful/bookbuilder/internal/linkcheck"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
	"git.home.luguber.info/inful/bookbuilder/internal/manifest"
	"git.home.luguber.info/inful/bookbuilder/internal/markdown"
	"git.home.luguber.info/inful/bookbuilder/internal/metrics"
	"git.home.luguber.info/inful/bookbuilder/internal/page"
	"git.home.luguber.info/inful/bookbuilder/internal/steps"
	"git.home.luguber.info/inful/bookbuilder/internal/workspace"
)

// Builder renders a book described by a validated configuration.
type Builder struct {
	cfg       *config.Config
	logger    *slog.Logger
	recorder  metrics.Recorder
	runner    external.Runner
	extra     []steps.Step
	outputDir string
	history   *history.Recorder
}

// NewBuilder creates a builder. cfg must have passed config.Validate.
func NewBuilder(cfg *config.Config, opts ...Option) *Builder {
	b := &Builder{
		cfg:      cfg,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.outputDir == "" {
		b.outputDir = cfg.OutputDir()
	}
	if abs, err := filepath.Abs(b.outputDir); err == nil {
		b.outputDir = abs
	}
	return b
}

// OutputDir is the directory a successful build publishes to.
func (b *Builder) OutputDir() string { return b.outputDir }

// Pipeline builds the ordered step pipeline from configuration. The edit
// link base falls back to the manuscript's git remote.
func (b *Builder) Pipeline() (*steps.Pipeline, error) {
	opts := steps.Options{Extra: b.extra}
	if el := b.cfg.Steps.EditLink; el.IsEnabled() && el.BaseURL == "" {
		base, err := b.discoverEditBase()
		if err != nil {
			return nil, err
		}
		opts.EditBase = base
	}
	pl, err := steps.FromConfig(b.cfg.Steps, opts)
	if err != nil {
		return nil, err
	}
	return pl.WithRecorder(b.recorder), nil
}

func (b *Builder) discoverEditBase() (string, error) {
	dir := b.cfg.SourceDir()
	info, err := gitinfo.Discover(dir)
	if err == nil {
		var base string
		base, err = info.EditBase(dir, b.cfg.Steps.EditLink.Branch)
		if err == nil {
			return base, nil
		}
	}
	return "", ferrors.ConfigError("edit links need steps.edit_link.base_url or a git checkout with an origin remote").
		WithContext("field", "steps.edit_link.base_url").
		WithCause(err).
		Fatal().
		Build()
}

// Build renders every page and publishes the output directory. The report
// is returned even when err is non-nil.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{BuildID: uuid.NewString()}
	logger := b.logger.With(logfields.BuildID(report.BuildID))

	err := b.build(ctx, report, logger)

	report.Duration = time.Since(start)
	report.deriveOutcome(err, ctx.Err() != nil)
	b.recorder.ObserveBuildDuration(report.Duration)
	b.recorder.IncBuildOutcome(report.Outcome)
	b.recordFinished(ctx, report, err, logger)

	if err != nil {
		logger.Error("Build failed",
			logfields.Count(len(report.Pages)),
			logfields.DurationMS(float64(report.Duration.Milliseconds())),
			logfields.Error(err))
		return report, err
	}
	logger.Info("Build complete",
		logfields.Count(len(report.Pages)),
		slog.Int("warnings", len(report.Warnings)),
		slog.Int("changed", len(report.Changed)),
		logfields.Path(b.outputDir),
		logfields.DurationMS(float64(report.Duration.Milliseconds())))
	return report, nil
}

type pageResult struct {
	html     []byte
	warnings []error
	err      error
}

func (b *Builder) build(ctx context.Context, report *Report, logger *slog.Logger) error {
	pl, err := b.Pipeline()
	if err != nil {
		return err
	}
	logger.Debug("Pipeline ready", slog.Any("steps", pl.Names()))

	index, err := chapters.Load(b.cfg.ChaptersPath())
	if err != nil {
		return err
	}
	logger.Debug("Chapters loaded", slog.Any("chapters", index.IDs()))
	layout, err := page.LoadLayout(b.cfg.LayoutPath(), b.cfg.Source.Content)
	if err != nil {
		return err
	}

	sources, failures, err := discover(b.cfg, b.outputDir)
	if err != nil {
		return err
	}
	for _, f := range failures {
		report.Failed = append(report.Failed, pageOf(f))
	}
	cat, err := catalog(sources)
	if err != nil {
		return err
	}
	missing, missingErrs := missingChapters(index, cat)
	report.Missing = missing
	for _, id := range missing {
		logger.Warn("Chapter has no page", logfields.Chapter(id))
	}

	logger.Info("Building book", logfields.Count(len(sources)), logfields.Path(b.cfg.SourceDir()))
	b.recorder.SetPagesTotal(len(sources))
	b.recordStarted(ctx, report.BuildID, len(sources), logger)

	ws := workspace.NewManager(b.outputDir)
	if err := ws.Create(); err != nil {
		return ferrors.FileSystemError("failed to create staging directory").
			WithContext("path", b.outputDir).
			WithCause(err).
			Build()
	}
	defer func() { _ = ws.Cleanup() }()

	env := &steps.Env{
		Index:     index,
		Catalog:   cat,
		SiteTitle: b.cfg.Site.Title,
		Strict:    b.cfg.Build.Strict,
		Runner:    b.runner,
		Logger:    logger,
	}
	rewrite := b.cfg.Build.RewriteLinks == nil || *b.cfg.Build.RewriteLinks
	md := markdown.New(markdown.Options{RewriteLinks: rewrite, Pages: newPageLinks(sources, cat)})

	results := make([]pageResult, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, b.cfg.Build.Workers))
	for i := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src := &sources[i]
			res, err := b.renderPage(gctx, src, layout, md, pl, env)
			if err != nil {
				if ferrors.HasCategory(err, ferrors.CategoryMetadata) {
					logger.Warn("Page failed", logfields.Page(src.Rel), logfields.Error(err))
					results[i] = pageResult{err: err}
					return nil
				}
				return err
			}
			if err := ws.WriteFile(src.Output, res.html); err != nil {
				return ferrors.FileSystemError("failed to write page").
					WithPage(src.Rel).
					WithCause(err).
					Build()
			}
			logger.Debug("Page written", logfields.Page(src.Rel), logfields.Path(src.Output))
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	m := manifest.New(b.cfg.Site.Title, pl.Names())
	for i, res := range results {
		src := sources[i]
		if res.err != nil {
			failures = append(failures, res.err)
			report.Failed = append(report.Failed, src.Rel)
			continue
		}
		report.Warnings = append(report.Warnings, res.warnings...)
		report.Pages = append(report.Pages, src.Output)
		entry := manifest.Page{
			Output:      src.Output,
			Source:      src.Rel,
			ID:          src.ID,
			Fingerprint: manifest.Fingerprint(src.Frontmatter, src.Body),
		}
		if r, ok := index.Find(src.ID); ok {
			entry.Ordinal = r.Ordinal
		}
		m.Pages = append(m.Pages, entry)
	}
	sort.Strings(report.Pages)
	sort.Strings(report.Failed)

	assets, assetWarnings := b.copyAssets(ws, logger)
	m.Assets = assets
	report.Warnings = append(report.Warnings, assetWarnings...)

	if b.cfg.Build.CheckLinks {
		broken, err := linkcheck.NewChecker(ws.GetPath()).CheckPages(report.Pages)
		if err != nil {
			return err
		}
		report.BrokenLinks = broken
		for _, bl := range broken {
			logger.Warn("Broken link", logfields.Page(bl.Page), slog.String("url", bl.URL), slog.String("reason", bl.Reason))
			if b.cfg.Build.Strict {
				failures = append(failures, bl.Err())
			} else {
				report.Warnings = append(report.Warnings, bl.Err())
			}
		}
	}

	data, err := m.ToJSON()
	if err != nil {
		return ferrors.InternalError("failed to encode manifest").WithCause(err).Build()
	}
	if err := ws.WriteFile(manifest.FileName, data); err != nil {
		return ferrors.FileSystemError("failed to write manifest").WithCause(err).Build()
	}
	if report.ManifestHash, err = m.Hash(); err != nil {
		return ferrors.InternalError("failed to hash manifest").WithCause(err).Build()
	}
	report.Changed = changedPages(b.outputDir, m, logger)

	clean := b.cfg.Output.Clean == nil || *b.cfg.Output.Clean
	if err := ws.Commit(clean); err != nil {
		return ferrors.FileSystemError("failed to publish output").
			WithContext("path", b.outputDir).
			WithCause(err).
			Build()
	}

	failures = append(failures, missingErrs...)
	for _, f := range failures {
		b.recordPageFailed(ctx, report.BuildID, f, logger)
	}
	if len(failures) > 0 {
		return errors.Join(failures...)
	}
	return nil
}

func (b *Builder) renderPage(ctx context.Context, src *source, layout *page.Layout, md *markdown.Renderer, pl *steps.Pipeline, env *steps.Env) (pageResult, error) {
	start := time.Now()
	defer func() { b.recorder.ObservePageDuration(time.Since(start)) }()

	body := string(src.Body)
	if src.Ext == ".md" {
		rendered, err := md.Render(src.Rel, src.Body)
		if err != nil {
			return pageResult{}, ferrors.BuildError("failed to render markdown").
				WithPage(src.Rel).
				WithCause(err).
				Build()
		}
		body = rendered
	}

	p, err := layout.Assemble(src.Rel, src.ID, src.Output, pageTitle(src, body, env.Index), body)
	if err != nil {
		if ce, ok := ferrors.AsClassified(err); ok {
			return pageResult{}, ce.WithContext(ferrors.ContextPage, src.Rel)
		}
		return pageResult{}, err
	}
	if lang := b.cfg.Site.Language; lang != "" {
		p.Find("html").SetAttr("lang", lang)
	}

	warnings, err := pl.Run(ctx, p, env)
	if err != nil {
		return pageResult{}, err
	}
	out, err := p.Render()
	if err != nil {
		return pageResult{}, ferrors.BuildError("failed to serialize page").
			WithPage(src.Rel).
			WithCause(err).
			Build()
	}
	return pageResult{html: out, warnings: warnings}, nil
}

// pageTitle picks the front matter title, then the first h1, then the
// chapter record title, then a title derived from the id.
func pageTitle(src *source, body string, index *chapters.Index) string {
	if src.Fields.Title != "" {
		return src.Fields.Title
	}
	if h := page.HeadingText(body); h != "" {
		return h
	}
	if r, ok := index.Find(src.ID); ok && r.Title != "" {
		return r.Title
	}
	return chapters.TitleFromID(src.ID)
}

// copyAssets copies configured asset paths verbatim. Missing assets are
// warnings.
func (b *Builder) copyAssets(ws *workspace.Manager, logger *slog.Logger) ([]string, []error) {
	var copied []string
	var warnings []error
	root := b.cfg.SourceDir()
	for _, a := range b.cfg.Source.Assets {
		abs := filepath.Join(root, filepath.FromSlash(a))
		info, err := os.Stat(abs)
		if err != nil {
			w := ferrors.FileSystemError("asset not found").
				WithContext("path", a).
				WithCause(err).
				Warning().
				Build()
			logger.Warn("Asset not found", logfields.Path(a))
			warnings = append(warnings, w)
			continue
		}
		if info.IsDir() {
			err = ws.CopyTree(abs, a)
		} else {
			var data []byte
			if data, err = os.ReadFile(abs); err == nil {
				err = ws.WriteFile(a, data)
			}
		}
		if err != nil {
			warnings = append(warnings, ferrors.FileSystemError("failed to copy asset").
				WithContext("path", a).
				WithCause(err).
				Warning().
				Build())
			continue
		}
		copied = append(copied, filepath.ToSlash(a))
	}
	return copied, warnings
}

// changedPages compares m with the manifest currently published in
// outputDir. A missing or unreadable manifest marks every page changed.
func changedPages(outputDir string, m *manifest.Manifest, logger *slog.Logger) []string {
	var prev *manifest.Manifest
	if data, err := os.ReadFile(filepath.Join(outputDir, manifest.FileName)); err == nil {
		if prev, err = manifest.FromJSON(data); err != nil {
			logger.Debug("Ignoring unreadable previous manifest", logfields.Error(err))
		}
	}
	var changed []string
	for _, p := range m.Pages {
		if prev != nil {
			if old, ok := prev.Lookup(p.ID); ok && old.Output == p.Output && old.Fingerprint == p.Fingerprint {
				continue
			}
		}
		changed = append(changed, p.Output)
	}
	return changed
}

func pageOf(err error) string {
	if ce, ok := ferrors.AsClassified(err); ok {
		return ce.Context().Page()
	}
	return ""
}
