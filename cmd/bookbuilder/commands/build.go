package commands

import (
	"fmt"
	"io"
	"time"

	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output     string `short:"o" help:"Output directory (overrides output.directory)" type:"path"`
	Strict     bool   `help:"Fail the build when a code sample check or highlighter fails"`
	Workers    int    `short:"w" help:"Pages rendered in parallel (overrides build.workers)"`
	NoClean    bool   `name:"no-clean" help:"Copy over the existing output instead of replacing it"`
	CheckLinks bool   `name:"check-links" help:"Verify links between pages before publishing"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	if b.Workers < 0 {
		return ferrors.ValidationError("--workers must not be negative").
			WithContext("workers", b.Workers).
			Build()
	}
	if b.Workers > 0 {
		cfg.Build.Workers = b.Workers
	}
	if b.Strict {
		cfg.Build.Strict = true
	}
	if b.CheckLinks {
		cfg.Build.CheckLinks = true
	}
	if b.NoClean {
		clean := false
		cfg.Output.Clean = &clean
	}

	recorder, closeHistory := openHistory(cfg, g.Logger)
	defer closeHistory()

	opts := []site.Option{site.WithLogger(g.Logger), site.WithHistory(recorder)}
	if b.Output != "" {
		opts = append(opts, site.WithOutputDir(b.Output))
	}
	builder := site.NewBuilder(cfg, opts...)

	ctx, cancel := signalContext()
	defer cancel()

	report, err := builder.Build(ctx)
	if report != nil {
		printReport(g.out(), builder.OutputDir(), report)
	}
	return err
}

func printReport(w io.Writer, outputDir string, r *site.Report) {
	_, _ = fmt.Fprintf(w, "Built %d pages into %s (%s in %s)\n",
		len(r.Pages), outputDir, r.Outcome, r.Duration.Round(time.Millisecond))
	for _, warning := range r.Warnings {
		_, _ = fmt.Fprintf(w, "  warning: %v\n", warning)
	}
	for _, id := range r.Missing {
		_, _ = fmt.Fprintf(w, "  missing page for chapter %q\n", id)
	}
	for _, bl := range r.BrokenLinks {
		_, _ = fmt.Fprintf(w, "  broken link in %s: %s (%s)\n", bl.Page, bl.URL, bl.Reason)
	}
	for _, p := range r.Failed {
		_, _ = fmt.Fprintf(w, "  failed: %s\n", p)
	}
}
