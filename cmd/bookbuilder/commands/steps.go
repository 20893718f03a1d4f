package commands

import (
	"fmt"
	"os"

	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
	"git.home.luguber.info/inful/bookbuilder/internal/site"
	"git.home.luguber.info/inful/bookbuilder/internal/steps"
)

// StepsCmd implements the 'steps' command.
type StepsCmd struct {
	Format string `short:"f" help:"Output format: text (txt), mermaid (mmd)" default:"text"`
	Output string `short:"o" help:"Output file path (prints to stdout if not specified)"`
}

// Run prints the page step pipeline as configured.
func (s *StepsCmd) Run(g *Global, root *CLI) error {
	format, err := steps.ParseFormat(s.Format)
	if err != nil {
		return err
	}
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	pl, err := site.NewBuilder(cfg, site.WithLogger(g.Logger)).Pipeline()
	if err != nil {
		return err
	}
	output, err := steps.Visualize(pl, format)
	if err != nil {
		return ferrors.InternalError("failed to visualize pipeline").WithCause(err).Build()
	}

	if s.Output == "" {
		_, _ = fmt.Fprint(g.out(), output)
		return nil
	}
	if err := os.WriteFile(s.Output, []byte(output), 0o644); err != nil {
		return ferrors.FileSystemError("failed to write output file").
			WithContext("path", s.Output).
			WithCause(err).
			Build()
	}
	g.Logger.Info("Pipeline visualization written", logfields.Path(s.Output), "format", string(format))
	return nil
}
