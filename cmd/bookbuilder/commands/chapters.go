package commands

import (
	"fmt"
	"text/tabwriter"

	"git.home.luguber.info/inful/bookbuilder/internal/chapters"
)

// ChaptersCmd implements the 'chapters' command.
type ChaptersCmd struct{}

func (c *ChaptersCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	index, err := chapters.Load(cfg.ChaptersPath())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ORDINAL\tID\tTITLE")
	for _, r := range index.Records() {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", r.Ordinal, r.ID, r.Title)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.out(), "%d chapters in %s\n", index.Len(), index.Source())
	return nil
}
