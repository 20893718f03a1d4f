package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/bookbuilder/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" help:"Number of builds to show (0 shows all)" default:"10"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	path := cfg.HistoryPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if !cfg.History.Enabled {
			_, _ = fmt.Fprintln(g.out(), "Build history is disabled (set history.enabled: true).")
			return nil
		}
		_, _ = fmt.Fprintln(g.out(), "No builds recorded.")
		return nil
	}

	store, err := history.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	summaries, err := history.Summaries(context.Background(), store, h.Limit)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		_, _ = fmt.Fprintln(g.out(), "No builds recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "BUILD\tSTATUS\tSTARTED\tDURATION\tPAGES\tWARNINGS\tERRORS")
	for _, s := range summaries {
		duration := "-"
		if s.CompletedAt != nil {
			duration = s.Duration.Round(time.Millisecond).String()
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			s.BuildID, s.Status, s.StartedAt.Local().Format(time.DateTime), duration,
			s.Pages, s.Warnings, s.Errors)
	}
	return tw.Flush()
}
