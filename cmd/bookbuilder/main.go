package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/bookbuilder/cmd/bookbuilder/commands"
	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], commands.NewGlobal(), os.Stderr))
}

// run parses args, executes the selected command and returns the exit code.
func run(args []string, g *commands.Global, stderr io.Writer) int {
	var cli commands.CLI
	parser, err := kong.New(&cli,
		kong.Name("bookbuilder"),
		kong.Description("Build a static HTML book from a manuscript directory."),
		kong.Vars{"version": version.String()},
		kong.Writers(g.Out, stderr),
		kong.Bind(g),
	)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "bookbuilder: %v\n", err)
		return ferrors.ExitInternal
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "bookbuilder: %v\n", err)
		return ferrors.ExitUsage
	}
	err = ctx.Run(&cli)
	return ferrors.NewCLIErrorAdapter(cli.Verbose, g.Logger).HandleError(err)
}
