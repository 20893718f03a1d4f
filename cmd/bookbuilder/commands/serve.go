package commands

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
	"git.home.luguber.info/inful/bookbuilder/internal/preview"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Host     string        `help:"Interface to listen on" default:"127.0.0.1"`
	Port     int           `short:"p" help:"Port to listen on (overrides preview.port)"`
	Debounce time.Duration `help:"Delay between the last change and a rebuild" default:"300ms"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	if s.Port != 0 {
		cfg.Preview.Port = s.Port
	}

	// Preview pages carry the reload script, so they never go to the real
	// output directory.
	tmpOut, err := os.MkdirTemp("", "bookbuilder-preview-*")
	if err != nil {
		return ferrors.FileSystemError("failed to create preview output directory").WithCause(err).Build()
	}
	defer func() {
		if err := os.RemoveAll(tmpOut); err != nil {
			g.Logger.Warn("Failed to remove preview output", logfields.Path(tmpOut), logfields.Error(err))
		}
	}()

	recorder, closeHistory := openHistory(cfg, g.Logger)
	defer closeHistory()

	srv := preview.New(cfg, preview.Options{
		OutputDir: tmpOut,
		Logger:    g.Logger,
		History:   recorder,
		Debounce:  s.Debounce,
	})

	ctx, cancel := signalContext()
	defer cancel()

	addr := net.JoinHostPort(s.Host, strconv.Itoa(cfg.Preview.Port))
	_, _ = fmt.Fprintf(g.out(), "Previewing %q at http://%s (Ctrl+C to stop)\n", cfg.Site.Title, addr)
	return srv.Run(ctx, addr)
}
